package compositing

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"reel/internal/effects"
	"reel/internal/graph"
	"reel/internal/logging"
	"reel/internal/release"
	"reel/internal/services"
	"reel/internal/videosink"
)

// Provider owns one sink and at most one graph for a session.
type Provider struct {
	offset             *videosink.StreamOffset
	sink               *videosink.Sink
	factory            graph.Factory
	executor           graph.Executor
	compositionEffects effects.Chain
	initialOffsetUs    int64
	logger             *slog.Logger

	graphMu      sync.Mutex
	graph        graph.Graph
	graphErr     error
	graphCreated bool
	released     atomic.Bool

	failures chan error

	endOnce    sync.Once
	ended      chan struct{}
	finalUs    atomic.Int64
	outputSize atomic.Pointer[effects.Size]
}

// Sink returns the provider's only sink.
func (p *Provider) Sink() *videosink.Sink { return p.sink }

// SetReleaseControl attaches release control after build. It must happen
// before the sink is initialized.
func (p *Provider) SetReleaseControl(c *release.Control) {
	p.sink.SetReleaseControl(c)
}

// SetStreamOffsetUs changes the offset applied to frames registered from now
// on. Frames already registered keep their render time.
func (p *Provider) SetStreamOffsetUs(us int64) { p.offset.Store(us) }

func (p *Provider) StreamOffsetUs() int64 { return p.offset.Load() }

// Graph implements videosink.Host. The factory runs on the first call only;
// a factory failure is returned again on later calls.
func (p *Provider) Graph(output graph.Format) (graph.Graph, error) {
	p.graphMu.Lock()
	defer p.graphMu.Unlock()

	if p.released.Load() {
		return nil, services.IllegalState("compositing", "create graph", "provider released")
	}
	if p.graphCreated {
		return p.graph, p.graphErr
	}
	p.graphCreated = true
	p.graph, p.graphErr = p.factory.Create(graph.Config{
		OutputColor:        output.Color,
		Listener:           p,
		ListenerExecutor:   p.executor,
		CompositionEffects: p.compositionEffects,
		InitialOffsetUs:    p.initialOffsetUs,
		Logger:             p.logger,
	})
	if p.graphErr != nil {
		p.graph = nil
		return nil, p.graphErr
	}
	logging.NewComponentLogger(p.logger, "compositing").Debug("graph created",
		logging.String("output", output.String()),
		logging.String("effects", p.compositionEffects.String()),
	)
	return p.graph, nil
}

// Failures delivers the first failure of the session, whichever goroutine
// observed it.
func (p *Provider) Failures() <-chan error { return p.failures }

// ReportFailure records err unless a failure is already pending.
func (p *Provider) ReportFailure(err error) {
	if err == nil {
		return
	}
	select {
	case p.failures <- err:
	default:
		logging.NewComponentLogger(p.logger, "compositing").Debug("additional failure discarded", logging.Error(err))
	}
}

// Ended is closed once the graph has emitted its last frame.
func (p *Provider) Ended() <-chan struct{} { return p.ended }

// FinalPresentationUs is valid after Ended is closed.
func (p *Provider) FinalPresentationUs() int64 { return p.finalUs.Load() }

// OutputSize returns the latest composited frame size.
func (p *Provider) OutputSize() effects.Size {
	if s := p.outputSize.Load(); s != nil {
		return *s
	}
	return effects.Size{}
}

func (p *Provider) OnOutputSizeChanged(size effects.Size) {
	p.outputSize.Store(&size)
}

func (p *Provider) OnOutputFrameAvailable(frame graph.Frame) {
	if _, err := p.sink.OnOutputFrame(frame); err != nil {
		p.ReportFailure(err)
	}
}

func (p *Provider) OnEnded(finalPresentationUs int64) {
	p.endOnce.Do(func() {
		p.finalUs.Store(finalPresentationUs)
		close(p.ended)
	})
}

func (p *Provider) OnError(err error) {
	p.ReportFailure(err)
}

// Release releases the sink, then the graph. Safe to call repeatedly and from
// any goroutine.
func (p *Provider) Release() {
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	p.sink.Release()

	p.graphMu.Lock()
	g := p.graph
	p.graph = nil
	p.graphMu.Unlock()
	if g != nil {
		g.Release()
	}
}
