package videosink

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"reel/internal/effects"
	"reel/internal/graph"
	"reel/internal/logging"
	"reel/internal/release"
	"reel/internal/services"
	"reel/internal/timeline"
)

// TimeUnset is returned by RegisterInputFrame when the graph could not accept
// the frame. The caller retries the same frame later.
const TimeUnset int64 = math.MinInt64

// LifecycleState of a Sink. Transitions only move forward.
type LifecycleState int

const (
	StateUninitialized LifecycleState = iota
	StateInitialized
	StateReleased
)

func (s LifecycleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Host owns the compositing graph a sink forwards to.
type Host interface {
	// Graph returns the session graph, creating it on first use.
	Graph(output graph.Format) (graph.Graph, error)
}

// Stats counts release outcomes on the output side.
type Stats struct {
	Released int
	Forced   int
	Dropped  int
	Ignored  int
}

// Option customizes a Sink.
type Option func(*Sink)

// WithClock sets the clock used for release decisions. Default: FrameClock.
func WithClock(clock Clock) Option {
	return func(s *Sink) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRenderer sets the frame consumer. Default: NopRenderer.
func WithRenderer(r Renderer) Option {
	return func(s *Sink) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithLogger sets the sink logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logging.NewComponentLogger(logger, "videosink")
	}
}

// WithTreatDroppedAsSkipped reports very late frames as ignored.
func WithTreatDroppedAsSkipped(enabled bool) Option {
	return func(s *Sink) { s.treatDroppedAsSkipped = enabled }
}

// Sink is the single video sink of a compositing session.
type Sink struct {
	offset *StreamOffset
	logger *slog.Logger

	// control and output are read by the output side without mu, which the
	// input side may hold while the graph drains.
	control atomic.Pointer[release.Control]
	output  atomic.Pointer[graph.Format]

	mu    sync.Mutex
	state LifecycleState
	host  Host
	graph graph.Graph

	outMu                 sync.Mutex
	clock                 Clock
	renderer              Renderer
	treatDroppedAsSkipped bool
	releasedAny           bool
	lastReleaseRealtimeUs int64
	stats                 Stats
}

// New returns an uninitialized sink reading offsets from offset.
func New(offset *StreamOffset, opts ...Option) *Sink {
	if offset == nil {
		offset = NewStreamOffset(0)
	}
	s := &Sink{
		offset:   offset,
		logger:   logging.NewComponentLogger(nil, "videosink"),
		clock:    NewFrameClock(),
		renderer: NopRenderer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AttachHost sets the graph owner. It must precede Initialize.
func (s *Sink) AttachHost(h Host) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.host = h
}

// SetReleaseControl attaches the release policy. It must precede Initialize.
func (s *Sink) SetReleaseControl(c *release.Control) {
	s.control.Store(c)
}

func (s *Sink) State() LifecycleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Output returns the format passed to Initialize.
func (s *Sink) Output() graph.Format {
	if f := s.output.Load(); f != nil {
		return *f
	}
	return graph.Format{}
}

// Initialize moves the sink from uninitialized to initialized and obtains the
// graph from the host.
func (s *Sink) Initialize(output graph.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return services.IllegalState("videosink", "initialize", "sink is "+s.state.String())
	}
	if s.control.Load() == nil {
		return services.IllegalState("videosink", "initialize", "no release control attached")
	}
	if s.host == nil {
		return services.IllegalState("videosink", "initialize", "no compositing host attached")
	}
	g, err := s.host.Graph(output)
	if err != nil {
		return &services.SinkError{Format: output.String(), PresentationUs: -1, Err: err}
	}
	s.graph = g
	s.output.Store(&output)
	s.state = StateInitialized
	s.logger.Debug("sink initialized", logging.String("format", output.String()))
	return nil
}

// RegisterInputStream declares the source kind and format of the frames that
// follow. It returns graph.ErrBusy unwrapped when the graph is full.
func (s *Sink) RegisterInputStream(kind timeline.InputType, format graph.Format, chain effects.Chain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInitialized {
		return services.IllegalState("videosink", "register input stream", "sink is "+s.state.String())
	}
	err := s.graph.RegisterInputStream(kind, format, chain)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, graph.ErrBusy):
		return graph.ErrBusy
	default:
		return &services.SinkError{Format: format.String(), PresentationUs: -1, Err: err}
	}
}

// RegisterInputFrame computes the render time of a frame from its
// presentation time and the offset in effect now, then forwards it to the
// graph. It returns TimeUnset without forwarding when the graph is full.
func (s *Sink) RegisterInputFrame(presentationUs int64, last bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInitialized {
		return TimeUnset, services.IllegalState("videosink", "register input frame", "sink is "+s.state.String())
	}
	renderNs := (presentationUs + s.offset.Load()) * 1000
	frame := graph.Frame{PresentationUs: presentationUs, RenderTimeNs: renderNs, Last: last}
	if !s.graph.QueueFrame(frame) {
		return TimeUnset, nil
	}
	return renderNs, nil
}

// SignalEndOfInput tells the graph no more frames follow.
func (s *Sink) SignalEndOfInput() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInitialized {
		return services.IllegalState("videosink", "signal end of input", "sink is "+s.state.String())
	}
	s.graph.SignalEndOfInput()
	return nil
}

// Release is safe to call more than once and from any goroutine. The graph
// itself belongs to the host.
func (s *Sink) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateReleased {
		return
	}
	s.state = StateReleased
	s.graph = nil
	s.logger.Debug("sink released")
}

// OnOutputFrame decides the fate of a composited frame and hands it to the
// renderer. It runs on the graph listener executor.
func (s *Sink) OnOutputFrame(frame graph.Frame) (release.Verdict, error) {
	control := s.control.Load()
	if control == nil {
		return release.VerdictDrop, services.IllegalState("videosink", "output frame", "no release control attached")
	}

	s.outMu.Lock()
	defer s.outMu.Unlock()

	renderUs := frame.RenderTimeUs()
	if fc, ok := s.clock.(*FrameClock); ok {
		fc.Advance(renderUs)
	}
	positionUs := s.clock.PositionUs()
	nowUs := s.clock.RealtimeUs()
	earlyUs := renderUs - positionUs

	var sinceLast int64
	if s.releasedAny {
		sinceLast = nowUs - s.lastReleaseRealtimeUs
	}

	verdict := control.Decide(release.Timing{
		EarlyUs:                   earlyUs,
		ElapsedSinceLastReleaseUs: sinceLast,
		ElapsedRealtimeUs:         nowUs,
		PositionUs:                positionUs,
		FirstFrame:                !s.releasedAny,
		Last:                      frame.Last,
		TreatDroppedAsSkipped:     s.treatDroppedAsSkipped,
	})

	switch verdict {
	case release.VerdictForce, release.VerdictNormal:
		releaseUs := nowUs
		if verdict == release.VerdictNormal && earlyUs > 0 {
			releaseUs = nowUs + earlyUs
		}
		if err := s.renderer.ReleaseFrame(frame, releaseUs*1000); err != nil {
			return verdict, &services.SinkError{Format: s.Output().String(), PresentationUs: renderUs, Err: err}
		}
		s.releasedAny = true
		s.lastReleaseRealtimeUs = nowUs
		s.stats.Released++
		if verdict == release.VerdictForce {
			s.stats.Forced++
		}
	case release.VerdictDrop:
		s.renderer.DropFrame(frame)
		s.stats.Dropped++
		logging.WarnWithContext(s.logger, "late frame dropped", "frame_drop",
			logging.Int("frame", frame.Index),
			logging.Int64("early_us", earlyUs),
			logging.String(logging.FieldErrorHint, "playback is falling behind the compositor"),
		)
	case release.VerdictIgnore:
		s.renderer.SkipFrame(frame)
		s.stats.Ignored++
	}
	return verdict, nil
}

// Stats returns a snapshot of release outcomes.
func (s *Sink) Stats() Stats {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return s.stats
}
