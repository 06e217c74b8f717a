package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"reel/internal/effects"
	"reel/internal/logging"
	"reel/internal/services"
	"reel/internal/timeline"
)

// DefaultQueueCapacity bounds the frames waiting for the compositor worker.
const DefaultQueueCapacity = 8

type itemKind int

const (
	itemStream itemKind = iota
	itemFrame
	itemEnd
)

type item struct {
	kind   itemKind
	frame  Frame
	stream streamInfo
}

type streamInfo struct {
	kind   timeline.InputType
	format Format
	chain  effects.Chain
}

// Compositor is the in-process Graph. A single worker drains a bounded queue,
// so events reach the listener in input order.
type Compositor struct {
	cfg    Config
	exec   Executor
	logger *slog.Logger

	items   chan item
	end     chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	endOnce sync.Once

	// worker state
	current      *streamInfo
	streamIndex  int
	outputSize   effects.Size
	nextIndex    int
	lastRenderNs int64
	haveRender   bool
	failed       bool
}

// NewCompositor starts a compositor worker. Listener is required.
func NewCompositor(cfg Config, queueCapacity int) (*Compositor, error) {
	if cfg.Listener == nil {
		return nil, services.Wrap(services.ErrValidation, "graph", "create compositor", "listener is required", nil)
	}
	if queueCapacity < 1 {
		queueCapacity = DefaultQueueCapacity
	}
	exec := cfg.ListenerExecutor
	if exec == nil {
		exec = DirectExecutor{}
	}
	c := &Compositor{
		cfg:         cfg,
		exec:        exec,
		logger:      logging.NewComponentLogger(cfg.Logger, "compositor"),
		items:       make(chan item, queueCapacity),
		end:         make(chan struct{}),
		done:        make(chan struct{}),
		streamIndex: -1,
	}
	c.wg.Add(1)
	go c.run()
	return c, nil
}

// NewCompositorFactory returns a Factory producing Compositors.
func NewCompositorFactory(queueCapacity int) Factory {
	return FactoryFunc(func(cfg Config) (Graph, error) {
		return NewCompositor(cfg, queueCapacity)
	})
}

func (c *Compositor) RegisterInputStream(kind timeline.InputType, format Format, chain effects.Chain) error {
	if !kind.Valid() {
		return services.Wrap(services.ErrValidation, "graph", "register input stream", fmt.Sprintf("unknown input type %d", int(kind)), nil)
	}
	select {
	case <-c.done:
		return services.IllegalState("graph", "register input stream", "compositor released")
	default:
	}
	select {
	case c.items <- item{kind: itemStream, stream: streamInfo{kind: kind, format: format, chain: chain}}:
		return nil
	default:
		return ErrBusy
	}
}

func (c *Compositor) QueueFrame(frame Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.items <- item{kind: itemFrame, frame: frame}:
		return true
	default:
		return false
	}
}

// SignalEndOfInput never waits on the queue. The worker finishes what is
// already queued before it reports the end.
func (c *Compositor) SignalEndOfInput() {
	c.endOnce.Do(func() { close(c.end) })
}

// Release stops the worker. Items still queued are discarded.
func (c *Compositor) Release() {
	c.once.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
}

func (c *Compositor) run() {
	defer c.wg.Done()
	end := c.end
	for {
		select {
		case <-c.done:
			return
		case it := <-c.items:
			c.process(it)
		case <-end:
			end = nil
			if !c.drain() {
				return
			}
			c.process(item{kind: itemEnd})
		}
	}
}

// drain processes whatever is queued. It reports false if the compositor was
// released meanwhile.
func (c *Compositor) drain() bool {
	for {
		select {
		case <-c.done:
			return false
		case it := <-c.items:
			c.process(it)
		default:
			return true
		}
	}
}

func (c *Compositor) process(it item) {
	if c.failed {
		return
	}
	switch it.kind {
	case itemStream:
		c.beginStream(it.stream)
	case itemFrame:
		c.composite(it.frame)
	case itemEnd:
		final := int64(0)
		if c.haveRender {
			final = c.lastRenderNs / 1000
		}
		c.logger.Debug("end of input", logging.Int("frames", c.nextIndex), logging.Int64("final_presentation_us", final))
		c.exec.Execute(func() { c.cfg.Listener.OnEnded(final) })
	}
}

func (c *Compositor) beginStream(info streamInfo) {
	if !info.format.Size().Valid() {
		c.fail(&services.SinkError{
			Format:         info.format.String(),
			PresentationUs: -1,
			Err:            errors.New("input stream has no usable dimensions"),
		})
		return
	}
	size := c.cfg.CompositionEffects.OutputSize(info.chain.OutputSize(info.format.Size()))
	if !size.Valid() {
		c.fail(&services.SinkError{
			Format:         info.format.String(),
			PresentationUs: -1,
			Err:            fmt.Errorf("effects %s produce empty output", info.chain),
		})
		return
	}
	c.current = &info
	c.streamIndex++
	if size != c.outputSize {
		c.outputSize = size
		c.exec.Execute(func() { c.cfg.Listener.OnOutputSizeChanged(size) })
	}
}

func (c *Compositor) composite(frame Frame) {
	if c.current == nil {
		c.fail(&services.SinkError{
			PresentationUs: frame.PresentationUs,
			Err:            errors.New("frame queued before any input stream"),
		})
		return
	}
	// Render times may move backwards when the stream offset is lowered.
	c.lastRenderNs = frame.RenderTimeNs
	c.haveRender = true

	frame.Index = c.nextIndex
	frame.StreamIndex = c.streamIndex
	frame.Kind = c.current.kind
	frame.Size = c.outputSize
	c.nextIndex++
	c.exec.Execute(func() { c.cfg.Listener.OnOutputFrameAvailable(frame) })
}

func (c *Compositor) fail(err error) {
	c.failed = true
	c.logger.Warn("compositor rejected input", logging.Error(err))
	c.exec.Execute(func() { c.cfg.Listener.OnError(err) })
}
