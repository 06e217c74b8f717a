package compositing

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"reel/internal/effects"
	"reel/internal/graph"
	"reel/internal/release"
	"reel/internal/services"
	"reel/internal/videosink"
)

// Builder assembles a Provider. Configuring methods return the builder for
// chaining; calling one after Build records an error that Err reports.
type Builder struct {
	built atomic.Bool

	mu                    sync.Mutex
	err                   error
	control               *release.Control
	factory               graph.Factory
	initialOffsetUs       int64
	compositionEffects    effects.Chain
	executor              graph.Executor
	clock                 videosink.Clock
	renderer              videosink.Renderer
	treatDroppedAsSkipped bool
	logger                *slog.Logger
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) configure(op string, fn func()) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built.Load() {
		if b.err == nil {
			b.err = services.IllegalState("compositing", op, "builder already built")
		}
		return b
	}
	fn()
	return b
}

// SetReleaseControl attaches the release policy handed to the sink.
func (b *Builder) SetReleaseControl(c *release.Control) *Builder {
	return b.configure("set release control", func() { b.control = c })
}

// SetGraphFactory selects how the graph is created. Default: an in-process
// Compositor.
func (b *Builder) SetGraphFactory(f graph.Factory) *Builder {
	return b.configure("set graph factory", func() { b.factory = f })
}

// SetInitialOffsetUs seeds the stream offset and the graph configuration.
func (b *Builder) SetInitialOffsetUs(us int64) *Builder {
	return b.configure("set initial offset", func() { b.initialOffsetUs = us })
}

// SetCompositionEffects sets effects applied after all sequences merge.
func (b *Builder) SetCompositionEffects(chain effects.Chain) *Builder {
	return b.configure("set composition effects", func() {
		b.compositionEffects = append(effects.Chain(nil), chain...)
	})
}

// SetListenerExecutor sets where graph callbacks run. Default: inline.
func (b *Builder) SetListenerExecutor(e graph.Executor) *Builder {
	return b.configure("set listener executor", func() { b.executor = e })
}

func (b *Builder) SetClock(c videosink.Clock) *Builder {
	return b.configure("set clock", func() { b.clock = c })
}

func (b *Builder) SetRenderer(r videosink.Renderer) *Builder {
	return b.configure("set renderer", func() { b.renderer = r })
}

func (b *Builder) SetTreatDroppedAsSkipped(enabled bool) *Builder {
	return b.configure("set treat dropped as skipped", func() { b.treatDroppedAsSkipped = enabled })
}

func (b *Builder) SetLogger(logger *slog.Logger) *Builder {
	return b.configure("set logger", func() { b.logger = logger })
}

// Err reports a configuration call made after Build.
func (b *Builder) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Build creates the provider. It succeeds at most once per builder.
func (b *Builder) Build() (*Provider, error) {
	if !b.built.CompareAndSwap(false, true) {
		return nil, services.IllegalState("compositing", "build", "builder already built")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	factory := b.factory
	if factory == nil {
		factory = graph.NewCompositorFactory(graph.DefaultQueueCapacity)
	}
	executor := b.executor
	if executor == nil {
		executor = graph.DirectExecutor{}
	}

	p := &Provider{
		offset:             videosink.NewStreamOffset(b.initialOffsetUs),
		factory:            factory,
		executor:           executor,
		compositionEffects: b.compositionEffects,
		initialOffsetUs:    b.initialOffsetUs,
		logger:             b.logger,
		failures:           make(chan error, 1),
		ended:              make(chan struct{}),
	}
	p.sink = videosink.New(p.offset,
		videosink.WithClock(b.clock),
		videosink.WithRenderer(b.renderer),
		videosink.WithTreatDroppedAsSkipped(b.treatDroppedAsSkipped),
		videosink.WithLogger(b.logger),
	)
	p.sink.AttachHost(p)
	if b.control != nil {
		p.sink.SetReleaseControl(b.control)
	}
	return p, nil
}
