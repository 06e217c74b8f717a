package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"reel/internal/compositing"
	"reel/internal/config"
	"reel/internal/effects"
	"reel/internal/graph"
	"reel/internal/history"
	"reel/internal/logging"
	"reel/internal/release"
	"reel/internal/sequencer"
	"reel/internal/services"
	"reel/internal/source"
	"reel/internal/timeline"
	"reel/internal/videosink"
)

// Result summarizes a finished export or playback session.
type Result struct {
	SessionID           string
	VideoFrameCount     int
	DurationMs          int64
	RequestedDurationUs int64
	FinalPresentationUs int64
	Released            int
	Forced              int
	Dropped             int
	Ignored             int
	OutputSize          effects.Size
	Entries             []sequencer.EntryTally
}

// Option customizes an Exporter or Player.
type Option func(*Exporter)

// WithGraphFactory replaces the in-process compositor.
func WithGraphFactory(f graph.Factory) Option {
	return func(e *Exporter) {
		if f != nil {
			e.factory = f
		}
	}
}

// WithHistory records every session in store.
func WithHistory(store *history.Store) Option {
	return func(e *Exporter) { e.history = store }
}

// WithCompositionPath is recorded with the session in history.
func WithCompositionPath(path string) Option {
	return func(e *Exporter) { e.compositionPath = path }
}

// Exporter runs compositions as fast as the graph accepts frames.
type Exporter struct {
	cfg             *config.Config
	resolver        source.Resolver
	logger          *slog.Logger
	factory         graph.Factory
	history         *history.Store
	compositionPath string
}

// New returns an exporter for cfg. resolver turns entry sources into frames.
func New(cfg *config.Config, resolver source.Resolver, logger *slog.Logger, opts ...Option) *Exporter {
	e := &Exporter{
		cfg:      cfg,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "export"),
		factory:  graph.NewCompositorFactory(cfg.Graph.QueueCapacity),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OutputFormat is the composited output format configured in cfg.
func OutputFormat(cfg *config.Config) graph.Format {
	return graph.Format{
		MimeType:  cfg.Output.MimeType,
		Width:     cfg.Output.Width,
		Height:    cfg.Output.Height,
		FrameRate: cfg.Output.FrameRate,
		Color: graph.ColorInfo{
			Space:    cfg.Output.ColorSpace,
			Range:    cfg.Output.ColorRange,
			Transfer: cfg.Output.ColorTransfer,
		},
	}
}

// Thresholds converts the configured release thresholds.
func Thresholds(cfg *config.Config) release.Thresholds {
	return release.Thresholds{
		LateUs:            cfg.Release.LateThresholdUs,
		VeryLateUs:        cfg.Release.VeryLateThresholdUs,
		ForceReleaseGapUs: cfg.Release.ForceReleaseGapUs,
	}
}

// Run exports comp into out and blocks until the graph has emitted its final
// frame, a failure is reported, or ctx ends.
func (e *Exporter) Run(ctx context.Context, comp timeline.Composition, out Output) (Result, error) {
	return e.session(ctx, history.ModeExport, comp, out, func(renderer videosink.Renderer) (videosink.Clock, videosink.Renderer, func()) {
		return videosink.NewFrameClock(), renderer, func() {}
	})
}

// clockFactory picks the clock and wraps the output renderer for a mode. The
// returned start func runs just before the first frame is registered.
type clockFactory func(renderer videosink.Renderer) (videosink.Clock, videosink.Renderer, func())

func (e *Exporter) session(ctx context.Context, mode history.Mode, comp timeline.Composition, out Output, clocks clockFactory) (Result, error) {
	if out == nil {
		out = Discard{}
	}
	sessionID := uuid.NewString()
	ctx = services.WithSessionID(ctx, sessionID)
	logger := logging.WithContext(ctx, e.logger)

	record := &history.Session{
		ID:              sessionID,
		Composition:     comp.Name,
		CompositionPath: e.compositionPath,
		Mode:            mode,
		OutputWidth:     e.cfg.Output.Width,
		OutputHeight:    e.cfg.Output.Height,
	}
	if m, ok := out.(interface{ Path() string }); ok {
		record.ManifestPath = m.Path()
	}
	if e.history != nil {
		if err := e.history.Begin(ctx, record); err != nil {
			return Result{}, fmt.Errorf("record session: %w", err)
		}
	}

	logger.Info("session started",
		logging.String(logging.FieldEventType, "session_start"),
		logging.String("mode", string(mode)),
		logging.String("composition", comp.Name),
		logging.String("output", OutputFormat(e.cfg).String()),
	)
	result, runErr := e.run(ctx, logger, comp, out, clocks)
	result.SessionID = sessionID

	if runErr != nil {
		logging.ErrorWithContext(logger, "session failed", "session_failed",
			logging.Error(runErr),
			logging.String("kind", services.Kind(runErr)),
		)
	} else {
		logger.Info("session finished",
			logging.String(logging.FieldEventType, "session_complete"),
			logging.Int("frames", result.VideoFrameCount),
			logging.Int64("duration_ms", result.DurationMs),
			logging.Int("dropped", result.Dropped),
		)
	}

	if e.history != nil {
		record.FrameCount = result.VideoFrameCount
		record.DurationMs = result.DurationMs
		record.RequestedDurationUs = result.RequestedDurationUs
		record.DroppedFrames = result.Dropped
		record.ForcedFrames = result.Forced
		if size := result.OutputSize; size.Width > 0 {
			record.OutputWidth, record.OutputHeight = size.Width, size.Height
		}
		record.Entries = historyEntries(result.Entries)
		if err := e.history.Finish(context.WithoutCancel(ctx), record, runErr); err != nil {
			logging.WarnWithContext(logger, "failed to record session outcome", "history_write_failed", logging.Error(err))
		}
	}
	return result, runErr
}

func (e *Exporter) run(ctx context.Context, logger *slog.Logger, comp timeline.Composition, out Output, clocks clockFactory) (Result, error) {
	sequences := comp.Sequences()
	if len(sequences) != 1 {
		return Result{}, services.Wrap(services.ErrValidation, "export", "run",
			"exactly one sequence is supported, got "+strconv.Itoa(len(sequences)), nil)
	}

	executor := graph.NewSerialExecutor()
	defer executor.Close()

	outRenderer := &outputRenderer{out: out}
	clock, renderer, start := clocks(outRenderer)

	provider, err := compositing.NewBuilder().
		SetReleaseControl(release.NewControl(release.NewDefaultEvaluator(Thresholds(e.cfg)))).
		SetGraphFactory(e.factory).
		SetCompositionEffects(comp.Effects()).
		SetListenerExecutor(executor).
		SetClock(clock).
		SetRenderer(renderer).
		SetTreatDroppedAsSkipped(e.cfg.Release.TreatDroppedAsSkipped).
		SetLogger(logger).
		Build()
	if err != nil {
		return Result{}, err
	}
	defer provider.Release()
	outRenderer.report = provider.ReportFailure

	sink := provider.Sink()
	if err := sink.Initialize(OutputFormat(e.cfg)); err != nil {
		return Result{}, err
	}

	start()
	tally, err := sequencer.New(sink, provider, e.resolver, logger).Run(ctx, sequences[0])
	if err == nil {
		err = sink.SignalEndOfInput()
	}
	if err != nil {
		provider.ReportFailure(err)
	}

	select {
	case <-provider.Ended():
		// Events are delivered in order, so a failure raised by an earlier
		// frame is already pending.
		select {
		case err = <-provider.Failures():
		default:
			err = nil
		}
	case err = <-provider.Failures():
	case <-ctx.Done():
		err = ctx.Err()
	}

	stats := sink.Stats()
	result := Result{
		VideoFrameCount:     tally.Frames(),
		DurationMs:          tally.RealizedDurationMs(),
		RequestedDurationUs: tally.RequestedDurationUs,
		FinalPresentationUs: provider.FinalPresentationUs(),
		Released:            stats.Released,
		Forced:              stats.Forced,
		Dropped:             stats.Dropped,
		Ignored:             stats.Ignored,
		OutputSize:          provider.OutputSize(),
		Entries:             tally.Entries,
	}
	return result, err
}

func historyEntries(entries []sequencer.EntryTally) []history.Entry {
	out := make([]history.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, history.Entry{
			Index:      e.Index,
			Source:     e.Source,
			Kind:       e.Kind.String(),
			StartUs:    e.StartUs,
			DurationUs: e.DurationUs,
			FrameCount: e.Frames,
		})
	}
	return out
}
