package sequencer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reel/internal/effects"
	"reel/internal/graph"
	"reel/internal/logging"
	"reel/internal/services"
	"reel/internal/source"
	"reel/internal/synth"
	"reel/internal/timeline"
	"reel/internal/videosink"
)

const (
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// FrameSink is the input side of a video sink.
type FrameSink interface {
	RegisterInputStream(kind timeline.InputType, format graph.Format, chain effects.Chain) error
	RegisterInputFrame(presentationUs int64, last bool) (int64, error)
}

// OffsetSetter moves the stream offset applied to registered frames.
type OffsetSetter interface {
	SetStreamOffsetUs(us int64)
}

// Sequencer drives one sequence into a sink.
type Sequencer struct {
	sink     FrameSink
	offsets  OffsetSetter
	resolver source.Resolver
	logger   *slog.Logger
}

// New returns a sequencer. offsets may be nil when the sink ignores offsets.
func New(sink FrameSink, offsets OffsetSetter, resolver source.Resolver, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		sink:     sink,
		offsets:  offsets,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "sequencer"),
	}
}

// Prepare resolves every entry's source and fills in durations of video
// entries that did not request one.
func Prepare(ctx context.Context, seq timeline.Sequence, resolver source.Resolver) (timeline.Sequence, []source.Source, error) {
	if resolver == nil {
		return timeline.Sequence{}, nil, services.Wrap(services.ErrConfiguration, "sequencer", "prepare", "no source resolver", nil)
	}
	sources := make([]source.Source, seq.Len())
	prepared, err := seq.Map(func(i int, entry timeline.Entry) (timeline.Entry, error) {
		src, err := resolver.Resolve(ctx, entry.Source())
		if err != nil {
			return entry, err
		}
		sources[i] = src
		if entry.HasDuration() || entry.IsImage() {
			return entry, nil
		}
		return entry.WithDurationUs(src.DurationUs()), nil
	})
	if err != nil {
		return timeline.Sequence{}, nil, err
	}
	if err := prepared.Validate(); err != nil {
		return timeline.Sequence{}, nil, services.Wrap(services.ErrValidation, "sequencer", "prepare", "", err)
	}
	return prepared, sources, nil
}

// Run feeds seq into the sink. It fails on the first entry that yields no
// frames and never skips or reorders frames.
func (s *Sequencer) Run(ctx context.Context, seq timeline.Sequence) (Tally, error) {
	prepared, sources, err := Prepare(ctx, seq, s.resolver)
	if err != nil {
		return Tally{}, err
	}

	tally := Tally{RequestedDurationUs: prepared.RequestedDurationUs()}
	var startUs int64
	for i, entry := range prepared.Entries() {
		entryCtx := services.WithSource(services.WithEntryIndex(ctx, i), entry.Source())
		result, err := s.runEntry(entryCtx, i, entry, sources[i], startUs)
		if err != nil {
			return tally, err
		}
		tally.add(result)
		entryLogger := logging.WithContext(entryCtx, s.logger)
		if result.SkippedFrames > 0 {
			logging.WarnWithContext(entryLogger, "decoded frames before source start skipped", "frames_skipped",
				logging.Int("skipped", result.SkippedFrames),
				logging.Int("frames", result.Frames),
			)
		}
		entryLogger.Debug("entry sequenced",
			logging.String("kind", entry.Kind().String()),
			logging.Int("frames", result.Frames),
			logging.Int64("start_us", startUs),
		)
		startUs += entry.DurationUs()
	}
	return tally, nil
}

// runEntry registers one entry as its own input stream. The final frame of
// every stream is flagged last so release control always holds it.
func (s *Sequencer) runEntry(ctx context.Context, index int, entry timeline.Entry, src source.Source, startUs int64) (EntryTally, error) {
	frames, err := s.frames(ctx, entry, src)
	if err != nil {
		return EntryTally{}, exhausted(index, entry, err)
	}
	first, ok, err := frames.next(ctx)
	if err != nil {
		return EntryTally{}, exhausted(index, entry, err)
	}
	if !ok {
		return EntryTally{}, exhausted(index, entry, nil)
	}

	if s.offsets != nil {
		s.offsets.SetStreamOffsetUs(startUs)
	}
	format := src.Format()
	if entry.IsImage() && format.FrameRate == 0 {
		format.FrameRate = entry.FrameRate()
	}
	if err := s.registerStream(ctx, entry.Kind(), format, entry.Effects()); err != nil {
		return EntryTally{}, err
	}

	result := EntryTally{
		Index:      index,
		Source:     entry.Source(),
		Kind:       entry.Kind(),
		StartUs:    startUs,
		DurationUs: entry.DurationUs(),
		FrameRate:  format.FrameRate,
	}
	current := first
	for {
		upcoming, more, err := frames.next(ctx)
		if err != nil {
			return result, err
		}
		if err := s.register(ctx, current, !more); err != nil {
			return result, err
		}
		result.Frames++
		result.LastPresentationUs = current
		if !more {
			result.SkippedFrames = frames.skipped()
			return result, nil
		}
		current = upcoming
	}
}

// register retries while the sink reports a busy graph.
func (s *Sequencer) register(ctx context.Context, presentationUs int64, last bool) error {
	return retryBusy(ctx, func() (bool, error) {
		renderNs, err := s.sink.RegisterInputFrame(presentationUs, last)
		return renderNs == videosink.TimeUnset, err
	})
}

func (s *Sequencer) registerStream(ctx context.Context, kind timeline.InputType, format graph.Format, chain effects.Chain) error {
	return retryBusy(ctx, func() (bool, error) {
		err := s.sink.RegisterInputStream(kind, format, chain)
		if errors.Is(err, graph.ErrBusy) {
			return true, nil
		}
		return false, err
	})
}

// retryBusy calls attempt until it reports the sink was not busy, backing off
// between attempts.
func retryBusy(ctx context.Context, attempt func() (busy bool, err error)) error {
	delay := busyRetryInitialBackoff
	for {
		busy, err := attempt()
		if err != nil {
			return err
		}
		if !busy {
			return nil
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
}

type frameIter interface {
	next(ctx context.Context) (int64, bool, error)
	skipped() int
}

type syntheticFrames struct{ gen *synth.Generator }

func (f syntheticFrames) next(context.Context) (int64, bool, error) {
	rec, ok := f.gen.Next()
	return rec.PresentationTimeUs, ok, nil
}

func (syntheticFrames) skipped() int { return 0 }

// decodedFrames trims decoder output to the entry's requested duration.
type decodedFrames struct {
	dec        source.Decoder
	durationUs int64
	done       bool
	negative   int
}

func (f *decodedFrames) next(ctx context.Context) (int64, bool, error) {
	for !f.done {
		pts, ok, err := f.dec.Next(ctx)
		if err != nil {
			return 0, false, err
		}
		if !ok || pts >= f.durationUs {
			f.done = true
			break
		}
		if pts < 0 {
			f.negative++
			continue
		}
		return pts, true, nil
	}
	return 0, false, nil
}

func (f *decodedFrames) skipped() int { return f.negative }

func (s *Sequencer) frames(ctx context.Context, entry timeline.Entry, src source.Source) (frameIter, error) {
	if entry.IsImage() {
		gen, err := synth.NewGenerator(entry)
		if err != nil {
			return nil, err
		}
		return syntheticFrames{gen: gen}, nil
	}
	dec, err := src.Decoder(ctx)
	if err != nil {
		return nil, err
	}
	return &decodedFrames{dec: dec, durationUs: entry.DurationUs()}, nil
}

func exhausted(index int, entry timeline.Entry, cause error) error {
	if cause != nil && !errors.Is(cause, services.ErrSourceExhausted) {
		return cause
	}
	return &services.SourceExhaustedError{EntryIndex: index, Source: entry.Source(), Err: cause}
}

type discardSink struct{}

func (discardSink) RegisterInputStream(timeline.InputType, graph.Format, effects.Chain) error {
	return nil
}

func (discardSink) RegisterInputFrame(presentationUs int64, _ bool) (int64, error) {
	return presentationUs * 1000, nil
}

// Plan counts frames and durations without a sink.
func Plan(ctx context.Context, seq timeline.Sequence, resolver source.Resolver, logger *slog.Logger) (Tally, error) {
	return New(discardSink{}, nil, resolver, logger).Run(ctx, seq)
}
