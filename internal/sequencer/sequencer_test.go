package sequencer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reel/internal/effects"
	"reel/internal/graph"
	"reel/internal/sequencer"
	"reel/internal/services"
	"reel/internal/source"
	"reel/internal/timeline"
	"reel/internal/videosink"
)

// stillsResolver serves image references as 64x64 stills and defers every
// other reference to videos.
type stillsResolver struct {
	videos source.StaticResolver
}

func (r stillsResolver) Resolve(ctx context.Context, ref string) (source.Source, error) {
	if timeline.InferInputType(ref) == timeline.InputImage {
		return &source.Static{Reference: ref, InputKind: timeline.InputImage, Fmt: graph.Format{MimeType: "image/png", Width: 64, Height: 64}}, nil
	}
	return r.videos.Resolve(ctx, ref)
}

type registeredFrame struct {
	presentationUs int64
	offsetUs       int64
	last           bool
}

type recordingSink struct {
	offsetUs int64
	streams  []timeline.InputType
	formats  []graph.Format
	frames   []registeredFrame
	busy     int
	// busyStreams makes that many stream registrations report a full graph.
	busyStreams int
}

func (s *recordingSink) SetStreamOffsetUs(us int64) { s.offsetUs = us }

func (s *recordingSink) RegisterInputStream(kind timeline.InputType, format graph.Format, _ effects.Chain) error {
	if s.busyStreams > 0 {
		s.busyStreams--
		return graph.ErrBusy
	}
	s.streams = append(s.streams, kind)
	s.formats = append(s.formats, format)
	return nil
}

func (s *recordingSink) RegisterInputFrame(pts int64, last bool) (int64, error) {
	if s.busy > 0 {
		s.busy--
		return videosink.TimeUnset, nil
	}
	s.frames = append(s.frames, registeredFrame{presentationUs: pts, offsetUs: s.offsetUs, last: last})
	return (pts + s.offsetUs) * 1000, nil
}

func image(t *testing.T, ref string, durationUs int64, rate float64) timeline.Entry {
	t.Helper()
	entry, err := timeline.NewEntry(timeline.EntryOptions{Source: ref, DurationUs: durationUs, FrameRate: rate})
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	return entry
}

func video(t *testing.T, ref string, durationUs int64) timeline.Entry {
	t.Helper()
	entry, err := timeline.NewEntry(timeline.EntryOptions{Source: ref, DurationUs: durationUs})
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	return entry
}

func TestAlternatingStillsCountAndDuration(t *testing.T) {
	short := image(t, "short.png", 100_000, 30)
	long := image(t, "long.png", 200_000, 30)

	orders := map[string]timeline.Sequence{
		"short first": timeline.NewSequence(short, long).Repeat(50),
		"long first":  timeline.NewSequence(long, short).Repeat(50),
	}
	for name, seq := range orders {
		t.Run(name, func(t *testing.T) {
			sink := &recordingSink{}
			tally, err := sequencer.New(sink, sink, stillsResolver{}, nil).Run(context.Background(), seq)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if tally.Frames() != 450 {
				t.Fatalf("expected 450 frames, got %d", tally.Frames())
			}
			if tally.ImageFrames() != 450 || tally.VideoFrames() != 0 {
				t.Fatalf("unexpected split %d/%d", tally.ImageFrames(), tally.VideoFrames())
			}
			if tally.RealizedDurationMs() != 14_966 {
				t.Fatalf("expected realized duration 14966ms, got %d", tally.RealizedDurationMs())
			}
			if tally.RequestedDurationUs != 15_000_000 {
				t.Fatalf("expected requested 15s, got %d", tally.RequestedDurationUs)
			}
			if len(sink.frames) != 450 || len(sink.streams) != 100 {
				t.Fatalf("sink saw %d frames in %d streams", len(sink.frames), len(sink.streams))
			}
		})
	}
}

func TestFramesAreContiguousAcrossEntries(t *testing.T) {
	seq := timeline.NewSequence(image(t, "a.png", 100_000, 30), image(t, "b.png", 200_000, 30))
	sink := &recordingSink{}
	if _, err := sequencer.New(sink, sink, stillsResolver{}, nil).Run(context.Background(), seq); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var prev int64 = -1
	for i, f := range sink.frames {
		abs := f.presentationUs + f.offsetUs
		if abs <= prev {
			t.Fatalf("frame %d at %dus does not follow %dus", i, abs, prev)
		}
		prev = abs
	}
	if sink.frames[3].offsetUs != 100_000 || sink.frames[3].presentationUs != 0 {
		t.Fatalf("second entry should start at its own origin, got %+v", sink.frames[3])
	}
	// a.png yields frames 0-2 and b.png frames 3-8; each stream ends flagged.
	for i, f := range sink.frames {
		want := i == 2 || i == 8
		if f.last != want {
			t.Fatalf("frame %d last=%v, want %v", i, f.last, want)
		}
	}
	if sink.formats[0].FrameRate != 30 {
		t.Fatalf("image stream should carry the entry frame rate, got %v", sink.formats[0].FrameRate)
	}
}

func TestBusySinkIsRetried(t *testing.T) {
	seq := timeline.NewSequence(image(t, "a.png", 100_000, 30))
	sink := &recordingSink{busy: 2}
	tally, err := sequencer.New(sink, sink, stillsResolver{}, nil).Run(context.Background(), seq)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if tally.Frames() != 3 || len(sink.frames) != 3 || sink.frames[0].presentationUs != 0 {
		t.Fatalf("expected all frames in order after retry, got %+v", sink.frames)
	}
}

func TestBusyStreamRegistrationIsRetried(t *testing.T) {
	seq := timeline.NewSequence(image(t, "a.png", 100_000, 30), image(t, "b.png", 100_000, 30))
	sink := &recordingSink{busyStreams: 3}
	tally, err := sequencer.New(sink, sink, stillsResolver{}, nil).Run(context.Background(), seq)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sink.streams) != 2 || tally.Frames() != 6 {
		t.Fatalf("expected 2 streams and 6 frames, got %d and %d", len(sink.streams), tally.Frames())
	}
}

func TestBusySinkHonoursCancellation(t *testing.T) {
	seq := timeline.NewSequence(image(t, "a.png", 100_000, 30))
	sink := &recordingSink{busy: 1 << 30}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sequencer.New(sink, sink, stillsResolver{}, nil).Run(ctx, seq); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMixedEntriesCommute(t *testing.T) {
	videos := source.StaticResolver{
		"clip1.mp4": {Reference: "clip1.mp4", InputKind: timeline.InputBuffer, Fmt: graph.Format{Width: 64, Height: 64}, FrameTimes: source.UniformFrameTimes(1_000_000, 25)},
		"clip2.mp4": {Reference: "clip2.mp4", InputKind: timeline.InputBuffer, Fmt: graph.Format{Width: 64, Height: 64}, FrameTimes: source.UniformFrameTimes(2_000_000, 24)},
	}
	resolver := stillsResolver{videos: videos}

	v1 := video(t, "clip1.mp4", 1_000_000)
	v2 := video(t, "clip2.mp4", 500_000)
	i1 := image(t, "one.png", 1_000_000, 31)
	i2 := image(t, "two.png", 1_000_000, 34)

	first := timeline.NewSequence(v1, i1, v2, i2)
	second := timeline.NewSequence(i2, v2, i1, v1)

	a, err := sequencer.Plan(context.Background(), first, resolver, nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	b, err := sequencer.Plan(context.Background(), second, resolver, nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	// 25 decoded + 12 trimmed decoded + 31 + 34 synthetic.
	if a.Frames() != 102 || b.Frames() != 102 {
		t.Fatalf("expected 102 frames in both orders, got %d and %d", a.Frames(), b.Frames())
	}
	if a.VideoFrames() != 37 || a.ImageFrames() != 65 {
		t.Fatalf("unexpected split %d/%d", a.VideoFrames(), a.ImageFrames())
	}
}

func TestVideoDurationResolvedFromSource(t *testing.T) {
	videos := source.StaticResolver{
		"clip.mp4": {Reference: "clip.mp4", InputKind: timeline.InputBuffer, Fmt: graph.Format{Width: 8, Height: 8}, Duration: 400_000, FrameTimes: source.UniformFrameTimes(400_000, 25)},
	}
	seq := timeline.NewSequence(video(t, "clip.mp4", 0), image(t, "after.png", 100_000, 30))
	tally, err := sequencer.Plan(context.Background(), seq, stillsResolver{videos: videos}, nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if tally.Entries[0].DurationUs != 400_000 || tally.Entries[1].StartUs != 400_000 {
		t.Fatalf("unexpected entries %+v", tally.Entries)
	}
	if tally.Frames() != 13 {
		t.Fatalf("expected 13 frames, got %d", tally.Frames())
	}
}

func TestEmptySourceIsExhausted(t *testing.T) {
	videos := source.StaticResolver{
		"empty.mp4": {Reference: "empty.mp4", InputKind: timeline.InputBuffer, Fmt: graph.Format{Width: 8, Height: 8}},
	}
	seq := timeline.NewSequence(image(t, "a.png", 100_000, 30), video(t, "empty.mp4", 500_000))
	sink := &recordingSink{}
	_, err := sequencer.New(sink, sink, stillsResolver{videos: videos}, nil).Run(context.Background(), seq)
	if !errors.Is(err, services.ErrSourceExhausted) {
		t.Fatalf("expected ErrSourceExhausted, got %v", err)
	}
	var exhausted *services.SourceExhaustedError
	if !errors.As(err, &exhausted) || exhausted.EntryIndex != 1 || exhausted.Source != "empty.mp4" {
		t.Fatalf("expected offending entry to be identified, got %v", err)
	}
	if len(sink.streams) != 1 {
		t.Fatalf("exhausted entry must not register a stream, got %d", len(sink.streams))
	}
}

func TestImageTooShortForOneFrameIsExhausted(t *testing.T) {
	seq := timeline.NewSequence(image(t, "blink.png", 10_000, 30))
	_, err := sequencer.Plan(context.Background(), seq, stillsResolver{}, nil)
	if !errors.Is(err, services.ErrSourceExhausted) {
		t.Fatalf("expected ErrSourceExhausted, got %v", err)
	}
}

func TestUnresolvableSourceFails(t *testing.T) {
	seq := timeline.NewSequence(video(t, "missing.mp4", 100_000))
	_, err := sequencer.Plan(context.Background(), seq, stillsResolver{videos: source.StaticResolver{}}, nil)
	if !errors.Is(err, services.ErrNotFound) || !strings.Contains(err.Error(), "missing.mp4") {
		t.Fatalf("expected ErrNotFound naming the source, got %v", err)
	}
}

func TestEveryStreamEndsWithLastFrame(t *testing.T) {
	videos := source.StaticResolver{
		"clip.mp4": {Reference: "clip.mp4", InputKind: timeline.InputBuffer, Fmt: graph.Format{Width: 8, Height: 8}, FrameTimes: []int64{0, 40_000, 80_000}},
	}
	seq := timeline.NewSequence(
		image(t, "blink.png", 40_000, 30),
		video(t, "clip.mp4", 120_000),
		image(t, "tail.png", 100_000, 30),
	)
	sink := &recordingSink{}
	tally, err := sequencer.New(sink, sink, stillsResolver{videos: videos}, nil).Run(context.Background(), seq)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sink.streams) != 3 || tally.Frames() != 7 {
		t.Fatalf("expected 7 frames in 3 streams, got %d in %d", tally.Frames(), len(sink.streams))
	}

	var lastFlags []int
	for i, f := range sink.frames {
		if f.last {
			lastFlags = append(lastFlags, i)
		}
	}
	// blink.png is a single frame, so it is both first and last of its stream.
	want := []int{0, 3, 6}
	if len(lastFlags) != len(want) {
		t.Fatalf("expected last flags at %v, got %v", want, lastFlags)
	}
	for i := range want {
		if lastFlags[i] != want[i] {
			t.Fatalf("expected last flags at %v, got %v", want, lastFlags)
		}
	}
}

func TestNegativeDecodedFramesAreCounted(t *testing.T) {
	videos := source.StaticResolver{
		"preroll.mp4": {Reference: "preroll.mp4", InputKind: timeline.InputBuffer, Fmt: graph.Format{Width: 8, Height: 8}, FrameTimes: []int64{-80_000, -40_000, 0, 40_000, 80_000}},
	}
	seq := timeline.NewSequence(video(t, "preroll.mp4", 120_000))
	sink := &recordingSink{}
	tally, err := sequencer.New(sink, sink, stillsResolver{videos: videos}, nil).Run(context.Background(), seq)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	entry := tally.Entries[0]
	if entry.Frames != 3 || entry.SkippedFrames != 2 {
		t.Fatalf("expected 3 frames and 2 skipped, got %+v", entry)
	}
	if sink.frames[0].presentationUs != 0 || !sink.frames[2].last {
		t.Fatalf("unexpected registered frames %+v", sink.frames)
	}
}
