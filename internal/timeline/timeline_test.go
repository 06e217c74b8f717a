package timeline_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reel/internal/effects"
	"reel/internal/timeline"
)

func mustEntry(t *testing.T, opts timeline.EntryOptions) timeline.Entry {
	t.Helper()
	entry, err := timeline.NewEntry(opts)
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	return entry
}

func TestNewEntryInfersKindAndValidates(t *testing.T) {
	image := mustEntry(t, timeline.EntryOptions{Source: "still.PNG", DurationUs: 1_000_000, FrameRate: 30})
	if image.Kind() != timeline.InputImage {
		t.Fatalf("expected image kind, got %s", image.Kind())
	}
	video := mustEntry(t, timeline.EntryOptions{Source: "clip.mp4", RemoveAudio: true})
	if video.Kind() != timeline.InputBuffer {
		t.Fatalf("expected buffer kind, got %s", video.Kind())
	}
	if video.HasDuration() {
		t.Fatal("expected video duration to be unresolved")
	}
	if !video.RemoveAudio() {
		t.Fatal("expected remove audio flag")
	}

	invalid := []timeline.EntryOptions{
		{},
		{Source: "still.png", FrameRate: 30},
		{Source: "still.png", DurationUs: 1000},
		{Source: "clip.mp4", DurationUs: -1},
		{Source: "clip.mp4", Kind: timeline.InputType(9)},
	}
	for _, opts := range invalid {
		if _, err := timeline.NewEntry(opts); err == nil {
			t.Fatalf("expected error for %#v", opts)
		}
	}
}

func TestEntryEffectsAreCopied(t *testing.T) {
	chain := effects.Chain{effects.PresentationForHeight(360)}
	entry := mustEntry(t, timeline.EntryOptions{Source: "clip.mp4", Effects: chain})
	chain[0] = effects.Scale{X: 2, Y: 2}
	if entry.Effects()[0].Kind() != "presentation" {
		t.Fatal("expected entry chain to be immutable")
	}
}

func TestSequenceAccounting(t *testing.T) {
	a := mustEntry(t, timeline.EntryOptions{Source: "a.png", DurationUs: 100_000, FrameRate: 30})
	b := mustEntry(t, timeline.EntryOptions{Source: "b.jpg", DurationUs: 200_000, FrameRate: 30})
	seq := timeline.NewSequence(a, b).Repeat(50)
	if seq.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", seq.Len())
	}
	if got := seq.RequestedDurationUs(); got != 15_000_000 {
		t.Fatalf("expected 15s requested, got %d", got)
	}
	if got := seq.StartUs(3); got != 400_000 {
		t.Fatalf("expected entry 3 to start at 400000, got %d", got)
	}
	if err := seq.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	unresolved := timeline.NewSequence(a, mustEntry(t, timeline.EntryOptions{Source: "clip.mp4"}))
	if err := unresolved.Validate(); err == nil {
		t.Fatal("expected validation error for zero duration entry")
	}
	if err := timeline.NewSequence().Validate(); err == nil {
		t.Fatal("expected validation error for empty sequence")
	}
}

func TestCompositionDurationIsLongestSequence(t *testing.T) {
	short := timeline.NewSequence(mustEntry(t, timeline.EntryOptions{Source: "a.png", DurationUs: 500_000, FrameRate: 30}))
	long := timeline.NewSequence(mustEntry(t, timeline.EntryOptions{Source: "b.png", DurationUs: 900_000, FrameRate: 30}))
	comp, err := timeline.NewComposition("parallel", nil, short, long)
	if err != nil {
		t.Fatalf("NewComposition failed: %v", err)
	}
	if comp.DurationUs() != 900_000 {
		t.Fatalf("expected 900000, got %d", comp.DurationUs())
	}
	if _, err := timeline.NewComposition("empty", nil); err == nil {
		t.Fatal("expected error for composition without sequences")
	}
}

func TestLoadFileResolvesRelativeSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slides.toml")
	content := `
[[effects]]
type = "presentation"
width = 480
height = 360
layout = "scale_to_fit"

[[sequences]]
repeat = 2

[[sequences.entries]]
source = "a.png"
duration_ms = 100
frame_rate = 30.0

[[sequences.entries]]
source = "clip.mp4"
remove_audio = true

[[sequences.entries.effects]]
type = "presentation"
height = 360
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write composition: %v", err)
	}

	comp, err := timeline.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if comp.Name != "slides" {
		t.Fatalf("expected name from file, got %q", comp.Name)
	}
	seqs := comp.Sequences()
	if len(seqs) != 1 || seqs[0].Len() != 4 {
		t.Fatalf("unexpected sequences: %d", len(seqs))
	}
	first := seqs[0].Entry(0)
	if first.Source() != filepath.Join(dir, "a.png") {
		t.Fatalf("expected relative source resolved, got %s", first.Source())
	}
	if first.DurationUs() != 100_000 {
		t.Fatalf("expected duration_ms to convert, got %d", first.DurationUs())
	}
	second := seqs[0].Entry(1)
	if second.Kind() != timeline.InputBuffer || !second.RemoveAudio() || len(second.Effects()) != 1 {
		t.Fatalf("unexpected video entry %s", second)
	}
	if got := comp.Effects().String(); got != "presentation" {
		t.Fatalf("unexpected composition effects %q", got)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := timeline.Decode(strings.NewReader(`
[[sequences]]
[[sequences.entries]]
source = "a.png"
duration_us = 1000000
frame_rate = 30.0
speed = 2
`))
	if err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestParseInputType(t *testing.T) {
	for value, want := range map[string]timeline.InputType{
		"buffer":  timeline.InputBuffer,
		"video":   timeline.InputBuffer,
		"Surface": timeline.InputSurface,
		"image":   timeline.InputImage,
	} {
		got, err := timeline.ParseInputType(value)
		if err != nil || got != want {
			t.Fatalf("ParseInputType(%q) = %v, %v", value, got, err)
		}
		if got.String() == "" {
			t.Fatal("expected label")
		}
	}
	if _, err := timeline.ParseInputType("audio"); err == nil {
		t.Fatal("expected error for unknown input type")
	}
}
