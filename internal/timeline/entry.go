package timeline

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"reel/internal/effects"
)

// MicrosPerSecond converts between seconds and timeline microseconds.
const MicrosPerSecond = 1_000_000

// EntryOptions describes a timeline entry before validation.
type EntryOptions struct {
	Source      string
	Kind        InputType
	DurationUs  int64
	FrameRate   float64
	Effects     effects.Chain
	RemoveAudio bool
}

// Entry is one immutable segment of the output timeline.
type Entry struct {
	source      string
	kind        InputType
	durationUs  int64
	frameRate   float64
	effects     effects.Chain
	removeAudio bool
}

// NewEntry validates options and returns an immutable entry. Image entries
// need a positive duration and frame rate. Video entries may leave the
// duration at zero until it is resolved from the probed source.
func NewEntry(opts EntryOptions) (Entry, error) {
	source := strings.TrimSpace(opts.Source)
	if source == "" {
		return Entry{}, errors.New("entry source is required")
	}
	kind := opts.Kind
	if kind == 0 {
		kind = InferInputType(source)
	}
	if !kind.Valid() {
		return Entry{}, fmt.Errorf("entry %s: invalid input type %d", source, int(kind))
	}
	if opts.DurationUs < 0 {
		return Entry{}, fmt.Errorf("entry %s: duration must not be negative", source)
	}
	if math.IsNaN(opts.FrameRate) || math.IsInf(opts.FrameRate, 0) || opts.FrameRate < 0 {
		return Entry{}, fmt.Errorf("entry %s: frame rate must be a positive number", source)
	}
	if kind == InputImage {
		if opts.DurationUs <= 0 {
			return Entry{}, fmt.Errorf("entry %s: image duration must be positive", source)
		}
		if opts.FrameRate <= 0 {
			return Entry{}, fmt.Errorf("entry %s: image frame rate must be positive", source)
		}
	}
	chain := make(effects.Chain, len(opts.Effects))
	copy(chain, opts.Effects)
	return Entry{
		source:      source,
		kind:        kind,
		durationUs:  opts.DurationUs,
		frameRate:   opts.FrameRate,
		effects:     chain,
		removeAudio: opts.RemoveAudio,
	}, nil
}

func (e Entry) Source() string { return e.source }

func (e Entry) Kind() InputType { return e.kind }

func (e Entry) DurationUs() int64 { return e.durationUs }

func (e Entry) FrameRate() float64 { return e.frameRate }

func (e Entry) RemoveAudio() bool { return e.removeAudio }

func (e Entry) IsImage() bool { return e.kind == InputImage }

func (e Entry) HasDuration() bool { return e.durationUs > 0 }

// Effects returns a copy of the entry's effect chain.
func (e Entry) Effects() effects.Chain {
	out := make(effects.Chain, len(e.effects))
	copy(out, e.effects)
	return out
}

// WithDurationUs returns a copy of the entry with the given duration. It is
// used once a video entry's duration has been resolved from its source.
func (e Entry) WithDurationUs(durationUs int64) Entry {
	e.durationUs = durationUs
	return e
}

func (e Entry) String() string {
	return fmt.Sprintf("%s[%s %dus]", e.source, e.kind, e.durationUs)
}

// FrameRecord is one frame handed from a generator or decoder to the sink.
// PresentationTimeUs is relative to the start of its entry.
type FrameRecord struct {
	PresentationTimeUs int64
	Last               bool
}
