package sequencer

import (
	"github.com/samber/lo"

	"reel/internal/timeline"
)

// EntryTally records what one entry contributed.
type EntryTally struct {
	Index      int
	Source     string
	Kind       timeline.InputType
	StartUs    int64
	DurationUs int64
	FrameRate  float64
	Frames     int
	// SkippedFrames counts decoded frames dropped for a negative presentation
	// time.
	SkippedFrames int
	// LastPresentationUs is the entry-relative time of its final frame.
	LastPresentationUs int64
}

// Tally accounts for a sequenced timeline.
type Tally struct {
	Entries             []EntryTally
	RequestedDurationUs int64
	// LastPresentationUs is the absolute timeline position of the final frame.
	LastPresentationUs int64
}

func (t Tally) Frames() int {
	return lo.SumBy(t.Entries, func(e EntryTally) int { return e.Frames })
}

func (t Tally) ImageFrames() int {
	return lo.SumBy(lo.Filter(t.Entries, func(e EntryTally, _ int) bool { return e.Kind == timeline.InputImage }),
		func(e EntryTally) int { return e.Frames })
}

func (t Tally) VideoFrames() int {
	return t.Frames() - t.ImageFrames()
}

// RealizedDurationUs is the presentation time of the last frame, which is the
// duration a muxer reports once frames are snapped to their rate.
func (t Tally) RealizedDurationUs() int64 {
	if len(t.Entries) == 0 {
		return 0
	}
	return t.LastPresentationUs
}

// RealizedDurationMs truncates RealizedDurationUs to milliseconds.
func (t Tally) RealizedDurationMs() int64 {
	return t.RealizedDurationUs() / 1000
}

func (t *Tally) add(e EntryTally) {
	t.Entries = append(t.Entries, e)
	t.LastPresentationUs = e.StartUs + e.LastPresentationUs
}
