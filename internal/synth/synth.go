// Package synth turns still-image timeline entries into evenly spaced
// synthetic video frames.
package synth

import (
	"fmt"
	"iter"
	"math"

	"reel/internal/services"
	"reel/internal/timeline"
)

// FrameCount returns the number of synthetic frames an image shown for
// durationUs at frameRate contributes: the nearest integer, ties rounding up.
func FrameCount(durationUs int64, frameRate float64) int {
	if durationUs <= 0 || frameRate <= 0 || math.IsNaN(frameRate) || math.IsInf(frameRate, 0) {
		return 0
	}
	exact := float64(durationUs) * frameRate / timeline.MicrosPerSecond
	return int(math.Floor(exact + 0.5))
}

// EntryFrameCount is FrameCount for an image entry. Video entries return 0;
// their contribution is whatever the decoder emits.
func EntryFrameCount(entry timeline.Entry) int {
	if !entry.IsImage() {
		return 0
	}
	return FrameCount(entry.DurationUs(), entry.FrameRate())
}

// PresentationTimeUs is the entry-relative timestamp of frame index at frameRate.
func PresentationTimeUs(index int, frameRate float64) int64 {
	if index <= 0 || frameRate <= 0 {
		return 0
	}
	return int64(math.Floor(float64(index) * timeline.MicrosPerSecond / frameRate))
}

// Generator yields the synthetic frames of one image entry. It is lazy,
// finite, and cannot be restarted; build a new one to replay an entry.
type Generator struct {
	source    string
	frameRate float64
	total     int
	next      int
}

// NewGenerator validates an image entry and prepares its frame sequence.
func NewGenerator(entry timeline.Entry) (*Generator, error) {
	if !entry.IsImage() {
		return nil, services.Wrap(services.ErrValidation, "synth", "new generator",
			fmt.Sprintf("%s is not an image entry", entry.Source()), nil)
	}
	if entry.DurationUs() <= 0 || entry.FrameRate() <= 0 {
		return nil, services.Wrap(services.ErrValidation, "synth", "new generator",
			fmt.Sprintf("%s needs positive duration and frame rate", entry.Source()), nil)
	}
	total := EntryFrameCount(entry)
	if total == 0 {
		return nil, services.Wrap(services.ErrSourceExhausted, "synth", "new generator",
			fmt.Sprintf("%s: %dus at %.3f fps rounds to zero frames", entry.Source(), entry.DurationUs(), entry.FrameRate()), nil)
	}
	return &Generator{source: entry.Source(), frameRate: entry.FrameRate(), total: total}, nil
}

// Next returns the next frame, or false once every frame has been produced.
func (g *Generator) Next() (timeline.FrameRecord, bool) {
	if g.next >= g.total {
		return timeline.FrameRecord{}, false
	}
	idx := g.next
	g.next++
	return timeline.FrameRecord{
		PresentationTimeUs: PresentationTimeUs(idx, g.frameRate),
		Last:               idx == g.total-1,
	}, true
}

// Total is the number of frames the generator produces over its lifetime.
func (g *Generator) Total() int { return g.total }

// Remaining is the number of frames not yet produced.
func (g *Generator) Remaining() int { return g.total - g.next }

// Source is the image reference the frames are synthesized from.
func (g *Generator) Source() string { return g.source }

// Frames exposes the remaining frames as an iterator. Ranging over it
// consumes the generator.
func (g *Generator) Frames() iter.Seq[timeline.FrameRecord] {
	return func(yield func(timeline.FrameRecord) bool) {
		for {
			frame, ok := g.Next()
			if !ok || !yield(frame) {
				return
			}
		}
	}
}
