package source

import (
	"context"
	"fmt"

	"reel/internal/graph"
	"reel/internal/services"
	"reel/internal/timeline"
)

// Source describes a resolved timeline source.
type Source interface {
	Ref() string
	Kind() timeline.InputType
	Format() graph.Format
	// DurationUs is the intrinsic duration, 0 for still images or when unknown.
	DurationUs() int64
	// Decoder opens the decoded frame timeline. Image sources have none.
	Decoder(ctx context.Context) (Decoder, error)
}

// Resolver maps source references to Sources.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (Source, error)
}

// Decoder yields decoded frame presentation times, relative to the start of
// the source, in increasing order.
type Decoder interface {
	Next(ctx context.Context) (presentationUs int64, ok bool, err error)
}

// SliceDecoder replays a fixed list of presentation times.
type SliceDecoder struct {
	times []int64
	next  int
}

func NewSliceDecoder(times []int64) *SliceDecoder {
	return &SliceDecoder{times: append([]int64(nil), times...)}
}

func (d *SliceDecoder) Next(ctx context.Context) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	if d.next >= len(d.times) {
		return 0, false, nil
	}
	pts := d.times[d.next]
	d.next++
	return pts, true, nil
}

// Static is a fully described source.
type Static struct {
	Reference  string
	InputKind  timeline.InputType
	Fmt        graph.Format
	Duration   int64
	FrameTimes []int64
}

func (s *Static) Ref() string { return s.Reference }

func (s *Static) Kind() timeline.InputType { return s.InputKind }

func (s *Static) Format() graph.Format { return s.Fmt }

func (s *Static) DurationUs() int64 { return s.Duration }

func (s *Static) Decoder(context.Context) (Decoder, error) {
	if s.InputKind == timeline.InputImage {
		return nil, services.Wrap(services.ErrValidation, "source", "open decoder", fmt.Sprintf("%s is a still image", s.Reference), nil)
	}
	return NewSliceDecoder(s.FrameTimes), nil
}

// UniformFrameTimes lists the presentation times of a constant-rate stream of
// the given duration.
func UniformFrameTimes(durationUs int64, frameRate float64) []int64 {
	if durationUs <= 0 || frameRate <= 0 {
		return nil
	}
	var times []int64
	for i := 0; ; i++ {
		pts := int64(float64(i) * float64(timeline.MicrosPerSecond) / frameRate)
		if pts >= durationUs {
			return times
		}
		times = append(times, pts)
	}
}

// StaticResolver resolves references from a fixed table.
type StaticResolver map[string]*Static

func (r StaticResolver) Resolve(_ context.Context, ref string) (Source, error) {
	src, ok := r[ref]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "source", "resolve", ref, nil)
	}
	return src, nil
}
