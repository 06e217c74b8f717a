package export

import (
	"sync"

	"reel/internal/graph"
)

// FrameStatus records what the sink did with a composited frame.
type FrameStatus string

const (
	FrameReleased FrameStatus = "released"
	FrameDropped  FrameStatus = "dropped"
	FrameSkipped  FrameStatus = "skipped"
)

// Record is one composited frame as handed to an Output.
type Record struct {
	Index          int         `json:"index"`
	Stream         int         `json:"stream"`
	Kind           string      `json:"kind"`
	PresentationUs int64       `json:"presentation_us"`
	RenderTimeUs   int64       `json:"render_time_us"`
	ReleaseTimeUs  int64       `json:"release_time_us,omitempty"`
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	Last           bool        `json:"last,omitempty"`
	Status         FrameStatus `json:"status"`
}

func newRecord(frame graph.Frame, status FrameStatus) Record {
	return Record{
		Index:          frame.Index,
		Stream:         frame.StreamIndex,
		Kind:           frame.Kind.String(),
		PresentationUs: frame.PresentationUs,
		RenderTimeUs:   frame.RenderTimeUs(),
		Width:          frame.Size.Width,
		Height:         frame.Size.Height,
		Last:           frame.Last,
		Status:         status,
	}
}

// Output consumes composited frames in output order. WriteFrame is called from
// the graph listener goroutine only.
type Output interface {
	WriteFrame(rec Record) error
}

// MemoryOutput keeps every record in memory.
type MemoryOutput struct {
	mu      sync.Mutex
	records []Record
}

func (m *MemoryOutput) WriteFrame(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of the records written so far.
func (m *MemoryOutput) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

// Discard drops every frame.
type Discard struct{}

func (Discard) WriteFrame(Record) error { return nil }

// outputRenderer adapts an Output to videosink.Renderer. Drop and skip
// notifications cannot return errors, so write failures there go to report.
type outputRenderer struct {
	out    Output
	report func(error)
}

func (r *outputRenderer) ReleaseFrame(frame graph.Frame, releaseRealtimeNs int64) error {
	rec := newRecord(frame, FrameReleased)
	rec.ReleaseTimeUs = releaseRealtimeNs / 1000
	return r.out.WriteFrame(rec)
}

func (r *outputRenderer) DropFrame(frame graph.Frame) {
	r.write(newRecord(frame, FrameDropped))
}

func (r *outputRenderer) SkipFrame(frame graph.Frame) {
	r.write(newRecord(frame, FrameSkipped))
}

func (r *outputRenderer) write(rec Record) {
	if err := r.out.WriteFrame(rec); err != nil && r.report != nil {
		r.report(err)
	}
}
