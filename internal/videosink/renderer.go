package videosink

import "reel/internal/graph"

// Renderer consumes the outcome of each release decision. releaseRealtimeNs
// is the realtime instant, in nanoseconds on the sink's Clock, at which the
// frame should be shown.
type Renderer interface {
	ReleaseFrame(frame graph.Frame, releaseRealtimeNs int64) error
	DropFrame(frame graph.Frame)
	SkipFrame(frame graph.Frame)
}

// NopRenderer discards every frame.
type NopRenderer struct{}

func (NopRenderer) ReleaseFrame(graph.Frame, int64) error { return nil }

func (NopRenderer) DropFrame(graph.Frame) {}

func (NopRenderer) SkipFrame(graph.Frame) {}
