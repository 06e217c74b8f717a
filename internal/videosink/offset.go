package videosink

import "sync/atomic"

// StreamOffset is the time origin shift, in microseconds, applied to frames
// as they are registered. It is owned by the compositing provider and shared
// with its sink by pointer.
type StreamOffset struct {
	us atomic.Int64
}

// NewStreamOffset returns an offset holding initialUs.
func NewStreamOffset(initialUs int64) *StreamOffset {
	o := &StreamOffset{}
	o.us.Store(initialUs)
	return o
}

func (o *StreamOffset) Load() int64 { return o.us.Load() }

func (o *StreamOffset) Store(us int64) { o.us.Store(us) }
