package videosink

import (
	"sync"
	"time"
)

// Clock supplies the playback position and a monotonic realtime reading,
// both in microseconds.
type Clock interface {
	PositionUs() int64
	RealtimeUs() int64
}

// FrameClock follows the frames being released instead of wall time. Every
// frame is on time, so export never drops or forces frames.
type FrameClock struct {
	mu  sync.Mutex
	pos int64
}

func NewFrameClock() *FrameClock { return &FrameClock{} }

// Advance moves the clock to the render time of the frame under decision.
func (c *FrameClock) Advance(renderUs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = renderUs
}

func (c *FrameClock) PositionUs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// RealtimeUs equals the position; elapsed realtime between frames is the
// frame spacing.
func (c *FrameClock) RealtimeUs() int64 { return c.PositionUs() }

// WallClock measures position from the instant it was started.
type WallClock struct {
	mu      sync.Mutex
	now     func() time.Time
	start   time.Time
	started bool
}

// NewWallClock returns a clock reading now; nil selects time.Now.
func NewWallClock(now func() time.Time) *WallClock {
	if now == nil {
		now = time.Now
	}
	return &WallClock{now: now}
}

// Start pins position zero to the current instant. Reading an unstarted clock
// starts it.
func (c *WallClock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = c.now()
	c.started = true
}

func (c *WallClock) PositionUs() int64 {
	return c.RealtimeUs()
}

func (c *WallClock) RealtimeUs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		c.start = c.now()
		c.started = true
	}
	return c.now().Sub(c.start).Microseconds()
}

// Instant converts a realtime reading back to wall time.
func (c *WallClock) Instant(realtimeUs int64) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(time.Duration(realtimeUs) * time.Microsecond)
}
