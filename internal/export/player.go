package export

import (
	"context"
	"log/slog"
	"time"

	"reel/internal/config"
	"reel/internal/graph"
	"reel/internal/history"
	"reel/internal/source"
	"reel/internal/timeline"
	"reel/internal/videosink"
)

// Player runs compositions in real time. Frames are released against a wall
// clock, so a slow graph shows up as forced, dropped or skipped frames.
type Player struct {
	exporter *Exporter
	now      func() time.Time
}

// NewPlayer accepts the same options as New.
func NewPlayer(cfg *config.Config, resolver source.Resolver, logger *slog.Logger, opts ...Option) *Player {
	return &Player{exporter: New(cfg, resolver, logger, opts...), now: time.Now}
}

// Play plays comp into out and blocks until playback ends, fails, or ctx ends.
func (p *Player) Play(ctx context.Context, comp timeline.Composition, out Output) (Result, error) {
	return p.exporter.session(ctx, history.ModePlay, comp, out, func(renderer videosink.Renderer) (videosink.Clock, videosink.Renderer, func()) {
		clock := videosink.NewWallClock(p.now)
		return clock, &pacingRenderer{next: renderer, clock: clock, done: ctx.Done()}, clock.Start
	})
}

// pacingRenderer holds each released frame until its release instant.
type pacingRenderer struct {
	next  videosink.Renderer
	clock *videosink.WallClock
	done  <-chan struct{}
}

func (r *pacingRenderer) ReleaseFrame(frame graph.Frame, releaseRealtimeNs int64) error {
	wait := time.Until(r.clock.Instant(releaseRealtimeNs / 1000))
	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-r.done:
			timer.Stop()
			return context.Canceled
		}
	}
	return r.next.ReleaseFrame(frame, releaseRealtimeNs)
}

func (r *pacingRenderer) DropFrame(frame graph.Frame) { r.next.DropFrame(frame) }

func (r *pacingRenderer) SkipFrame(frame graph.Frame) { r.next.SkipFrame(frame) }
