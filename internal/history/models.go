package history

import (
	"time"

	"reel/internal/services"
)

// Status is the lifecycle state of a recorded session.
type Status string

const (
	StatusRunning         Status = "running"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
	StatusInvalid         Status = "invalid"
	StatusSourceExhausted Status = "source_exhausted"
	StatusSinkFailed      Status = "sink_failed"
	StatusCanceled        Status = "canceled"
)

// Mode distinguishes exports from real-time playback.
type Mode string

const (
	ModeExport Mode = "export"
	ModePlay   Mode = "play"
)

// Session is one recorded export or playback run.
type Session struct {
	ID                  string
	Composition         string
	CompositionPath     string
	Mode                Mode
	Status              Status
	ErrorMessage        string
	FrameCount          int
	DurationMs          int64
	RequestedDurationUs int64
	DroppedFrames       int
	ForcedFrames        int
	OutputWidth         int
	OutputHeight        int
	ManifestPath        string
	StartedAt           time.Time
	FinishedAt          time.Time
	Entries             []Entry
}

// Finished reports whether the session reached a terminal status.
func (s Session) Finished() bool {
	return s.Status != StatusRunning
}

// Elapsed returns the wall time the session took, or zero while running.
func (s Session) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Entry is the recorded contribution of one timeline entry.
type Entry struct {
	Index      int
	Source     string
	Kind       string
	StartUs    int64
	DurationUs int64
	FrameCount int
}

// FailureStatus maps an error to the status recorded for the session.
func FailureStatus(err error) Status {
	switch services.Kind(err) {
	case "":
		return StatusCompleted
	case "invalid":
		return StatusInvalid
	case "source_exhausted":
		return StatusSourceExhausted
	case "sink":
		return StatusSinkFailed
	case "canceled":
		return StatusCanceled
	default:
		return StatusFailed
	}
}
