package graph

import (
	"errors"
	"log/slog"

	"reel/internal/effects"
	"reel/internal/timeline"
)

// ErrBusy is returned by RegisterInputStream when the graph cannot take a new
// stream right now. The caller retries later.
var ErrBusy = errors.New("graph busy")

// Frame travels through the graph. Callers fill PresentationUs, RenderTimeNs
// and Last; the graph assigns Index, StreamIndex, Kind and Size on output.
type Frame struct {
	Index          int
	StreamIndex    int
	Kind           timeline.InputType
	PresentationUs int64
	RenderTimeNs   int64
	Last           bool
	Size           effects.Size
}

// RenderTimeUs returns the render time truncated to microseconds.
func (f Frame) RenderTimeUs() int64 { return f.RenderTimeNs / 1000 }

// Graph is a multi-input compositor. Calls must come from one goroutine and
// never block on processing; results arrive through the Listener.
type Graph interface {
	// RegisterInputStream declares the kind, format and effects of the frames
	// that follow. It returns ErrBusy instead of waiting for room.
	RegisterInputStream(kind timeline.InputType, format Format, chain effects.Chain) error
	// QueueFrame forwards a frame. It returns false when the graph cannot
	// accept a frame right now; the caller retries later.
	QueueFrame(frame Frame) bool
	// SignalEndOfInput marks that no further streams or frames follow.
	SignalEndOfInput()
	Release()
}

// Listener receives graph events on Config.ListenerExecutor.
type Listener interface {
	OnOutputSizeChanged(size effects.Size)
	OnOutputFrameAvailable(frame Frame)
	// OnEnded reports the absolute presentation time of the last output frame.
	OnEnded(finalPresentationUs int64)
	OnError(err error)
}

// Config is handed to a Factory when the graph is first needed.
type Config struct {
	OutputColor        ColorInfo
	Listener           Listener
	ListenerExecutor   Executor
	CompositionEffects effects.Chain
	InitialOffsetUs    int64
	Logger             *slog.Logger
}

// Factory creates graphs.
type Factory interface {
	Create(cfg Config) (Graph, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(cfg Config) (Graph, error)

func (f FactoryFunc) Create(cfg Config) (Graph, error) { return f(cfg) }
