package release

import "fmt"

// Verdict is the outcome of a release decision.
type Verdict int

const (
	// VerdictNormal releases the frame at its render time.
	VerdictNormal Verdict = iota
	// VerdictForce releases the frame immediately regardless of timing.
	VerdictForce
	// VerdictDrop discards the frame without rendering it.
	VerdictDrop
	// VerdictIgnore passes the frame over without counting it as dropped.
	VerdictIgnore
)

func (v Verdict) String() string {
	switch v {
	case VerdictNormal:
		return "normal"
	case VerdictForce:
		return "force"
	case VerdictDrop:
		return "drop"
	case VerdictIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Timing carries everything a decision depends on.
type Timing struct {
	// EarlyUs is render time minus playback position; negative when late.
	EarlyUs int64
	// ElapsedSinceLastReleaseUs is realtime elapsed since the previous
	// released frame.
	ElapsedSinceLastReleaseUs int64
	// ElapsedRealtimeUs is the monotonic realtime clock at decision time.
	ElapsedRealtimeUs int64
	// PositionUs is the playback position the frame is measured against.
	PositionUs int64
	// FirstFrame is set until a frame of the stream has been released.
	FirstFrame bool
	// Last marks the final frame of the stream.
	Last bool
	// TreatDroppedAsSkipped reports very late frames as ignored rather than
	// dropped.
	TreatDroppedAsSkipped bool
}

// Evaluator supplies the timing thresholds behind a Control.
type Evaluator interface {
	ShouldForceRelease(earlyUs, elapsedSinceLastReleaseUs int64) bool
	ShouldDrop(earlyUs, elapsedRealtimeUs int64, last bool) bool
	ShouldIgnore(earlyUs, positionUs, elapsedRealtimeUs int64, last, treatDroppedAsSkipped bool) bool
}

// Thresholds configures the default evaluator.
type Thresholds struct {
	// LateUs: frames earlier than this (i.e. more late) are candidates to drop.
	LateUs int64
	// VeryLateUs: frames earlier than this may be ignored outright.
	VeryLateUs int64
	// ForceReleaseGapUs: a late frame is forced out when nothing has been
	// released for longer than this.
	ForceReleaseGapUs int64
}

// DefaultThresholds mirror common playback tuning: 30ms late, 500ms very
// late, force a frame after 100ms without output.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LateUs:            -30_000,
		VeryLateUs:        -500_000,
		ForceReleaseGapUs: 100_000,
	}
}

// DefaultEvaluator applies Thresholds.
type DefaultEvaluator struct {
	Thresholds Thresholds
}

// NewDefaultEvaluator returns an evaluator using t.
func NewDefaultEvaluator(t Thresholds) DefaultEvaluator {
	return DefaultEvaluator{Thresholds: t}
}

func (e DefaultEvaluator) isLate(earlyUs int64) bool {
	return earlyUs < e.Thresholds.LateUs
}

func (e DefaultEvaluator) ShouldForceRelease(earlyUs, elapsedSinceLastReleaseUs int64) bool {
	return e.isLate(earlyUs) && elapsedSinceLastReleaseUs > e.Thresholds.ForceReleaseGapUs
}

func (e DefaultEvaluator) ShouldDrop(earlyUs, _ int64, last bool) bool {
	return e.isLate(earlyUs) && !last
}

func (e DefaultEvaluator) ShouldIgnore(earlyUs, _, _ int64, last, treatDroppedAsSkipped bool) bool {
	return treatDroppedAsSkipped && earlyUs < e.Thresholds.VeryLateUs && !last
}

// Control turns evaluator answers into a single verdict.
type Control struct {
	evaluator Evaluator
}

// NewControl wraps an evaluator; nil selects DefaultEvaluator with
// DefaultThresholds.
func NewControl(evaluator Evaluator) *Control {
	if evaluator == nil {
		evaluator = NewDefaultEvaluator(DefaultThresholds())
	}
	return &Control{evaluator: evaluator}
}

// Decide returns exactly one verdict for the frame described by t.
func (c *Control) Decide(t Timing) Verdict {
	if t.FirstFrame {
		return VerdictForce
	}
	if c.evaluator.ShouldForceRelease(t.EarlyUs, t.ElapsedSinceLastReleaseUs) {
		return VerdictForce
	}
	if t.Last {
		return VerdictNormal
	}
	if c.evaluator.ShouldIgnore(t.EarlyUs, t.PositionUs, t.ElapsedRealtimeUs, t.Last, t.TreatDroppedAsSkipped) {
		return VerdictIgnore
	}
	if c.evaluator.ShouldDrop(t.EarlyUs, t.ElapsedRealtimeUs, t.Last) {
		return VerdictDrop
	}
	return VerdictNormal
}
