package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIllegalLifecycleState = errors.New("illegal lifecycle state")
	ErrSourceExhausted       = errors.New("source exhausted")
	ErrVideoSinkFailure      = errors.New("video sink failure")
	ErrExternalTool          = errors.New("external tool error")
	ErrValidation            = errors.New("validation error")
	ErrConfiguration         = errors.New("configuration error")
	ErrNotFound              = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IllegalState reports an operation that is invalid for the current lifecycle
// state of a sink, provider, or builder.
func IllegalState(component, operation, message string) error {
	return Wrap(ErrIllegalLifecycleState, component, operation, message, nil)
}

// SourceExhaustedError identifies the timeline entry that contributed no frames.
type SourceExhaustedError struct {
	EntryIndex int
	Source     string
	Err        error
}

func (e *SourceExhaustedError) Error() string {
	msg := fmt.Sprintf("%s: entry %d (%s) produced no frames", ErrSourceExhausted, e.EntryIndex, e.Source)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceExhaustedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSourceExhausted}
	}
	return []error{ErrSourceExhausted, e.Err}
}

// ErrorKind implements classification for history status mapping.
func (e *SourceExhaustedError) ErrorKind() string { return "source_exhausted" }

// SinkError carries the format and frame context of a frame or stream the
// compositing graph rejected.
type SinkError struct {
	Format         string
	PresentationUs int64
	Err            error
}

func (e *SinkError) Error() string {
	var b strings.Builder
	b.WriteString(ErrVideoSinkFailure.Error())
	if e.Format != "" {
		b.WriteString(": format ")
		b.WriteString(e.Format)
	}
	if e.PresentationUs >= 0 {
		fmt.Fprintf(&b, ": frame at %dus", e.PresentationUs)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SinkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrVideoSinkFailure}
	}
	return []error{ErrVideoSinkFailure, e.Err}
}

func (e *SinkError) ErrorKind() string { return "sink" }

// ErrorClassifier allows errors to declare their classification for status mapping.
type ErrorClassifier interface {
	ErrorKind() string
}

// Kind returns the classification used when persisting an export failure.
// Lifecycle violations and validation problems are reported as "invalid",
// cancellation as "canceled", classified errors by their own kind, and
// everything else as "failed".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrIllegalLifecycleState), errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return "invalid"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return "failed"
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
