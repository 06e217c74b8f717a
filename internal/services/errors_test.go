package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"reel/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "source", "probe", "ffprobe failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"source", "probe", "ffprobe failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestIllegalStateMarker(t *testing.T) {
	err := services.IllegalState("videosink", "initialize", "already initialized")
	if !errors.Is(err, services.ErrIllegalLifecycleState) {
		t.Fatalf("expected lifecycle marker, got %v", err)
	}
	if kind := services.Kind(err); kind != "invalid" {
		t.Fatalf("expected invalid kind, got %q", kind)
	}
}

func TestSourceExhaustedErrorIdentifiesEntry(t *testing.T) {
	cause := errors.New("no frames decoded")
	err := error(&services.SourceExhaustedError{EntryIndex: 4, Source: "clip.mp4", Err: cause})
	if !errors.Is(err, services.ErrSourceExhausted) {
		t.Fatalf("expected source exhausted marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be retained, got %v", err)
	}
	var exhausted *services.SourceExhaustedError
	if !errors.As(err, &exhausted) || exhausted.EntryIndex != 4 {
		t.Fatalf("expected entry index 4, got %#v", exhausted)
	}
	if !strings.Contains(err.Error(), "clip.mp4") {
		t.Fatalf("expected source in message, got %q", err.Error())
	}
	if kind := services.Kind(err); kind != "source_exhausted" {
		t.Fatalf("unexpected kind %q", kind)
	}
}

func TestSinkErrorCarriesFrameContext(t *testing.T) {
	err := error(&services.SinkError{Format: "video/raw 640x480", PresentationUs: 33333})
	if !errors.Is(err, services.ErrVideoSinkFailure) {
		t.Fatalf("expected sink marker, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "640x480") || !strings.Contains(msg, "33333us") {
		t.Fatalf("missing context in %q", msg)
	}
	if kind := services.Kind(err); kind != "sink" {
		t.Fatalf("unexpected kind %q", kind)
	}
}

func TestKindDefaults(t *testing.T) {
	if kind := services.Kind(nil); kind != "" {
		t.Fatalf("expected empty kind for nil, got %q", kind)
	}
	if kind := services.Kind(errors.New("io")); kind != "failed" {
		t.Fatalf("expected failed kind, got %q", kind)
	}
	if kind := services.Kind(fmt.Errorf("sequence: %w", context.Canceled)); kind != "canceled" {
		t.Fatalf("expected canceled kind, got %q", kind)
	}
}
