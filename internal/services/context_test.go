package services_test

import (
	"context"
	"testing"

	"reel/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "sess-1")
	ctx = services.WithEntryIndex(ctx, 3)
	ctx = services.WithSource(ctx, "a.png")

	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "sess-1" {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if idx, ok := services.EntryIndexFromContext(ctx); !ok || idx != 3 {
		t.Fatalf("unexpected entry index: %v %v", idx, ok)
	}
	if src, ok := services.SourceFromContext(ctx); !ok || src != "a.png" {
		t.Fatalf("unexpected source: %v %v", src, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "")
	ctx = services.WithSource(ctx, "")
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session id")
	}
	if _, ok := services.SourceFromContext(ctx); ok {
		t.Fatal("expected no source")
	}
	if _, ok := services.EntryIndexFromContext(ctx); ok {
		t.Fatal("expected no entry index")
	}
}
