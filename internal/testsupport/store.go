package testsupport

import (
	"context"
	"testing"

	"reel/internal/config"
	"reel/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// BeginSession records a running export session for tests.
func BeginSession(t testing.TB, store *history.Store, composition string) *history.Session {
	t.Helper()

	session := &history.Session{Composition: composition, Mode: history.ModeExport}
	if err := store.Begin(context.Background(), session); err != nil {
		t.Fatalf("store.Begin: %v", err)
	}
	return session
}
