package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"reel/internal/export"
	"reel/internal/history"
)

func TestPlanCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"plan", env.composition}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "Sequence 0: 18 frames (18 image, 0 video), 566ms of 600ms requested")
	requireContains(t, out, "credits.png")
}

func TestPlanCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"plan", "--json", env.composition}, env.configPath)
	if err != nil {
		t.Fatalf("plan --json: %v", err)
	}
	var views []planView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode plan: %v\n%s", err, out)
	}
	if len(views) != 1 || len(views[0].Entries) != 4 {
		t.Fatalf("unexpected plan %+v", views)
	}
	if views[0].Entries[3].StartUs != 400_000 || views[0].Entries[3].Frames != 6 {
		t.Fatalf("unexpected final entry %+v", views[0].Entries[3])
	}
}

func TestExportHistoryAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	manifest := filepath.Join(env.baseDir, "out", "frames.jsonl")

	out, _, err := runCLI(t, []string{"export", "--json", "--manifest", manifest, env.composition}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var result resultView
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result: %v\n%s", err, out)
	}
	if result.VideoFrameCount != 18 || result.DurationMs != 566 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Width != 32 || result.Height != 18 {
		t.Fatalf("unexpected output size %dx%d", result.Width, result.Height)
	}

	records, err := export.ReadManifest(manifest)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(records) != 18 {
		t.Fatalf("expected 18 manifest records, got %d", len(records))
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, shortID(result.SessionID))
	requireContains(t, out, "Completed")

	out, _, err = runCLI(t, []string{"show", shortID(result.SessionID)}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, result.SessionID)
	requireContains(t, out, "title.png")
	requireContains(t, out, manifest)

	out, _, err = runCLI(t, []string{"history", "remove", result.SessionID}, env.configPath)
	if err != nil {
		t.Fatalf("history remove: %v", err)
	}
	requireContains(t, out, "Removed session")

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No sessions recorded")
}

func TestExportMissingSourceIsRecordedAsFailed(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.Remove(filepath.Join(env.baseDir, "media", "credits.png")); err != nil {
		t.Fatalf("remove still: %v", err)
	}

	if _, _, err := runCLI(t, []string{"export", env.composition}, env.configPath); err == nil {
		t.Fatal("expected export to fail")
	}

	out, _, err := runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var sessions []sessionView
	if err := json.Unmarshal([]byte(out), &sessions); err != nil {
		t.Fatalf("decode sessions: %v\n%s", err, out)
	}
	if len(sessions) != 1 || sessions[0].Status != "failed" {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
}

func TestShowUnknownSession(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"show", "nope"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Output: 1280x720 @ 30 fps")
	requireContains(t, out, "ffprobe: ")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestStatusLabel(t *testing.T) {
	cases := map[string]string{
		"completed":        "Completed",
		"source_exhausted": "Source Exhausted",
		"sink_failed":      "Sink Failed",
	}
	for in, want := range cases {
		if got := statusLabel(history.Status(in)); got != want {
			t.Fatalf("statusLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
