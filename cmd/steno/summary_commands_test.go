package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSummaryGenerateAndDownload(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.AddJob(completedMeeting("job-a"))

	out, _, err := env.run(t, "summary", "generate", "job-a", "--style", "bullet")
	if err != nil {
		t.Fatalf("summary generate: %v", err)
	}
	requireContains(t, out, "Summary (Bullet) for job-a:")
	requireContains(t, out, "## Summary (bullet)")
	if got := env.backend.Requests("POST", "/api/jobs/job-a/summary"); got != 1 {
		t.Fatalf("summary requests = %d, want 1", got)
	}

	target := filepath.Join(env.baseDir, "out", "notes.md")
	out, _, err = env.run(t, "summary", "download", "job-a", "-O", target)
	if err != nil {
		t.Fatalf("summary download: %v", err)
	}
	requireContains(t, out, "Wrote "+target)
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	requireContains(t, string(data), "- meeting.wav")
}

func TestSummaryGenerateUnknownStyleFallsBackToDefault(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.AddJob(completedMeeting("job-a"))

	out, _, err := env.run(t, "summary", "generate", "job-a", "--style", "haiku")
	if err != nil {
		t.Fatalf("summary generate: %v", err)
	}
	requireContains(t, out, "## Summary (short)")
}

func TestSummaryDownloadWithoutSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	env.backend.AddJob(completedMeeting("job-a"))

	_, _, err := env.run(t, "summary", "download", "job-a", "-O", "-")
	if err == nil {
		t.Fatal("expected error when no summary exists")
	}
	requireContains(t, err.Error(), "Summary not available")
}

func TestSummaryStylesLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "summary", "styles", "add", "Meeting Notes", "Summarise", "as", "notes")
	if err != nil {
		t.Fatalf("styles add: %v", err)
	}
	requireContains(t, out, "Added summary style meeting_notes (Meeting Notes)")

	if _, _, err := env.run(t, "summary", "styles", "add", "meeting-notes", "again"); err == nil {
		t.Fatal("expected duplicate style error")
	}

	if _, _, err := env.run(t, "summary", "styles", "set", "meeting_notes", "Bullet", "the", "decisions"); err != nil {
		t.Fatalf("styles set: %v", err)
	}

	out, _, err = env.run(t, "summary", "styles", "list")
	if err != nil {
		t.Fatalf("styles list: %v", err)
	}
	requireContains(t, out, "meeting_notes")
	requireContains(t, out, "Bullet the decisions")
	requireContains(t, out, "Action Items")

	_, _, err = env.run(t, "summary", "styles", "delete", "short")
	if err == nil {
		t.Fatal("expected built-in delete to fail")
	}
	requireContains(t, err.Error(), "Built-in summary options cannot be deleted.")

	out, _, err = env.run(t, "summary", "styles", "delete", "Meeting Notes")
	if err != nil {
		t.Fatalf("styles delete: %v", err)
	}
	requireContains(t, out, "Deleted summary style meeting_notes")

	out, _, err = env.run(t, "summary", "styles", "list", "-o", "json")
	if err != nil {
		t.Fatalf("styles list json: %v", err)
	}
	requireNotContains(t, out, "meeting_notes")
}
