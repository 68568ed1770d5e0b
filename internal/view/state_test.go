package view_test

import (
	"strings"
	"testing"

	"steno/internal/jobs"
	"steno/internal/view"
)

type fakeNames struct {
	committed map[string]string
	draft     map[string]string
	began     []string
}

func (f *fakeNames) DisplayName(_ string, raw string) string {
	if name := f.committed[raw]; name != "" {
		return name
	}
	return raw
}

func (f *fakeNames) EditorValue(_ string, raw string) string {
	if value, ok := f.draft[raw]; ok {
		return value
	}
	return f.committed[raw]
}

func (f *fakeNames) BeginEditing(jobID string) { f.began = append(f.began, jobID) }

func diarizedJob() jobs.Job {
	return jobs.Job{
		ID:       "job-1",
		Filename: "talk.wav",
		Status:   jobs.StatusCompleted,
		Progress: 100,
		Step:     "done",
		Events:   []string{"queued", "<finished>"},
		Result: &jobs.Result{
			Segments: []jobs.Segment{
				{Start: 0, End: 61.9, Speaker: "SPEAKER_00", Text: " Hello <there> "},
				{Start: 62, End: 63, Speaker: "SPEAKER_01", Text: ""},
			},
			Summary:        "**Key** point",
			GeneratedFiles: jobs.GeneratedFiles{"txt": []byte(`"a.txt"`), "srt": []byte(`"a.srt"`)},
		},
	}
}

func TestProgressTextClamps(t *testing.T) {
	got := view.ProgressText(jobs.Job{Progress: 140, Step: "align", Status: jobs.StatusProcessing})
	if got != "100% - align (processing)" {
		t.Fatalf("ProgressText = %q", got)
	}
	if got := view.ProgressText(jobs.Job{Progress: -3, Status: jobs.StatusQueued}); got != "0% -  (queued)" {
		t.Fatalf("ProgressText = %q", got)
	}
}

func TestComposeTextMode(t *testing.T) {
	names := &fakeNames{committed: map[string]string{"SPEAKER_00": "Alice"}, draft: map[string]string{"SPEAKER_01": "Bo"}}
	state := view.Compose(diarizedJob(), "Hello <there>", names, view.Options{PreviewMode: view.PreviewText, SummaryRenderMode: view.SummaryMarkdown})

	if !strings.Contains(state.TranscriptHTML, ">Alice</span>") {
		t.Fatalf("expected display name badge, got %s", state.TranscriptHTML)
	}
	if !strings.Contains(state.TranscriptHTML, "Hello &lt;there&gt;") {
		t.Fatalf("expected escaped text, got %s", state.TranscriptHTML)
	}
	if !strings.Contains(state.TranscriptHTML, view.NoSegmentText) {
		t.Fatalf("expected placeholder for empty segment, got %s", state.TranscriptHTML)
	}
	if strings.Contains(state.TranscriptHTML, `class="clock"`) {
		t.Fatal("text mode should not include timestamps")
	}
	if !strings.Contains(state.SummaryHTML, "<strong>Key</strong>") {
		t.Fatalf("expected markdown summary, got %s", state.SummaryHTML)
	}
	if !strings.HasPrefix(state.EventsHTML, `<div class="event">&lt;finished&gt;`) {
		t.Fatalf("expected newest event first, got %s", state.EventsHTML)
	}
	if len(names.began) != 1 || names.began[0] != "job-1" {
		t.Fatalf("expected draft seeding for job-1, got %v", names.began)
	}
	if !state.LegendEditable || state.LegendStatus != view.LegendEditable {
		t.Fatalf("unexpected legend state %v %q", state.LegendEditable, state.LegendStatus)
	}
	if len(state.Legend) != 2 || state.Legend[0].Value != "Alice" || state.Legend[1].Value != "Bo" {
		t.Fatalf("unexpected legend %+v", state.Legend)
	}
	if strings.Join(state.ExportFormats, ",") != "srt,txt" {
		t.Fatalf("export formats = %v", state.ExportFormats)
	}
}

func TestComposeTimestampsAndPlainSummary(t *testing.T) {
	state := view.Compose(diarizedJob(), "", nil, view.Options{PreviewMode: view.PreviewTimestamps, SummaryRenderMode: view.SummaryText})
	if !strings.Contains(state.TranscriptHTML, `<span class="clock">00:00:00-00:01:01</span>`) {
		t.Fatalf("expected clock span, got %s", state.TranscriptHTML)
	}
	if !strings.Contains(state.TranscriptHTML, ">SPEAKER_00</span>") {
		t.Fatalf("expected raw label without names, got %s", state.TranscriptHTML)
	}
	if !strings.Contains(state.SummaryHTML, "**Key** point") {
		t.Fatalf("text mode should not render markdown, got %s", state.SummaryHTML)
	}
	if state.LegendEditable {
		t.Fatal("legend should not be editable without a name store")
	}
}

func TestLegendStatusWithoutTranscript(t *testing.T) {
	state := view.Compose(jobs.Job{ID: "x", Status: jobs.StatusProcessing}, "", &fakeNames{}, view.Options{})
	if state.LegendStatus != view.LegendNeedsTranscript || state.Legend != nil {
		t.Fatalf("unexpected legend %q %+v", state.LegendStatus, state.Legend)
	}
	if !strings.Contains(state.TranscriptHTML, view.TranscriptUnavailable) {
		t.Fatalf("expected unavailable placeholder, got %s", state.TranscriptHTML)
	}
	if !strings.Contains(state.SummaryHTML, view.SummaryPending) {
		t.Fatalf("expected summary placeholder, got %s", state.SummaryHTML)
	}
	if !strings.Contains(state.EventsHTML, view.NoEvents) {
		t.Fatalf("expected events placeholder, got %s", state.EventsHTML)
	}

	undiarized := jobs.Job{ID: "y", Status: jobs.StatusCompleted, Result: &jobs.Result{Segments: []jobs.Segment{{Text: "hi"}}}}
	state = view.Compose(undiarized, "hi", &fakeNames{}, view.Options{})
	if state.LegendStatus != view.LegendNoSpeakers {
		t.Fatalf("legend status = %q", state.LegendStatus)
	}
}

func TestTranscriptHTMLFallbackHighlightsStamps(t *testing.T) {
	got := view.TranscriptHTML(nil, "[00:05] Speaker 1: a & b", nil, view.PreviewTimestamps)
	if !strings.Contains(got, `<span class="clock">[00:05]</span>`) || !strings.Contains(got, `<span class="speaker">Speaker 1:</span>`) {
		t.Fatalf("unexpected highlight: %s", got)
	}
	if !strings.Contains(got, "a &amp; b") {
		t.Fatalf("expected escaped text: %s", got)
	}
}

func TestBadgeStyleStable(t *testing.T) {
	// "a" hashes to 97, palette index 1.
	if got := view.SpeakerHash("a"); got != 97 {
		t.Fatalf("SpeakerHash(a) = %d", got)
	}
	if got := view.BadgeStyle("a"); !strings.Contains(got, "rgb(16, 185, 129)") {
		t.Fatalf("BadgeStyle(a) = %q", got)
	}
	if view.BadgeStyle("SPEAKER_00") != view.BadgeStyle("SPEAKER_00") {
		t.Fatal("badge style must be deterministic")
	}
}

func TestPlainTranscript(t *testing.T) {
	job := diarizedJob()
	display := func(raw string) string {
		if raw == "SPEAKER_00" {
			return "Alice"
		}
		return raw
	}
	if got := view.PlainTranscript(job.Segments(), "", display, view.PreviewText); got != "Alice: Hello <there>" {
		t.Fatalf("text mode = %q", got)
	}
	if got := view.PlainTranscript(job.Segments(), "", display, view.PreviewTimestamps); got != "[00:00:00-00:01:01] Alice: Hello <there>" {
		t.Fatalf("timestamps mode = %q", got)
	}
	if got := view.PlainTranscript(nil, "  ", nil, view.PreviewText); got != view.TranscriptUnavailable {
		t.Fatalf("empty = %q", got)
	}
}
