package view

import (
	"fmt"
	"strings"

	"steno/internal/jobs"
	"steno/internal/markdown"
)

// Placeholder texts shown when a panel has nothing to display.
const (
	TranscriptUnavailable = "Transcript unavailable for this job."
	SummaryPending        = "AI summary will be generated after transcription is complete."
	NoEvents              = "No preview logs yet."
	NoSegmentText         = "(no text)"
)

// Legend status texts.
const (
	LegendNeedsTranscript = "Speaker names can be edited after transcription is available."
	LegendNoSpeakers      = "No diarized speakers found for this transcription."
	LegendEditable        = "Edit names, then click Save & Apply."
)

// Preview and summary render modes.
const (
	PreviewText       = "text"
	PreviewTimestamps = "timestamps"
	SummaryText       = "text"
	SummaryMarkdown   = "markdown"
)

// SpeakerNames is the subset of the speaker override store the view needs.
type SpeakerNames interface {
	DisplayName(jobID, rawLabel string) string
	EditorValue(jobID, rawLabel string) string
	BeginEditing(jobID string)
}

// Options selects how the transcript and summary are rendered.
type Options struct {
	PreviewMode       string
	SummaryRenderMode string
}

// LegendEntry pairs a raw speaker label with the value its editor shows.
type LegendEntry struct {
	RawLabel    string `json:"raw_label"`
	Value       string `json:"value"`
	DisplayName string `json:"display_name"`
	BadgeStyle  string `json:"-"`
}

// RenderState is everything a UI needs to paint the active job.
type RenderState struct {
	JobID          string        `json:"job_id"`
	Filename       string        `json:"filename,omitempty"`
	Status         jobs.Status   `json:"status"`
	Progress       int           `json:"progress"`
	ProgressText   string        `json:"progress_text"`
	Error          string        `json:"error,omitempty"`
	Transcript     string        `json:"transcript"`
	TranscriptHTML string        `json:"transcript_html"`
	Summary        string        `json:"summary,omitempty"`
	SummaryHTML    string        `json:"summary_html"`
	EventsHTML     string        `json:"events_html"`
	Legend         []LegendEntry `json:"legend,omitempty"`
	LegendEditable bool          `json:"legend_editable"`
	LegendStatus   string        `json:"legend_status"`
	ExportFormats  []string      `json:"export_formats,omitempty"`
}

// Terminal reports whether the rendered job has finished.
func (s RenderState) Terminal() bool { return s.Status.IsTerminal() }

// Compose builds the RenderState for job. resolved is the transcript chosen
// by the resolver. names may be nil, in which case raw labels are shown and
// the legend is left empty.
func Compose(job jobs.Job, resolved string, names SpeakerNames, opts Options) RenderState {
	state := RenderState{
		JobID:         job.ID,
		Filename:      job.Filename,
		Status:        job.Status,
		Progress:      clampProgress(job.Progress),
		ProgressText:  ProgressText(job),
		Error:         job.ErrorMessage(),
		Transcript:    resolved,
		Summary:       job.Summary(),
		ExportFormats: job.ExportFormats(),
	}
	display := displayFunc(job.ID, names)
	state.TranscriptHTML = TranscriptHTML(job.Segments(), resolved, display, opts.PreviewMode)
	state.SummaryHTML = SummaryHTML(state.Summary, opts.SummaryRenderMode)
	state.EventsHTML = EventsHTML(job.Events)
	state.Legend, state.LegendEditable, state.LegendStatus = legend(job, resolved, names)
	return state
}

// ProgressText formats "{progress}% - {step} ({status})".
func ProgressText(job jobs.Job) string {
	return fmt.Sprintf("%d%% - %s (%s)", clampProgress(job.Progress), job.Step, job.Status)
}

func clampProgress(progress int) int {
	return min(max(progress, 0), 100)
}

func displayFunc(jobID string, names SpeakerNames) func(string) string {
	return func(raw string) string {
		if raw == "" {
			return ""
		}
		if names == nil {
			return raw
		}
		return names.DisplayName(jobID, raw)
	}
}

// TranscriptHTML renders segments, or the resolved text when there are none.
func TranscriptHTML(segments []jobs.Segment, resolved string, display func(string) string, mode string) string {
	if display == nil {
		display = func(raw string) string { return raw }
	}
	timestamps := mode == PreviewTimestamps
	if len(segments) == 0 {
		if strings.TrimSpace(resolved) == "" {
			return `<div class="placeholder">` + TranscriptUnavailable + `</div>`
		}
		if timestamps {
			return `<div class="transcript">` + highlightTranscript(resolved) + `</div>`
		}
		return `<div class="transcript">` + markdown.EscapeHTML(resolved) + `</div>`
	}

	var b strings.Builder
	for _, seg := range segments {
		raw := seg.SpeakerLabel()
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			text = NoSegmentText
		}
		b.WriteString(`<div class="segment">`)
		if timestamps {
			fmt.Fprintf(&b, `<span class="clock">%s-%s</span>`, clock(seg.Start), clock(seg.End))
		}
		if raw != "" {
			fmt.Fprintf(&b, `<span class="speaker" style="%s">%s</span>`,
				BadgeStyle(raw), markdown.EscapeHTML(display(raw)))
		}
		b.WriteString(`<span>` + markdown.EscapeHTML(text) + `</span></div>`)
	}
	return b.String()
}

// SummaryHTML renders summary text as markdown or as an escaped block.
func SummaryHTML(summary, mode string) string {
	if strings.TrimSpace(summary) == "" {
		return `<div class="placeholder">` + SummaryPending + `</div>`
	}
	if mode == SummaryMarkdown {
		return `<div class="summary">` + markdown.Render(summary) + `</div>`
	}
	return `<div class="summary plain">` + markdown.EscapeHTML(summary) + `</div>`
}

// EventsHTML renders job events newest first.
func EventsHTML(events []string) string {
	if len(events) == 0 {
		return `<div class="placeholder">` + NoEvents + `</div>`
	}
	var b strings.Builder
	for i := len(events) - 1; i >= 0; i-- {
		b.WriteString(`<div class="event">` + markdown.EscapeHTML(events[i]) + `</div>`)
	}
	return b.String()
}

// HasTranscript reports whether the job has segments or resolved text.
func HasTranscript(job jobs.Job, resolved string) bool {
	return len(job.Segments()) > 0 || strings.TrimSpace(resolved) != ""
}

func legend(job jobs.Job, resolved string, names SpeakerNames) ([]LegendEntry, bool, string) {
	if job.ID == "" || !HasTranscript(job, resolved) {
		return nil, false, LegendNeedsTranscript
	}
	labels := jobs.Speakers(job.Segments())
	if len(labels) == 0 {
		return nil, false, LegendNoSpeakers
	}
	if names != nil {
		names.BeginEditing(job.ID)
	}
	entries := make([]LegendEntry, 0, len(labels))
	for _, raw := range labels {
		entry := LegendEntry{RawLabel: raw, DisplayName: raw, BadgeStyle: BadgeStyle(raw)}
		if names != nil {
			entry.Value = names.EditorValue(job.ID, raw)
			entry.DisplayName = names.DisplayName(job.ID, raw)
		}
		entries = append(entries, entry)
	}
	return entries, names != nil, LegendEditable
}
