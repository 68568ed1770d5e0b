package jobs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Status represents the lifecycle of a transcription job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a backend status string into a Status.
func ParseStatus(value string) (Status, error) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return normalized, nil
	default:
		return "", fmt.Errorf("unknown job status %q", value)
	}
}

// IsTerminal reports whether no further progress updates will occur.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	case StatusQueued, StatusProcessing:
		return false
	default:
		return false
	}
}

// IsActive reports whether the job is still waiting for or undergoing work.
func (s Status) IsActive() bool {
	switch s {
	case StatusQueued, StatusProcessing:
		return true
	case StatusCompleted, StatusFailed, StatusCancelled:
		return false
	default:
		return false
	}
}

// UnmarshalJSON rejects statuses outside the closed set.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Segment is one timed span of transcript text.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
	Text    string  `json:"text"`
}

// SpeakerLabel returns the trimmed raw diarization label, or "" when absent.
func (s Segment) SpeakerLabel() string {
	return strings.TrimSpace(s.Speaker)
}

// GeneratedFiles maps an export format to whatever the backend reports for
// it (usually a server-side path). Only key presence is meaningful here.
type GeneratedFiles map[string]json.RawMessage

// Has reports whether the backend generated the given format.
func (g GeneratedFiles) Has(format string) bool {
	if g == nil {
		return false
	}
	_, ok := g[format]
	return ok
}

// Formats returns the generated format names in sorted order.
func (g GeneratedFiles) Formats() []string {
	if len(g) == 0 {
		return nil
	}
	out := make([]string, 0, len(g))
	for format := range g {
		out = append(out, format)
	}
	sort.Strings(out)
	return out
}

// Result holds the partially populated output of a job.
type Result struct {
	Transcript     string            `json:"transcript,omitempty"`
	Text           string            `json:"text,omitempty"`
	Segments       []Segment         `json:"segments,omitempty"`
	Language       string            `json:"language,omitempty"`
	Summary        string            `json:"summary,omitempty"`
	Summaries      map[string]string `json:"summaries,omitempty"`
	GeneratedFiles GeneratedFiles    `json:"generated_files,omitempty"`
}

// Params echoes the options the job was submitted with.
type Params struct {
	ModelName      string   `json:"model_name,omitempty"`
	Language       string   `json:"language,omitempty"`
	BatchSize      int      `json:"batch_size,omitempty"`
	Device         string   `json:"device,omitempty"`
	ComputeType    string   `json:"compute_type,omitempty"`
	Diarization    bool     `json:"diarization"`
	SummaryEnabled bool     `json:"summary_enabled"`
	SummaryStyle   string   `json:"summary_style,omitempty"`
	OutputFormats  []string `json:"output_formats,omitempty"`
}

// Job is a server-tracked transcription request.
type Job struct {
	ID        string   `json:"id"`
	Filename  string   `json:"filename,omitempty"`
	FileType  string   `json:"file_type,omitempty"`
	Status    Status   `json:"status"`
	Progress  int      `json:"progress"`
	Step      string   `json:"step,omitempty"`
	Error     *string  `json:"error,omitempty"`
	Events    []string `json:"events,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
	Params    *Params  `json:"params,omitempty"`
	Result    *Result  `json:"result,omitempty"`
}

// ErrorMessage returns the job error, or "" when none is set.
func (j Job) ErrorMessage() string {
	if j.Error == nil {
		return ""
	}
	return strings.TrimSpace(*j.Error)
}

// Segments returns the result segments, tolerating a missing result.
func (j Job) Segments() []Segment {
	if j.Result == nil {
		return nil
	}
	return j.Result.Segments
}

// Summary returns the current summary text, tolerating a missing result.
func (j Job) Summary() string {
	if j.Result == nil {
		return ""
	}
	return j.Result.Summary
}

// ExportFormats lists the formats available for download.
func (j Job) ExportFormats() []string {
	if j.Result == nil {
		return nil
	}
	return j.Result.GeneratedFiles.Formats()
}

// CanDelete reports whether the backend will accept a delete for the job.
func CanDelete(j Job) bool {
	return j.Status.IsTerminal()
}

// Speakers returns the distinct raw speaker labels in first-appearance order.
func Speakers(segments []Segment) []string {
	if len(segments) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, 4)
	var out []string
	for _, seg := range segments {
		label := seg.SpeakerLabel()
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
