package transcript

import (
	"context"
	"log/slog"
	"strings"

	"steno/internal/jobs"
	"steno/internal/logging"
)

// FormatTXT is the export format consulted as the last resolution tier.
const FormatTXT = "txt"

// OutputFetcher retrieves exported job content.
type OutputFetcher interface {
	FetchOutput(ctx context.Context, jobID, format string) ([]byte, error)
}

// Resolver produces the best available transcript for a job.
type Resolver struct {
	fetcher OutputFetcher
	logger  *slog.Logger
}

// NewResolver builds a Resolver. fetcher may be nil, which disables the
// export tier.
func NewResolver(fetcher OutputFetcher, logger *slog.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "transcript"),
	}
}

// Resolve returns the trimmed transcript text, or "" when no tier has any.
func (r *Resolver) Resolve(ctx context.Context, job jobs.Job) string {
	result := job.Result
	if result == nil {
		return ""
	}
	if direct := strings.TrimSpace(result.Transcript); direct != "" {
		return direct
	}
	if text := strings.TrimSpace(result.Text); text != "" {
		return text
	}
	if joined := FromSegments(result.Segments); joined != "" {
		return joined
	}
	if !result.GeneratedFiles.Has(FormatTXT) || job.ID == "" || r.fetcher == nil {
		return ""
	}

	body, err := r.fetcher.FetchOutput(ctx, job.ID, FormatTXT)
	if err != nil {
		r.logger.Warn("transcript export fetch failed",
			logging.Args(logging.JobID(job.ID), logging.String(logging.FieldFormat, FormatTXT), logging.Error(err))...)
		return ""
	}
	return strings.TrimSpace(string(body))
}

// FromSegments joins trimmed, non-empty segment texts with single spaces.
func FromSegments(segments []jobs.Segment) string {
	if len(segments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
