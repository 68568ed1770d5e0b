package view

import (
	"strings"

	"steno/internal/jobs"
	"steno/internal/transcript"
)

// PlainTranscript renders the transcript for a terminal. In timestamps mode
// each line is prefixed with its HH:MM:SS-HH:MM:SS span.
func PlainTranscript(segments []jobs.Segment, resolved string, display transcript.DisplayNameFunc, mode string) string {
	if len(segments) == 0 {
		if text := strings.TrimSpace(resolved); text != "" {
			return text
		}
		return TranscriptUnavailable
	}
	if mode != PreviewTimestamps {
		return transcript.WithSpeakers(segments, display)
	}

	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		line := "[" + clock(seg.Start) + "-" + clock(seg.End) + "] "
		if raw := seg.SpeakerLabel(); raw != "" {
			name := raw
			if display != nil {
				if resolvedName := display(raw); resolvedName != "" {
					name = resolvedName
				}
			}
			line += name + ": "
		}
		lines = append(lines, line+text)
	}
	return strings.Join(lines, "\n")
}
