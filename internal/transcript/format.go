package transcript

import (
	"fmt"
	"math"
	"strings"

	"steno/internal/jobs"
)

// DisplayNameFunc maps a raw speaker label to the name shown to the user.
type DisplayNameFunc func(rawLabel string) string

// WithSpeakers renders one "Name: text" line per segment. Segments without a
// speaker are emitted as bare text and empty texts are skipped.
func WithSpeakers(segments []jobs.Segment, displayName DisplayNameFunc) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		raw := seg.SpeakerLabel()
		if raw == "" {
			lines = append(lines, text)
			continue
		}
		name := raw
		if displayName != nil {
			if resolved := displayName(raw); resolved != "" {
				name = resolved
			}
		}
		lines = append(lines, name+": "+text)
	}
	return strings.Join(lines, "\n")
}

// FormatClock renders seconds as HH:MM:SS, flooring fractions and clamping
// negative or non-finite input to zero.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
