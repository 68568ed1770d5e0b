package view

import (
	"fmt"
	"regexp"
	"unicode/utf16"

	"steno/internal/markdown"
	"steno/internal/transcript"
)

type rgb struct{ r, g, b int }

var palette = [...]rgb{
	{59, 130, 246},
	{16, 185, 129},
	{245, 158, 11},
	{236, 72, 153},
	{139, 92, 246},
	{14, 165, 233},
	{249, 115, 22},
	{132, 204, 22},
}

// SpeakerHash is a 31-multiplier rolling hash over the label's UTF-16 code
// units with 32-bit wraparound, so a label keeps the same colour across
// clients.
func SpeakerHash(label string) int64 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(label)) {
		hash = hash*31 + int32(unit)
	}
	out := int64(hash)
	if out < 0 {
		out = -out
	}
	return out
}

// BadgeStyle returns the inline CSS for a speaker badge.
func BadgeStyle(rawLabel string) string {
	c := palette[SpeakerHash(rawLabel)%int64(len(palette))]
	return fmt.Sprintf(
		"background-color: rgba(%d, %d, %d, 0.16); border-color: rgba(%d, %d, %d, 0.5); color: rgb(%d, %d, %d);",
		c.r, c.g, c.b, c.r, c.g, c.b, c.r, c.g, c.b,
	)
}

func clock(seconds float64) string { return transcript.FormatClock(seconds) }

var (
	clockPattern   = regexp.MustCompile(`\[(\d{2}:\d{2}(?::\d{2})?)\]`)
	speakerPattern = regexp.MustCompile(`Speaker\s+(\d+):`)
)

// highlightTranscript escapes text and marks inline [MM:SS] stamps and
// "Speaker N:" prefixes.
func highlightTranscript(text string) string {
	out := markdown.EscapeHTML(text)
	out = clockPattern.ReplaceAllString(out, `<span class="clock">[$1]</span>`)
	return speakerPattern.ReplaceAllString(out, `<span class="speaker">Speaker $1:</span>`)
}
