// Package view composes the render-ready state for one job: progress text,
// HTML fragments for the transcript, summary and event panels, the speaker
// legend, and the export formats on offer.
//
// Every fragment is built from escaped text, so callers can insert it
// directly into a page. PlainTranscript is the terminal counterpart used by
// the CLI.
package view
