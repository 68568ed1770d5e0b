// Package main hosts the steno CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into calls against the
// transcription backend: listing and following jobs, submitting uploads,
// requesting summaries, exporting transcripts with renamed speakers and
// copying text to the clipboard. Client-side state (speaker names, summary
// templates, display preferences) lives in the configured key-value store.
//
// Keep this package thin: behaviour belongs in the internal packages and
// commands here only wire flags, sessions and output formatting.
package main
