// Package jobs defines the transcription job model shared by the backend
// client, the transcript resolver, and the sync engine.
//
// A Job is owned by the backend: the client only re-fetches it. Status is a
// closed set with explicit terminal/active classification so call sites can
// switch exhaustively instead of comparing free-form strings. Result fields
// are all optional because the backend fills them in progressively while a
// job runs.
package jobs
