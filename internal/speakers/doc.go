// Package speakers maintains per-job display names for raw diarization
// labels such as "SPEAKER_00".
//
// Edits are two-phase. A draft layer holds whatever the user is typing,
// verbatim, and is never persisted. Apply validates the draft for a set of
// labels and merges it into the committed layer, which is stored as one JSON
// blob in the key-value store. The committed layer never holds a blank name:
// clearing a field removes the override instead.
package speakers
