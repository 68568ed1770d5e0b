// Package transcript turns partially populated job results into displayable
// transcript text.
//
// Resolver applies a fixed precedence: result.transcript, result.text, the
// joined segment texts, and finally the exported plain-text output fetched
// from the backend. The first non-empty tier wins and lower tiers are never
// consulted. Resolution never fails; a failed fetch is logged and treated as
// no transcript.
package transcript
