// Package summary manages the summary styles offered when requesting an AI
// summary for a job.
//
// Four built-in styles always exist. Users may add their own styles or
// reword any prompt; those changes persist in the key-value store. Invalid
// input is rejected with a *ValidationError and leaves the template set
// unchanged.
package summary
