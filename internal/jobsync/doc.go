// Package jobsync keeps one active job's rendered state in step with the
// backend.
//
// An Engine is Idle until SelectJob names an active job. It fetches the job
// once, then polls at a fixed period while the job is queued or processing
// and settles once the job reaches a terminal status. Poll failures are
// reported through the error hook and polling carries on.
//
// Responses are only applied when the job they were fetched for is still
// the active job, so a slow fetch for a job the user has already navigated
// away from can never overwrite the newer state.
package jobsync
