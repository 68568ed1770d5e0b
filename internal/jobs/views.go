package jobs

// View selects which slice of the job list a caller wants.
type View string

const (
	// ViewHistory shows every job.
	ViewHistory View = "history"
	// ViewQueue shows jobs that are still queued or processing.
	ViewQueue View = "queue"
)

// Filter returns the jobs visible in the given view, preserving order.
func Filter(list []Job, view View) []Job {
	switch view {
	case ViewQueue:
		out := make([]Job, 0, len(list))
		for _, job := range list {
			if job.Status.IsActive() {
				out = append(out, job)
			}
		}
		return out
	case ViewHistory:
		return list
	default:
		return list
	}
}

// Tally summarises a job list for the sidebar counters.
type Tally struct {
	Completed int
	Queued    int
}

// Count computes completed and in-queue totals.
func Count(list []Job) Tally {
	var t Tally
	for _, job := range list {
		switch job.Status {
		case StatusCompleted:
			t.Completed++
		case StatusQueued, StatusProcessing:
			t.Queued++
		case StatusFailed, StatusCancelled:
		}
	}
	return t
}
