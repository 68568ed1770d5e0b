package jobsync

// State is the engine lifecycle.
type State int

const (
	// StateIdle has no active job.
	StateIdle State = iota
	// StatePolling has a non-terminal active job and an armed poll loop.
	StatePolling
	// StateSettled has an active job and no poll loop.
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}
