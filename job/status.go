package job

// Status describes where a work unit is in its lifecycle. Transitions
// are monotonic except for the execution/paused cycle used by preemptive
// schedulers.
type Status int

const (
	StatusUnknown Status = iota
	StatusEnqueued
	StatusWaiting
	StatusPaused
	StatusInExecution
	StatusComplete
	StatusCancelled
	StatusFailed
)

// statusSources lists, per target status, the statuses a unit may come
// from. Any other transition is rejected.
var statusSources = map[Status][]Status{
	StatusEnqueued:    {StatusUnknown},
	StatusWaiting:     {StatusEnqueued},
	StatusInExecution: {StatusEnqueued, StatusWaiting, StatusPaused},
	StatusPaused:      {StatusInExecution},
	StatusComplete:    {StatusInExecution, StatusPaused},
	StatusCancelled:   {StatusEnqueued, StatusWaiting, StatusInExecution, StatusPaused},
	StatusFailed:      {StatusEnqueued, StatusWaiting, StatusInExecution, StatusPaused},
}

// CanTransitionFrom reports whether a unit in prev may move to s.
func (s Status) CanTransitionFrom(prev Status) bool {
	for _, src := range statusSources[s] {
		if src == prev {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a final status.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusCancelled || s == StatusFailed
}

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "UNKNOWN"
	case StatusEnqueued:
		return "ENQUEUED"
	case StatusWaiting:
		return "WAITING"
	case StatusPaused:
		return "PAUSED"
	case StatusInExecution:
		return "IN_EXECUTION"
	case StatusComplete:
		return "COMPLETE"
	case StatusCancelled:
		return "CANCELLED"
	case StatusFailed:
		return "FAILED"
	default:
		return "INVALID"
	}
}
