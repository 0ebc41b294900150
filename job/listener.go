package job

// StatusChangeEvent notifies a listener that a work unit changed status.
// It carries the status the unit came from; the current one is read from
// the unit itself.
type StatusChangeEvent struct {
	Unit       WorkUnit
	PrevStatus Status
	Time       int64
}

// StatusListener receives status change notifications.
type StatusListener func(ev StatusChangeEvent)
