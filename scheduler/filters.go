package scheduler

import (
	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/sim"
)

// filterJobCompletionEvents matches the pending completion event of a
// single job, addressed to the given scheduler. Used when a running job
// is cancelled or preempted.
func filterJobCompletionEvents(schedulerID, jobID int) sim.EventPredicate {
	return func(ev *sim.Event) bool {
		if ev.Type() != sim.TaskComplete || ev.Destination() != schedulerID {
			return false
		}
		u, ok := ev.Content().(job.WorkUnit)
		return ok && u.ID() == jobID
	}
}

// filterJobEventsByIDs matches pending start and completion events of
// any of the given jobs, addressed to the given scheduler. Used when a
// backfilling policy compresses its schedule.
func filterJobEventsByIDs(schedulerID int, ids map[int]struct{}) sim.EventPredicate {
	return func(ev *sim.Event) bool {
		if ev.Destination() != schedulerID {
			return false
		}
		if ev.Type() != sim.TaskStart && ev.Type() != sim.TaskComplete {
			return false
		}
		u, ok := ev.Content().(job.WorkUnit)
		if !ok {
			return false
		}
		_, affected := ids[u.ID()]
		return affected
	}
}
