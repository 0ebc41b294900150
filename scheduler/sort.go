package scheduler

import (
	"github.com/servsim/servsim/job"
)

// JobComparator orders jobs in scheduler queues. Negative means a
// before b. Every comparator breaks final ties on the job id so that
// sorts are reproducible across runs.
type JobComparator func(a, b *job.Job) int

// FIFOOrder orders jobs by submission time.
func FIFOOrder(a, b *job.Job) int {
	if c := compareInt64(a.SubmitTime(), b.SubmitTime()); c != 0 {
		return c
	}
	return a.ID() - b.ID()
}

// PriorityOrder orders jobs by priority, lower value first. Ties break
// on submission time, except when exactly one of the jobs is running,
// which happens when the comparator is used to pick a preemption
// victim; such pairs are considered equal.
func PriorityOrder(a, b *job.Job) int {
	if c := a.Priority() - b.Priority(); c != 0 {
		return c
	}
	aRunning := a.Status() == job.StatusInExecution
	bRunning := b.Status() == job.StatusInExecution
	if aRunning != bRunning {
		return 0
	}
	if c := compareInt64(a.SubmitTime(), b.SubmitTime()); c != 0 {
		return c
	}
	return a.ID() - b.ID()
}

// DeadlineOrder orders jobs by absolute deadline, earliest first. Jobs
// without a deadline sort last.
func DeadlineOrder(a, b *job.Job) int {
	if c := compareInt64(absoluteDeadline(a), absoluteDeadline(b)); c != 0 {
		return c
	}
	if c := compareInt64(a.SubmitTime(), b.SubmitTime()); c != 0 {
		return c
	}
	return a.ID() - b.ID()
}

func absoluteDeadline(j *job.Job) int64 {
	if j.Deadline() == job.TimeNotSet {
		return int64(^uint64(0) >> 1)
	}
	return j.SubmitTime() + j.Deadline()
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
