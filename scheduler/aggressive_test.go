package scheduler

import (
	"testing"

	"github.com/servsim/servsim/job"
)

func TestAggressiveBackfillAroundPivot(t *testing.T) {
	sched := NewAggressiveBackfillScheduler("easy", nil, nil)
	h := newTestHarness(t, sched, 4)

	a := h.submit(0, 100, 2, 0)
	pivot := h.submit(0, 100, 4, 0)
	fill := h.submit(2, 50, 2, 0)
	wide := h.submit(4, 200, 2, 0)
	h.run(t)

	requireJob(t, a, 0, 100, job.StatusComplete)

	// the pivot books the earliest slot the whole machine is free
	requireJob(t, pivot, 100, 200, job.StatusComplete)

	// the short job backfills beside a without delaying the pivot
	requireJob(t, fill, 2, 52, job.StatusComplete)

	// the long job overlaps the pivot's slot, so it waits for it and
	// becomes the next pivot
	requireJob(t, wide, 200, 400, job.StatusComplete)
}

func TestAggressiveFailsOversizedJob(t *testing.T) {
	sched := NewAggressiveBackfillScheduler("easy", nil, nil)
	h := newTestHarness(t, sched, 2)

	// no slot can ever hold 5 resources on a 2-resource machine
	oversized := h.submit(0, 100, 5, 0)
	ok := h.submit(0, 50, 2, 0)
	h.run(t)

	requireJob(t, oversized, job.TimeNotSet, job.TimeNotSet, job.StatusFailed)
	h.requireReturned(t, oversized)

	// the failure leaves the machine usable
	requireJob(t, ok, 0, 50, job.StatusComplete)
}

func TestAggressivePivotBarrier(t *testing.T) {
	sched := NewAggressiveBackfillScheduler("easy", nil, nil)
	h := newTestHarness(t, sched, 4)

	a := h.submit(0, 100, 4, 0)
	pivot := h.submit(0, 50, 4, 0)
	// fits beside nothing before 100 and would push the pivot back if
	// allowed to run at 100
	blocked := h.submit(2, 100, 1, 0)
	h.run(t)

	requireJob(t, a, 0, 100, job.StatusComplete)
	requireJob(t, pivot, 100, 150, job.StatusComplete)
	requireJob(t, blocked, 150, 250, job.StatusComplete)
}

func TestAggressiveCancelRunningCompresses(t *testing.T) {
	sched := NewAggressiveBackfillScheduler("easy", nil, nil)
	h := newTestHarness(t, sched, 2)

	a := h.submit(0, 100, 2, 0)
	b := h.submit(0, 50, 2, 0)
	h.cancelAt(10, a)
	h.run(t)

	requireJob(t, a, 0, 10, job.StatusCancelled)
	// the pivot's booked slot moves forward to the freed window
	requireJob(t, b, 10, 60, job.StatusComplete)
	h.requireReturned(t, a)
}

func TestAggressiveCancelPivot(t *testing.T) {
	sched := NewAggressiveBackfillScheduler("easy", nil, nil)
	h := newTestHarness(t, sched, 2)

	a := h.submit(0, 100, 2, 0)
	pivot := h.submit(0, 100, 2, 0)
	c := h.submit(0, 100, 2, 0)
	h.cancelAt(10, pivot)
	h.run(t)

	requireJob(t, a, 0, 100, job.StatusComplete)
	if pivot.Status() != job.StatusCancelled {
		t.Errorf("pivot status = %s, want CANCELLED", pivot.Status())
	}
	// the plain queued job becomes the pivot and takes the slot
	requireJob(t, c, 100, 200, job.StatusComplete)
	h.requireReturned(t, pivot)
}
