package scheduler

import (
	"testing"

	"github.com/servsim/servsim/job"
)

func submittedJob(t *testing.T, id int, submit, duration int64, priority int) *job.Job {
	t.Helper()
	j := job.New(id, duration, 1, priority)
	j.SetSubmitTime(submit)
	return j
}

func TestFIFOOrderBySubmitTime(t *testing.T) {
	early := submittedJob(t, 0, 10, 100, 0)
	late := submittedJob(t, 1, 20, 100, 0)

	if FIFOOrder(early, late) >= 0 {
		t.Error("expected the earlier submission to order first")
	}
	if FIFOOrder(late, early) <= 0 {
		t.Error("expected the later submission to order last")
	}

	// co-temporal submissions break the tie on the id
	a := submittedJob(t, 2, 30, 100, 0)
	b := submittedJob(t, 3, 30, 100, 0)
	if FIFOOrder(a, b) >= 0 || FIFOOrder(b, a) <= 0 {
		t.Error("expected the lower id to order first on a submit tie")
	}
}

func TestPriorityOrder(t *testing.T) {
	urgent := submittedJob(t, 0, 20, 100, 1)
	relaxed := submittedJob(t, 1, 10, 100, 5)

	if PriorityOrder(urgent, relaxed) >= 0 {
		t.Error("expected the lower priority value to order first")
	}

	// equal priority falls back to submit order
	a := submittedJob(t, 2, 10, 100, 3)
	b := submittedJob(t, 3, 20, 100, 3)
	if PriorityOrder(a, b) >= 0 {
		t.Error("expected submit order on a priority tie")
	}
}

func TestPriorityOrderRunningJobTie(t *testing.T) {
	running := submittedJob(t, 0, 0, 100, 3)
	running.SetStatus(job.StatusInExecution, 0)
	arriving := submittedJob(t, 1, 50, 100, 3)

	// equal priority with exactly one side running compares equal, so
	// an arrival never preempts a peer of its own priority
	if PriorityOrder(arriving, running) != 0 {
		t.Error("expected an arriving job to tie with a running peer")
	}
	if PriorityOrder(running, arriving) != 0 {
		t.Error("expected the comparison to be symmetric")
	}
}

func TestDeadlineOrder(t *testing.T) {
	tight := submittedJob(t, 0, 10, 100, 0)
	tight.SetDeadline(50)
	loose := submittedJob(t, 1, 10, 100, 0)
	loose.SetDeadline(500)
	none := submittedJob(t, 2, 0, 100, 0)

	if DeadlineOrder(tight, loose) >= 0 {
		t.Error("expected the tighter deadline to order first")
	}
	if DeadlineOrder(loose, none) >= 0 {
		t.Error("expected any deadline to order before none")
	}
	if DeadlineOrder(none, tight) <= 0 {
		t.Error("expected no deadline to order last")
	}
}

func TestJobQueueSortAndRemove(t *testing.T) {
	q := newJobQueue(PriorityOrder)

	low := submittedJob(t, 0, 0, 100, 9)
	high := submittedJob(t, 1, 10, 100, 1)
	mid := submittedJob(t, 2, 20, 100, 5)
	q.add(low)
	q.add(high)
	q.add(mid)

	// insertion order until sorted
	if q.all()[0] != low {
		t.Error("queue reordered before Sort")
	}

	q.sortQueue()
	if q.all()[0] != high || q.all()[1] != mid || q.all()[2] != low {
		t.Errorf("sorted queue = %v", q.all())
	}

	if got := q.get(mid.ID()); got != mid {
		t.Error("get did not find a queued job")
	}
	if got := q.remove(mid.ID()); got != mid {
		t.Error("remove did not return the queued job")
	}
	if q.len() != 2 {
		t.Errorf("len = %d after removal, want 2", q.len())
	}
	if q.get(mid.ID()) != nil {
		t.Error("removed job still found")
	}
	if q.remove(9999) != nil {
		t.Error("removing an unknown id returned a job")
	}
	if !q.removeJob(high) || q.removeJob(high) {
		t.Error("removeJob should succeed once and then fail")
	}
}
