package scheduler

import (
	"testing"
	"time"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/server"
	"github.com/servsim/servsim/sim"
)

// reservationHarness is the test harness variant with a
// reservation-capable user.
type reservationHarness struct {
	sim       *sim.Simulation
	srv       *server.Server
	user      *server.ReservationUser
	results   map[int]*job.Job
	responses []job.Status
	completed []int
}

func newReservationHarness(t *testing.T, capacity int) (*reservationHarness, *ReservationBackfillScheduler) {
	t.Helper()

	h := &reservationHarness{results: make(map[int]*job.Job)}
	h.sim = sim.New(time.Second)
	h.user = server.NewReservationUser("user",
		func(src int, j *job.Job) {
			h.results[j.ID()] = j
		},
		func(src int, r *job.Reservation) {
			h.responses = append(h.responses, r.Status())
		},
		func(src int, r *job.Reservation) {
			h.completed = append(h.completed, r.ID())
		})
	h.sim.Register(h.user)

	sched := NewReservationBackfillScheduler("res", nil, nil)
	srv, err := server.NewBuilder(h.sim).
		Name("server").
		Scheduler(sched).
		Capacity(capacity).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	h.srv = srv
	return h, sched
}

// newJob creates a job with an id drawn from the harness simulation.
func (h *reservationHarness) newJob(duration int64, numRes int) *job.Job {
	return job.New(h.sim.NextUnitID(), duration, numRes, 0)
}

func (h *reservationHarness) run(t *testing.T) {
	t.Helper()
	if err := h.sim.Run(); err != nil {
		t.Fatal(err)
	}
}

func TestReservationAcceptAndRunReservedJob(t *testing.T) {
	h, _ := newReservationHarness(t, 10)

	r := h.user.ReserveResources(h.srv.ID(), 0, 50, 100, 4)

	// an ordinary wide job has to schedule around the reserved window
	ordinary := h.newJob(100, 10)
	h.user.SubmitJob(h.srv.ID(), 0, ordinary)

	reserved := h.newJob(50, 2)
	h.user.SubmitReservedJob(h.srv.ID(), r, 10, reserved)

	h.run(t)

	if len(h.responses) != 1 || h.responses[0] != job.StatusWaiting {
		t.Fatalf("responses = %v, want one WAITING acceptance", h.responses)
	}
	if r.Status() != job.StatusComplete {
		t.Errorf("reservation status = %s, want COMPLETE", r.Status())
	}
	if len(h.completed) != 1 || h.completed[0] != r.ID() {
		t.Errorf("completion notices = %v, want [%d]", h.completed, r.ID())
	}
	if r.StartTime() != 50 {
		t.Errorf("reservation start = %d, want 50", r.StartTime())
	}

	// the reserved job runs inside the window
	requireJob(t, reserved, 50, 100, job.StatusComplete)

	// the wide job cannot start until the reservation ends
	requireJob(t, ordinary, 150, 250, job.StatusComplete)
}

func TestReservationRejectedWhenWindowBusy(t *testing.T) {
	h, _ := newReservationHarness(t, 10)

	blocker := h.newJob(100, 10)
	h.user.SubmitJob(h.srv.ID(), 0, blocker)
	r := h.user.ReserveResources(h.srv.ID(), 10, 20, 50, 4)

	h.run(t)

	if len(h.responses) != 1 || h.responses[0] != job.StatusFailed {
		t.Fatalf("responses = %v, want one FAILED rejection", h.responses)
	}
	if r.Status() != job.StatusFailed {
		t.Errorf("reservation status = %s, want FAILED", r.Status())
	}
	requireJob(t, blocker, 0, 100, job.StatusComplete)
}

func TestReservationOversizedRequestFails(t *testing.T) {
	h, _ := newReservationHarness(t, 10)

	r := h.user.ReserveResources(h.srv.ID(), 0, 0, 50, 20)
	h.run(t)

	if r.Status() != job.StatusFailed {
		t.Errorf("reservation status = %s, want FAILED", r.Status())
	}
}

func TestReservationCancelReleasesWindow(t *testing.T) {
	h, _ := newReservationHarness(t, 10)

	r := h.user.ReserveResources(h.srv.ID(), 0, 50, 100, 4)

	ordinary := h.newJob(100, 10)
	h.user.SubmitJob(h.srv.ID(), 0, ordinary)

	reserved := h.newJob(50, 2)
	h.user.SubmitReservedJob(h.srv.ID(), r, 10, reserved)

	h.sim.Send(h.user.ID(), h.srv.ID(), 60, sim.ReservationCancel, r.ID())
	h.run(t)

	if r.Status() != job.StatusCancelled {
		t.Errorf("reservation status = %s, want CANCELLED", r.Status())
	}
	if len(h.responses) != 2 || h.responses[1] != job.StatusCancelled {
		t.Errorf("responses = %v, want acceptance then cancellation", h.responses)
	}
	if len(h.completed) != 0 {
		t.Errorf("cancelled reservation reported completion: %v", h.completed)
	}

	// the job running under the reservation dies with it
	if reserved.Status() != job.StatusCancelled {
		t.Errorf("reserved job status = %s, want CANCELLED", reserved.Status())
	}
	if reserved.FinishTime() != 60 {
		t.Errorf("reserved job finish = %d, want 60", reserved.FinishTime())
	}
	if _, ok := h.results[reserved.ID()]; !ok {
		t.Error("cancelled reserved job was not returned to its owner")
	}

	// the freed window pulls the booked wide job forward
	requireJob(t, ordinary, 60, 160, job.StatusComplete)

	if got := h.sim.Clock().Time(); got != 160 {
		t.Errorf("final clock = %d, want 160", got)
	}
}

func TestReservedJobBeyondWindowFails(t *testing.T) {
	h, _ := newReservationHarness(t, 10)

	r := h.user.ReserveResources(h.srv.ID(), 0, 50, 100, 4)

	// asks for more resources than the reservation holds
	tooWide := h.newJob(50, 6)
	h.user.SubmitReservedJob(h.srv.ID(), r, 10, tooWide)

	h.run(t)

	if tooWide.Status() != job.StatusFailed {
		t.Errorf("oversized reserved job status = %s, want FAILED", tooWide.Status())
	}
	if _, ok := h.results[tooWide.ID()]; !ok {
		t.Error("failed job was not returned to its owner")
	}
}

func TestReservedJobAgainstUnknownReservation(t *testing.T) {
	h, _ := newReservationHarness(t, 10)

	j := h.newJob(50, 2)
	j.SetReservationID(9999)
	h.user.SubmitJob(h.srv.ID(), 0, j)
	h.run(t)

	if j.Status() != job.StatusFailed {
		t.Errorf("job status = %s, want FAILED", j.Status())
	}
}
