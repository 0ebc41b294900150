package scheduler

import (
	"testing"
	"time"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/server"
	"github.com/servsim/servsim/sim"
)

// testHarness wires a simulation, a server with the policy under test
// and a user that records every job returned to it.
type testHarness struct {
	sim     *sim.Simulation
	srv     *server.Server
	user    *server.User
	results map[int]*job.Job
	order   []int
}

func newTestHarness(t *testing.T, sched server.Scheduler, capacity int) *testHarness {
	t.Helper()

	h := &testHarness{results: make(map[int]*job.Job)}
	h.sim = sim.New(time.Second)
	h.user = server.NewUser("user", func(src int, j *job.Job) {
		h.results[j.ID()] = j
		h.order = append(h.order, j.ID())
	})
	h.sim.Register(h.user)

	srv, err := server.NewBuilder(h.sim).
		Name("server").
		Scheduler(sched).
		Capacity(capacity).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	h.srv = srv
	return h
}

// submit creates a job with an id drawn from the harness simulation and
// schedules its arrival at the server.
func (h *testHarness) submit(delay, duration int64, numRes, priority int) *job.Job {
	j := job.New(h.sim.NextUnitID(), duration, numRes, priority)
	h.user.SubmitJob(h.srv.ID(), delay, j)
	return j
}

// cancelAt schedules a cancellation request for the job.
func (h *testHarness) cancelAt(delay int64, j *job.Job) {
	h.sim.Send(h.user.ID(), h.srv.ID(), delay, sim.TaskCancel, j.ID())
}

func (h *testHarness) run(t *testing.T) {
	t.Helper()
	if err := h.sim.Run(); err != nil {
		t.Fatal(err)
	}
}

// requireJob checks the recorded times and final status of a job.
func requireJob(t *testing.T, j *job.Job, start, finish int64, st job.Status) {
	t.Helper()
	if j.Status() != st {
		t.Errorf("job %d status = %s, want %s", j.ID(), j.Status(), st)
	}
	if j.StartTime() != start {
		t.Errorf("job %d start = %d, want %d", j.ID(), j.StartTime(), start)
	}
	if j.FinishTime() != finish {
		t.Errorf("job %d finish = %d, want %d", j.ID(), j.FinishTime(), finish)
	}
}

// requireReturned checks that the user got the job back.
func (h *testHarness) requireReturned(t *testing.T, j *job.Job) {
	t.Helper()
	if _, ok := h.results[j.ID()]; !ok {
		t.Errorf("job %d was never returned to its owner", j.ID())
	}
}
