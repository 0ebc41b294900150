package server

import (
	"testing"
	"time"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/profile"
	"github.com/servsim/servsim/sim"
)

// stubScheduler satisfies the Scheduler interface and records the calls
// routed to it by the server.
type stubScheduler struct {
	sim.EntityBase

	attr      *Attributes
	arrived   []*job.Job
	cancelled []int
}

func newStubScheduler() *stubScheduler {
	return &stubScheduler{EntityBase: sim.NewEntityBase("stub")}
}

func (s *stubScheduler) Process(ev *sim.Event)            {}
func (s *stubScheduler) Initialize(attr *Attributes)      { s.attr = attr }
func (s *stubScheduler) AddJobListener(job.StatusListener) {}
func (s *stubScheduler) DoJobProcessing(j *job.Job)       { s.arrived = append(s.arrived, j) }
func (s *stubScheduler) DoJobCancel(id int)               { s.cancelled = append(s.cancelled, id) }

func TestBuilderRequiresScheduler(t *testing.T) {
	simulation := sim.New(time.Second)
	if _, err := NewBuilder(simulation).Capacity(4).Build(); err == nil {
		t.Error("expected an error building without a scheduler")
	}
}

func TestBuilderRejectsInvalidCapacity(t *testing.T) {
	simulation := sim.New(time.Second)
	if _, err := NewBuilder(simulation).Scheduler(newStubScheduler()).Capacity(0).Build(); err == nil {
		t.Error("expected an error for capacity 0")
	}
}

func TestBuilderDefaults(t *testing.T) {
	simulation := sim.New(time.Second)
	sched := newStubScheduler()
	srv, err := NewBuilder(simulation).Scheduler(sched).Build()
	if err != nil {
		t.Fatal(err)
	}

	if srv.Name() != "server" {
		t.Errorf("default name = %s, want server", srv.Name())
	}
	if got := srv.Attributes().ResourcePool().Capacity(); got != 1 {
		t.Errorf("default capacity = %d, want 1", got)
	}
	if _, ok := srv.Attributes().Availability().(FullAvailability); !ok {
		t.Errorf("default availability = %T, want FullAvailability", srv.Attributes().Availability())
	}
	if sched.attr != srv.Attributes() {
		t.Error("scheduler was not initialized with the server's attributes")
	}
	if srv.Attributes().ServerID() != srv.ID() {
		t.Errorf("attributes carry server id %d, want %d", srv.Attributes().ServerID(), srv.ID())
	}
}

func TestServerRoutesArrivalsAndCancels(t *testing.T) {
	simulation := sim.New(time.Second)
	sched := newStubScheduler()
	srv, err := NewBuilder(simulation).Scheduler(sched).Capacity(4).Build()
	if err != nil {
		t.Fatal(err)
	}

	user := NewUser("user", nil)
	simulation.Register(user)

	j := job.New(simulation.NextUnitID(), 100, 2, 0)
	user.SubmitJob(srv.ID(), 10, j)
	user.CancelJob(srv.ID(), j.ID())

	if err := simulation.Run(); err != nil {
		t.Fatal(err)
	}

	if len(sched.arrived) != 1 || sched.arrived[0] != j {
		t.Fatalf("scheduler saw arrivals %v, want the submitted job", sched.arrived)
	}
	if j.SubmitTime() != 10 {
		t.Errorf("submit time = %d, want the arrival time 10", j.SubmitTime())
	}
	if j.OwnerID() != user.ID() {
		t.Errorf("owner = %d, want the user id %d", j.OwnerID(), user.ID())
	}
	if len(sched.cancelled) != 1 || sched.cancelled[0] != j.ID() {
		t.Errorf("scheduler saw cancellations %v, want [%d]", sched.cancelled, j.ID())
	}
}

func TestDefaultResourcePoolUtilization(t *testing.T) {
	pool := NewDefaultResourcePool(10, nil)

	if pool.Utilization(0, 100) != 0 {
		t.Errorf("idle utilization = %f, want 0", pool.Utilization(0, 100))
	}

	sel := profile.NewRangeList(profile.NewRange(0, 4))
	pool.AllocateResources(sel, 0, 100)

	if got := pool.Utilization(0, 100); got != 0.5 {
		t.Errorf("utilization = %f, want 0.5", got)
	}
	if got := pool.FreeResourceUnits(0, 100); got != 500 {
		t.Errorf("free units = %d, want 500", got)
	}

	pool.ReleaseResources(0, 100, sel)
	if got := pool.Utilization(0, 100); got != 0 {
		t.Errorf("utilization after release = %f, want 0", got)
	}
}

func TestDefaultResourcePoolResourceUse(t *testing.T) {
	pool := NewDefaultResourcePool(8, nil)
	pool.AllocateResources(profile.NewRangeList(profile.NewRange(0, 3)), 10, 20)

	use := pool.ResourceUse(0, 30)
	if len(use) == 0 {
		t.Fatal("no usage entries")
	}
	busyAt := func(time int64) int {
		busy := 0
		for _, u := range use {
			if u.Time <= time {
				busy = u.NumResources
			}
		}
		return busy
	}
	if busyAt(5) != 0 {
		t.Errorf("busy at 5 = %d, want 0", busyAt(5))
	}
	if busyAt(15) != 4 {
		t.Errorf("busy at 15 = %d, want 4", busyAt(15))
	}
	if busyAt(25) != 0 {
		t.Errorf("busy at 25 = %d, want 0", busyAt(25))
	}
}

func TestHourlyAvailabilitySpans(t *testing.T) {
	a := NewHourlyAvailability()

	if got := a.At(time.Wednesday, 12); got != 1.0 {
		t.Fatalf("fresh table availability = %f, want 1.0", got)
	}

	// nights from Monday 18:00 through Friday 8:00 at half capacity
	if err := a.SetAvailability(time.Monday, 18, time.Friday, 8, 0.5); err != nil {
		t.Fatal(err)
	}
	if got := a.At(time.Monday, 17); got != 1.0 {
		t.Errorf("Monday 17 = %f, want 1.0", got)
	}
	if got := a.At(time.Monday, 18); got != 0.5 {
		t.Errorf("Monday 18 = %f, want 0.5", got)
	}
	if got := a.At(time.Wednesday, 3); got != 0.5 {
		t.Errorf("Wednesday 3 = %f, want 0.5", got)
	}
	if got := a.At(time.Friday, 8); got != 0.5 {
		t.Errorf("Friday 8 = %f, want 0.5", got)
	}
	if got := a.At(time.Friday, 9); got != 1.0 {
		t.Errorf("Friday 9 = %f, want 1.0", got)
	}
}

func TestHourlyAvailabilitySameDaySpan(t *testing.T) {
	a := NewHourlyAvailability()

	if err := a.SetAvailability(time.Saturday, 9, time.Saturday, 17, 0.0); err != nil {
		t.Fatal(err)
	}
	if got := a.At(time.Saturday, 8); got != 1.0 {
		t.Errorf("Saturday 8 = %f, want 1.0", got)
	}
	if got := a.At(time.Saturday, 12); got != 0.0 {
		t.Errorf("Saturday 12 = %f, want 0.0", got)
	}
	if got := a.At(time.Saturday, 18); got != 1.0 {
		t.Errorf("Saturday 18 = %f, want 1.0", got)
	}
}

func TestHourlyAvailabilityValidation(t *testing.T) {
	a := NewHourlyAvailability()

	if err := a.SetAvailability(time.Friday, 0, time.Monday, 0, 0.5); err == nil {
		t.Error("expected an error for a backwards day span")
	}
	if err := a.SetAvailability(time.Monday, 17, time.Monday, 9, 0.5); err == nil {
		t.Error("expected an error for a backwards same-day hour span")
	}
	if err := a.SetAvailability(time.Monday, 0, time.Monday, 25, 0.5); err == nil {
		t.Error("expected an error for an invalid hour")
	}
	if err := a.SetAvailability(time.Monday, 0, time.Tuesday, 0, 1.5); err == nil {
		t.Error("expected an error for a value above 1")
	}
	if got := a.At(time.Monday, -1); got != 0 {
		t.Errorf("out-of-range query = %f, want 0", got)
	}
}
