package server

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/sim"
)

// Scheduler is the policy a server delegates its work units to. The
// scheduler is itself a simulation entity: besides the calls below it
// receives the task start and completion events it schedules for
// itself.
type Scheduler interface {
	sim.Entity

	// Initialize hands the scheduler the attributes of the server it
	// works for. Called once when the server is built.
	Initialize(attr *Attributes)

	// AddJobListener subscribes a listener to status changes of every
	// work unit handled by the scheduler.
	AddJobListener(l job.StatusListener)

	// DoJobProcessing handles the arrival of a job.
	DoJobProcessing(j *job.Job)

	// DoJobCancel handles a cancellation request for the job with the
	// given id.
	DoJobCancel(id int)
}

// ReservationScheduler is implemented by schedulers able to handle
// advance reservations.
type ReservationScheduler interface {
	Scheduler

	// DoReservationProcessing handles a reservation request.
	DoReservationProcessing(r *job.Reservation)

	// DoReservationCancel handles a cancellation request for the
	// reservation with the given id.
	DoReservationCancel(id int)
}

// Server receives work units from users and forwards them to its
// scheduler. It stamps submission times on arrival; everything else is
// policy and lives in the scheduler.
type Server struct {
	sim.EntityBase

	attr  *Attributes
	sched Scheduler
}

// Attributes returns the server's attributes.
func (s *Server) Attributes() *Attributes {
	return s.attr
}

// Scheduler returns the server's scheduling policy.
func (s *Server) Scheduler() Scheduler {
	return s.sched
}

// Process routes arrival and cancellation events to the scheduler and
// delegates everything else to the scheduler's own Process.
func (s *Server) Process(ev *sim.Event) {
	switch ev.Type() {
	case sim.TaskArrive:
		j, ok := ev.Content().(*job.Job)
		if !ok {
			log.Errorf("server %s: invalid job payload %v", s.Name(), ev.Content())
			return
		}
		j.SetSubmitTime(s.CurrentTime())
		s.sched.DoJobProcessing(j)

	case sim.TaskCancel:
		id, ok := ev.Content().(int)
		if !ok {
			log.Errorf("server %s: invalid job id payload %v", s.Name(), ev.Content())
			return
		}
		s.sched.DoJobCancel(id)

	case sim.ReservationRequest:
		rs, ok := s.sched.(ReservationScheduler)
		if !ok {
			log.Errorf("server %s: scheduler %s cannot handle reservations", s.Name(), s.sched.Name())
			return
		}
		r, ok := ev.Content().(*job.Reservation)
		if !ok {
			log.Errorf("server %s: invalid reservation payload %v", s.Name(), ev.Content())
			return
		}
		r.SetSubmitTime(s.CurrentTime())
		rs.DoReservationProcessing(r)

	case sim.ReservationCancel:
		rs, ok := s.sched.(ReservationScheduler)
		if !ok {
			log.Errorf("server %s: scheduler %s cannot handle reservations", s.Name(), s.sched.Name())
			return
		}
		id, ok := ev.Content().(int)
		if !ok {
			log.Errorf("server %s: invalid reservation id payload %v", s.Name(), ev.Content())
			return
		}
		rs.DoReservationCancel(id)

	default:
		s.sched.Process(ev)
	}
}

// Builder assembles a server and registers it, together with its
// scheduler, with a simulation.
type Builder struct {
	simulation *sim.Simulation
	name       string
	sched      Scheduler
	pool       ResourcePool
	avail      Availability
	capacity   int
	listener   job.StatusListener
}

// NewBuilder creates a builder for a server registered with the given
// simulation.
func NewBuilder(simulation *sim.Simulation) *Builder {
	return &Builder{simulation: simulation, capacity: -1}
}

// Name sets the server name.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Scheduler sets the scheduling policy.
func (b *Builder) Scheduler(sched Scheduler) *Builder {
	b.sched = sched
	return b
}

// ResourcePool sets the resource pool. When unset, a default pool with
// the configured capacity is used.
func (b *Builder) ResourcePool(pool ResourcePool) *Builder {
	b.pool = pool
	return b
}

// Availability sets the availability schedule. Defaults to full
// availability.
func (b *Builder) Availability(avail Availability) *Builder {
	b.avail = avail
	return b
}

// Capacity sets the number of resources for the default pool.
func (b *Builder) Capacity(capacity int) *Builder {
	b.capacity = capacity
	return b
}

// WorkUnitListener subscribes a listener to status changes of every
// work unit handled by the server's scheduler.
func (b *Builder) WorkUnitListener(l job.StatusListener) *Builder {
	b.listener = l
	return b
}

// Build validates the configuration, wires the scheduler to the server
// attributes and registers both entities with the simulation.
func (b *Builder) Build() (*Server, error) {
	if b.simulation == nil {
		return nil, errors.New("server: simulation is required")
	}
	if b.sched == nil {
		return nil, errors.New("server: a scheduler is required")
	}
	if b.pool == nil {
		if b.capacity == -1 {
			b.capacity = 1
		}
		if b.capacity < 1 {
			return nil, errors.Errorf("server: invalid capacity %d", b.capacity)
		}
		b.pool = NewDefaultResourcePool(b.capacity, nil)
	}
	if b.avail == nil {
		b.avail = FullAvailability{}
	}
	name := b.name
	if name == "" {
		name = "server"
	}
	if b.listener != nil {
		b.sched.AddJobListener(b.listener)
	}

	srv := &Server{
		EntityBase: sim.NewEntityBase(name),
		attr:       NewAttributes(b.pool, b.avail),
		sched:      b.sched,
	}

	b.simulation.Register(b.sched)
	b.simulation.Register(srv)
	srv.attr.setServerID(srv.ID())
	b.sched.Initialize(srv.attr)
	return srv, nil
}
