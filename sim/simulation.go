package sim

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Status describes the lifecycle state of a simulation.
type Status int

const (
	StatusNotStarted Status = iota
	StatusRunning
	StatusPaused
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusRunning:
		return "RUNNING"
	case StatusPaused:
		return "PAUSED"
	case StatusComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Simulation is the discrete-event kernel: a virtual clock driven by a
// time-ordered future event queue. All entity ids and event serials are
// allocated by the simulation itself so that repeated runs in the same
// process stay deterministic.
//
// The kernel is single threaded. Entities interact only through events;
// every Process call runs to completion before the next event is
// delivered.
type Simulation struct {
	clock    *Clock
	entities []Entity
	future   eventQueue
	deferred []*Event

	nextSerial int64
	nextUnitID int
	status     Status

	comparator EventComparator
	timeSpan   int64
	abrupt     bool
	warmupTime int64
}

// New creates a simulation whose clock counts in the given unit.
func New(unit time.Duration) *Simulation {
	return &Simulation{clock: NewClock(unit)}
}

// Clock returns the simulation clock.
func (s *Simulation) Clock() *Clock {
	return s.clock
}

// Status returns the simulation's lifecycle state.
func (s *Simulation) Status() Status {
	return s.status
}

// Register adds an entity to the simulation and returns its id. Entities
// must be registered before Run.
func (s *Simulation) Register(e Entity) int {
	if s.status != StatusNotStarted {
		log.Panicf("sim: cannot register entity %s while %s", e.Name(), s.status)
	}
	id := len(s.entities)
	e.attach(s, id)
	s.entities = append(s.entities, e)
	return id
}

// Entity returns the registered entity with the given id, or nil.
func (s *Simulation) Entity(id int) Entity {
	if id < 0 || id >= len(s.entities) {
		return nil
	}
	return s.entities[id]
}

// EntityByName returns the first registered entity with the given name,
// or nil.
func (s *Simulation) EntityByName(name string) Entity {
	for _, e := range s.entities {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// NextUnitID hands out ids for work units created by driver programs.
// Ids live in the simulation, not in a package global, so repeated or
// nested runs produce identical id sequences. Trace readers keep the
// ids found in the trace instead.
func (s *Simulation) NextUnitID() int {
	id := s.nextUnitID
	s.nextUnitID++
	return id
}

// SetEventComparator installs a comparator that orders co-temporal
// events within each tick. The sort is stable, so events the comparator
// considers equal keep their creation order.
func (s *Simulation) SetEventComparator(cmp EventComparator) {
	s.comparator = cmp
}

// SetTimeSpan limits the simulated time. With abrupt set the run stops
// as soon as the clock reaches the span; otherwise the span is only a
// mark for reporting and the run ends when the event queue drains.
func (s *Simulation) SetTimeSpan(span int64, abrupt bool) {
	if span < 0 {
		log.Panicf("sim: invalid time span %d", span)
	}
	s.timeSpan = span
	s.abrupt = abrupt
}

// TimeSpan returns the configured time span, or 0.
func (s *Simulation) TimeSpan() int64 {
	return s.timeSpan
}

// SetWarmupTime marks the end of the warm-up period. The kernel does not
// act on it; reports use it to discard early measurements.
func (s *Simulation) SetWarmupTime(t int64) {
	if t < 0 {
		log.Panicf("sim: invalid warm-up time %d", t)
	}
	s.warmupTime = t
}

// WarmupTime returns the configured warm-up mark, or 0.
func (s *Simulation) WarmupTime() int64 {
	return s.warmupTime
}

// Send schedules an event to fire delay time units from now. The delay
// must not be negative; a zero delay delivers the event on the next tick.
func (s *Simulation) Send(src, dst int, delay int64, etype EventType, content interface{}) {
	if delay < 0 {
		log.Panicf("sim: negative delay %d sending %s from %d to %d", delay, etype, src, dst)
	}
	ev := &Event{
		time:    s.clock.Time() + delay,
		serial:  s.nextSerial,
		etype:   etype,
		src:     src,
		dst:     dst,
		content: content,
	}
	s.nextSerial++
	s.future.push(ev)
}

// CancelFutureEvents removes every future event matching pred and
// returns how many were removed. Events already pulled into the current
// tick are not affected.
func (s *Simulation) CancelFutureEvents(pred EventPredicate) int {
	return s.future.removeIf(pred)
}

// CancelFirstFutureEvent removes the earliest future event matching
// pred, in (time, serial) order.
func (s *Simulation) CancelFirstFutureEvent(pred EventPredicate) bool {
	return s.future.removeFirst(pred)
}

// FutureEventCount returns the number of events not yet delivered.
func (s *Simulation) FutureEventCount() int {
	return s.future.len()
}

// Run executes the simulation until the event queue drains or the
// configured abrupt time span is reached. It returns an error if the
// simulation is not in its initial state.
func (s *Simulation) Run() error {
	if s.status != StatusNotStarted {
		return errors.Errorf("simulation cannot run while %s", s.status)
	}
	s.status = StatusRunning
	log.Debugf("simulation starting with %d entities", len(s.entities))

	for _, e := range s.entities {
		e.OnStart()
	}

	s.runLoop()
	return nil
}

// Pause suspends the run after the current tick. Only meaningful when
// called from an entity's Process.
func (s *Simulation) Pause() bool {
	if s.status != StatusRunning {
		return false
	}
	s.status = StatusPaused
	return true
}

// Resume continues a paused run.
func (s *Simulation) Resume() bool {
	if s.status != StatusPaused {
		return false
	}
	s.status = StatusRunning
	s.runLoop()
	return true
}

// Reset returns a completed simulation to its initial state so it can be
// configured and run again. Entities remain registered.
func (s *Simulation) Reset() error {
	if s.status != StatusComplete {
		return errors.Errorf("cannot reset a simulation that is %s", s.status)
	}
	s.future.clear()
	s.deferred = nil
	s.clock.reset()
	s.nextSerial = 0
	s.nextUnitID = 0
	s.status = StatusNotStarted
	return nil
}

func (s *Simulation) runLoop() {
	for s.status == StatusRunning {
		if s.abrupt && s.timeSpan > 0 && s.clock.Time() >= s.timeSpan {
			log.Debugf("simulation reached time span %d, interrupting", s.timeSpan)
			break
		}
		if !s.runClockTick() {
			break
		}
	}

	if s.status == StatusRunning {
		for _, e := range s.entities {
			e.OnShutdown()
		}
		s.status = StatusComplete
		log.Debugf("simulation complete at time %d", s.clock.Time())
	}
}

// runClockTick delivers the events pulled for the current tick, then
// advances the clock to the next event time and pulls the co-temporal
// batch for the following tick. Returns false once no events remain.
func (s *Simulation) runClockTick() bool {
	if s.comparator != nil && len(s.deferred) > 1 {
		cmp := s.comparator
		sort.SliceStable(s.deferred, func(i, j int) bool {
			return cmp(s.deferred[i], s.deferred[j]) < 0
		})
	}

	for _, ev := range s.deferred {
		dst := s.Entity(ev.Destination())
		if dst == nil {
			log.Panicf("sim: event %s addressed to unknown entity", ev)
		}
		if dst.Enabled() {
			dst.Process(ev)
		}
	}
	s.deferred = s.deferred[:0]

	if s.future.len() == 0 {
		return false
	}

	ev := s.future.pop()
	if ev.Time() < s.clock.Time() {
		log.Panicf("sim: event %s scheduled for the past, clock is at %d", ev, s.clock.Time())
	}
	s.clock.setTime(ev.Time())
	s.deferred = append(s.deferred, ev)

	for s.future.len() > 0 && s.future.peek().Time() == s.clock.Time() {
		s.deferred = append(s.deferred, s.future.pop())
	}
	return true
}
