package job

import (
	"fmt"

	"github.com/servsim/servsim/profile"
)

const (
	// TimeNotSet marks an unset time field.
	TimeNotSet int64 = -1
	// IDNotSet marks an unset work unit id.
	IDNotSet = -1
)

// WorkUnit is anything scheduled on resources: a job or an advance
// reservation. It has an identity, a duration, a number of required
// resources and a status.
type WorkUnit interface {
	ID() int
	OwnerID() int
	SubmitTime() int64
	StartTime() int64
	FinishTime() int64
	Duration() int64
	NumResources() int
	Priority() int
	Status() Status
	Ranges() *profile.RangeList
	SetRanges(r *profile.RangeList)
	SetStatus(st Status, time int64) bool
}

// Unit is the base implementation of WorkUnit.
type Unit struct {
	id         int
	ownerID    int
	submitTime int64
	startTime  int64
	finishTime int64
	duration   int64
	numRes     int
	priority   int
	deadline   int64
	status     Status
	ranges     *profile.RangeList

	listeners []StatusListener
}

// NewUnit creates a work unit requiring numRes resources for the given
// duration. The id comes from the caller: drivers draw ids from their
// simulation's NextUnitID and trace readers keep the ids found in the
// trace, so this package holds no id state of its own. Lower priority
// values mean higher priority.
func NewUnit(id int, duration int64, numRes, priority int) *Unit {
	if duration <= 0 {
		panic(fmt.Sprintf("job: invalid duration %d", duration))
	}
	if numRes < 1 {
		panic(fmt.Sprintf("job: invalid number of resources %d", numRes))
	}
	if priority < 0 {
		panic(fmt.Sprintf("job: invalid priority %d", priority))
	}
	return &Unit{
		id:         id,
		ownerID:    IDNotSet,
		submitTime: TimeNotSet,
		startTime:  TimeNotSet,
		finishTime: TimeNotSet,
		duration:   duration,
		numRes:     numRes,
		priority:   priority,
		deadline:   TimeNotSet,
		status:     StatusUnknown,
	}
}

// ID returns the work unit id.
func (u *Unit) ID() int { return u.id }

// OwnerID returns the id of the entity that submitted the unit.
func (u *Unit) OwnerID() int { return u.ownerID }

// SetOwnerID records the submitting entity.
func (u *Unit) SetOwnerID(id int) { u.ownerID = id }

// SubmitTime returns when the unit arrived at the server, or TimeNotSet.
func (u *Unit) SubmitTime() int64 { return u.submitTime }

// SetSubmitTime stamps the arrival time and enqueues the unit.
func (u *Unit) SetSubmitTime(t int64) {
	u.submitTime = t
	u.SetStatus(StatusEnqueued, t)
}

// StartTime returns when execution first began, or TimeNotSet.
func (u *Unit) StartTime() int64 { return u.startTime }

// SetStartTime records the expected or actual start time.
func (u *Unit) SetStartTime(t int64) { u.startTime = t }

// FinishTime returns when the unit reached a terminal status, or
// TimeNotSet.
func (u *Unit) FinishTime() int64 { return u.finishTime }

// Duration returns the unit's requested duration.
func (u *Unit) Duration() int64 { return u.duration }

// NumResources returns how many resources the unit requires.
func (u *Unit) NumResources() int { return u.numRes }

// Priority returns the unit's priority; lower values are more urgent.
func (u *Unit) Priority() int { return u.priority }

// Deadline returns the unit's deadline duration, or TimeNotSet.
func (u *Unit) Deadline() int64 { return u.deadline }

// SetDeadline sets the deadline duration.
func (u *Unit) SetDeadline(d int64) {
	if d <= 0 {
		panic(fmt.Sprintf("job: invalid deadline %d", d))
	}
	u.deadline = d
}

// Status returns the unit's current status.
func (u *Unit) Status() Status { return u.status }

// Ranges returns the resources assigned to the unit, or nil.
func (u *Unit) Ranges() *profile.RangeList { return u.ranges }

// SetRanges records the resources assigned to the unit.
func (u *Unit) SetRanges(r *profile.RangeList) { u.ranges = r }

// AddStatusListener subscribes to status changes of this unit.
func (u *Unit) AddStatusListener(l StatusListener) {
	u.listeners = append(u.listeners, l)
}

// SetStatus moves the unit to st at the given time. Disallowed
// transitions are no-ops returning false. Entering execution from
// anything but paused records the start time; reaching a terminal status
// from execution or paused records the finish time.
func (u *Unit) SetStatus(st Status, time int64) bool {
	if !st.CanTransitionFrom(u.status) {
		return false
	}

	prev := u.status
	u.status = st

	if st == StatusInExecution && prev != StatusPaused {
		u.startTime = time
	}
	if st.Terminal() && (prev == StatusInExecution || prev == StatusPaused) {
		u.finishTime = time
	}

	ev := StatusChangeEvent{Unit: u, PrevStatus: prev, Time: time}
	for _, l := range u.listeners {
		l(ev)
	}
	return true
}

func (u *Unit) String() string {
	return fmt.Sprintf("WorkUnit{id=%d, submit=%d, start=%d, finish=%d, duration=%d, numRes=%d, priority=%d, status=%s}",
		u.id, u.submitTime, u.startTime, u.finishTime, u.duration, u.numRes, u.priority, u.status)
}
