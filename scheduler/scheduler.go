// Package scheduler implements the scheduling policies a server can
// run: first-come-first-served, preemptive priority, aggressive (EASY)
// backfilling, conservative backfilling and conservative backfilling
// with advance reservations. All policies operate on the availability
// profile of the server's resource pool.
package scheduler

import (
	log "github.com/sirupsen/logrus"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/profile"
	"github.com/servsim/servsim/server"
	"github.com/servsim/servsim/sim"
	"github.com/servsim/servsim/stats"
)

// schedulerBase carries what every policy shares: the server
// attributes, the work unit listeners and the helpers that pair profile
// mutation with event scheduling.
type schedulerBase struct {
	sim.EntityBase

	attr      *server.Attributes
	listeners []job.StatusListener
	stat      stats.Receiver
}

func newSchedulerBase(name string, stat stats.Receiver) schedulerBase {
	if stat == nil {
		stat = stats.NilReceiver()
	}
	return schedulerBase{
		EntityBase: sim.NewEntityBase(name),
		stat:       stat.Scope("scheduler", name),
	}
}

// Initialize hands the scheduler its server's attributes.
func (b *schedulerBase) Initialize(attr *server.Attributes) {
	b.attr = attr
}

// Attributes returns the attributes of the server this scheduler works
// for.
func (b *schedulerBase) Attributes() *server.Attributes {
	return b.attr
}

func (b *schedulerBase) pool() server.ResourcePool {
	return b.attr.ResourcePool()
}

// AddJobListener subscribes a listener to status changes of every work
// unit handled by this scheduler.
func (b *schedulerBase) AddJobListener(l job.StatusListener) {
	b.listeners = append(b.listeners, l)
}

// setJobStatus moves a work unit to the given status at the current
// time and notifies the listeners. Disallowed transitions are no-ops.
func (b *schedulerBase) setJobStatus(u job.WorkUnit, st job.Status) bool {
	prev := u.Status()
	if !u.SetStatus(st, b.CurrentTime()) {
		return false
	}
	ev := job.StatusChangeEvent{Unit: u, PrevStatus: prev, Time: b.CurrentTime()}
	for _, l := range b.listeners {
		l(ev)
	}
	return true
}

// sendJobToOwner returns a finished job to the entity that submitted
// it.
func (b *schedulerBase) sendJobToOwner(j *job.Job) {
	if j.OwnerID() == job.IDNotSet {
		log.Tracef("job %d has no owner", j.ID())
		return
	}
	b.SendNow(j.OwnerID(), sim.ResultArrive, j)
}

// startJob tries to start a job right now. On success the job's
// resources are allocated over its remaining work, the job enters
// execution and a completion event is scheduled; on failure the profile
// is left untouched.
func (b *schedulerBase) startJob(j *job.Job) bool {
	now := b.CurrentTime()
	e := b.pool().CheckAvailability(j.NumResources(), now, j.RemainingWork())
	if e == nil || e.Ranges().NumItems() < j.NumResources() {
		return false
	}
	selected := e.Ranges().SelectResources(j.NumResources())
	b.runJob(j, selected)
	log.Tracef("starting job %d at %d", j.ID(), now)
	return true
}

// runJob puts a job in execution on the selected ranges, starting now.
func (b *schedulerBase) runJob(j *job.Job, selected *profile.RangeList) {
	now := b.CurrentTime()
	b.setJobStatus(j, job.StatusInExecution)
	b.pool().AllocateResources(selected, now, now+j.RemainingWork())
	j.SetRanges(selected)
	j.BeginActivity(now, selected)
	b.SendSelf(j.RemainingWork(), sim.TaskComplete, j)
	b.stat.Counter("jobsStarted").Inc(1)
}

// allocateResourcesToJob books a future slot for a job: the resources
// are allocated over [startTime, startTime+duration), the job waits and
// a start event is scheduled at startTime.
func (b *schedulerBase) allocateResourcesToJob(startTime int64, j *job.Job, selected *profile.RangeList) {
	now := b.CurrentTime()
	b.pool().AllocateResources(selected, startTime, startTime+j.Duration())
	b.SendSelf(startTime-now, sim.TaskStart, j)
	b.setJobStatus(j, job.StatusWaiting)
	j.SetRanges(selected)
}

// beginBookedJob puts a job with a previously booked slot in execution
// when its start event fires. The slot was allocated over the job's
// full duration, so completion is due one duration from now.
func (b *schedulerBase) beginBookedJob(j *job.Job) {
	b.setJobStatus(j, job.StatusInExecution)
	j.BeginActivity(b.CurrentTime(), j.Ranges())
	b.SendSelf(j.Duration(), sim.TaskComplete, j)
	b.stat.Counter("jobsStarted").Inc(1)
}

// failJob marks a job failed and returns it to its owner.
func (b *schedulerBase) failJob(j *job.Job) {
	b.setJobStatus(j, job.StatusFailed)
	b.sendJobToOwner(j)
	b.stat.Counter("jobsFailed").Inc(1)
}
