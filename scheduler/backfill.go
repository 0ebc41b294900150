package scheduler

import (
	log "github.com/sirupsen/logrus"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/stats"
)

// backfillBase carries the machinery shared by the backfilling
// policies: the queues, schedule compression and rescheduling after a
// cancellation.
type backfillBase struct {
	schedulerBase

	waiting *jobQueue
	running []*job.Job
}

func newBackfillBase(name string, cmp JobComparator, stat stats.Receiver) backfillBase {
	return backfillBase{
		schedulerBase: newSchedulerBase(name, stat),
		waiting:       newJobQueue(cmp),
	}
}

// cancelJobEvents removes pending start and completion events of the
// given jobs from the simulation.
func (b *backfillBase) cancelJobEvents(ids map[int]struct{}) {
	if len(ids) == 0 {
		return
	}
	b.Sim().CancelFutureEvents(filterJobEventsByIDs(b.ID(), ids))
}

// compressSchedule releases the booked slot of every movable waiting
// job that starts after the given time. The affected jobs must be
// rescheduled by the caller; their pending events are left in place
// until cancelJobEvents runs.
func (b *backfillBase) compressSchedule(time int64) map[int]struct{} {
	affected := make(map[int]struct{})
	for _, j := range b.waiting.all() {
		// booked at or before the reference point, it cannot improve
		if j.StartTime() <= time || j.HasReservation() {
			continue
		}
		start := j.StartTime()
		b.pool().ReleaseResources(start, start+j.Duration(), j.Ranges())
		affected[j.ID()] = struct{}{}
	}
	return affected
}

// rescheduleJobs walks the sorted waiting queue and places every
// affected movable job again: jobs that fit now start, the rest get a
// new slot via enqueue. With a nil affected set every movable waiting
// job is reconsidered.
func (b *backfillBase) rescheduleJobs(affected map[int]struct{}, enqueue func(*job.Job)) {
	b.waiting.sortQueue()
	queued := append([]*job.Job(nil), b.waiting.all()...)
	for _, j := range queued {
		if j.HasReservation() {
			continue
		}
		if affected != nil {
			if _, ok := affected[j.ID()]; !ok {
				continue
			}
		}
		if b.startJob(j) {
			b.running = append(b.running, j)
			b.waiting.removeJob(j)
		} else {
			enqueue(j)
		}
	}
}

// completeJob finishes a running job and returns it to its owner.
func (b *backfillBase) completeJob(j *job.Job) {
	log.Tracef("%s: completing job %d at %d", b.Name(), j.ID(), b.CurrentTime())
	b.setJobStatus(j, job.StatusComplete)
	if act := j.CurrentActivity(); act != nil {
		act.SetFinishTime(b.CurrentTime())
	}
	b.removeRunning(j.ID())
	b.stat.Counter("jobsCompleted").Inc(1)
	b.sendJobToOwner(j)
}

// releaseWindow computes the slot still held by a job and returns it to
// the pool: for a running job the tail from now, for a booked job the
// whole future slot. Returns the start of the released window.
func (b *backfillBase) releaseWindow(j *job.Job) int64 {
	now := b.CurrentTime()
	start := now
	if j.StartTime() > now {
		start = j.StartTime()
	}
	elapsed := start - j.StartTime()
	if elapsed < 0 || j.StartTime() == job.TimeNotSet {
		elapsed = 0
	}
	finish := start + j.Duration() - elapsed
	b.pool().ReleaseResources(start, finish, j.Ranges())
	return start
}

func (b *backfillBase) removeRunning(id int) *job.Job {
	for i, j := range b.running {
		if j.ID() == id {
			copy(b.running[i:], b.running[i+1:])
			b.running[len(b.running)-1] = nil
			b.running = b.running[:len(b.running)-1]
			return j
		}
	}
	return nil
}
