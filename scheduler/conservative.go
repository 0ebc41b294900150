package scheduler

import (
	log "github.com/sirupsen/logrus"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/sim"
	"github.com/servsim/servsim/stats"
)

// ConservativeBackfillScheduler implements conservative backfilling:
// every job that cannot start on arrival books the earliest feasible
// future slot, so no queued job is ever delayed by a later arrival. A
// cancellation compresses the schedule, moving booked jobs earlier
// where the freed resources allow it.
type ConservativeBackfillScheduler struct {
	backfillBase
}

// NewConservativeBackfillScheduler creates the policy. A nil comparator
// yields FIFO order; a nil receiver disables metrics.
func NewConservativeBackfillScheduler(name string, cmp JobComparator, stat stats.Receiver) *ConservativeBackfillScheduler {
	return &ConservativeBackfillScheduler{
		backfillBase: newBackfillBase(name, cmp, stat),
	}
}

// Process handles the start events of booked jobs and the completion
// events of running jobs.
func (s *ConservativeBackfillScheduler) Process(ev *sim.Event) {
	switch ev.Type() {
	case sim.TaskStart:
		j, ok := ev.Content().(*job.Job)
		if !ok {
			log.Errorf("%s: invalid job received for start", s.Name())
			return
		}
		s.beginBookedJob(j)
		s.waiting.removeJob(j)
		s.running = append(s.running, j)

	case sim.TaskComplete:
		j, ok := ev.Content().(*job.Job)
		if !ok {
			log.Errorf("%s: invalid job received for completion", s.Name())
			return
		}
		s.DoJobCompletion(j)

	default:
		log.Warnf("%s: unexpected event %s", s.Name(), ev)
	}
}

// DoJobProcessing starts an arriving job if it fits, else books the
// earliest feasible slot for it.
func (s *ConservativeBackfillScheduler) DoJobProcessing(j *job.Job) {
	if s.startJob(j) {
		s.running = append(s.running, j)
		return
	}
	s.waiting.add(j)
	s.enqueueJob(j)
	if !j.Status().Terminal() {
		s.stat.Counter("jobsQueued").Inc(1)
	}
}

// DoJobCompletion finishes a running job. Booked jobs keep their slots;
// only a cancellation can move them.
func (s *ConservativeBackfillScheduler) DoJobCompletion(j *job.Job) {
	s.completeJob(j)
}

// DoJobCancel cancels a running or booked job and compresses the
// schedule: every movable job booked after the freed window is placed
// again, in queue order.
func (s *ConservativeBackfillScheduler) DoJobCancel(id int) {
	log.Tracef("%s: cancelling job %d", s.Name(), id)

	cjob := s.removeRunning(id)
	if cjob != nil {
		if act := cjob.CurrentActivity(); act != nil {
			act.SetFinishTime(s.CurrentTime())
		}
	} else {
		cjob = s.waiting.remove(id)
	}
	if cjob == nil {
		log.Errorf("%s: job %d not found for cancellation", s.Name(), id)
		return
	}

	relStart := s.releaseWindow(cjob)
	affected := s.compressSchedule(relStart)
	affected[cjob.ID()] = struct{}{}
	s.cancelJobEvents(affected)
	s.rescheduleJobs(affected, s.enqueueJob)

	s.setJobStatus(cjob, job.StatusCancelled)
	s.sendJobToOwner(cjob)
	s.stat.Counter("jobsCancelled").Inc(1)
}

// enqueueJob books the earliest feasible slot for a job that cannot
// start now. A job no slot can ever fit, e.g. one asking for more
// resources than the pool has, fails instead.
func (s *ConservativeBackfillScheduler) enqueueJob(j *job.Job) {
	e := s.pool().FindStartTime(j.NumResources(), s.CurrentTime(), j.Duration())
	if e == nil {
		log.Tracef("%s: no slot can ever fit job %d asking for %d resources",
			s.Name(), j.ID(), j.NumResources())
		s.waiting.removeJob(j)
		s.failJob(j)
		return
	}
	start := e.Time()
	selected := e.Ranges().SelectResources(j.NumResources())
	s.allocateResourcesToJob(start, j, selected)
	j.SetStartTime(start)
	log.Tracef("%s: job %d booked to start at %d on %s", s.Name(), j.ID(), start, selected)
}
