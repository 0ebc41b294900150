package scheduler

import (
	log "github.com/sirupsen/logrus"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/sim"
	"github.com/servsim/servsim/stats"
)

// AggressiveBackfillScheduler implements aggressive (EASY) backfilling:
// at most one waiting job, the pivot, holds a booked future slot, and a
// later arrival may jump the queue only if it does not delay the
// pivot's booked start. The pivot's slot stays allocated in the
// profile, so a plain feasibility check on the arrival enforces the
// barrier.
//
// The policy follows the algorithm of Mu'alem and Feitelson,
// "Utilization, Predictability, Workloads, and User Runtime Estimates
// in Scheduling the IBM SP2 with Backfilling", IEEE TPDS 12(6), 2001.
type AggressiveBackfillScheduler struct {
	backfillBase

	pivot *job.Job
}

// NewAggressiveBackfillScheduler creates the policy. A nil comparator
// yields FIFO order; a nil receiver disables metrics.
func NewAggressiveBackfillScheduler(name string, cmp JobComparator, stat stats.Receiver) *AggressiveBackfillScheduler {
	return &AggressiveBackfillScheduler{
		backfillBase: newBackfillBase(name, cmp, stat),
	}
}

// Process handles the start event of the pivot and the completion
// events of running jobs.
func (s *AggressiveBackfillScheduler) Process(ev *sim.Event) {
	switch ev.Type() {
	case sim.TaskStart:
		j, ok := ev.Content().(*job.Job)
		if !ok {
			log.Errorf("%s: invalid job received for start", s.Name())
			return
		}
		// only the pivot books a start event
		s.beginBookedJob(j)
		s.waiting.removeJob(j)
		s.running = append(s.running, j)
		s.pivot = nil
		s.reschedule()

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

// DoJobProcessing starts an arriving job if that does not interfere
// with the booked pivot, else queues it.
func (s *AggressiveBackfillScheduler) DoJobProcessing(j *job.Job) {
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

// DoJobCompletion finishes a job and re-evaluates the waiting queue.
func (s *AggressiveBackfillScheduler) DoJobCompletion(j *job.Job) {
	s.completeJob(j)
	s.reschedule()
}

// DoJobCancel cancels the pivot, a running job or a plain queued job.
func (s *AggressiveBackfillScheduler) DoJobCancel(id int) {
	log.Tracef("%s: cancelling job %d", s.Name(), id)

	var cjob *job.Job
	wasPivot := false
	if s.pivot != nil && s.pivot.ID() == id {
		cjob = s.pivot
		s.pivot = nil
		wasPivot = true
	}
	if cjob == nil {
		cjob = s.removeRunning(id)
	}

	if cjob != nil {
		relStart := s.releaseWindow(cjob)
		affected := s.compressSchedule(relStart)
		affected[cjob.ID()] = struct{}{}
		s.cancelJobEvents(affected)

		if wasPivot {
			s.waiting.removeJob(cjob)
		} else if act := cjob.CurrentActivity(); act != nil {
			act.SetFinishTime(s.CurrentTime())
		}
		// compression may have released the pivot's slot too
		if s.pivot != nil {
			if _, ok := affected[s.pivot.ID()]; ok {
				s.pivot = nil
			}
		}
		s.reschedule()
	} else {
		cjob = s.waiting.remove(id)
	}

	if cjob == nil {
		log.Errorf("%s: job %d not found for cancellation", s.Name(), id)
		return
	}
	s.setJobStatus(cjob, job.StatusCancelled)
	s.sendJobToOwner(cjob)
	s.stat.Counter("jobsCancelled").Inc(1)
}

// enqueueJob makes the job the pivot if there is none, booking the
// earliest feasible slot; otherwise the job waits without a booking. A
// job no slot can ever fit, e.g. one asking for more resources than the
// pool has, fails instead.
func (s *AggressiveBackfillScheduler) enqueueJob(j *job.Job) {
	if s.pivot == nil {
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
		s.pivot = j
		log.Tracef("%s: job %d is the pivot, booked to start at %d on %s",
			s.Name(), j.ID(), start, selected)
		return
	}
	s.setJobStatus(j, job.StatusWaiting)
}

// reschedule re-evaluates every waiting job except the pivot: jobs that
// fit start now, and the first that does not becomes the pivot if the
// slot is vacant.
func (s *AggressiveBackfillScheduler) reschedule() {
	movable := make(map[int]struct{})
	for _, j := range s.waiting.all() {
		if s.pivot != nil && j.ID() == s.pivot.ID() {
			continue
		}
		movable[j.ID()] = struct{}{}
	}
	s.rescheduleJobs(movable, s.enqueueJob)
}
