package scheduler

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/sim"
	"github.com/servsim/servsim/stats"
)

// PreemptionScheduler extends queue-ordered scheduling with preemption:
// when an arriving job cannot start and a running job orders strictly
// after it under the comparator, the running job is paused, its
// remaining slot returns to the pool and the arrival takes its place.
// Paused jobs resume when capacity frees, paying the configured resume
// overhead.
type PreemptionScheduler struct {
	schedulerBase

	waiting        *jobQueue
	running        []*job.Job
	cmp            JobComparator
	resumeOverhead job.ResumeOverhead
}

// NewPreemptionScheduler creates the policy. The comparator decides
// both queue order and preemption victims; a nil comparator yields FIFO
// order, under which no arrival ever preempts. A nil overhead makes
// resuming free.
func NewPreemptionScheduler(name string, cmp JobComparator, overhead job.ResumeOverhead, stat stats.Receiver) *PreemptionScheduler {
	if cmp == nil {
		cmp = FIFOOrder
	}
	return &PreemptionScheduler{
		schedulerBase:  newSchedulerBase(name, stat),
		waiting:        newJobQueue(cmp),
		cmp:            cmp,
		resumeOverhead: overhead,
	}
}

// Process handles the completion events the scheduler sends itself.
func (s *PreemptionScheduler) Process(ev *sim.Event) {
	if ev.Type() == sim.TaskComplete {
		j, ok := ev.Content().(*job.Job)
		if !ok {
			log.Errorf("%s: invalid job received for completion", s.Name())
			return
		}
		s.DoJobCompletion(j)
		return
	}
	log.Warnf("%s: unexpected event %s", s.Name(), ev)
}

// DoJobProcessing starts an arriving job, preempting a lower-ordered
// running job if needed, or queues it.
func (s *PreemptionScheduler) DoJobProcessing(j *job.Job) {
	log.Tracef("%s: arrival of job %d at %d", s.Name(), j.ID(), s.CurrentTime())

	if s.startJob(j) {
		s.running = append(s.running, j)
		return
	}

	if victim := s.findJobToPreempt(j); victim != nil {
		log.Tracef("%s: preempting job %d to run job %d at %d",
			s.Name(), victim.ID(), j.ID(), s.CurrentTime())
		s.preempt(victim)
		if s.startJob(j) {
			s.running = append(s.running, j)
		} else {
			log.Errorf("%s: job %d was preempted but job %d did not start",
				s.Name(), victim.ID(), j.ID())
			s.waiting.add(j)
			s.setJobStatus(j, job.StatusWaiting)
		}
		return
	}

	log.Tracef("%s: queueing job %d at %d", s.Name(), j.ID(), s.CurrentTime())
	s.waiting.add(j)
	s.setJobStatus(j, job.StatusWaiting)
	s.stat.Counter("jobsQueued").Inc(1)
}

// DoJobCompletion finishes a running job and lets waiting or paused
// jobs take the freed capacity.
func (s *PreemptionScheduler) DoJobCompletion(j *job.Job) {
	log.Tracef("%s: completing job %d at %d", s.Name(), j.ID(), s.CurrentTime())
	s.setJobStatus(j, job.StatusComplete)
	if act := j.CurrentActivity(); act != nil {
		act.SetFinishTime(s.CurrentTime())
	}
	s.removeRunning(j.ID())
	s.stat.Counter("jobsCompleted").Inc(1)

	s.startWaitingJobs()
	s.sendJobToOwner(j)
}

// DoJobCancel cancels a waiting, paused or running job.
func (s *PreemptionScheduler) DoJobCancel(id int) {
	log.Tracef("%s: cancelling job %d", s.Name(), id)

	cjob := s.removeRunning(id)
	if cjob != nil {
		now := s.CurrentTime()
		finish := now + cjob.RemainingWork()
		if act := cjob.CurrentActivity(); act != nil {
			finish = act.StartTime() + cjob.RemainingWork()
			act.SetFinishTime(now)
		}
		s.pool().ReleaseResources(now, finish, cjob.Ranges())
		s.Sim().CancelFutureEvents(filterJobCompletionEvents(s.ID(), id))
		s.startWaitingJobs()
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

// preempt pauses a running job and returns the remainder of its slot to
// the pool.
func (s *PreemptionScheduler) preempt(v *job.Job) {
	now := s.CurrentTime()
	s.removeRunning(v.ID())

	// Preempt ends the burst and debits the elapsed slice, leaving the
	// remaining work equal to the unused tail of the allocated slot.
	v.Preempt(now)
	s.pool().ReleaseResources(now, now+v.RemainingWork(), v.Ranges())
	s.Sim().CancelFutureEvents(filterJobCompletionEvents(s.ID(), v.ID()))

	s.setJobStatus(v, job.StatusPaused)
	s.waiting.add(v)
	s.stat.Counter("jobsPreempted").Inc(1)
}

// findJobToPreempt looks for a running job the arriving one may
// displace: the search walks the comparator-sorted running queue from
// its tail, skipping jobs whose current burst already covers their
// remaining work.
func (s *PreemptionScheduler) findJobToPreempt(j *job.Job) *job.Job {
	cmp := s.cmp
	sort.SliceStable(s.running, func(i, k int) bool {
		return cmp(s.running[i], s.running[k]) < 0
	})
	now := s.CurrentTime()

	for i := len(s.running) - 1; i >= 0; i-- {
		candidate := s.running[i]
		act := candidate.CurrentActivity()
		if act == nil || now-act.StartTime() >= candidate.RemainingWork() {
			// about to complete, a completion event is imminent
			continue
		}
		if cmp(j, candidate) < 0 {
			return candidate
		}
	}
	return nil
}

// startWaitingJobs walks the sorted waiting queue, resuming paused jobs
// and starting waiting ones, until the first job that does not fit.
func (s *PreemptionScheduler) startWaitingJobs() {
	s.waiting.sortQueue()
	queued := append([]*job.Job(nil), s.waiting.all()...)
	for _, j := range queued {
		var ok bool
		if j.Status() == job.StatusPaused {
			ok = s.resumeJob(j)
		} else {
			ok = s.startJob(j)
		}
		if !ok {
			break
		}
		s.running = append(s.running, j)
		s.waiting.removeJob(j)
	}
}

// resumeJob restarts a paused job, charging the resume overhead on top
// of its remaining work.
func (s *PreemptionScheduler) resumeJob(j *job.Job) bool {
	now := s.CurrentTime()
	var overhead int64
	if s.resumeOverhead != nil {
		overhead = s.resumeOverhead(j)
	}
	e := s.pool().CheckAvailability(j.NumResources(), now, j.RemainingWork()+overhead)
	if e == nil || e.Ranges().NumItems() < j.NumResources() {
		return false
	}
	selected := e.Ranges().SelectResources(j.NumResources())
	j.SetRemainingWork(j.RemainingWork() + overhead)
	s.runJob(j, selected)
	s.stat.Counter("jobsResumed").Inc(1)
	log.Tracef("%s: resuming job %d at %d", s.Name(), j.ID(), now)
	return true
}

func (s *PreemptionScheduler) removeRunning(id int) *job.Job {
	for i, j := range s.running {
		if j.ID() == id {
			copy(s.running[i:], s.running[i+1:])
			s.running[len(s.running)-1] = nil
			s.running = s.running[:len(s.running)-1]
			return j
		}
	}
	return nil
}
