package scheduler

import (
	log "github.com/sirupsen/logrus"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/sim"
	"github.com/servsim/servsim/stats"
)

// FCFSScheduler runs jobs in queue order: an arriving job starts
// immediately if enough resources are free, otherwise it waits. When a
// job finishes or is cancelled, waiting jobs are started from the head
// of the sorted queue until the first one that does not fit.
//
// The queue order is first-come-first-served unless another comparator
// is supplied.
type FCFSScheduler struct {
	schedulerBase

	waiting *jobQueue
	running []*job.Job
}

// NewFCFSScheduler creates the policy. A nil comparator yields FIFO
// order; a nil receiver disables metrics.
func NewFCFSScheduler(name string, cmp JobComparator, stat stats.Receiver) *FCFSScheduler {
	return &FCFSScheduler{
		schedulerBase: newSchedulerBase(name, stat),
		waiting:       newJobQueue(cmp),
	}
}

// Process handles the completion events the scheduler sends itself.
func (s *FCFSScheduler) Process(ev *sim.Event) {
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

// DoJobProcessing starts an arriving job if it fits, else queues it.
func (s *FCFSScheduler) DoJobProcessing(j *job.Job) {
	if s.startJob(j) {
		s.running = append(s.running, j)
		return
	}
	log.Tracef("%s: queueing job %d at %d", s.Name(), j.ID(), s.CurrentTime())
	s.waiting.add(j)
	s.setJobStatus(j, job.StatusWaiting)
	s.stat.Counter("jobsQueued").Inc(1)
}

// DoJobCompletion finishes a running job and tries to start queued
// ones.
func (s *FCFSScheduler) DoJobCompletion(j *job.Job) {
	log.Tracef("%s: completing job %d at %d", s.Name(), j.ID(), s.CurrentTime())
	s.setJobStatus(j, job.StatusComplete)
	if act := j.CurrentActivity(); act != nil {
		act.SetFinishTime(s.CurrentTime())
	}
	s.removeRunning(j.ID())
	s.stat.Counter("jobsCompleted").Inc(1)

	s.startQueuedJobs()
	s.sendJobToOwner(j)
}

// DoJobCancel cancels a waiting or running job. Cancelling a running
// job returns the rest of its slot to the pool and may start queued
// jobs.
func (s *FCFSScheduler) DoJobCancel(id int) {
	log.Tracef("%s: cancelling job %d", s.Name(), id)

	cjob := s.removeRunning(id)
	if cjob != nil {
		now := s.CurrentTime()
		start := cjob.StartTime()
		if start < 0 {
			start = 0
		}
		s.pool().ReleaseResources(now, start+cjob.RemainingWork(), cjob.Ranges())
		s.Sim().CancelFutureEvents(filterJobCompletionEvents(s.ID(), id))
		if act := cjob.CurrentActivity(); act != nil {
			act.SetFinishTime(now)
		}
		// the freed slot may fit queued jobs
		s.startQueuedJobs()
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

// startQueuedJobs starts jobs from the head of the sorted waiting queue
// until the first one that does not fit.
func (s *FCFSScheduler) startQueuedJobs() {
	s.waiting.sortQueue()
	queued := append([]*job.Job(nil), s.waiting.all()...)
	for _, j := range queued {
		if !s.startJob(j) {
			break
		}
		s.running = append(s.running, j)
		s.waiting.removeJob(j)
	}
}

func (s *FCFSScheduler) removeRunning(id int) *job.Job {
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
