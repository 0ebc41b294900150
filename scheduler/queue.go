package scheduler

import (
	"sort"

	"github.com/servsim/servsim/job"
)

// jobQueue is an ordered collection of jobs. The order is applied on
// demand by Sort, which is when schedulers reconsider the queue; in
// between, jobs keep their insertion positions.
type jobQueue struct {
	jobs []*job.Job
	cmp  JobComparator
}

func newJobQueue(cmp JobComparator) *jobQueue {
	if cmp == nil {
		cmp = FIFOOrder
	}
	return &jobQueue{cmp: cmp}
}

func (q *jobQueue) add(j *job.Job) {
	q.jobs = append(q.jobs, j)
}

// get returns the queued job with the given id, or nil.
func (q *jobQueue) get(id int) *job.Job {
	for _, j := range q.jobs {
		if j.ID() == id {
			return j
		}
	}
	return nil
}

// remove takes the job with the given id out of the queue and returns
// it, or nil if it is not queued.
func (q *jobQueue) remove(id int) *job.Job {
	for i, j := range q.jobs {
		if j.ID() == id {
			copy(q.jobs[i:], q.jobs[i+1:])
			q.jobs[len(q.jobs)-1] = nil
			q.jobs = q.jobs[:len(q.jobs)-1]
			return j
		}
	}
	return nil
}

func (q *jobQueue) removeJob(j *job.Job) bool {
	return q.remove(j.ID()) != nil
}

// sortQueue applies the queue's comparator. The sort is stable so jobs
// the comparator considers equal keep their insertion order.
func (q *jobQueue) sortQueue() {
	cmp := q.cmp
	sort.SliceStable(q.jobs, func(i, k int) bool {
		return cmp(q.jobs[i], q.jobs[k]) < 0
	})
}

func (q *jobQueue) len() int {
	return len(q.jobs)
}

// all returns the backing slice; callers that mutate the queue while
// iterating must work on a copy.
func (q *jobQueue) all() []*job.Job {
	return q.jobs
}
