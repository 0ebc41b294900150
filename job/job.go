package job

import (
	"fmt"

	"github.com/servsim/servsim/profile"
)

// ResumeOverhead computes the extra work a job pays when it resumes
// after being preempted, e.g. for reloading state.
type ResumeOverhead func(j *Job) int64

// FixedResumeOverhead charges a constant amount of work per resume.
func FixedResumeOverhead(overhead int64) ResumeOverhead {
	return func(*Job) int64 { return overhead }
}

// ProportionalResumeOverhead charges a fraction of the job's remaining
// work per resume.
func ProportionalResumeOverhead(fraction float64) ResumeOverhead {
	return func(j *Job) int64 { return int64(fraction * float64(j.RemainingWork())) }
}

// Job is a work unit that executes on resources. Besides the base unit
// fields it tracks the work still to be done, the execution bursts
// accumulated across preemptions and an optional reservation binding.
type Job struct {
	Unit

	remainingWork int64
	activities    []*Activity
	reservationID int
}

// New creates a job. The id comes from the caller, e.g. the
// simulation's NextUnitID or a workload trace.
func New(id int, duration int64, numRes, priority int) *Job {
	j := &Job{Unit: *NewUnit(id, duration, numRes, priority), reservationID: IDNotSet}
	j.remainingWork = duration
	return j
}

// RemainingWork returns the work the job still has to perform.
func (j *Job) RemainingWork() int64 {
	return j.remainingWork
}

// SetRemainingWork overrides the job's remaining work.
func (j *Job) SetRemainingWork(w int64) {
	j.remainingWork = w
}

// ReservationID returns the id of the reservation this job runs under,
// or IDNotSet.
func (j *Job) ReservationID() int {
	return j.reservationID
}

// SetReservationID binds the job to a reservation.
func (j *Job) SetReservationID(id int) {
	j.reservationID = id
}

// HasReservation reports whether the job is bound to a reservation.
func (j *Job) HasReservation() bool {
	return j.reservationID != IDNotSet
}

// Activities returns the job's execution bursts, oldest first.
func (j *Job) Activities() []*Activity {
	return j.activities
}

// BeginActivity records the start of an execution burst on the given
// ranges.
func (j *Job) BeginActivity(startTime int64, ranges *profile.RangeList) {
	j.activities = append(j.activities, NewActivity(startTime, ranges))
}

// CurrentActivity returns the burst currently running, or nil.
func (j *Job) CurrentActivity() *Activity {
	if len(j.activities) == 0 {
		return nil
	}
	last := j.activities[len(j.activities)-1]
	if last.FinishTime() != TimeNotSet {
		return nil
	}
	return last
}

// Preempt ends the current burst at the given time and debits the
// elapsed slice from the remaining work.
func (j *Job) Preempt(time int64) {
	act := j.CurrentActivity()
	if act == nil {
		return
	}
	act.SetFinishTime(time)
	j.remainingWork -= time - act.StartTime()
	if j.remainingWork < 0 {
		j.remainingWork = 0
	}
}

// ChargeResumeOverhead adds the configured resume overhead to the
// remaining work. A nil overhead charges nothing.
func (j *Job) ChargeResumeOverhead(overhead ResumeOverhead) {
	if overhead != nil {
		j.remainingWork += overhead(j)
	}
}

func (j *Job) String() string {
	return fmt.Sprintf("Job{id=%d, submit=%d, start=%d, finish=%d, duration=%d, remaining=%d, numRes=%d, priority=%d, status=%s}",
		j.ID(), j.SubmitTime(), j.StartTime(), j.FinishTime(), j.Duration(),
		j.remainingWork, j.NumResources(), j.Priority(), j.Status())
}
