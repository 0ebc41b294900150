package scheduler

import (
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/profile"
	"github.com/servsim/servsim/server"
	"github.com/servsim/servsim/sim"
	"github.com/servsim/servsim/stats"
)

// ReservationBackfillScheduler augments conservative backfilling with
// advance reservations. Accepted reservations are immovable: their
// window is allocated in the main profile, so ordinary jobs schedule
// around them, and released into a parallel reservation profile whose
// initial state is fully allocated. Jobs bound to a reservation draw
// resources from that parallel profile, restricted to the ranges the
// reservation holds.
type ReservationBackfillScheduler struct {
	ConservativeBackfillScheduler

	resProfile   *profile.SingleProfile
	reservations map[int]*job.Reservation
	resJobs      map[int][]*job.Job
}

// NewReservationBackfillScheduler creates the policy. A nil comparator
// yields FIFO order; a nil receiver disables metrics.
func NewReservationBackfillScheduler(name string, cmp JobComparator, stat stats.Receiver) *ReservationBackfillScheduler {
	return &ReservationBackfillScheduler{
		ConservativeBackfillScheduler: *NewConservativeBackfillScheduler(name, cmp, stat),
		reservations:                  make(map[int]*job.Reservation),
		resJobs:                       make(map[int][]*job.Job),
	}
}

// Initialize builds the reservation profile as the fully allocated
// mirror of the server's capacity. Accepting a reservation releases its
// window into this profile.
func (s *ReservationBackfillScheduler) Initialize(attr *server.Attributes) {
	s.ConservativeBackfillScheduler.Initialize(attr)

	capacity := attr.ResourcePool().Capacity()
	s.resProfile = profile.NewSingleProfile(capacity)
	full := profile.NewRangeList(profile.NewRange(0, capacity-1))
	s.resProfile.AllocateResourceRanges(full, 0, math.MaxInt64)
}

// Process handles reservation lifecycle events on top of the
// conservative behaviour.
func (s *ReservationBackfillScheduler) Process(ev *sim.Event) {
	switch ev.Type() {
	case sim.ReservationStart:
		r, ok := ev.Content().(*job.Reservation)
		if !ok {
			log.Errorf("%s: invalid reservation received for start", s.Name())
			return
		}
		s.setJobStatus(r, job.StatusInExecution)

	case sim.ReservationComplete:
		r, ok := ev.Content().(*job.Reservation)
		if !ok {
			log.Errorf("%s: invalid reservation received for completion", s.Name())
			return
		}
		s.setJobStatus(r, job.StatusComplete)
		delete(s.reservations, r.ID())
		delete(s.resJobs, r.ID())
		if r.OwnerID() != job.IDNotSet {
			s.SendNow(r.OwnerID(), sim.ReservationComplete, r)
		}
		s.stat.Counter("reservationsCompleted").Inc(1)

	default:
		s.ConservativeBackfillScheduler.Process(ev)
	}
}

// DoReservationProcessing accepts a reservation if its window fits the
// main profile, booking the window in both profiles, or fails it.
func (s *ReservationBackfillScheduler) DoReservationProcessing(r *job.Reservation) {
	now := s.CurrentTime()
	start := r.RequestedStartTime()
	if start < now {
		start = now
	}

	e := s.pool().CheckAvailability(r.NumResources(), start, r.Duration())
	if e == nil || e.Ranges().NumItems() < r.NumResources() {
		log.Tracef("%s: reservation %d for %d resources at %d cannot be honoured",
			s.Name(), r.ID(), r.NumResources(), start)
		s.setJobStatus(r, job.StatusFailed)
		s.respond(r)
		s.stat.Counter("reservationsRejected").Inc(1)
		return
	}

	selected := e.Ranges().SelectResources(r.NumResources())
	finish := start + r.Duration()
	s.pool().AllocateResources(selected, start, finish)
	s.resProfile.AddTimeSlot(start, finish, selected)
	r.SetRanges(selected)
	r.SetStartTime(start)
	s.setJobStatus(r, job.StatusWaiting)
	s.reservations[r.ID()] = r

	s.SendSelf(start-now, sim.ReservationStart, r)
	s.SendSelf(finish-now, sim.ReservationComplete, r)
	s.respond(r)
	s.stat.Counter("reservationsAccepted").Inc(1)
	log.Tracef("%s: reservation %d accepted over [%d, %d) on %s",
		s.Name(), r.ID(), start, finish, selected)
}

// DoReservationCancel reverts both profiles for the unused part of the
// window and cancels every job submitted against the reservation.
func (s *ReservationBackfillScheduler) DoReservationCancel(id int) {
	r, ok := s.reservations[id]
	if !ok {
		log.Errorf("%s: reservation %d not found for cancellation", s.Name(), id)
		return
	}
	delete(s.reservations, id)

	now := s.CurrentTime()
	winStart := r.StartTime()
	if winStart < now {
		winStart = now
	}
	winEnd := r.StartTime() + r.Duration()

	for _, dj := range s.resJobs[id] {
		if dj.Status().Terminal() {
			continue
		}
		s.cancelJobEvents(map[int]struct{}{dj.ID(): {}})
		s.releaseReservedJob(dj)
		s.removeRunning(dj.ID())
		s.waiting.removeJob(dj)
		s.setJobStatus(dj, job.StatusCancelled)
		s.sendJobToOwner(dj)
	}
	delete(s.resJobs, id)

	if winStart < winEnd {
		// take the window back in the reservation profile and free it
		// in the main one
		s.resProfile.AllocateResourceRanges(r.Ranges(), winStart, winEnd)
		s.pool().ReleaseResources(winStart, winEnd, r.Ranges())
	}
	s.Sim().CancelFutureEvents(filterReservationEvents(s.ID(), id))
	s.setJobStatus(r, job.StatusCancelled)
	s.respond(r)
	s.stat.Counter("reservationsCancelled").Inc(1)

	// the freed window may let booked jobs move earlier
	affected := s.compressSchedule(winStart)
	s.cancelJobEvents(affected)
	s.rescheduleJobs(affected, s.enqueueJob)
}

// DoJobProcessing schedules reservation-bound jobs inside their
// reservation's window and delegates ordinary jobs to the conservative
// policy.
func (s *ReservationBackfillScheduler) DoJobProcessing(j *job.Job) {
	if !j.HasReservation() {
		s.ConservativeBackfillScheduler.DoJobProcessing(j)
		return
	}

	r, ok := s.reservations[j.ReservationID()]
	if !ok {
		log.Tracef("%s: job %d refers to unknown reservation %d",
			s.Name(), j.ID(), j.ReservationID())
		s.failJob(j)
		return
	}

	now := s.CurrentTime()
	start := r.StartTime()
	if start < now {
		start = now
	}

	e := s.resProfile.CheckAvailability(j.NumResources(), start, j.Duration())
	if e == nil {
		s.failJob(j)
		return
	}
	avail := e.Ranges().Intersection(r.Ranges())
	if avail.NumItems() < j.NumResources() {
		s.failJob(j)
		return
	}

	selected := avail.SelectResources(j.NumResources())
	s.resProfile.AllocateResourceRanges(selected, start, start+j.Duration())
	j.SetRanges(selected)
	s.resJobs[r.ID()] = append(s.resJobs[r.ID()], j)

	if start == now {
		s.setJobStatus(j, job.StatusInExecution)
		j.BeginActivity(now, selected)
		s.SendSelf(j.Duration(), sim.TaskComplete, j)
		s.running = append(s.running, j)
		s.stat.Counter("jobsStarted").Inc(1)
		return
	}
	s.SendSelf(start-now, sim.TaskStart, j)
	s.setJobStatus(j, job.StatusWaiting)
	j.SetStartTime(start)
	s.waiting.add(j)
}

// DoJobCancel cancels reservation-bound jobs against the reservation
// profile and delegates ordinary jobs to the conservative policy.
func (s *ReservationBackfillScheduler) DoJobCancel(id int) {
	cjob := s.findReservedJob(id)
	if cjob == nil {
		s.ConservativeBackfillScheduler.DoJobCancel(id)
		return
	}

	s.cancelJobEvents(map[int]struct{}{id: {}})
	s.releaseReservedJob(cjob)
	s.removeRunning(id)
	s.waiting.removeJob(cjob)
	s.dropReservedJob(cjob)
	s.setJobStatus(cjob, job.StatusCancelled)
	s.sendJobToOwner(cjob)
	s.stat.Counter("jobsCancelled").Inc(1)
}

// respond returns the reservation, with its current status, to the
// entity that requested it.
func (s *ReservationBackfillScheduler) respond(r *job.Reservation) {
	if r.OwnerID() == job.IDNotSet {
		return
	}
	s.SendNow(r.OwnerID(), sim.ReservationResponse, r)
}

// releaseReservedJob returns the unused part of a reservation-bound
// job's slot to the reservation profile.
func (s *ReservationBackfillScheduler) releaseReservedJob(j *job.Job) {
	if j.Ranges() == nil || j.StartTime() == job.TimeNotSet {
		return
	}
	now := s.CurrentTime()
	relStart := j.StartTime()
	if relStart < now {
		relStart = now
	}
	relEnd := j.StartTime() + j.Duration()
	if relStart >= relEnd {
		return
	}
	s.resProfile.AddTimeSlot(relStart, relEnd, j.Ranges())
	if act := j.CurrentActivity(); act != nil {
		act.SetFinishTime(now)
	}
}

func (s *ReservationBackfillScheduler) findReservedJob(id int) *job.Job {
	for _, jobs := range s.resJobs {
		for _, j := range jobs {
			if j.ID() == id {
				return j
			}
		}
	}
	return nil
}

func (s *ReservationBackfillScheduler) dropReservedJob(j *job.Job) {
	jobs := s.resJobs[j.ReservationID()]
	for i, dj := range jobs {
		if dj.ID() == j.ID() {
			s.resJobs[j.ReservationID()] = append(jobs[:i], jobs[i+1:]...)
			return
		}
	}
}

// filterReservationEvents matches the pending lifecycle events of a
// reservation, addressed to the given scheduler.
func filterReservationEvents(schedulerID, reservationID int) sim.EventPredicate {
	return func(ev *sim.Event) bool {
		if ev.Destination() != schedulerID {
			return false
		}
		if ev.Type() != sim.ReservationStart && ev.Type() != sim.ReservationComplete {
			return false
		}
		u, ok := ev.Content().(job.WorkUnit)
		return ok && u.ID() == reservationID
	}
}
