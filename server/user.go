package server

import (
	log "github.com/sirupsen/logrus"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/sim"
)

// User is an entity that submits jobs to servers and receives the
// results back. Driver programs either embed it or hand it callbacks.
type User struct {
	sim.EntityBase

	onJobReceived func(src int, j *job.Job)
}

// NewUser creates a user. onJobReceived, which may be nil, is invoked
// every time a finished job comes back from a server.
func NewUser(name string, onJobReceived func(src int, j *job.Job)) *User {
	return &User{
		EntityBase:    sim.NewEntityBase(name),
		onJobReceived: onJobReceived,
	}
}

// Process handles results arriving from servers.
func (u *User) Process(ev *sim.Event) {
	if ev.Type() == sim.ResultArrive {
		j, ok := ev.Content().(*job.Job)
		if !ok {
			log.Errorf("user %s: invalid result payload %v", u.Name(), ev.Content())
			return
		}
		if u.onJobReceived != nil {
			u.onJobReceived(ev.Source(), j)
		}
	}
}

// SubmitJob sends a job to the destination server after the given
// delay. The user becomes the job's owner unless one was already set.
func (u *User) SubmitJob(dst int, delay int64, j *job.Job) {
	if dst < 0 {
		log.Panicf("user %s: invalid destination id %d", u.Name(), dst)
	}
	if j.OwnerID() == job.IDNotSet {
		j.SetOwnerID(u.ID())
	}
	u.Send(dst, delay, sim.TaskArrive, j)
}

// CancelJob asks the destination server to cancel a job.
func (u *User) CancelJob(dst, jobID int) {
	if dst < 0 || jobID < 0 {
		log.Panicf("user %s: invalid cancel request for job %d at %d", u.Name(), jobID, dst)
	}
	u.SendNow(dst, sim.TaskCancel, jobID)
}

// ReservationUser is a user that additionally books resources in
// advance and submits jobs against its reservations.
type ReservationUser struct {
	User

	onReservationResponse func(src int, r *job.Reservation)
	onReservationComplete func(src int, r *job.Reservation)
}

// NewReservationUser creates a reservation-capable user. The callbacks
// may be nil.
func NewReservationUser(name string,
	onJobReceived func(src int, j *job.Job),
	onReservationResponse func(src int, r *job.Reservation),
	onReservationComplete func(src int, r *job.Reservation)) *ReservationUser {
	return &ReservationUser{
		User:                  *NewUser(name, onJobReceived),
		onReservationResponse: onReservationResponse,
		onReservationComplete: onReservationComplete,
	}
}

// Process handles reservation responses and completions on top of the
// base user behaviour.
func (u *ReservationUser) Process(ev *sim.Event) {
	switch ev.Type() {
	case sim.ReservationResponse:
		r, ok := ev.Content().(*job.Reservation)
		if !ok {
			log.Errorf("user %s: invalid reservation payload %v", u.Name(), ev.Content())
			return
		}
		if u.onReservationResponse != nil {
			u.onReservationResponse(ev.Source(), r)
		}
	case sim.ReservationComplete:
		r, ok := ev.Content().(*job.Reservation)
		if !ok {
			log.Errorf("user %s: invalid reservation payload %v", u.Name(), ev.Content())
			return
		}
		if u.onReservationComplete != nil {
			u.onReservationComplete(ev.Source(), r)
		}
	default:
		u.User.Process(ev)
	}
}

// ReserveResources requests a reservation of numRes resources for
// duration time units starting at start, sending the request after the
// given delay. It returns the reservation being negotiated; its status
// reflects the outcome once the server responds.
func (u *ReservationUser) ReserveResources(srvID int, delay, start, duration int64, numRes int) *job.Reservation {
	if srvID < 0 {
		log.Panicf("user %s: invalid server id %d", u.Name(), srvID)
	}
	r := job.NewReservation(u.Sim().NextUnitID(), start, duration, numRes)
	r.SetOwnerID(u.ID())
	u.Send(srvID, delay, sim.ReservationRequest, r)
	return r
}

// SubmitReservedJob submits a job bound to a reservation.
func (u *ReservationUser) SubmitReservedJob(dst int, r *job.Reservation, delay int64, j *job.Job) {
	j.SetReservationID(r.ID())
	u.SubmitJob(dst, delay, j)
}

// CancelReservation asks the destination server to cancel a
// reservation together with any jobs submitted against it.
func (u *ReservationUser) CancelReservation(dst, reservationID int) {
	if dst < 0 || reservationID < 0 {
		log.Panicf("user %s: invalid cancel request for reservation %d at %d", u.Name(), reservationID, dst)
	}
	u.SendNow(dst, sim.ReservationCancel, reservationID)
}
