package job

import (
	"fmt"

	"github.com/servsim/servsim/profile"
)

// Reservation is an advance booking of resources over a fixed future
// window. Once accepted by a scheduler it is immovable: jobs submitted
// against it run on its resources, and cancelling it cancels them.
type Reservation struct {
	Unit

	reqStartTime int64
}

// NewReservation creates a reservation asking for numRes resources for
// duration time units starting at reqStartTime. The id comes from the
// caller, e.g. the simulation's NextUnitID.
func NewReservation(id int, reqStartTime, duration int64, numRes int) *Reservation {
	if reqStartTime < 0 {
		panic(fmt.Sprintf("job: invalid reservation start time %d", reqStartTime))
	}
	r := &Reservation{
		Unit:         *NewUnit(id, duration, numRes, 0),
		reqStartTime: reqStartTime,
	}
	return r
}

// RequestedStartTime returns the start time the reservation asked for.
func (r *Reservation) RequestedStartTime() int64 {
	return r.reqStartTime
}

// SetRanges records the resources granted to the reservation. The
// ranges may only be set once; an accepted reservation never moves.
func (r *Reservation) SetRanges(list *profile.RangeList) {
	if r.Ranges() != nil {
		panic(fmt.Sprintf("job: ranges of reservation %d already set", r.ID()))
	}
	r.Unit.SetRanges(list)
}

func (r *Reservation) String() string {
	return fmt.Sprintf("Reservation{id=%d, reqStart=%d, duration=%d, numRes=%d, status=%s}",
		r.ID(), r.reqStartTime, r.Duration(), r.NumResources(), r.Status())
}
