package sim

import "time"

// Clock keeps the virtual time of a simulation. Time is an integer
// number of units; the unit and an optional start date let entities map
// virtual instants to calendar dates for day-of-week effects.
type Clock struct {
	time      int64
	unit      time.Duration
	startDate time.Time
}

// NewClock creates a clock at time 0 counting in the given unit.
func NewClock(unit time.Duration) *Clock {
	return &Clock{unit: unit}
}

// Time returns the current virtual time.
func (c *Clock) Time() int64 {
	return c.time
}

// Unit returns the duration of one virtual time unit.
func (c *Clock) Unit() time.Duration {
	return c.unit
}

// SetStartDate sets the calendar date corresponding to time 0.
func (c *Clock) SetStartDate(d time.Time) {
	c.startDate = d
}

// StartDate returns the calendar date corresponding to time 0.
func (c *Clock) StartDate() time.Time {
	return c.startDate
}

// CurrentDate returns the calendar date at the current virtual time.
func (c *Clock) CurrentDate() time.Time {
	return c.startDate.Add(time.Duration(c.time) * c.unit)
}

func (c *Clock) setTime(t int64) {
	c.time = t
}

func (c *Clock) reset() {
	c.time = 0
}
