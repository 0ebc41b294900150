package server

import (
	"time"

	"github.com/pkg/errors"
)

// Availability models the fraction of a server's capacity that is
// usable at a given point of the week. Schedulers and reports consult
// it; a value of 1.0 means the full capacity is on.
type Availability interface {
	// At returns the availability for the given weekday and hour,
	// between 0.0 and 1.0.
	At(day time.Weekday, hour int) float64
}

// FullAvailability reports the server as always fully available.
type FullAvailability struct{}

// At always returns 1.0.
func (FullAvailability) At(day time.Weekday, hour int) float64 { return 1.0 }

// HourlyAvailability keeps one availability value per hour of the week.
type HourlyAvailability struct {
	table [7][24]float64
}

// NewHourlyAvailability creates a table with every hour fully available.
func NewHourlyAvailability() *HourlyAvailability {
	a := &HourlyAvailability{}
	for d := 0; d < 7; d++ {
		for h := 0; h < 24; h++ {
			a.table[d][h] = 1.0
		}
	}
	return a
}

// At returns the availability for the given weekday and hour.
func (a *HourlyAvailability) At(day time.Weekday, hour int) float64 {
	if day < 0 || day > 6 || hour < 0 || hour > 23 {
		return 0
	}
	return a.table[day][hour]
}

// SetAvailability sets the availability over the span running from
// hourStart on dayStart through hourEnd on dayEnd, both ends inclusive.
// A span confined to a single day is allowed, with dayStart == dayEnd
// and hourStart <= hourEnd.
func (a *HourlyAvailability) SetAvailability(dayStart time.Weekday, hourStart int,
	dayEnd time.Weekday, hourEnd int, value float64) error {
	if dayStart < 0 || dayStart > 6 || dayEnd < 0 || dayEnd > 6 {
		return errors.Errorf("invalid day span %s to %s", dayStart, dayEnd)
	}
	if hourStart < 0 || hourStart > 23 || hourEnd < 0 || hourEnd > 23 {
		return errors.Errorf("invalid hour span %d to %d", hourStart, hourEnd)
	}
	if dayEnd < dayStart {
		return errors.Errorf("day span %s to %s runs backwards", dayStart, dayEnd)
	}
	if dayStart == dayEnd && hourEnd < hourStart {
		return errors.Errorf("hour span %d to %d runs backwards", hourStart, hourEnd)
	}
	if value < 0 || value > 1 {
		return errors.Errorf("availability %f out of [0, 1]", value)
	}

	for d := dayStart; d <= dayEnd; d++ {
		first, last := 0, 23
		if d == dayStart {
			first = hourStart
		}
		if d == dayEnd {
			last = hourEnd
		}
		for h := first; h <= last; h++ {
			a.table[d][h] = value
		}
	}
	return nil
}
