package profile

import "fmt"

// TimeSlot is a free fragment of the scheduling queue: a window of time
// over which a set of resource ranges is continuously available. Policies
// performing best-fit or worst-fit slot selection work on these.
type TimeSlot struct {
	startTime  int64
	finishTime int64
	ranges     *RangeList
}

// NewTimeSlot creates a slot spanning [startTime, finishTime) with the
// given free ranges.
func NewTimeSlot(startTime, finishTime int64, ranges *RangeList) *TimeSlot {
	return &TimeSlot{startTime: startTime, finishTime: finishTime, ranges: ranges}
}

// StartTime returns the start time of the slot.
func (s *TimeSlot) StartTime() int64 {
	return s.startTime
}

// FinishTime returns the finish time of the slot.
func (s *TimeSlot) FinishTime() int64 {
	return s.finishTime
}

// Duration returns the time spanned by the slot.
func (s *TimeSlot) Duration() int64 {
	return s.finishTime - s.startTime
}

// Ranges returns the resource ranges available over the slot.
func (s *TimeSlot) Ranges() *RangeList {
	return s.ranges
}

// NumResources returns the number of resources available over the slot.
func (s *TimeSlot) NumResources() int {
	return s.ranges.NumItems()
}

func (s *TimeSlot) String() string {
	return fmt.Sprintf("TimeSlot{start=%d, finish=%d, ranges=%s}",
		s.startTime, s.finishTime, s.ranges)
}
