package profile

import "fmt"

// ProfileEntry is an entry in an availability profile: the list of
// resource ranges free at a particular time. The time may represent the
// start or the completion of a job or advance reservation. Entries keep a
// count of the work units that rely on them as anchor or termination
// point; an entry may not be coalesced away while that count is non-zero.
type ProfileEntry struct {
	time    int64
	ranges  *RangeList
	numJobs int
}

// NewProfileEntry creates an entry for the given time and free ranges.
// The reference count starts at one.
func NewProfileEntry(time int64, ranges *RangeList) *ProfileEntry {
	return &ProfileEntry{time: time, ranges: ranges, numJobs: 1}
}

// Time returns the time associated with this entry.
func (e *ProfileEntry) Time() int64 {
	return e.time
}

// Ranges returns the list of ranges free at this entry.
func (e *ProfileEntry) Ranges() *RangeList {
	return e.ranges
}

// NumResources returns the number of free resources at this entry.
func (e *ProfileEntry) NumResources() int {
	return e.ranges.NumItems()
}

// IncreaseJob records one more work unit relying on this entry and
// returns the new count.
func (e *ProfileEntry) IncreaseJob() int {
	e.numJobs++
	return e.numJobs
}

// DecreaseJob releases one work unit relying on this entry and returns
// the new count.
func (e *ProfileEntry) DecreaseJob() int {
	e.numJobs--
	return e.numJobs
}

// NumJobs returns the number of work units relying on this entry.
func (e *ProfileEntry) NumJobs() int {
	return e.numJobs
}

// Clone returns a new entry at the given time with cloned ranges and the
// reference count reset to one.
func (e *ProfileEntry) Clone(time int64) *ProfileEntry {
	return &ProfileEntry{time: time, ranges: e.ranges.Clone(), numJobs: 1}
}

func (e *ProfileEntry) String() string {
	return fmt.Sprintf("ProfileEntry{time=%d, numRes=%d, ranges=%s}",
		e.time, e.NumResources(), e.ranges)
}
