package profile

import (
	"fmt"
	"strings"
)

// PartProfileEntry is a profile entry that tracks the free ranges of
// several resource partitions at one time.
type PartProfileEntry struct {
	time    int64
	parts   []*RangeList
	numJobs int
}

// NewPartProfileEntry creates an entry for the given time with numParts
// unset partitions.
func NewPartProfileEntry(time int64, numParts int) *PartProfileEntry {
	return &PartProfileEntry{time: time, parts: make([]*RangeList, numParts), numJobs: 1}
}

// Time returns the time associated with this entry.
func (e *PartProfileEntry) Time() int64 {
	return e.time
}

// IncreaseJob records one more work unit relying on this entry and
// returns the new count.
func (e *PartProfileEntry) IncreaseJob() int {
	e.numJobs++
	return e.numJobs
}

// DecreaseJob releases one work unit relying on this entry and returns
// the new count.
func (e *PartProfileEntry) DecreaseJob() int {
	e.numJobs--
	return e.numJobs
}

// NumJobs returns the number of work units relying on this entry.
func (e *PartProfileEntry) NumJobs() int {
	return e.numJobs
}

func (e *PartProfileEntry) checkPart(partID int) {
	if partID < 0 || partID >= len(e.parts) {
		panic(fmt.Sprintf("profile: partition %d does not exist", partID))
	}
}

// PartRanges returns the free ranges of one partition at this entry.
func (e *PartProfileEntry) PartRanges(partID int) *RangeList {
	e.checkPart(partID)
	return e.parts[partID]
}

// SetPartRanges sets the free ranges of one partition.
func (e *PartProfileEntry) SetPartRanges(partID int, ranges *RangeList) {
	e.checkPart(partID)
	e.parts[partID] = ranges
}

// AddPartRanges adds ranges to the free set of one partition.
func (e *PartProfileEntry) AddPartRanges(partID int, list *RangeList) {
	e.checkPart(partID)
	if e.parts[partID] == nil {
		e.parts[partID] = NewRangeList()
	}
	e.parts[partID].AddAll(list)
}

// Ranges returns the union of the free ranges of all partitions as a new
// list.
func (e *PartProfileEntry) Ranges() *RangeList {
	union := NewRangeList()
	for _, list := range e.parts {
		if list != nil {
			union.AddAll(list)
		}
	}
	return union
}

// RemoveFromAll subtracts the given ranges from every partition.
func (e *PartProfileEntry) RemoveFromAll(list *RangeList) {
	for _, rgs := range e.parts {
		if rgs != nil {
			rgs.Remove(list)
		}
	}
}

// NumResources returns the total number of free resources at this entry.
func (e *PartProfileEntry) NumResources() int {
	n := 0
	for _, list := range e.parts {
		n += list.NumItems()
	}
	return n
}

// NumPartResources returns the number of free resources of one partition.
func (e *PartProfileEntry) NumPartResources(partID int) int {
	e.checkPart(partID)
	return e.parts[partID].NumItems()
}

// TransferPEs moves the given ranges into the target partition, removing
// them from every other partition first.
func (e *PartProfileEntry) TransferPEs(partID int, list *RangeList) {
	e.checkPart(partID)
	e.RemoveFromAll(list)
	if e.parts[partID] == nil {
		e.parts[partID] = NewRangeList()
	}
	e.parts[partID].AddAll(list)
	e.parts[partID].MergeRanges()
}

// Clone returns a new entry at the given time with cloned ranges and the
// reference count reset to one.
func (e *PartProfileEntry) Clone(time int64) *PartProfileEntry {
	clone := NewPartProfileEntry(time, len(e.parts))
	for i, list := range e.parts {
		clone.parts[i] = list.Clone()
	}
	return clone
}

func (e *PartProfileEntry) String() string {
	var b strings.Builder
	for i, rg := range e.parts {
		if rg != nil {
			fmt.Fprintf(&b, "; part %d=%s", i, rg)
		}
	}
	return fmt.Sprintf("PartProfileEntry{time=%d, workUnits=%d, numRes=%d%s}",
		e.time, e.numJobs, e.NumResources(), b.String())
}
