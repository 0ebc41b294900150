package profile

import (
	"fmt"
	"sort"
	"strings"
)

// SingleProfile tracks the ranges of resources available at given
// simulation times for a resource with a single partition. Entries are
// kept sorted by time; between two consecutive entries the free set is
// constant and equal to that of the earlier entry.
type SingleProfile struct {
	entries []*ProfileEntry
}

// NewSingleProfile creates a profile for a resource with numRes
// resources. The profile starts with a single entry at time 0 holding the
// full range [0, numRes-1].
func NewSingleProfile(numRes int) *SingleProfile {
	if numRes < 1 {
		panic(fmt.Sprintf("profile: invalid number of resources %d", numRes))
	}
	p := &SingleProfile{}
	p.add(NewProfileEntry(0, NewRangeList(NewRange(0, numRes-1))))
	return p
}

// Copy returns a deep copy of the profile; the entries are cloned.
func (p *SingleProfile) Copy() *SingleProfile {
	c := &SingleProfile{entries: make([]*ProfileEntry, 0, len(p.entries))}
	for _, e := range p.entries {
		clone := e.Clone(e.time)
		clone.numJobs = e.numJobs
		c.entries = append(c.entries, clone)
	}
	return c
}

// NumEntries returns the number of entries currently in the profile.
func (p *SingleProfile) NumEntries() int {
	return len(p.entries)
}

// precIndex returns the index of the entry at or immediately before time,
// or -1 if no such entry exists.
func (p *SingleProfile) precIndex(time int64) int {
	return sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].time > time
	}) - 1
}

// add inserts an entry keeping the slice ordered by time. An existing
// entry at the same time is replaced.
func (p *SingleProfile) add(e *ProfileEntry) {
	i := sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].time >= e.time
	})
	if i < len(p.entries) && p.entries[i].time == e.time {
		p.entries[i] = e
		return
	}
	p.entries = append(p.entries, nil)
	copy(p.entries[i+1:], p.entries[i:])
	p.entries[i] = e
}

func (p *SingleProfile) removeAt(i int) {
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
}

// RemovePastEntries drops entries before refTime, keeping the entry at
// refTime or, failing that, the one immediately preceding it.
func (p *SingleProfile) RemovePastEntries(refTime int64) {
	idx := p.precIndex(refTime)
	if idx > 0 {
		p.entries = append([]*ProfileEntry(nil), p.entries[idx:]...)
	}
}

// CheckAvailabilityAt returns a snapshot of the resources free at the
// given time. The returned entry carries the queried time and a clone of
// the free ranges; mutating it does not affect the profile.
func (p *SingleProfile) CheckAvailabilityAt(time int64) *ProfileEntry {
	idx := p.precIndex(time)
	if idx < 0 {
		return NewProfileEntry(time, NewRangeList())
	}
	return p.entries[idx].Clone(time)
}

// CheckAvailability returns an entry witnessing that at least reqRes
// resources are free continuously over [startTime, startTime+duration),
// or nil if that much capacity is not available.
func (p *SingleProfile) CheckAvailability(reqRes int, startTime, duration int64) *ProfileEntry {
	return p.checkAvailability(reqRes, startTime, duration, false)
}

// CheckPartialAvailability is the best-effort variant of
// CheckAvailability: it returns whatever intersection is free over the
// window, even if smaller than reqRes.
func (p *SingleProfile) CheckPartialAvailability(reqRes int, startTime, duration int64) *ProfileEntry {
	return p.checkAvailability(reqRes, startTime, duration, true)
}

func (p *SingleProfile) checkAvailability(reqRes int, startTime, duration int64, acceptLess bool) *ProfileEntry {
	idx := p.precIndex(startTime)
	if idx < 0 {
		return nil
	}

	intersec := p.entries[idx].ranges.Clone()
	finishTime := startTime + duration

	// Scan the profile until the expected termination of the job to
	// check whether enough resources remain available throughout.
	for i := idx + 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e.time >= finishTime || (!acceptLess && intersec.NumItems() < reqRes) {
			break
		}
		intersec = intersec.Intersection(e.ranges)
	}

	if intersec.NumItems() >= reqRes || acceptLess {
		return &ProfileEntry{time: startTime, ranges: intersec, numJobs: 1}
	}
	return nil
}

// FindStartTime returns the earliest time at or after readyTime at which
// reqRes resources are continuously free for duration, together with the
// ranges free over that window, or nil if no such time exists.
func (p *SingleProfile) FindStartTime(reqRes int, readyTime, duration int64) *ProfileEntry {
	idx := p.precIndex(readyTime)
	if idx < 0 {
		idx = 0
	}

	var intersect *RangeList
	potStartTime := readyTime

	// Scan for an anchor entry with enough resources, then verify the
	// intersection holds until the candidate finish time.
	for i := idx; i < len(p.entries); i++ {
		anchor := p.entries[i]
		if anchor.NumResources() < reqRes {
			continue
		}

		potStartTime = anchor.time
		if readyTime > potStartTime {
			potStartTime = readyTime
		}
		potFinishTime := potStartTime + duration
		intersect = anchor.ranges.Clone()

		for j := i + 1; j < len(p.entries); j++ {
			next := p.entries[j]
			if next.time >= potFinishTime {
				break
			}
			if next.ranges.NumItems() < reqRes {
				intersect = nil
				break
			}
			intersect = intersect.Intersection(next.ranges)
			if intersect.NumItems() < reqRes {
				break
			}
		}

		if intersect != nil && intersect.NumItems() >= reqRes {
			break
		}
	}

	if intersect == nil || intersect.NumItems() < reqRes {
		return nil
	}
	return &ProfileEntry{time: potStartTime, ranges: intersect, numJobs: 1}
}

// AllocateResourceRanges marks the selected ranges as busy over
// [startTime, finishTime). The selected ranges must be free over the
// whole window; callers establish that with CheckAvailability or
// FindStartTime first. The entries at the window's boundaries are pinned
// by a reference count so that the matching release can find them.
func (p *SingleProfile) AllocateResourceRanges(selected *RangeList, startTime, finishTime int64) {
	idx := p.precIndex(startTime)
	if idx < 0 {
		panic(fmt.Sprintf("profile: allocation at %d precedes the profile", startTime))
	}

	last := p.entries[idx]
	var newAnchor *ProfileEntry

	// If an entry already exists at the start time, another is not
	// needed; it just gains one more work unit relying on it. The same
	// holds for the entry at the finish time.
	if last.time == startTime {
		last.IncreaseJob()
	} else {
		newAnchor = last.Clone(startTime)
		last = newAnchor
	}

	for i := idx + 1; i < len(p.entries); i++ {
		next := p.entries[i]
		if next.time > finishTime {
			break
		}
		last.ranges.Remove(selected)
		last = next
	}

	if last.time == finishTime {
		last.IncreaseJob()
	} else {
		p.add(last.Clone(finishTime))
		last.ranges.Remove(selected)
	}

	if newAnchor != nil {
		p.add(newAnchor)
	}
}

// AddTimeSlot returns the given ranges to the profile over
// [startTime, finishTime), undoing a previous allocation of the same
// window. Boundary entries have their reference counts decremented and
// are dropped once nothing relies on them, except the entry at time 0.
func (p *SingleProfile) AddTimeSlot(startTime, finishTime int64, list *RangeList) bool {
	if finishTime <= startTime {
		return false
	}
	idx := p.precIndex(startTime)
	if idx < 0 {
		return false
	}

	last := p.entries[idx]
	var newAnchor *ProfileEntry
	i := idx + 1

	if last.time == startTime {
		if last.DecreaseJob() <= 0 && last.time > 0 {
			p.removeAt(idx)
			i = idx
		}
	} else {
		newAnchor = last.Clone(startTime)
		last = newAnchor
	}

	// Walk the entries in the window adding the released ranges back.
	// The entry at the finish time keeps its pre-release set.
	for i < len(p.entries) {
		next := p.entries[i]
		if next.time > finishTime {
			break
		}
		last.ranges.AddAll(list)
		last = next
		i++
	}

	if last.time == finishTime {
		if last.DecreaseJob() <= 0 && last.time > 0 {
			p.removeAt(i - 1)
		}
	} else {
		p.add(last.Clone(finishTime))
		last.ranges.AddAll(list)
	}

	if newAnchor != nil {
		p.add(newAnchor)
	}
	return true
}

// TimeSlots returns the non-overlapping windows of availability between
// startTime and finishTime, sorted by start time. These are the free
// fragments of the scheduling queue, not the scheduling options of any
// particular job.
func (p *SingleProfile) TimeSlots(startTime, finishTime int64) []*TimeSlot {
	return timeSlots(finishTime, p.subProfile(startTime, finishTime))
}

// SchedulingOptions returns the candidate windows in which a job could be
// placed between startTime and finishTime. Unlike TimeSlots the returned
// slots overlap. Slots shorter than minDuration or narrower than reqRes
// resources are filtered out.
func (p *SingleProfile) SchedulingOptions(startTime, finishTime int64, minDuration int64, reqRes int) []*TimeSlot {
	var slots []*TimeSlot

	idx := p.precIndex(startTime)
	if idx < 0 {
		idx = 0
	}

	for i := idx; i < len(p.entries); i++ {
		ent := p.entries[i]
		if ent.time >= finishTime {
			break
		}
		if ent.NumResources() == 0 {
			continue
		}

		slRgs := ent.ranges
		sStart := ent.time
		if startTime > sStart {
			sStart = startTime
		}

		for slRgs != nil && slRgs.NumItems() > 0 {
			initial := slRgs.NumItems()
			changed := false

			for j := p.precIndex(sStart) + 1; j < len(p.entries) && !changed; j++ {
				nxt := p.entries[j]
				if nxt.time >= finishTime {
					break
				}

				its := slRgs.Intersection(nxt.ranges)
				if its.NumItems() == slRgs.NumItems() {
					continue
				}

				// Fewer resources remain after nxt, so nxt ends the
				// current slot.
				slEnd := nxt.time
				if finishTime < slEnd {
					slEnd = finishTime
				}
				if slEnd-sStart >= minDuration && slRgs.NumItems() >= reqRes {
					slots = append(slots, NewTimeSlot(sStart, slEnd, slRgs.Clone()))
				}
				changed = true
				slRgs = its
			}

			if slRgs.NumItems() == initial {
				if finishTime-sStart >= minDuration && slRgs.NumItems() >= reqRes {
					slots = append(slots, NewTimeSlot(sStart, finishTime, slRgs.Clone()))
				}
				slRgs = nil
			}
		}
	}
	return slots
}

// Availability returns clones of the entries covering the given period.
func (p *SingleProfile) Availability(startTime, finishTime int64) []*ProfileEntry {
	return p.subProfile(startTime, finishTime)
}

// subProfile returns cloned entries covering [startTime, finishTime]; the
// first entry's time is raised to startTime if its original preceded it.
func (p *SingleProfile) subProfile(startTime, finishTime int64) []*ProfileEntry {
	var sub []*ProfileEntry

	idx := p.precIndex(startTime)
	if idx < 0 {
		if len(p.entries) == 0 {
			return []*ProfileEntry{NewProfileEntry(startTime, NewRangeList())}
		}
		idx = 0
	}

	first := p.entries[idx]
	entTime := first.time
	if startTime > entTime {
		entTime = startTime
	}
	sub = append(sub, first.Clone(entTime))

	for i := idx + 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e.time > finishTime {
			break
		}
		sub = append(sub, e.Clone(e.time))
	}
	return sub
}

// timeSlots extracts the non-overlapping availability windows from a
// cloned sub-profile. The sweep consumes the sub-profile's ranges.
func timeSlots(finishTime int64, sub []*ProfileEntry) []*TimeSlot {
	var slots []*TimeSlot

	for i := 0; i < len(sub); i++ {
		ent := sub[i]
		if ent.NumResources() == 0 {
			continue
		}

		slStart := ent.time
		stIdx := i

		// Collect every slot starting at slStart.
		for ent.NumResources() > 0 {
			slRgs := ent.ranges
			its := ent.ranges
			slEnd := finishTime
			endIdx := stIdx

			for j := i + 1; j < len(sub); j++ {
				nxt := sub[j]
				its = its.Intersection(nxt.ranges)
				if its.NumItems() == 0 {
					slEnd = nxt.time
					break
				}
				slRgs = its
				endIdx = j
			}

			// Clone: the originals are consumed right below.
			slots = append(slots, NewTimeSlot(slStart, slEnd, slRgs.Clone()))

			for j := stIdx; j <= endIdx; j++ {
				sub[j].ranges.Remove(slRgs)
			}
		}
	}
	return slots
}

func (p *SingleProfile) String() string {
	var b strings.Builder
	b.WriteString("Profile{\n")
	for _, e := range p.entries {
		b.WriteString("  ")
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}
