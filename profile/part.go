package profile

import (
	"fmt"
	"sort"
	"strings"
)

// PartProfile is an availability profile that controls multiple resource
// partitions, each with its own share of the resource indices and an
// admission predicate. It offers the same feasibility, allocation and
// release operations as SingleProfile, scoped to one partition.
type PartProfile struct {
	partitions []*ResourcePartition
	entries    []*PartProfileEntry
}

// NewPartProfile creates a profile from the given partitions. Resource
// indices are assigned contiguously in partition order: the first
// partition holds [0, n0-1], the next [n0, n0+n1-1], and so on.
func NewPartProfile(parts []*ResourcePartition) *PartProfile {
	p := &PartProfile{partitions: make([]*ResourcePartition, len(parts))}
	fe := NewPartProfileEntry(0, len(parts))

	firstRes := 0
	for _, part := range parts {
		id := part.ID()
		if id < 0 || id >= len(parts) {
			panic(fmt.Sprintf("profile: cannot add a partition with index %d", id))
		}
		p.partitions[id] = part
		lastRes := firstRes + part.InitialNumResources() - 1
		fe.SetPartRanges(id, NewRangeList(NewRange(firstRes, lastRes)))
		firstRes = lastRes + 1
	}

	p.add(fe)
	return p
}

// Copy returns a deep copy of the profile. The entries are cloned; the
// partition descriptors are shared.
func (p *PartProfile) Copy() *PartProfile {
	c := &PartProfile{
		partitions: p.partitions,
		entries:    make([]*PartProfileEntry, 0, len(p.entries)),
	}
	for _, e := range p.entries {
		clone := e.Clone(e.time)
		clone.numJobs = e.numJobs
		c.entries = append(c.entries, clone)
	}
	return c
}

// NumPartitions returns the number of partitions in the profile.
func (p *PartProfile) NumPartitions() int {
	return len(p.partitions)
}

func (p *PartProfile) checkPart(partID int) {
	if partID < 0 || partID >= len(p.partitions) {
		panic(fmt.Sprintf("profile: partition %d does not exist", partID))
	}
}

// MatchPartition returns the id of the partition whose predicate accepts
// the given item, or -1 if no partition can handle it.
func (p *PartProfile) MatchPartition(item interface{}) int {
	for _, part := range p.partitions {
		if part.Predicate()(item) {
			return part.ID()
		}
	}
	return -1
}

func (p *PartProfile) precIndex(time int64) int {
	return sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].time > time
	}) - 1
}

func (p *PartProfile) add(e *PartProfileEntry) {
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

func (p *PartProfile) removeAt(i int) {
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
}

// CheckPartAvailabilityAt returns a snapshot of the resources free in one
// partition at the given time, without scanning forward.
func (p *PartProfile) CheckPartAvailabilityAt(partID int, time int64) *ProfileEntry {
	p.checkPart(partID)
	idx := p.precIndex(time)
	if idx < 0 {
		return NewProfileEntry(time, NewRangeList())
	}
	return NewProfileEntry(time, p.entries[idx].PartRanges(partID).Clone())
}

// CheckPartAvailability returns the intersection of the ranges free in
// one partition over [startTime, startTime+duration).
func (p *PartProfile) CheckPartAvailability(partID int, startTime, duration int64) *ProfileEntry {
	p.checkPart(partID)

	idx := p.precIndex(startTime)
	if idx < 0 {
		return NewProfileEntry(startTime, NewRangeList())
	}

	intersec := p.entries[idx].PartRanges(partID).Clone()
	finishTime := startTime + duration

	for i := idx + 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e.time >= finishTime || intersec.NumItems() == 0 {
			break
		}
		intersec = intersec.Intersection(e.PartRanges(partID))
	}

	return NewProfileEntry(startTime, intersec)
}

// FindPartStartTime returns the earliest time at or after readyTime at
// which reqRes resources of one partition are continuously free for
// duration, or nil if no such time exists.
func (p *PartProfile) FindPartStartTime(partID, reqRes int, readyTime, duration int64) *ProfileEntry {
	p.checkPart(partID)

	idx := p.precIndex(readyTime)
	if idx < 0 {
		idx = 0
	}

	var intersect *RangeList
	potStartTime := readyTime

	for i := idx; i < len(p.entries); i++ {
		anchor := p.entries[i]
		if anchor.NumPartResources(partID) < reqRes {
			continue
		}

		potStartTime = anchor.time
		if readyTime > potStartTime {
			potStartTime = readyTime
		}
		potFinishTime := potStartTime + duration
		intersect = anchor.PartRanges(partID).Clone()

		for j := i + 1; j < len(p.entries); j++ {
			next := p.entries[j]
			if next.time >= potFinishTime {
				break
			}
			if next.PartRanges(partID).NumItems() < reqRes {
				intersect = nil
				break
			}
			intersect = intersect.Intersection(next.PartRanges(partID))
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

// AllocatePartResourceRanges marks the selected ranges of one partition
// as busy over [startTime, finishTime).
func (p *PartProfile) AllocatePartResourceRanges(partID int, selected *RangeList, startTime, finishTime int64) {
	p.checkPart(partID)

	idx := p.precIndex(startTime)
	if idx < 0 {
		panic(fmt.Sprintf("profile: allocation at %d precedes the profile", startTime))
	}

	last := p.entries[idx]
	var newAnchor *PartProfileEntry

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
		last.PartRanges(partID).Remove(selected)
		last = next
	}

	if last.time == finishTime {
		last.IncreaseJob()
	} else {
		p.add(last.Clone(finishTime))
		last.PartRanges(partID).Remove(selected)
	}

	if newAnchor != nil {
		p.add(newAnchor)
	}
}

// AddPartTimeSlot returns ranges to one partition over
// [startTime, finishTime). The ranges are removed from every partition
// before being added to the target, so the slot may also be used to move
// resources between partitions.
func (p *PartProfile) AddPartTimeSlot(partID int, startTime, finishTime int64, list *RangeList) bool {
	p.checkPart(partID)
	if finishTime <= startTime {
		return false
	}
	idx := p.precIndex(startTime)
	if idx < 0 {
		return false
	}

	last := p.entries[idx]
	var newAnchor *PartProfileEntry
	i := idx + 1

	// Redundant boundary entries can be dropped once no work unit
	// relies on them, except the profile's first entry.
	if last.time == startTime {
		if last.DecreaseJob() <= 0 && last.time > 0 {
			p.removeAt(idx)
			i = idx
		}
	} else {
		newAnchor = last.Clone(startTime)
		last = newAnchor
	}

	for i < len(p.entries) {
		next := p.entries[i]
		if next.time > finishTime {
			break
		}
		last.RemoveFromAll(list)
		last.AddPartRanges(partID, list)
		last = next
		i++
	}

	if last.time == finishTime {
		if last.DecreaseJob() <= 0 && last.time > 0 {
			p.removeAt(i - 1)
		}
	} else {
		p.add(last.Clone(finishTime))
		last.RemoveFromAll(list)
		last.AddPartRanges(partID, list)
	}

	if newAnchor != nil {
		p.add(newAnchor)
	}
	return true
}

// TransferPEs moves the given ranges into the target partition from the
// given time onwards.
func (p *PartProfile) TransferPEs(partID int, list *RangeList, time int64) {
	p.checkPart(partID)
	idx := p.precIndex(time)
	if idx < 0 {
		idx = 0
	}
	first := p.entries[idx]
	if first.time != time {
		anchor := first.Clone(time)
		p.add(anchor)
		idx++
	}
	for i := idx; i < len(p.entries); i++ {
		p.entries[i].TransferPEs(partID, list)
	}
}

// PartTimeSlots returns the non-overlapping windows of availability of
// one partition between startTime and finishTime.
func (p *PartProfile) PartTimeSlots(partID int, startTime, finishTime int64) []*TimeSlot {
	p.checkPart(partID)
	return timeSlots(finishTime, p.partSubProfile(partID, startTime, finishTime))
}

// PartSchedulingOptions returns the candidate windows in which a job
// could be placed in one partition between startTime and finishTime.
func (p *PartProfile) PartSchedulingOptions(partID int, startTime, finishTime int64, minDuration int64, reqRes int) []*TimeSlot {
	p.checkPart(partID)
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
		if ent.NumPartResources(partID) == 0 {
			continue
		}

		slRgs := ent.PartRanges(partID)
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

				its := slRgs.Intersection(nxt.PartRanges(partID))
				if its.NumItems() == slRgs.NumItems() {
					continue
				}

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

func (p *PartProfile) partSubProfile(partID int, startTime, finishTime int64) []*ProfileEntry {
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
	sub = append(sub, NewProfileEntry(entTime, first.PartRanges(partID).Clone()))

	for i := idx + 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e.time > finishTime {
			break
		}
		sub = append(sub, NewProfileEntry(e.time, e.PartRanges(partID).Clone()))
	}
	return sub
}

func (p *PartProfile) String() string {
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
