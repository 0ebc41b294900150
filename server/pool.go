package server

import (
	log "github.com/sirupsen/logrus"

	"github.com/servsim/servsim/profile"
	"github.com/servsim/servsim/stats"
)

// ResourceUsage is one point of a resource-use query: the number of
// resources busy from Time until the next entry.
type ResourceUsage struct {
	Time         int64
	NumResources int
}

// ResourcePool tracks which of a server's resources are free over time.
// It is a thin facade over an availability profile plus utilisation
// queries; schedulers do all their feasibility checks and allocations
// through it.
type ResourcePool interface {
	Capacity() int

	// CheckAvailabilityAt returns the ranges free at the given time.
	CheckAvailabilityAt(time int64) *profile.ProfileEntry

	// CheckAvailability returns an entry with the ranges free over
	// [startTime, startTime+duration), or nil if fewer than numRes
	// resources are free throughout the window.
	CheckAvailability(numRes int, startTime, duration int64) *profile.ProfileEntry

	// CheckPartialAvailability is CheckAvailability accepting fewer
	// resources than requested.
	CheckPartialAvailability(numRes int, startTime, duration int64) *profile.ProfileEntry

	// FindStartTime scans the profile from readyTime for the earliest
	// time at which numRes resources are free for duration.
	FindStartTime(numRes int, readyTime, duration int64) *profile.ProfileEntry

	// AllocateResources deducts the selected ranges over
	// [startTime, finishTime).
	AllocateResources(selected *profile.RangeList, startTime, finishTime int64)

	// ReleaseResources returns a previously allocated slot to the pool.
	ReleaseResources(startTime, finishTime int64, list *profile.RangeList) bool

	// Utilization returns the fraction of capacity used over
	// [startTime, endTime), between 0.0 and 1.0.
	Utilization(startTime, endTime int64) float64

	// ResourceUse returns the changes in resource usage over
	// [startTime, finishTime).
	ResourceUse(startTime, finishTime int64) []ResourceUsage
}

// DefaultResourcePool is the standard pool backed by a single-partition
// availability profile.
type DefaultResourcePool struct {
	capacity     int
	profile      *profile.SingleProfile
	statReceiver stats.Receiver
}

// NewDefaultResourcePool creates a pool with the given capacity.
func NewDefaultResourcePool(capacity int, stat stats.Receiver) *DefaultResourcePool {
	if capacity < 1 {
		log.Panicf("server: invalid pool capacity %d", capacity)
	}
	if stat == nil {
		stat = stats.NilReceiver()
	}
	return &DefaultResourcePool{
		capacity:     capacity,
		profile:      profile.NewSingleProfile(capacity),
		statReceiver: stat.Scope("pool"),
	}
}

// Capacity returns the total number of resources in the pool.
func (p *DefaultResourcePool) Capacity() int {
	return p.capacity
}

// Profile exposes the underlying availability profile. Schedulers that
// need profile operations beyond the pool facade, such as scheduling
// option queries, use it directly.
func (p *DefaultResourcePool) Profile() *profile.SingleProfile {
	return p.profile
}

func (p *DefaultResourcePool) CheckAvailabilityAt(time int64) *profile.ProfileEntry {
	return p.profile.CheckAvailabilityAt(time)
}

func (p *DefaultResourcePool) CheckAvailability(numRes int, startTime, duration int64) *profile.ProfileEntry {
	return p.profile.CheckAvailability(numRes, startTime, duration)
}

func (p *DefaultResourcePool) CheckPartialAvailability(numRes int, startTime, duration int64) *profile.ProfileEntry {
	return p.profile.CheckPartialAvailability(numRes, startTime, duration)
}

func (p *DefaultResourcePool) FindStartTime(numRes int, readyTime, duration int64) *profile.ProfileEntry {
	return p.profile.FindStartTime(numRes, readyTime, duration)
}

func (p *DefaultResourcePool) AllocateResources(selected *profile.RangeList, startTime, finishTime int64) {
	p.profile.AllocateResourceRanges(selected, startTime, finishTime)
	p.statReceiver.Counter("allocations").Inc(1)
}

func (p *DefaultResourcePool) ReleaseResources(startTime, finishTime int64, list *profile.RangeList) bool {
	ok := p.profile.AddTimeSlot(startTime, finishTime, list)
	if ok {
		p.statReceiver.Counter("releases").Inc(1)
	}
	return ok
}

// FreeResourceUnits returns the number of resource-time units free over
// [startTime, endTime).
func (p *DefaultResourcePool) FreeResourceUnits(startTime, endTime int64) int64 {
	avail := p.profile.Availability(startTime, endTime)
	if len(avail) == 0 {
		return 0
	}

	var units int64
	prev := avail[0]
	for _, curr := range avail[1:] {
		if curr.Time() < startTime {
			prev = curr
			continue
		}
		if curr.Time() > endTime {
			break
		}
		units += (curr.Time() - prev.Time()) * int64(prev.NumResources())
		prev = curr
	}

	last := prev.Time()
	if last > endTime {
		last = endTime
	}
	units += (endTime - last) * int64(prev.NumResources())
	return units
}

func (p *DefaultResourcePool) Utilization(startTime, endTime int64) float64 {
	total := int64(p.capacity) * (endTime - startTime)
	if total <= 0 {
		return 0
	}
	used := total - p.FreeResourceUnits(startTime, endTime)
	u := float64(used) / float64(total)
	p.statReceiver.GaugeFloat("utilization").Update(u)
	return u
}

func (p *DefaultResourcePool) ResourceUse(startTime, finishTime int64) []ResourceUsage {
	avail := p.profile.Availability(startTime, finishTime)
	usage := make([]ResourceUsage, 0, len(avail))
	for _, e := range avail {
		usage = append(usage, ResourceUsage{
			Time:         e.Time(),
			NumResources: p.capacity - e.NumResources(),
		})
	}
	return usage
}
