package profile

import (
	"testing"
)

func TestSingleProfileInitialState(t *testing.T) {
	p := NewSingleProfile(100)

	e := p.CheckAvailabilityAt(0)
	if e.NumResources() != 100 {
		t.Errorf("free at 0 = %d, want 100", e.NumResources())
	}
	e = p.CheckAvailabilityAt(1000)
	if e.NumResources() != 100 {
		t.Errorf("free at 1000 = %d, want 100", e.NumResources())
	}
}

func TestSingleProfileAllocationAndSearch(t *testing.T) {
	p := NewSingleProfile(100)

	p.AllocateResourceRanges(NewRangeList(NewRange(0, 49)), 0, 50)
	p.AllocateResourceRanges(NewRangeList(NewRange(50, 99)), 0, 50)

	if e := p.CheckAvailabilityAt(0); e.NumResources() != 0 {
		t.Errorf("free at 0 = %d, want 0", e.NumResources())
	}

	e := p.FindStartTime(50, 0, 50)
	if e == nil || e.Time() != 50 {
		t.Fatalf("FindStartTime(50, 0, 50) = %v, want time 50", e)
	}

	p.AllocateResourceRanges(NewRangeList(NewRange(0, 99)), 60, 70)

	if e := p.FindStartTime(100, 0, 10); e == nil || e.Time() != 50 {
		t.Errorf("FindStartTime(100, 0, 10) = %v, want time 50", e)
	}
	if e := p.FindStartTime(100, 0, 50); e == nil || e.Time() != 70 {
		t.Errorf("FindStartTime(100, 0, 50) = %v, want time 70", e)
	}
}

func TestSingleProfileCheckAvailabilityWindow(t *testing.T) {
	p := NewSingleProfile(10)
	p.AllocateResourceRanges(NewRangeList(NewRange(0, 4)), 10, 20)

	// five resources stay free throughout the allocation
	if e := p.CheckAvailability(5, 5, 20); e == nil || e.Ranges().NumItems() < 5 {
		t.Errorf("CheckAvailability(5, 5, 20) = %v, want 5 free", e)
	}
	// six are not
	if e := p.CheckAvailability(6, 5, 20); e != nil {
		t.Errorf("CheckAvailability(6, 5, 20) = %v, want nil", e)
	}
	// partial check reports what is left
	e := p.CheckPartialAvailability(6, 5, 20)
	if e == nil || e.Ranges().NumItems() != 5 {
		t.Errorf("CheckPartialAvailability(6, 5, 20) = %v, want 5 free", e)
	}
}

func TestSingleProfileAllocateReleaseRoundTrip(t *testing.T) {
	p := NewSingleProfile(100)
	p.AllocateResourceRanges(NewRangeList(NewRange(0, 29)), 0, 40)

	before := p.String()

	sel := NewRangeList(NewRange(30, 79))
	p.AllocateResourceRanges(sel, 10, 60)
	if p.String() == before {
		t.Fatal("allocation did not change the profile")
	}
	p.AddTimeSlot(10, 60, sel)

	if after := p.String(); after != before {
		t.Errorf("release did not restore the profile:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestSingleProfileFreeSlotCount(t *testing.T) {
	p := NewSingleProfile(10)
	// split the free pool in two over [0, 100)
	p.AllocateResourceRanges(NewRangeList(NewRange(3, 6)), 0, 100)

	slots := p.TimeSlots(0, 100)
	if len(slots) == 0 {
		t.Fatal("no free slots found")
	}
	var units int64
	for _, s := range slots {
		units += s.Duration() * int64(s.NumResources())
	}
	if units != 600 {
		t.Errorf("free units = %d, want 600", units)
	}
}

func TestSingleProfileSchedulingOptions(t *testing.T) {
	p := NewSingleProfile(10)
	p.AllocateResourceRanges(NewRangeList(NewRange(0, 9)), 0, 50)
	p.AllocateResourceRanges(NewRangeList(NewRange(0, 4)), 50, 100)

	opts := p.SchedulingOptions(0, 200, 25, 5)
	if len(opts) == 0 {
		t.Fatal("no scheduling options found")
	}
	for _, o := range opts {
		if o.Duration() < 25 {
			t.Errorf("option %v shorter than the minimum duration", o)
		}
		if o.NumResources() < 5 {
			t.Errorf("option %v narrower than requested", o)
		}
		if o.StartTime() < 50 {
			t.Errorf("option %v starts while the machine is full", o)
		}
	}
}

func TestSingleProfileRemovePastEntries(t *testing.T) {
	p := NewSingleProfile(10)
	p.AllocateResourceRanges(NewRangeList(NewRange(0, 9)), 0, 10)
	p.AllocateResourceRanges(NewRangeList(NewRange(0, 9)), 20, 30)
	entries := p.NumEntries()

	p.RemovePastEntries(25)
	if p.NumEntries() >= entries {
		t.Errorf("entries = %d, want fewer than %d", p.NumEntries(), entries)
	}
	// availability going forward is unchanged
	if e := p.CheckAvailabilityAt(25); e.NumResources() != 0 {
		t.Errorf("free at 25 = %d, want 0", e.NumResources())
	}
	if e := p.CheckAvailabilityAt(30); e.NumResources() != 10 {
		t.Errorf("free at 30 = %d, want 10", e.NumResources())
	}
}

func TestPartProfileAllocation(t *testing.T) {
	p := NewPartProfile([]*ResourcePartition{
		NewResourcePartition(0, 6, nil),
		NewResourcePartition(1, 4, nil),
	})

	e := p.CheckPartAvailability(0, 0, 50)
	if e.NumResources() != 6 {
		t.Fatalf("partition 0 has %d free, want 6", e.NumResources())
	}
	if got := e.Ranges().String(); got != "{[0..5]}" {
		t.Fatalf("partition 0 ranges = %s, want {[0..5]}", got)
	}

	sel := e.Ranges().SelectResources(4)
	p.AllocatePartResourceRanges(0, sel, 0, 50)

	if e := p.CheckPartAvailability(0, 0, 50); e.NumResources() != 2 {
		t.Errorf("partition 0 has %d free after allocation, want 2", e.NumResources())
	}
	// the other partition is untouched
	if e := p.CheckPartAvailability(1, 0, 50); e.NumResources() != 4 {
		t.Errorf("partition 1 has %d free, want 4", e.NumResources())
	}

	// three resources are not free again until the allocation expires
	if e := p.FindPartStartTime(0, 3, 0, 10); e == nil || e.Time() != 50 {
		t.Errorf("FindPartStartTime(0, 3, 0, 10) = %v, want time 50", e)
	}

	p.AddPartTimeSlot(0, 0, 50, sel)
	if e := p.CheckPartAvailability(0, 0, 50); e.NumResources() != 6 {
		t.Errorf("partition 0 has %d free after the release, want 6", e.NumResources())
	}
}
