package sim

import (
	"testing"
	"time"
)

// recorder collects every event delivered to it.
type recorder struct {
	EntityBase
	delivered []*Event
}

func newRecorder(name string) *recorder {
	return &recorder{EntityBase: NewEntityBase(name)}
}

func (r *recorder) Process(ev *Event) {
	r.delivered = append(r.delivered, ev)
}

// player returns an event to its peer after a fixed delay until the
// configured number of rounds is played.
type player struct {
	EntityBase
	peer   int
	rounds int
	opens  bool
	times  []int64
}

func (p *player) OnStart() {
	if p.opens {
		p.Send(p.peer, 10, EntityInternal, 1)
	}
}

func (p *player) Process(ev *Event) {
	p.times = append(p.times, ev.Time())
	round := ev.Content().(int)
	if round < p.rounds {
		p.Send(p.peer, 10, EntityInternal, round+1)
	}
}

func TestPingPong(t *testing.T) {
	s := New(time.Second)
	ping := &player{EntityBase: NewEntityBase("ping"), rounds: 6, opens: true}
	pong := &player{EntityBase: NewEntityBase("pong"), rounds: 6}
	ping.peer = s.Register(pong)
	pong.peer = s.Register(ping)

	if err := s.Run(); err != nil {
		t.Fatal(err)
	}

	if got := s.Clock().Time(); got != 60 {
		t.Errorf("final clock = %d, want 60", got)
	}
	wantPong := []int64{10, 30, 50}
	wantPing := []int64{20, 40, 60}
	if len(pong.times) != len(wantPong) || len(ping.times) != len(wantPing) {
		t.Fatalf("delivery counts: pong %v, ping %v", pong.times, ping.times)
	}
	for i := range wantPong {
		if pong.times[i] != wantPong[i] {
			t.Errorf("pong received at %d, want %d", pong.times[i], wantPong[i])
		}
		if ping.times[i] != wantPing[i] {
			t.Errorf("ping received at %d, want %d", ping.times[i], wantPing[i])
		}
	}
	if s.Status() != StatusComplete {
		t.Errorf("status = %s, want COMPLETE", s.Status())
	}
}

func TestEventOrderIsTimeThenSerial(t *testing.T) {
	s := New(time.Second)
	r := newRecorder("sink")
	id := s.Register(r)

	// same destination and time: creation order must be preserved
	s.Send(id, id, 20, EntityInternal, "late")
	s.Send(id, id, 10, EntityInternal, "first")
	s.Send(id, id, 10, EntityInternal, "second")
	s.Send(id, id, 10, EntityInternal, "third")

	if err := s.Run(); err != nil {
		t.Fatal(err)
	}

	want := []string{"first", "second", "third", "late"}
	if len(r.delivered) != len(want) {
		t.Fatalf("delivered %d events, want %d", len(r.delivered), len(want))
	}
	for i, ev := range r.delivered {
		if ev.Content().(string) != want[i] {
			t.Errorf("delivery %d = %q, want %q", i, ev.Content(), want[i])
		}
	}
}

func TestEventComparatorOrdersCoTemporalEvents(t *testing.T) {
	s := New(time.Second)
	r := newRecorder("sink")
	id := s.Register(r)

	s.SetEventComparator(func(a, b *Event) int {
		return a.Content().(int) - b.Content().(int)
	})

	s.Send(id, id, 10, EntityInternal, 3)
	s.Send(id, id, 10, EntityInternal, 1)
	s.Send(id, id, 10, EntityInternal, 2)

	if err := s.Run(); err != nil {
		t.Fatal(err)
	}

	want := []int{1, 2, 3}
	for i, ev := range r.delivered {
		if ev.Content().(int) != want[i] {
			t.Errorf("delivery %d = %d, want %d", i, ev.Content(), want[i])
		}
	}
}

func TestCancelFutureEvents(t *testing.T) {
	s := New(time.Second)
	r := newRecorder("sink")
	id := s.Register(r)

	s.Send(id, id, 10, TaskComplete, 1)
	s.Send(id, id, 20, TaskComplete, 2)
	s.Send(id, id, 30, EntityInternal, 3)

	n := s.CancelFutureEvents(func(ev *Event) bool {
		return ev.Type() == TaskComplete
	})
	if n != 2 {
		t.Errorf("cancelled %d events, want 2", n)
	}
	if s.FutureEventCount() != 1 {
		t.Errorf("future count = %d, want 1", s.FutureEventCount())
	}

	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if len(r.delivered) != 1 || r.delivered[0].Content().(int) != 3 {
		t.Errorf("delivered = %v, want only the internal event", r.delivered)
	}
}

func TestCancelFirstFutureEvent(t *testing.T) {
	s := New(time.Second)
	r := newRecorder("sink")
	id := s.Register(r)

	s.Send(id, id, 20, TaskComplete, "second")
	s.Send(id, id, 10, TaskComplete, "first")

	ok := s.CancelFirstFutureEvent(func(ev *Event) bool {
		return ev.Type() == TaskComplete
	})
	if !ok {
		t.Fatal("no event cancelled")
	}

	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if len(r.delivered) != 1 || r.delivered[0].Content().(string) != "second" {
		t.Errorf("delivered = %v, want only the later event", r.delivered)
	}
}

func TestNegativeDelayPanics(t *testing.T) {
	s := New(time.Second)
	id := s.Register(newRecorder("sink"))

	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a negative delay")
		}
	}()
	s.Send(id, id, -1, EntityInternal, nil)
}

func TestAbruptTimeSpanStopsTheRun(t *testing.T) {
	s := New(time.Second)
	p := &player{EntityBase: NewEntityBase("loop"), rounds: 1000, opens: true}
	p.peer = s.Register(p)
	s.SetTimeSpan(35, true)

	if err := s.Run(); err != nil {
		t.Fatal(err)
	}

	// events at 10, 20 and 30 are delivered; the one at 40 is not
	if len(p.times) != 3 || p.times[len(p.times)-1] != 30 {
		t.Errorf("delivery times = %v, want [10 20 30]", p.times)
	}
	if s.Status() != StatusComplete {
		t.Errorf("status = %s, want COMPLETE", s.Status())
	}
}

func TestDisabledEntityReceivesNothing(t *testing.T) {
	s := New(time.Second)
	r := newRecorder("sink")
	id := s.Register(r)
	r.SetEnabled(false)

	s.Send(id, id, 10, EntityInternal, nil)
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if len(r.delivered) != 0 {
		t.Errorf("disabled entity received %d events", len(r.delivered))
	}
}

func TestRunRequiresInitialState(t *testing.T) {
	s := New(time.Second)
	s.Register(newRecorder("sink"))

	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err == nil {
		t.Error("expected an error running a completed simulation")
	}
}

func TestResetAllowsAnotherRun(t *testing.T) {
	s := New(time.Second)
	r := newRecorder("sink")
	id := s.Register(r)

	if err := s.Reset(); err == nil {
		t.Error("expected an error resetting before completion")
	}

	s.Send(id, id, 10, EntityInternal, nil)
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if s.Clock().Time() != 0 {
		t.Errorf("clock = %d after reset, want 0", s.Clock().Time())
	}
	if s.FutureEventCount() != 0 {
		t.Errorf("future count = %d after reset, want 0", s.FutureEventCount())
	}

	s.Send(id, id, 5, EntityInternal, nil)
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if s.Clock().Time() != 5 {
		t.Errorf("clock = %d after the second run, want 5", s.Clock().Time())
	}
}

func TestUnitIDsComeFromTheSimulation(t *testing.T) {
	s := New(time.Second)
	if a, b := s.NextUnitID(), s.NextUnitID(); a != 0 || b != 1 {
		t.Errorf("unit ids = %d, %d, want 0, 1", a, b)
	}

	// a second simulation in the same process owns its own sequence
	if got := New(time.Second).NextUnitID(); got != 0 {
		t.Errorf("fresh simulation's first unit id = %d, want 0", got)
	}

	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if got := s.NextUnitID(); got != 0 {
		t.Errorf("unit id after reset = %d, want 0", got)
	}
}

func TestEntityLookup(t *testing.T) {
	s := New(time.Second)
	r := newRecorder("lookup")
	id := s.Register(r)

	if got := s.Entity(id); got != r {
		t.Error("Entity(id) did not return the registered entity")
	}
	if got := s.Entity(id + 1); got != nil {
		t.Errorf("Entity(%d) = %v, want nil", id+1, got)
	}
	if got := s.EntityByName("lookup"); got != r {
		t.Error("EntityByName did not find the entity")
	}
	if got := s.EntityByName("absent"); got != nil {
		t.Errorf("EntityByName(absent) = %v, want nil", got)
	}
}
