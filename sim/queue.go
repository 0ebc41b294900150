package sim

import "sort"

// eventQueue is the future event set: events kept sorted by
// (time, serial). Insertion keeps order; removal by predicate preserves
// the order of the remaining events.
type eventQueue struct {
	events []*Event
}

func (q *eventQueue) len() int {
	return len(q.events)
}

func (q *eventQueue) push(ev *Event) {
	i := sort.Search(len(q.events), func(i int) bool {
		return ev.before(q.events[i])
	})
	q.events = append(q.events, nil)
	copy(q.events[i+1:], q.events[i:])
	q.events[i] = ev
}

func (q *eventQueue) peek() *Event {
	if len(q.events) == 0 {
		return nil
	}
	return q.events[0]
}

func (q *eventQueue) pop() *Event {
	ev := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]
	return ev
}

// removeIf removes every event matching pred and returns how many were
// removed.
func (q *eventQueue) removeIf(pred EventPredicate) int {
	kept := q.events[:0]
	removed := 0
	for _, ev := range q.events {
		if pred(ev) {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	for i := len(kept); i < len(q.events); i++ {
		q.events[i] = nil
	}
	q.events = kept
	return removed
}

// removeFirst removes the first event (in queue order) matching pred.
func (q *eventQueue) removeFirst(pred EventPredicate) bool {
	for i, ev := range q.events {
		if pred(ev) {
			copy(q.events[i:], q.events[i+1:])
			q.events[len(q.events)-1] = nil
			q.events = q.events[:len(q.events)-1]
			return true
		}
	}
	return false
}

func (q *eventQueue) clear() {
	q.events = nil
}
