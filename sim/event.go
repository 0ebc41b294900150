package sim

import "fmt"

// EventType tags the kind of message carried by an event.
type EventType int

const (
	EventNone EventType = iota
	TaskArrive
	TaskStart
	TaskComplete
	TaskCancel
	TaskPause
	ResultArrive
	EntityArrive
	EntityLeave
	EntityInternal
	ReservationRequest
	ReservationResponse
	ReservationStart
	ReservationComplete
	ReservationCancel
)

var eventTypeNames = map[EventType]string{
	EventNone:           "NONE",
	TaskArrive:          "TASK_ARRIVE",
	TaskStart:           "TASK_START",
	TaskComplete:        "TASK_COMPLETE",
	TaskCancel:          "TASK_CANCEL",
	TaskPause:           "TASK_PAUSE",
	ResultArrive:        "RESULT_ARRIVE",
	EntityArrive:        "ENTITY_ARRIVE",
	EntityLeave:         "ENTITY_LEAVE",
	EntityInternal:      "ENTITY_INTERNAL_EVENT",
	ReservationRequest:  "RESERVATION_REQUEST",
	ReservationResponse: "RESERVATION_RESPONSE",
	ReservationStart:    "RESERVATION_START",
	ReservationComplete: "RESERVATION_COMPLETE",
	ReservationCancel:   "RESERVATION_CANCEL",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// SendNow is the delay used to deliver an event on the next tick.
const SendNow int64 = 0

// Event is a message exchanged between entities. Events are ordered by
// (time, serial); the serial is assigned by the simulation when the event
// is scheduled and breaks ties between co-temporal events.
type Event struct {
	time    int64
	serial  int64
	etype   EventType
	src     int
	dst     int
	content interface{}
}

// Time returns the simulation time at which the event fires.
func (e *Event) Time() int64 {
	return e.time
}

// Serial returns the creation serial of the event.
func (e *Event) Serial() int64 {
	return e.serial
}

// Type returns the event type.
func (e *Event) Type() EventType {
	return e.etype
}

// Source returns the id of the entity that scheduled the event.
func (e *Event) Source() int {
	return e.src
}

// Destination returns the id of the entity the event is addressed to.
func (e *Event) Destination() int {
	return e.dst
}

// Content returns the payload carried by the event, or nil.
func (e *Event) Content() interface{} {
	return e.content
}

func (e *Event) String() string {
	return fmt.Sprintf("Event{time=%d, serial=%d, type=%s, src=%d, dst=%d}",
		e.time, e.serial, e.etype, e.src, e.dst)
}

// before orders events by (time, serial).
func (e *Event) before(other *Event) bool {
	if e.time != other.time {
		return e.time < other.time
	}
	return e.serial < other.serial
}

// EventPredicate selects events, e.g. for cancellation.
type EventPredicate func(ev *Event) bool

// EventComparator orders co-temporal events within a tick. It returns a
// negative number, zero or a positive number when a sorts before, equal
// to or after b.
type EventComparator func(a, b *Event) int
