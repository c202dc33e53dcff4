package events

import "time"

// Event is a workflow event leaving the process, on the websocket or the bus.
type Event interface {
	// EventType is the event code, e.g. "stage_completed".
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// BaseEvent is the one Event implementation; constructors in this package
// fill it.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
