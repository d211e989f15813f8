package eventstore

import "time"

// Event is one journal entry describing a session transition.
type Event interface {
	// ID returns the store-assigned identifier; zero before the event is stored.
	ID() int64
	// PlayerID returns the player the event belongs to.
	PlayerID() string
	// Type returns the event type name, e.g. "pose.stop".
	Type() string
	// Timestamp returns when the transition happened.
	Timestamp() time.Time
	// Payload returns the JSON encoded SessionPayload.
	Payload() []byte
	// Metadata returns optional event metadata.
	Metadata() map[string]string
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID        int64
	EventPlayerID  string
	EventType      string
	EventTimestamp time.Time
	EventPayload   []byte
	EventMetadata  map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) PlayerID() string            { return e.EventPlayerID }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }
