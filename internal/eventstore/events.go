package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/events"
	"git.home.luguber.info/inful/gsit/internal/foundation/errors"
)

// SessionPayload is the JSON body of every journal entry.
type SessionPayload struct {
	PlayerName string            `json:"player_name"`
	Kind       attach.Kind       `json:"kind"`
	Action     events.Action     `json:"action"`
	Reason     attach.StopReason `json:"reason,omitempty"`
	Cell       string            `json:"cell,omitempty"`
	Variant    attach.Variant    `json:"variant,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	// DurationMS is the session lifetime, set on stop entries.
	DurationMS int64 `json:"duration_ms,omitempty"`
}

// EventType names journal entries "<kind>.<action>", e.g. "crawl.start".
func EventType(kind attach.Kind, action events.Action) string {
	return string(kind) + "." + string(action)
}

// NewSessionPayload describes n as seen at time at.
func NewSessionPayload(n events.Notification, at time.Time) SessionPayload {
	p := SessionPayload{
		PlayerName: n.Player().Name(),
		Kind:       n.Kind(),
		Action:     n.Action(),
		Reason:     n.StopReason(),
	}
	switch e := n.(type) {
	case *events.CrawlStarted:
		p.StartedAt = e.Crawl.Started()
	case *events.CrawlStopped:
		p.StartedAt = e.Crawl.Started()
		p.DurationMS = e.Crawl.Lifetime(at).Milliseconds()
	case *events.PoseStarted:
		p.StartedAt = e.Pose.Started()
		p.Cell = e.Pose.Cell().String()
		p.Variant = e.Pose.Variant()
	case *events.PoseStopped:
		p.StartedAt = e.Pose.Started()
		p.Cell = e.Pose.Cell().String()
		p.Variant = e.Pose.Variant()
		p.DurationMS = e.Pose.Lifetime(at).Milliseconds()
	}
	return p
}

// NewSessionEvent builds an unsaved journal entry for n.
func NewSessionEvent(n events.Notification, at time.Time) (*BaseEvent, error) {
	payload, err := json.Marshal(NewSessionPayload(n, at))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEventStore, ErrMarshalPayloadFailed.Message()).
			WithContext("player", n.Player().Name()).
			Build()
	}
	return &BaseEvent{
		EventPlayerID:  n.Player().ID().String(),
		EventType:      EventType(n.Kind(), n.Action()),
		EventTimestamp: at,
		EventPayload:   payload,
	}, nil
}

// DecodeSessionPayload parses the payload of a journal entry.
func DecodeSessionPayload(e Event) (SessionPayload, error) {
	var p SessionPayload
	if err := json.Unmarshal(e.Payload(), &p); err != nil {
		return SessionPayload{}, errors.WrapError(err, errors.CategoryEventStore, ErrUnmarshalPayloadFailed.Message()).
			WithContext("event_id", e.ID()).
			Build()
	}
	return p, nil
}
