package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, playerID, eventType string, at time.Time, payload []byte, metadata map[string]string) error

	// GetByPlayer retrieves all events for a player in insertion order.
	GetByPlayer(ctx context.Context, playerID string) ([]Event, error)

	// GetRange retrieves events within a time range, bounds inclusive.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
