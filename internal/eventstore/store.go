// Package eventstore records build history as an append-only event log.
package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves build events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error

	// GetByBuildID retrieves all events for a specific build in append order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange retrieves events within a time range in append order.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}

// Record appends e to s. A nil store is a no-op.
func Record(ctx context.Context, s Store, e Event) error {
	if s == nil || e == nil {
		return nil
	}
	return s.Append(ctx, e.BuildID(), e.Type(), e.Payload(), e.Metadata())
}
