package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving journal events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, blogID int64, eventType string, payload []byte, metadata map[string]string) error

	// GetByBlogID retrieves all events for a specific blog, oldest first.
	GetByBlogID(ctx context.Context, blogID int64) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
