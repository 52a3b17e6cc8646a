// Package notify publishes menu change notifications.
package notify

import (
	"context"
	"strconv"
	"time"
)

// Change event types.
const (
	EventMenusSynced = "menus.synced"
	EventMenuCreated = "menu.created"
	EventMenuUpdated = "menu.updated"
	EventMenuDeleted = "menu.deleted"
)

// ChangeEvent describes a successful sync or mutation.
type ChangeEvent struct {
	Type      string    `json:"type"`
	BlogID    int64     `json:"blog_id"`
	MenuID    int64     `json:"menu_id,omitempty"`
	Menus     int       `json:"menus,omitempty"`
	Locations int       `json:"locations,omitempty"`
	Changed   int       `json:"changed,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher delivers change events.
type Publisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
	Close() error
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ChangeEvent) error { return nil }
func (NoopPublisher) Close() error                               { return nil }

// Subject returns the per-blog subject under prefix.
func Subject(prefix string, blogID int64) string {
	return prefix + "." + strconv.FormatInt(blogID, 10)
}
