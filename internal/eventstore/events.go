package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
)

// Journal event types.
const (
	TypeMenusSynced     = "MenusSynced"
	TypeMenuCreated     = "MenuCreated"
	TypeMenuUpdated     = "MenuUpdated"
	TypeMenuDeleted     = "MenuDeleted"
	TypeOperationFailed = "OperationFailed"
)

// SyncStats is the typed payload of a MenusSynced event.
type SyncStats struct {
	Menus     int   `json:"menus"`
	Locations int   `json:"locations"`
	Changed   int   `json:"changed"`
	Removed   int   `json:"removed"`
	Duration  int64 `json:"duration_ms"`
}

// MenusSynced is emitted when a blog's menus were reconciled with the remote.
type MenusSynced struct {
	BaseEvent
	Stats SyncStats
}

// NewMenusSynced creates a MenusSynced event.
func NewMenusSynced(blogID int64, stats SyncStats) (*MenusSynced, error) {
	payload, err := marshalPayload(blogID, TypeMenusSynced, stats)
	if err != nil {
		return nil, err
	}
	return &MenusSynced{
		BaseEvent: newBase(blogID, TypeMenusSynced, payload),
		Stats:     stats,
	}, nil
}

// MenuChange is the payload of the create, update and delete events.
type MenuChange struct {
	MenuID int64  `json:"menu_id"`
	Name   string `json:"name,omitempty"`
	Items  int    `json:"items,omitempty"`
}

// MenuChanged is emitted after a successful create, update or delete.
type MenuChanged struct {
	BaseEvent
	Change MenuChange
}

// NewMenuCreated creates a MenuCreated event.
func NewMenuCreated(blogID int64, change MenuChange) (*MenuChanged, error) {
	return newMenuChanged(blogID, TypeMenuCreated, change)
}

// NewMenuUpdated creates a MenuUpdated event.
func NewMenuUpdated(blogID int64, change MenuChange) (*MenuChanged, error) {
	return newMenuChanged(blogID, TypeMenuUpdated, change)
}

// NewMenuDeleted creates a MenuDeleted event.
func NewMenuDeleted(blogID int64, change MenuChange) (*MenuChanged, error) {
	return newMenuChanged(blogID, TypeMenuDeleted, change)
}

func newMenuChanged(blogID int64, eventType string, change MenuChange) (*MenuChanged, error) {
	payload, err := marshalPayload(blogID, eventType, change)
	if err != nil {
		return nil, err
	}
	return &MenuChanged{
		BaseEvent: newBase(blogID, eventType, payload),
		Change:    change,
	}, nil
}

// Failure is the payload of an OperationFailed event.
type Failure struct {
	Operation     string `json:"operation"`
	MenuID        int64  `json:"menu_id,omitempty"`
	Category      string `json:"category"`
	Error         string `json:"error"`
	RemoteApplied bool   `json:"remote_applied,omitempty"`
}

// OperationFailed is emitted when a service operation returned an error.
type OperationFailed struct {
	BaseEvent
	Failure Failure
}

// NewOperationFailed creates an OperationFailed event.
func NewOperationFailed(blogID int64, failure Failure) (*OperationFailed, error) {
	payload, err := marshalPayload(blogID, TypeOperationFailed, failure)
	if err != nil {
		return nil, err
	}
	return &OperationFailed{
		BaseEvent: newBase(blogID, TypeOperationFailed, payload),
		Failure:   failure,
	}, nil
}

func newBase(blogID int64, eventType string, payload []byte) BaseEvent {
	return BaseEvent{
		EventBlogID:    blogID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}
}

func marshalPayload(blogID int64, eventType string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal "+eventType+" payload").
			WithCause(err).
			WithContext("blog_id", blogID).
			Build()
	}
	return payload, nil
}
