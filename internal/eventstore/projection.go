// Package eventstore provides an append-only journal of menu operations and
// read models built from it.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// BlogSummary is a read model summarizing the operation history of one blog.
type BlogSummary struct {
	BlogID        int64     `json:"blog_id"`
	LastSyncAt    time.Time `json:"last_sync_at,omitzero"`
	LastSync      SyncStats `json:"last_sync"`
	Syncs         int       `json:"syncs"`
	Creates       int       `json:"creates"`
	Updates       int       `json:"updates"`
	Deletes       int       `json:"deletes"`
	Failures      int       `json:"failures"`
	LastFailureAt time.Time `json:"last_failure_at,omitzero"`
	LastFailure   *Failure  `json:"last_failure,omitempty"`
	LastEventAt   time.Time `json:"last_event_at"`
}

// SyncHistoryProjection maintains an in-memory per-blog view of the journal.
type SyncHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	blogs    map[int64]*BlogSummary
	lastSync time.Time
}

// NewSyncHistoryProjection creates a new projection backed by the given store.
func NewSyncHistoryProjection(store Store) *SyncHistoryProjection {
	return &SyncHistoryProjection{
		store: store,
		blogs: make(map[int64]*BlogSummary),
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *SyncHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Unix(0, 0), time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.blogs = make(map[int64]*BlogSummary)
	for _, event := range events {
		p.applyEventLocked(event)
	}
	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event and updates the projection.
func (p *SyncHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *SyncHistoryProjection) applyEventLocked(event Event) {
	blogID := event.BlogID()
	if blogID <= 0 {
		return
	}

	summary, exists := p.blogs[blogID]
	if !exists {
		summary = &BlogSummary{BlogID: blogID}
		p.blogs[blogID] = summary
	}
	summary.LastEventAt = event.Timestamp()

	switch event.Type() {
	case TypeMenusSynced:
		var stats SyncStats
		if err := json.Unmarshal(event.Payload(), &stats); err == nil {
			summary.LastSync = stats
		}
		summary.LastSyncAt = event.Timestamp()
		summary.Syncs++
	case TypeMenuCreated:
		summary.Creates++
	case TypeMenuUpdated:
		summary.Updates++
	case TypeMenuDeleted:
		summary.Deletes++
	case TypeOperationFailed:
		var failure Failure
		if err := json.Unmarshal(event.Payload(), &failure); err == nil {
			summary.LastFailure = &failure
		}
		summary.LastFailureAt = event.Timestamp()
		summary.Failures++
	}
}

// GetBlog returns a copy of the summary for a blog.
func (p *SyncHistoryProjection) GetBlog(blogID int64) (*BlogSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.blogs[blogID]
	if !exists {
		return nil, false
	}
	return copySummary(summary), true
}

// GetAll returns copies of all summaries ordered by blog id.
func (p *SyncHistoryProjection) GetAll() []*BlogSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*BlogSummary, 0, len(p.blogs))
	for _, s := range p.blogs {
		out = append(out, copySummary(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlogID < out[j].BlogID })
	return out
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *SyncHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}

func copySummary(s *BlogSummary) *BlogSummary {
	cp := *s
	if s.LastFailure != nil {
		f := *s.LastFailure
		cp.LastFailure = &f
	}
	return &cp
}
