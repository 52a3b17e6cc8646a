package eventstore

import "context"

// Journal appends events to a Store and keeps an optional projection
// current.
type Journal struct {
	store      Store
	projection *SyncHistoryProjection
}

// NewJournal creates a Journal. projection may be nil.
func NewJournal(store Store, projection *SyncHistoryProjection) *Journal {
	return &Journal{store: store, projection: projection}
}

// Record persists e and applies it to the projection.
func (j *Journal) Record(ctx context.Context, e Event) error {
	if err := j.store.Append(ctx, e.BlogID(), e.Type(), e.Payload(), e.Metadata()); err != nil {
		return err
	}
	if j.projection != nil {
		j.projection.Apply(e)
	}
	return nil
}

// Projection returns the projection fed by this journal, if any.
func (j *Journal) Projection() *SyncHistoryProjection {
	return j.projection
}
