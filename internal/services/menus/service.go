// Package menus coordinates menu operations between the remote API and the
// local store. Every mutation talks to the remote first and touches the
// local store only after the remote confirmed it.
package menus

import (
	"context"
	"time"

	"git.home.luguber.info/inful/menusync/internal/eventstore"
	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/metrics"
	"git.home.luguber.info/inful/menusync/internal/model"
	"git.home.luguber.info/inful/menusync/internal/notify"
	"git.home.luguber.info/inful/menusync/internal/store"
)

// Operation names used in logs, metrics and journal entries.
const (
	OpSyncMenus  = "sync_menus"
	OpCreateMenu = "create_menu"
	OpUpdateMenu = "update_menu"
	OpDeleteMenu = "delete_menu"
)

// ContextRemoteApplied is the error context key set on persistence errors
// that happened after the remote already applied the change.
const ContextRemoteApplied = "remote_applied"

// Remote is the menus API.
type Remote interface {
	ListMenus(ctx context.Context, blogID int64) ([]*model.Menu, []model.MenuLocation, error)
	CreateMenu(ctx context.Context, blogID int64, name string) (int64, error)
	UpdateMenu(ctx context.Context, blogID int64, menu *model.Menu) (*model.Menu, error)
	DeleteMenu(ctx context.Context, blogID, menuID int64) error
}

// Store is the part of the local store the service writes to.
type Store interface {
	SaveMenu(ctx context.Context, menu *model.Menu) error
	DeleteMenu(ctx context.Context, blogID, menuID int64) error
	ReplaceBlogMenus(ctx context.Context, blogID int64, menus []*model.Menu, locations []model.MenuLocation) (store.ReplaceStats, error)
}

// Journal records operation events.
type Journal interface {
	Record(ctx context.Context, e eventstore.Event) error
}

// Publisher delivers change notifications.
type Publisher interface {
	Publish(ctx context.Context, event notify.ChangeEvent) error
}

// SyncResult is what a successful SyncMenus leaves in the local store.
type SyncResult struct {
	Menus     []*model.Menu
	Locations []model.MenuLocation
	Changed   int
	Removed   int
}

// Service is the menu sync service. It is safe for concurrent use; calls
// for the same blog are not serialized.
type Service struct {
	remote    Remote
	store     Store
	recorder  metrics.Recorder
	journal   Journal
	publisher Publisher
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithJournal sets the operation journal.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithPublisher sets the change notification publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(remote Remote, st Store, opts ...Option) *Service {
	s := &Service{
		remote:   remote,
		store:    st,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SupportsMenuCustomization reports whether blog's menus can be managed. A
// nil blog does not.
func (s *Service) SupportsMenuCustomization(blog *model.Blog) bool {
	return blog.SupportsMenus()
}

// SyncMenus replaces the blog's local menus and locations with the remote
// listing.
func (s *Service) SyncMenus(ctx context.Context, blog *model.Blog) (result SyncResult, err error) {
	started := s.now()
	ctx = operationContext(ctx, OpSyncMenus, blog, 0)
	var stats store.ReplaceStats
	defer func() {
		s.complete(ctx, OpSyncMenus, blogID(blog), 0, started, err, func(d time.Duration) outcome {
			return outcome{
				event: func() (eventstore.Event, error) {
					return eventstore.NewMenusSynced(blog.ID, eventstore.SyncStats{
						Menus:     stats.Menus,
						Locations: stats.Locations,
						Changed:   stats.Changed,
						Removed:   stats.Removed,
						Duration:  d.Milliseconds(),
					})
				},
				change: notify.ChangeEvent{
					Type:      notify.EventMenusSynced,
					BlogID:    blog.ID,
					Menus:     stats.Menus,
					Locations: stats.Locations,
					Changed:   stats.Changed,
				},
				synced: &stats,
			}
		})
	}()

	if err = blog.Validate(); err != nil {
		return SyncResult{}, err
	}

	menus, locations, err := s.remote.ListMenus(ctx, blog.ID)
	if err != nil {
		return SyncResult{}, err
	}

	stats, err = s.store.ReplaceBlogMenus(ctx, blog.ID, menus, locations)
	if err != nil {
		err = persistError(err, OpSyncMenus, blog.ID, 0, false)
		return SyncResult{}, err
	}

	return SyncResult{
		Menus:     menus,
		Locations: locations,
		Changed:   stats.Changed,
		Removed:   stats.Removed,
	}, nil
}

// CreateMenu creates a menu named name on the remote and stores it locally
// with the identifier the remote assigned.
func (s *Service) CreateMenu(ctx context.Context, name string, blog *model.Blog) (menu *model.Menu, err error) {
	started := s.now()
	ctx = operationContext(ctx, OpCreateMenu, blog, 0)
	defer func() {
		var id int64
		if menu != nil {
			id = menu.ID
		}
		s.complete(ctx, OpCreateMenu, blogID(blog), id, started, err, func(time.Duration) outcome {
			return changeOutcome(OpCreateMenu, menu)
		})
	}()

	provisional, err := model.NewProvisionalMenu(blog, name)
	if err != nil {
		return nil, err
	}

	id, err := s.remote.CreateMenu(ctx, blog.ID, provisional.Name)
	if err != nil {
		return nil, err
	}
	provisional.MarkSaved(id, s.now().UTC())

	if err = s.store.SaveMenu(ctx, provisional); err != nil {
		err = persistError(err, OpCreateMenu, blog.ID, id, true)
		return nil, err
	}
	return provisional, nil
}

// UpdateMenu pushes menu to the remote and stores the remote's version of
// it, which is returned.
func (s *Service) UpdateMenu(ctx context.Context, menu *model.Menu, blog *model.Blog) (updated *model.Menu, err error) {
	started := s.now()
	ctx = operationContext(ctx, OpUpdateMenu, blog, menuID(menu))
	defer func() {
		s.complete(ctx, OpUpdateMenu, blogID(blog), menuID(menu), started, err, func(time.Duration) outcome {
			return changeOutcome(OpUpdateMenu, updated)
		})
	}()

	if err = menu.ValidateForRemote(blog); err != nil {
		return nil, err
	}
	outgoing := menu.Clone()
	outgoing.Name = model.NormalizeName(outgoing.Name)

	updated, err = s.remote.UpdateMenu(ctx, blog.ID, outgoing)
	if err != nil {
		return nil, err
	}
	if err = s.store.SaveMenu(ctx, updated); err != nil {
		err = persistError(err, OpUpdateMenu, blog.ID, menu.ID, true)
		return nil, err
	}
	return updated, nil
}

// DeleteMenu deletes menu on the remote, then locally. When the remote
// fails the local store is not touched.
func (s *Service) DeleteMenu(ctx context.Context, menu *model.Menu, blog *model.Blog) (err error) {
	started := s.now()
	ctx = operationContext(ctx, OpDeleteMenu, blog, menuID(menu))
	defer func() {
		s.complete(ctx, OpDeleteMenu, blogID(blog), menuID(menu), started, err, func(time.Duration) outcome {
			return changeOutcome(OpDeleteMenu, menu)
		})
	}()

	if err = menu.ValidateForRemote(blog); err != nil {
		return err
	}
	if err = s.remote.DeleteMenu(ctx, blog.ID, menu.ID); err != nil {
		return err
	}
	if err = s.store.DeleteMenu(ctx, blog.ID, menu.ID); err != nil {
		err = persistError(err, OpDeleteMenu, blog.ID, menu.ID, true)
		return err
	}
	return nil
}

// persistError classifies a local store failure. remoteApplied marks
// failures that left the remote ahead of the local store.
func persistError(err error, op string, blogID, menuID int64, remoteApplied bool) error {
	msg := "local store update failed"
	if remoteApplied {
		msg = "remote change applied but local store update failed"
	}
	b := errors.PersistenceError(msg).
		WithCause(err).
		WithContext("operation", op).
		WithContext("blog_id", blogID).
		WithContext(ContextRemoteApplied, remoteApplied)
	if menuID > 0 {
		b = b.WithContext("menu_id", menuID)
	}
	return b.Build()
}

// RemoteApplied reports whether err is a local failure that followed a
// successful remote change.
func RemoteApplied(err error) bool {
	ce, ok := errors.AsClassified(err)
	if !ok {
		return false
	}
	applied, _ := ce.Context().GetBool(ContextRemoteApplied)
	return applied
}

func blogID(b *model.Blog) int64 {
	if b == nil {
		return 0
	}
	return b.ID
}

func menuID(m *model.Menu) int64 {
	if m == nil {
		return 0
	}
	return m.ID
}
