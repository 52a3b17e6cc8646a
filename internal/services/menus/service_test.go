package menus

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/menusync/internal/eventstore"
	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/metrics"
	"git.home.luguber.info/inful/menusync/internal/model"
	"git.home.luguber.info/inful/menusync/internal/notify"
	"git.home.luguber.info/inful/menusync/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	remote    *fakeRemote
	store     *store.MemoryStore
	recorder  *fakeRecorder
	journal   *fakeJournal
	publisher *fakePublisher
	svc       *Service
}

func newHarness() *harness {
	h := &harness{
		remote:    &fakeRemote{nextID: 100},
		store:     store.NewMemoryStore(),
		recorder:  newFakeRecorder(),
		journal:   &fakeJournal{},
		publisher: &fakePublisher{},
	}
	h.svc = NewService(h.remote, h.store,
		WithRecorder(h.recorder),
		WithJournal(h.journal),
		WithPublisher(h.publisher),
		WithClock(func() time.Time { return fixedNow }),
	)
	return h
}

func TestSupportsMenuCustomization(t *testing.T) {
	svc := NewService(&fakeRemote{}, store.NewMemoryStore())
	cases := []struct {
		name string
		blog *model.Blog
		want bool
	}{
		{"nil blog", nil, false},
		{"self hosted", &model.Blog{ID: 1}, false},
		{"jetpack disconnected", &model.Blog{ID: 1, Jetpack: &model.JetpackState{}}, false},
		{"hosted", &model.Blog{ID: 1, HostedAtPlatform: true}, true},
		{"jetpack connected", &model.Blog{ID: 1, Jetpack: &model.JetpackState{Connected: true}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, svc.SupportsMenuCustomization(tc.blog))
		})
	}
}

func TestCreateMenuStoresRemoteID(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	menu, err := h.svc.CreateMenu(ctx, "  Main  ", hostedBlog())
	require.NoError(t, err)
	require.Equal(t, int64(101), menu.ID)
	require.Equal(t, "Main", menu.Name)
	require.True(t, menu.IsSaved())
	require.Equal(t, fixedNow, menu.SyncedAt)

	stored, err := h.store.GetMenu(ctx, 42, 101)
	require.NoError(t, err)
	require.Equal(t, "Main", stored.Name)
	require.Equal(t, menu.LocalID, stored.LocalID)

	require.Equal(t, []string{eventstore.TypeMenuCreated}, h.journal.types())
	require.Len(t, h.publisher.events, 1)
	require.Equal(t, notify.EventMenuCreated, h.publisher.events[0].Type)
	require.Equal(t, int64(101), h.publisher.events[0].MenuID)
	require.Equal(t, 1, h.recorder.results[resultKey{OpCreateMenu, metrics.ResultSuccess, ""}])
}

func TestCreateMenuValidation(t *testing.T) {
	cases := []struct {
		name     string
		menuName string
		blog     *model.Blog
	}{
		{"empty name", "   ", hostedBlog()},
		{"nil blog", "Main", nil},
		{"invalid blog id", "Main", &model.Blog{ID: 0, HostedAtPlatform: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			menu, err := h.svc.CreateMenu(context.Background(), tc.menuName, tc.blog)
			require.Nil(t, menu)
			require.True(t, errors.HasCategory(err, errors.CategoryValidation))
			require.Zero(t, h.remote.createCalls)
			require.Zero(t, h.store.Calls().SaveMenu)
		})
	}
}

func TestCreateMenuRemoteFailureLeavesStoreUntouched(t *testing.T) {
	h := newHarness()
	h.remote.createErr = errors.NetworkError("connection refused").Build()

	_, err := h.svc.CreateMenu(context.Background(), "Main", hostedBlog())
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	require.False(t, RemoteApplied(err))
	require.Zero(t, h.store.Calls().SaveMenu)
	require.Empty(t, h.publisher.events)
	require.Equal(t, []string{eventstore.TypeOperationFailed}, h.journal.types())
	require.Equal(t, 1, h.recorder.results[resultKey{OpCreateMenu, metrics.ResultFailure, "network"}])
}

func TestCreateMenuPersistFailureReportsRemoteApplied(t *testing.T) {
	h := newHarness()
	h.store.FailOn(store.OpSaveMenu, stderrors.New("disk full"))

	_, err := h.svc.CreateMenu(context.Background(), "Main", hostedBlog())
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryPersistence))
	require.True(t, RemoteApplied(err))
	require.Equal(t, 1, h.remote.createCalls)

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	id, _ := ce.Context().Get("menu_id")
	require.Equal(t, int64(101), id)

	require.Len(t, h.journal.events, 1)
	failed, ok := h.journal.events[0].(*eventstore.OperationFailed)
	require.True(t, ok)
	require.True(t, failed.Failure.RemoteApplied)
	require.Equal(t, OpCreateMenu, failed.Failure.Operation)
}

func TestSyncMenusReplacesLocalState(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	blog := hostedBlog()

	require.NoError(t, h.store.SaveMenu(ctx, remoteMenu(42, 9, "Stale")))
	require.NoError(t, h.store.SaveMenu(ctx, remoteMenu(7, 1, "Other blog")))

	h.remote.menus = []*model.Menu{
		remoteMenu(42, 1, "Main", "primary"),
		remoteMenu(42, 2, "Footer", "footer"),
		remoteMenu(42, 3, "Social"),
	}
	h.remote.locations = []model.MenuLocation{
		{BlogID: 42, Name: "primary", MenuID: 1},
		{BlogID: 42, Name: "footer", MenuID: 2},
	}

	result, err := h.svc.SyncMenus(ctx, blog)
	require.NoError(t, err)
	require.Len(t, result.Menus, 3)
	require.Len(t, result.Locations, 2)
	require.Equal(t, 3, result.Changed)
	require.Equal(t, 1, result.Removed)

	menus, err := h.store.ListMenus(ctx, 42)
	require.NoError(t, err)
	require.Len(t, menus, 3)
	locations, err := h.store.ListLocations(ctx, 42)
	require.NoError(t, err)
	require.Len(t, locations, 2)

	other, err := h.store.ListMenus(ctx, 7)
	require.NoError(t, err)
	require.Len(t, other, 1)

	require.Equal(t, [2]int{3, 2}, h.recorder.synced[42])
	require.Equal(t, []string{eventstore.TypeMenusSynced}, h.journal.types())
	require.Equal(t, notify.EventMenusSynced, h.publisher.events[0].Type)
	require.Equal(t, 3, h.publisher.events[0].Menus)

	again, err := h.svc.SyncMenus(ctx, blog)
	require.NoError(t, err)
	require.Zero(t, again.Changed)
	require.Zero(t, again.Removed)
}

func TestSyncMenusRemoteFailure(t *testing.T) {
	h := newHarness()
	h.remote.listErr = errors.AuthError("unauthorized").Build()

	_, err := h.svc.SyncMenus(context.Background(), hostedBlog())
	require.True(t, errors.HasCategory(err, errors.CategoryAuth))
	require.Zero(t, h.store.Calls().ReplaceBlogMenus)
}

func TestSyncMenusPersistFailure(t *testing.T) {
	h := newHarness()
	h.remote.menus = []*model.Menu{remoteMenu(42, 1, "Main")}
	h.store.FailOn(store.OpReplaceBlogMenus, stderrors.New("locked"))

	_, err := h.svc.SyncMenus(context.Background(), hostedBlog())
	require.True(t, errors.HasCategory(err, errors.CategoryPersistence))
	require.False(t, RemoteApplied(err))
}

func TestSyncMenusNilBlog(t *testing.T) {
	h := newHarness()
	_, err := h.svc.SyncMenus(context.Background(), nil)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.Zero(t, h.remote.listCalls)
	require.Empty(t, h.journal.events)
}

func TestUpdateMenuStoresRemoteVersion(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	menu := remoteMenu(42, 5, "Main", "primary")
	require.NoError(t, h.store.SaveMenu(ctx, menu))

	edited := menu.Clone()
	edited.Name = " Main menu "
	edited.Items = append(edited.Items, model.MenuItem{
		LocalID:       model.NewItemLocalID(),
		ParentLocalID: edited.Items[0].LocalID,
		Position:      1,
		Name:          "About",
		Type:          "custom",
		URL:           "/about",
	})
	edited.Locations = []string{"footer"}

	updated, err := h.svc.UpdateMenu(ctx, edited, hostedBlog())
	require.NoError(t, err)
	require.Equal(t, "Main menu", h.remote.lastUpdate.Name)
	require.Equal(t, " Main menu ", edited.Name, "caller's menu must not be modified")
	require.Len(t, updated.Items, 2)
	require.NotZero(t, updated.Items[1].ID)

	stored, err := h.store.GetMenu(ctx, 42, 5)
	require.NoError(t, err)
	require.Equal(t, "Main menu", stored.Name)
	require.Len(t, stored.Items, 2)
	require.Equal(t, []string{"footer"}, stored.Locations)

	require.Equal(t, []string{eventstore.TypeMenuUpdated}, h.journal.types())
}

func TestUpdateMenuValidation(t *testing.T) {
	provisional, err := model.NewProvisionalMenu(hostedBlog(), "Draft")
	require.NoError(t, err)

	cases := []struct {
		name string
		menu *model.Menu
		blog *model.Blog
	}{
		{"nil menu", nil, hostedBlog()},
		{"provisional menu", provisional, hostedBlog()},
		{"nil blog", remoteMenu(42, 5, "Main"), nil},
		{"other blog", remoteMenu(7, 5, "Main"), hostedBlog()},
		{"empty name", remoteMenu(42, 5, " "), hostedBlog()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			_, err := h.svc.UpdateMenu(context.Background(), tc.menu, tc.blog)
			require.True(t, errors.HasCategory(err, errors.CategoryValidation))
			require.Zero(t, h.remote.updateCalls)
		})
	}
}

func TestUpdateMenuPersistFailureReportsRemoteApplied(t *testing.T) {
	h := newHarness()
	h.store.FailOn(store.OpSaveMenu, stderrors.New("readonly database"))

	_, err := h.svc.UpdateMenu(context.Background(), remoteMenu(42, 5, "Main"), hostedBlog())
	require.True(t, RemoteApplied(err))
	require.Equal(t, 1, h.remote.updateCalls)
}

func TestDeleteMenuRemovesLocalCopy(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	menu := remoteMenu(42, 5, "Main", "primary")
	require.NoError(t, h.store.SaveMenu(ctx, menu))

	require.NoError(t, h.svc.DeleteMenu(ctx, menu, hostedBlog()))

	_, err := h.store.GetMenu(ctx, 42, 5)
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
	locations, err := h.store.ListLocations(ctx, 42)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	require.Zero(t, locations[0].MenuID)

	require.Equal(t, []string{eventstore.TypeMenuDeleted}, h.journal.types())
	require.Equal(t, notify.EventMenuDeleted, h.publisher.events[0].Type)
}

func TestDeleteMenuRemoteFailureLeavesStoreUntouched(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	menu := remoteMenu(42, 5, "Main")
	require.NoError(t, h.store.SaveMenu(ctx, menu))
	h.remote.deleteErr = errors.RemoteError("remote refused to delete menu").Build()

	err := h.svc.DeleteMenu(ctx, menu, hostedBlog())
	require.True(t, errors.HasCategory(err, errors.CategoryRemote))
	require.Zero(t, h.store.Calls().DeleteMenu)

	stored, err := h.store.GetMenu(ctx, 42, 5)
	require.NoError(t, err)
	require.Equal(t, "Main", stored.Name)
}

func TestDeleteMenuPersistFailureReportsRemoteApplied(t *testing.T) {
	h := newHarness()
	h.store.FailOn(store.OpDeleteMenu, stderrors.New("io error"))

	err := h.svc.DeleteMenu(context.Background(), remoteMenu(42, 5, "Main"), hostedBlog())
	require.True(t, errors.HasCategory(err, errors.CategoryPersistence))
	require.True(t, RemoteApplied(err))
}

func TestObserverFailuresDoNotChangeOutcome(t *testing.T) {
	h := newHarness()
	h.journal.err = stderrors.New("journal down")
	h.publisher.err = stderrors.New("nats down")

	menu, err := h.svc.CreateMenu(context.Background(), "Main", hostedBlog())
	require.NoError(t, err)
	require.NotNil(t, menu)
	require.Equal(t, 1, h.recorder.observerFailures[observerJournal])
	require.Equal(t, 1, h.recorder.observerFailures[observerPublisher])
}

func TestCanceledOperationIsCountedAsCanceled(t *testing.T) {
	h := newHarness()
	h.remote.listErr = errors.NetworkError("request failed").WithCause(context.Canceled).Build()

	_, err := h.svc.SyncMenus(context.Background(), hostedBlog())
	require.Error(t, err)
	require.Equal(t, 1, h.recorder.results[resultKey{OpSyncMenus, metrics.ResultCanceled, "network"}])
}

func TestJournalProjectionTracksOperations(t *testing.T) {
	events, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close() })
	journal := eventstore.NewJournal(events, eventstore.NewSyncHistoryProjection(events))

	remote := &fakeRemote{nextID: 10, menus: []*model.Menu{remoteMenu(42, 1, "Main")}}
	svc := NewService(remote, store.NewMemoryStore(), WithJournal(journal))
	ctx := context.Background()

	_, err = svc.SyncMenus(ctx, hostedBlog())
	require.NoError(t, err)
	_, err = svc.CreateMenu(ctx, "Footer", hostedBlog())
	require.NoError(t, err)
	remote.deleteErr = errors.NotFoundError("menu not found").Build()
	require.Error(t, svc.DeleteMenu(ctx, remoteMenu(42, 99, "Gone"), hostedBlog()))

	summary, ok := journal.Projection().GetBlog(42)
	require.True(t, ok)
	require.Equal(t, 1, summary.Syncs)
	require.Equal(t, 1, summary.LastSync.Menus)
	require.Equal(t, 1, summary.Creates)
	require.Equal(t, 1, summary.Failures)
	require.NotNil(t, summary.LastFailure)
	require.Equal(t, string(errors.CategoryNotFound), summary.LastFailure.Category)

	stored, err := events.GetByBlogID(ctx, 42)
	require.NoError(t, err)
	require.Len(t, stored, 3)
}
