package menus

import (
	"context"
	"sync"
	"time"

	"git.home.luguber.info/inful/menusync/internal/eventstore"
	"git.home.luguber.info/inful/menusync/internal/metrics"
	"git.home.luguber.info/inful/menusync/internal/model"
	"git.home.luguber.info/inful/menusync/internal/notify"
)

type fakeRemote struct {
	mu sync.Mutex

	menus     []*model.Menu
	locations []model.MenuLocation
	listErr   error

	nextID    int64
	createErr error

	updateErr error
	deleteErr error

	listCalls, createCalls, updateCalls, deleteCalls int
	lastUpdate                                       *model.Menu
	panicOnList                                      bool
}

func (f *fakeRemote) ListMenus(_ context.Context, _ int64) ([]*model.Menu, []model.MenuLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.panicOnList {
		panic("remote exploded")
	}
	if f.listErr != nil {
		return nil, nil, f.listErr
	}
	out := make([]*model.Menu, 0, len(f.menus))
	for _, m := range f.menus {
		out = append(out, m.Clone())
	}
	return out, append([]model.MenuLocation(nil), f.locations...), nil
}

func (f *fakeRemote) CreateMenu(_ context.Context, _ int64, _ string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeRemote) UpdateMenu(_ context.Context, blogID int64, menu *model.Menu) (*model.Menu, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastUpdate = menu.Clone()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	out := menu.Clone()
	out.BlogID = blogID
	out.LocalID = model.MenuLocalID(blogID, menu.ID)
	for i := range out.Items {
		if out.Items[i].ID == 0 {
			out.Items[i].ID = 900 + int64(i)
		}
	}
	return out, nil
}

func (f *fakeRemote) DeleteMenu(_ context.Context, _, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

type resultKey struct {
	op       string
	result   metrics.ResultLabel
	category string
}

type fakeRecorder struct {
	metrics.NoopRecorder
	mu               sync.Mutex
	results          map[resultKey]int
	observerFailures map[string]int
	synced           map[int64][2]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		results:          make(map[resultKey]int),
		observerFailures: make(map[string]int),
		synced:           make(map[int64][2]int),
	}
}

func (r *fakeRecorder) IncOperationResult(op string, result metrics.ResultLabel, category string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[resultKey{op, result, category}]++
}

func (r *fakeRecorder) SetSyncedMenus(blogID int64, menus, locations int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synced[blogID] = [2]int{menus, locations}
}

func (r *fakeRecorder) IncObserverFailure(observer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observerFailures[observer]++
}

type fakeJournal struct {
	mu     sync.Mutex
	events []eventstore.Event
	err    error
}

func (j *fakeJournal) Record(_ context.Context, e eventstore.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.events = append(j.events, e)
	return nil
}

func (j *fakeJournal) types() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, 0, len(j.events))
	for _, e := range j.events {
		out = append(out, e.Type())
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []notify.ChangeEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e notify.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

var fixedNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func hostedBlog() *model.Blog {
	return &model.Blog{ID: 42, Name: "Example", HostedAtPlatform: true}
}

func remoteMenu(blogID, id int64, name string, locations ...string) *model.Menu {
	return &model.Menu{
		ID:        id,
		LocalID:   model.MenuLocalID(blogID, id),
		BlogID:    blogID,
		Name:      name,
		Locations: locations,
		State:     model.MenuStateSaved,
		Items: []model.MenuItem{
			{ID: id * 100, LocalID: model.ItemLocalID(blogID, id*100), Name: "Home", Type: "custom", URL: "/"},
		},
	}
}
