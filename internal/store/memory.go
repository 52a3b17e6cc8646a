package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"git.home.luguber.info/inful/menusync/internal/model"
)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu        sync.RWMutex
	menus     map[int64]map[int64]*model.Menu
	locations map[int64]map[string]model.MenuLocation
	calls     MemoryCalls
	failures  map[string]error
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	ListMenus        int
	GetMenu          int
	ListLocations    int
	SaveMenu         int
	DeleteMenu       int
	ReplaceBlogMenus int
}

// Method names accepted by FailOn.
const (
	OpListMenus        = "ListMenus"
	OpGetMenu          = "GetMenu"
	OpListLocations    = "ListLocations"
	OpSaveMenu         = "SaveMenu"
	OpDeleteMenu       = "DeleteMenu"
	OpReplaceBlogMenus = "ReplaceBlogMenus"
)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		menus:     make(map[int64]map[int64]*model.Menu),
		locations: make(map[int64]map[string]model.MenuLocation),
		failures:  make(map[string]error),
	}
}

// FailOn makes every later call of method return err wrapped as a
// persistence error. A nil err clears the failure.
func (s *MemoryStore) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// Calls returns a snapshot of the call counters.
func (s *MemoryStore) Calls() MemoryCalls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

func (s *MemoryStore) failure(method string) error {
	if err, ok := s.failures[method]; ok {
		return persistenceError(err, method)
	}
	return nil
}

// ListMenus returns copies of the blog's menus ordered by id.
func (s *MemoryStore) ListMenus(_ context.Context, blogID int64) ([]*model.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.ListMenus++
	if err := s.failure(OpListMenus); err != nil {
		return nil, err
	}

	var out []*model.Menu
	for _, m := range s.menus[blogID] {
		out = append(out, s.withLocations(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetMenu returns a copy of one menu.
func (s *MemoryStore) GetMenu(_ context.Context, blogID, menuID int64) (*model.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.GetMenu++
	if err := s.failure(OpGetMenu); err != nil {
		return nil, err
	}

	m, ok := s.menus[blogID][menuID]
	if !ok {
		return nil, menuNotFound(blogID, menuID)
	}
	return s.withLocations(m), nil
}

// ListLocations returns the blog's locations ordered by name.
func (s *MemoryStore) ListLocations(_ context.Context, blogID int64) ([]model.MenuLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.ListLocations++
	if err := s.failure(OpListLocations); err != nil {
		return nil, err
	}

	var out []model.MenuLocation
	for _, loc := range s.locations[blogID] {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SaveMenu stores a copy of menu and moves its location assignments.
func (s *MemoryStore) SaveMenu(_ context.Context, menu *model.Menu) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.SaveMenu++
	if err := s.failure(OpSaveMenu); err != nil {
		return err
	}
	if err := validateSavable(menu); err != nil {
		return err
	}
	menu, err := scoped(menu, menu.BlogID)
	if err != nil {
		return persistenceError(err, OpSaveMenu)
	}

	s.putMenu(menu)
	locs := s.blogLocations(menu.BlogID)
	for name, loc := range locs {
		if loc.MenuID == menu.ID && !slices.Contains(menu.Locations, name) {
			loc.MenuID = 0
			locs[name] = loc
		}
	}
	for _, name := range menu.Locations {
		loc, ok := locs[name]
		if !ok {
			loc = model.MenuLocation{BlogID: menu.BlogID, Name: name}
		}
		loc.MenuID = menu.ID
		locs[name] = loc
	}
	return nil
}

// DeleteMenu removes a menu and clears locations pointing at it.
func (s *MemoryStore) DeleteMenu(_ context.Context, blogID, menuID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.DeleteMenu++
	if err := s.failure(OpDeleteMenu); err != nil {
		return err
	}
	s.removeMenu(blogID, menuID)
	return nil
}

// ReplaceBlogMenus makes the blog's state equal to menus and locations.
func (s *MemoryStore) ReplaceBlogMenus(_ context.Context, blogID int64, menus []*model.Menu, locations []model.MenuLocation) (ReplaceStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.ReplaceBlogMenus++
	if err := s.failure(OpReplaceBlogMenus); err != nil {
		return ReplaceStats{}, err
	}
	incoming := make([]*model.Menu, 0, len(menus))
	for _, m := range menus {
		if err := validateSavable(m); err != nil {
			return ReplaceStats{}, err
		}
		c, err := scoped(m, blogID)
		if err != nil {
			return ReplaceStats{}, persistenceError(err, OpReplaceBlogMenus)
		}
		incoming = append(incoming, c)
	}

	var stats ReplaceStats
	previous := s.menus[blogID]
	next := make(map[int64]*model.Menu, len(incoming))
	for _, m := range incoming {
		if old, ok := previous[m.ID]; !ok || old.Fingerprint != m.Fingerprint {
			stats.Changed++
		}
		m.Locations = nil
		next[m.ID] = m
	}
	for id := range previous {
		if _, ok := next[id]; !ok {
			stats.Removed++
		}
	}
	s.menus[blogID] = next

	locs := make(map[string]model.MenuLocation, len(locations))
	for _, loc := range locations {
		loc.BlogID = blogID
		if _, ok := next[loc.MenuID]; !ok {
			loc.MenuID = 0
		}
		locs[loc.Name] = loc
	}
	s.locations[blogID] = locs

	stats.Menus = len(next)
	stats.Locations = len(locs)
	return stats, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) putMenu(menu *model.Menu) {
	byID, ok := s.menus[menu.BlogID]
	if !ok {
		byID = make(map[int64]*model.Menu)
		s.menus[menu.BlogID] = byID
	}
	c := menu.Clone()
	c.Locations = nil
	byID[menu.ID] = c
}

func (s *MemoryStore) removeMenu(blogID, menuID int64) {
	delete(s.menus[blogID], menuID)
	locs := s.locations[blogID]
	for name, loc := range locs {
		if loc.MenuID == menuID {
			loc.MenuID = 0
			locs[name] = loc
		}
	}
}

func (s *MemoryStore) blogLocations(blogID int64) map[string]model.MenuLocation {
	locs, ok := s.locations[blogID]
	if !ok {
		locs = make(map[string]model.MenuLocation)
		s.locations[blogID] = locs
	}
	return locs
}

// withLocations returns a copy of m with Locations derived from the
// location assignments, like the SQLite store.
func (s *MemoryStore) withLocations(m *model.Menu) *model.Menu {
	c := m.Clone()
	c.Locations = nil
	for name, loc := range s.locations[m.BlogID] {
		if loc.MenuID == m.ID {
			c.Locations = append(c.Locations, name)
		}
	}
	sort.Strings(c.Locations)
	return c
}
