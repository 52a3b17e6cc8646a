// Package store persists synced menus, their items and the blog's menu
// locations locally.
package store

import (
	"context"

	"git.home.luguber.info/inful/menusync/internal/model"
)

// Store is the local cache of remote menu state. Every method is atomic.
type Store interface {
	// ListMenus returns the blog's menus ordered by id.
	ListMenus(ctx context.Context, blogID int64) ([]*model.Menu, error)
	// GetMenu returns a single menu or a not_found error.
	GetMenu(ctx context.Context, blogID, menuID int64) (*model.Menu, error)
	// ListLocations returns the blog's locations ordered by name.
	ListLocations(ctx context.Context, blogID int64) ([]model.MenuLocation, error)
	// SaveMenu upserts a saved menu, replaces its items and moves the
	// assignments of the locations it names to it.
	SaveMenu(ctx context.Context, menu *model.Menu) error
	// DeleteMenu removes a menu and its items and clears the locations
	// pointing at it. Deleting an unknown menu is not an error.
	DeleteMenu(ctx context.Context, blogID, menuID int64) error
	// ReplaceBlogMenus makes the blog's local state equal to menus and
	// locations.
	ReplaceBlogMenus(ctx context.Context, blogID int64, menus []*model.Menu, locations []model.MenuLocation) (ReplaceStats, error)
	Close() error
}

// ReplaceStats summarizes a ReplaceBlogMenus call.
type ReplaceStats struct {
	Menus     int // menus stored
	Locations int // locations stored
	Changed   int // new menus plus menus whose fingerprint changed
	Removed   int // local menus no longer listed remotely
}
