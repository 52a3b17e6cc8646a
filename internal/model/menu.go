package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
)

// MenuState tracks whether the remote has confirmed a menu.
type MenuState string

const (
	MenuStateProvisional MenuState = "provisional"
	MenuStateSaved       MenuState = "saved"
)

// Menu is a named, ordered navigation structure belonging to a blog.
type Menu struct {
	ID          int64
	LocalID     string
	BlogID      int64
	Name        string
	Description string
	Items       []MenuItem
	Locations   []string
	Fingerprint string
	State       MenuState
	SyncedAt    time.Time
}

// MenuItem is one entry of a menu. Items are stored flat in depth-first
// order; nesting is expressed through ParentLocalID.
type MenuItem struct {
	ID            int64
	LocalID       string
	ParentLocalID string
	Position      int
	ContentID     int64
	Type          string
	TypeFamily    string
	TypeLabel     string
	URL           string
	Name          string
	LinkTarget    string
	LinkTitle     string
	Description   string
	Classes       []string
}

// MenuLocation is a theme-defined slot that hosts at most one menu.
type MenuLocation struct {
	BlogID       int64
	Name         string
	Description  string
	DefaultState string
	MenuID       int64
}

// namespace for deterministic local ids of remote-known values.
var localIDNamespace = uuid.MustParse("5b0f3c3e-6f0b-4f43-9a43-3b0a0c1f6d21")

// NormalizeName trims and NFC-normalizes a menu name.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// NewProvisionalMenu creates a menu that exists only locally until the
// remote assigns it an identifier.
func NewProvisionalMenu(blog *Blog, name string) (*Menu, error) {
	if err := blog.Validate(); err != nil {
		return nil, err
	}
	name = NormalizeName(name)
	if name == "" {
		return nil, errors.ValidationError("menu name is required").
			WithContext("blog_id", blog.ID).
			Build()
	}
	return &Menu{
		LocalID: uuid.NewString(),
		BlogID:  blog.ID,
		Name:    name,
		State:   MenuStateProvisional,
	}, nil
}

// MenuLocalID returns the stable local id for a remote menu.
func MenuLocalID(blogID, menuID int64) string {
	return uuid.NewSHA1(localIDNamespace, fmt.Appendf(nil, "menu:%d:%d", blogID, menuID)).String()
}

// ItemLocalID returns the stable local id for a remote menu item.
func ItemLocalID(blogID, itemID int64) string {
	return uuid.NewSHA1(localIDNamespace, fmt.Appendf(nil, "item:%d:%d", blogID, itemID)).String()
}

// NewItemLocalID returns a fresh id for an item not yet known to the remote.
func NewItemLocalID() string {
	return uuid.NewString()
}

// IsSaved reports whether the remote has confirmed the menu.
func (m *Menu) IsSaved() bool {
	return m != nil && m.State == MenuStateSaved && m.ID > 0
}

// MarkSaved records the remote identifier and flips the menu to saved.
func (m *Menu) MarkSaved(id int64, at time.Time) {
	m.ID = id
	m.State = MenuStateSaved
	m.SyncedAt = at
}

// ValidateForRemote checks that a saved menu can be pushed to or removed
// from the remote on behalf of blog.
func (m *Menu) ValidateForRemote(blog *Blog) error {
	if err := blog.Validate(); err != nil {
		return err
	}
	if m == nil {
		return errors.ValidationError("menu is required").Build()
	}
	if !m.IsSaved() {
		return errors.ValidationError("menu has not been saved remotely").
			WithContext("local_id", m.LocalID).
			WithContext("state", string(m.State)).
			Build()
	}
	if m.BlogID != 0 && m.BlogID != blog.ID {
		return errors.ValidationError("menu belongs to a different blog").
			WithContext("menu_blog_id", m.BlogID).
			WithContext("blog_id", blog.ID).
			Build()
	}
	if NormalizeName(m.Name) == "" {
		return errors.ValidationError("menu name is required").
			WithContext("menu_id", m.ID).
			Build()
	}
	return nil
}

// Clone returns a deep copy of the menu.
func (m *Menu) Clone() *Menu {
	if m == nil {
		return nil
	}
	c := *m
	if m.Items != nil {
		c.Items = make([]MenuItem, len(m.Items))
		for i, it := range m.Items {
			c.Items[i] = it
			if it.Classes != nil {
				c.Items[i].Classes = append([]string(nil), it.Classes...)
			}
		}
	}
	if m.Locations != nil {
		c.Locations = append([]string(nil), m.Locations...)
	}
	return &c
}

// Children returns the items whose parent is parentLocalID, in order.
func (m *Menu) Children(parentLocalID string) []MenuItem {
	var out []MenuItem
	for _, it := range m.Items {
		if it.ParentLocalID == parentLocalID {
			out = append(out, it)
		}
	}
	return out
}
