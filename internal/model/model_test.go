package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
)

func TestBlogSupportsMenus(t *testing.T) {
	tests := []struct {
		name string
		blog *Blog
		want bool
	}{
		{"nil blog", nil, false},
		{"hosted", &Blog{ID: 1, HostedAtPlatform: true}, true},
		{"jetpack connected", &Blog{ID: 1, Jetpack: &JetpackState{Connected: true}}, true},
		{"jetpack disconnected", &Blog{ID: 1, Jetpack: &JetpackState{}}, false},
		{"self hosted", &Blog{ID: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.blog.SupportsMenus())
		})
	}
}

func TestBlogValidate(t *testing.T) {
	var nilBlog *Blog
	require.True(t, errors.HasCategory(nilBlog.Validate(), errors.CategoryValidation))
	require.True(t, errors.HasCategory((&Blog{}).Validate(), errors.CategoryValidation))
	require.NoError(t, (&Blog{ID: 3}).Validate())
}

func TestNewProvisionalMenu(t *testing.T) {
	blog := &Blog{ID: 10}

	m, err := NewProvisionalMenu(blog, "  Primary  ")
	require.NoError(t, err)
	require.Equal(t, "Primary", m.Name)
	require.Equal(t, int64(10), m.BlogID)
	require.Equal(t, MenuStateProvisional, m.State)
	require.NotEmpty(t, m.LocalID)
	require.Zero(t, m.ID)
	require.False(t, m.IsSaved())

	other, err := NewProvisionalMenu(blog, "Primary")
	require.NoError(t, err)
	require.NotEqual(t, m.LocalID, other.LocalID)

	_, err = NewProvisionalMenu(blog, "   ")
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = NewProvisionalMenu(nil, "Primary")
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestNormalizeNameNFC(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	require.Equal(t, "Caf\u00e9", NormalizeName(" Cafe\u0301 "))
}

func TestMarkSaved(t *testing.T) {
	m, err := NewProvisionalMenu(&Blog{ID: 1}, "Footer")
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.MarkSaved(55, at)
	require.True(t, m.IsSaved())
	require.Equal(t, int64(55), m.ID)
	require.Equal(t, at, m.SyncedAt)
}

func TestValidateForRemote(t *testing.T) {
	blog := &Blog{ID: 1}
	saved := &Menu{ID: 5, BlogID: 1, Name: "Main", State: MenuStateSaved}

	require.NoError(t, saved.ValidateForRemote(blog))

	tests := []struct {
		name string
		menu *Menu
		blog *Blog
	}{
		{"nil menu", nil, blog},
		{"nil blog", saved, nil},
		{"provisional", &Menu{BlogID: 1, Name: "Main", State: MenuStateProvisional}, blog},
		{"other blog", &Menu{ID: 5, BlogID: 2, Name: "Main", State: MenuStateSaved}, blog},
		{"empty name", &Menu{ID: 5, BlogID: 1, Name: " ", State: MenuStateSaved}, blog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.menu.ValidateForRemote(tt.blog)
			require.True(t, errors.HasCategory(err, errors.CategoryValidation), "got %v", err)
		})
	}
}

func TestStableLocalIDs(t *testing.T) {
	require.Equal(t, MenuLocalID(1, 2), MenuLocalID(1, 2))
	require.NotEqual(t, MenuLocalID(1, 2), MenuLocalID(2, 2))
	require.NotEqual(t, MenuLocalID(1, 2), ItemLocalID(1, 2))
	require.NotEqual(t, NewItemLocalID(), NewItemLocalID())
}

func sampleMenu() *Menu {
	return &Menu{
		ID:        9,
		LocalID:   "m-1",
		BlogID:    1,
		Name:      "Main",
		Locations: []string{"primary", "footer"},
		State:     MenuStateSaved,
		Items: []MenuItem{
			{ID: 1, LocalID: "a", Position: 0, Type: "page", ContentID: 3, Name: "About"},
			{ID: 2, LocalID: "b", ParentLocalID: "a", Position: 1, Type: "custom", URL: "https://example.com", Name: "Team", Classes: []string{"x"}},
		},
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleMenu()
	c := orig.Clone()
	require.Empty(t, cmp.Diff(orig, c))

	c.Items[1].Classes[0] = "changed"
	c.Locations[0] = "changed"
	require.Equal(t, "x", orig.Items[1].Classes[0])
	require.Equal(t, "primary", orig.Locations[0])

	var nilMenu *Menu
	require.Nil(t, nilMenu.Clone())
}

func TestChildren(t *testing.T) {
	m := sampleMenu()
	roots := m.Children("")
	require.Len(t, roots, 1)
	require.Equal(t, "About", roots[0].Name)
	require.Equal(t, "Team", m.Children("a")[0].Name)
}

func TestFingerprintStableAcrossLocalIDs(t *testing.T) {
	a := sampleMenu()
	b := sampleMenu()
	b.LocalID = "other"
	b.Items[0].LocalID = "x"
	b.Items[1].LocalID = "y"
	b.Items[1].ParentLocalID = "x"
	b.Locations = []string{"footer", "primary"}
	b.SyncedAt = time.Now()

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	require.NotEmpty(t, fa)
	require.Equal(t, fa, fb)
}

func TestFingerprintDetectsChanges(t *testing.T) {
	base, err := Fingerprint(sampleMenu())
	require.NoError(t, err)

	mutations := map[string]func(*Menu){
		"name":        func(m *Menu) { m.Name = "Other" },
		"description": func(m *Menu) { m.Description = "desc" },
		"location":    func(m *Menu) { m.Locations = []string{"primary"} },
		"item url":    func(m *Menu) { m.Items[1].URL = "https://example.org" },
		"nesting":     func(m *Menu) { m.Items[1].ParentLocalID = "" },
		"items":       func(m *Menu) { m.Items = m.Items[:1] },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			m := sampleMenu()
			mutate(m)
			fp, err := Fingerprint(m)
			require.NoError(t, err)
			require.NotEqual(t, base, fp)
		})
	}
}

func TestWithFingerprint(t *testing.T) {
	m, err := WithFingerprint(sampleMenu())
	require.NoError(t, err)
	want, err := Fingerprint(sampleMenu())
	require.NoError(t, err)
	require.Equal(t, want, m.Fingerprint)

	fp, err := Fingerprint(nil)
	require.NoError(t, err)
	require.Empty(t, fp)
}
