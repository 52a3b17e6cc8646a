package model

import (
	"slices"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

type fingerprintHeader struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Locations   []string `yaml:"locations,omitempty"`
}

type fingerprintItem struct {
	ID          int64    `yaml:"id,omitempty"`
	Parent      int      `yaml:"parent"`
	ContentID   int64    `yaml:"content_id,omitempty"`
	Type        string   `yaml:"type,omitempty"`
	TypeFamily  string   `yaml:"type_family,omitempty"`
	TypeLabel   string   `yaml:"type_label,omitempty"`
	URL         string   `yaml:"url,omitempty"`
	Name        string   `yaml:"name,omitempty"`
	LinkTarget  string   `yaml:"link_target,omitempty"`
	LinkTitle   string   `yaml:"link_title,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Classes     []string `yaml:"classes,omitempty"`
}

// Fingerprint computes a content hash of the menu's name, description,
// location assignments and item tree. Local ids, timestamps and state are
// excluded so that two syncs of the same remote menu produce the same value.
func Fingerprint(m *Menu) (string, error) {
	if m == nil {
		return "", nil
	}

	locations := slices.Clone(m.Locations)
	slices.Sort(locations)
	header, err := yaml.Marshal(fingerprintHeader{
		Name:        m.Name,
		Description: m.Description,
		Locations:   locations,
	})
	if err != nil {
		return "", err
	}

	// Parents are referenced by index so the hash does not depend on local ids.
	index := make(map[string]int, len(m.Items))
	for i, it := range m.Items {
		index[it.LocalID] = i
	}
	items := make([]fingerprintItem, 0, len(m.Items))
	for _, it := range m.Items {
		parent := -1
		if p, ok := index[it.ParentLocalID]; ok && it.ParentLocalID != "" {
			parent = p
		}
		items = append(items, fingerprintItem{
			ID:          it.ID,
			Parent:      parent,
			ContentID:   it.ContentID,
			Type:        it.Type,
			TypeFamily:  it.TypeFamily,
			TypeLabel:   it.TypeLabel,
			URL:         it.URL,
			Name:        it.Name,
			LinkTarget:  it.LinkTarget,
			LinkTitle:   it.LinkTitle,
			Description: it.Description,
			Classes:     it.Classes,
		})
	}

	body := ""
	if len(items) > 0 {
		serialized, err := yaml.Marshal(items)
		if err != nil {
			return "", err
		}
		body = string(serialized)
	}

	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(header), "\n"), body), nil
}

// WithFingerprint sets m.Fingerprint and returns m.
func WithFingerprint(m *Menu) (*Menu, error) {
	fp, err := Fingerprint(m)
	if err != nil {
		return nil, err
	}
	m.Fingerprint = fp
	return m, nil
}
