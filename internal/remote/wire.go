package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID decodes identifiers that the API sends either as JSON numbers or as
// numeric strings. Null and "" decode to 0.
type ID int64

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", data, err)
	}
	*id = ID(n)
	return nil
}

type menuItemDTO struct {
	ID          ID            `json:"id,omitempty"`
	ContentID   ID            `json:"content_id,omitempty"`
	Type        string        `json:"type,omitempty"`
	TypeFamily  string        `json:"type_family,omitempty"`
	TypeLabel   string        `json:"type_label,omitempty"`
	URL         string        `json:"url,omitempty"`
	Name        string        `json:"name"`
	LinkTarget  string        `json:"link_target,omitempty"`
	LinkTitle   string        `json:"link_title,omitempty"`
	Description string        `json:"description,omitempty"`
	Classes     []string      `json:"classes,omitempty"`
	Items       []menuItemDTO `json:"items,omitempty"`
}

type menuDTO struct {
	ID          ID            `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Items       []menuItemDTO `json:"items"`
	Locations   []string      `json:"locations"`
}

type locationDTO struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DefaultState string `json:"defaultState"`
}

type listMenusResponse struct {
	Menus     []menuDTO     `json:"menus"`
	Locations []locationDTO `json:"locations"`
}

type createMenuRequest struct {
	Name string `json:"name"`
}

type createMenuResponse struct {
	ID ID `json:"id"`
}

type updateMenuRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Items       []menuItemDTO `json:"items"`
	Locations   []string      `json:"locations"`
}

type updateMenuResponse struct {
	Menu *menuDTO `json:"menu"`
}

type deleteMenuResponse struct {
	Deleted bool `json:"deleted"`
}
