// Package remote is the REST client for the platform's menus API.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/model"
)

// DefaultBaseURL is the public REST v1.1 endpoint.
const DefaultBaseURL = "https://public-api.wordpress.com/rest/v1.1"

// Client talks to the menus endpoints of the remote API.
type Client struct {
	*BaseClient
	now func() time.Time
}

// NewClient creates a Client for baseURL authenticated with token.
func NewClient(httpClient *http.Client, baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseClient: NewBaseClient(httpClient, baseURL, token),
		now:        time.Now,
	}
}

// ListMenus returns every menu of the blog and the locations its theme offers.
func (c *Client) ListMenus(ctx context.Context, blogID int64) ([]*model.Menu, []model.MenuLocation, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, fmt.Sprintf("sites/%d/menus", blogID), nil)
	if err != nil {
		return nil, nil, err
	}

	var resp listMenusResponse
	if err := c.DoRequest(req, &resp); err != nil {
		return nil, nil, err
	}

	syncedAt := c.now().UTC()
	menus := make([]*model.Menu, 0, len(resp.Menus))
	for _, dto := range resp.Menus {
		if dto.ID <= 0 {
			return nil, nil, errors.RemoteError("menu without id in listing").
				WithContext("blog_id", blogID).
				WithContext("menu_name", dto.Name).
				Build()
		}
		m := toMenu(blogID, dto)
		m.SyncedAt = syncedAt
		if _, err := model.WithFingerprint(m); err != nil {
			return nil, nil, errors.InternalError("failed to fingerprint menu").
				WithCause(err).
				WithContext("menu_id", m.ID).
				Build()
		}
		menus = append(menus, m)
	}

	return menus, toLocations(blogID, resp.Locations, menus), nil
}

// CreateMenu creates an empty menu named name and returns its remote id.
func (c *Client) CreateMenu(ctx context.Context, blogID int64, name string) (int64, error) {
	req, err := c.NewRequest(ctx, http.MethodPost, fmt.Sprintf("sites/%d/menus/new", blogID), createMenuRequest{Name: name})
	if err != nil {
		return 0, err
	}

	var resp createMenuResponse
	if err := c.DoRequest(req, &resp); err != nil {
		return 0, err
	}
	if resp.ID <= 0 {
		return 0, errors.RemoteError("create menu response carried no id").
			WithContext("blog_id", blogID).
			Build()
	}
	return int64(resp.ID), nil
}

// UpdateMenu pushes name, description, items and location assignments of
// menu and returns the menu as stored by the remote.
func (c *Client) UpdateMenu(ctx context.Context, blogID int64, menu *model.Menu) (*model.Menu, error) {
	body := updateMenuRequest{
		Name:        menu.Name,
		Description: menu.Description,
		Items:       nestItems(menu.Items),
		Locations:   menu.Locations,
	}
	if body.Items == nil {
		body.Items = []menuItemDTO{}
	}
	if body.Locations == nil {
		body.Locations = []string{}
	}

	req, err := c.NewRequest(ctx, http.MethodPost, fmt.Sprintf("sites/%d/menus/%d", blogID, menu.ID), body)
	if err != nil {
		return nil, err
	}

	var resp updateMenuResponse
	if err := c.DoRequest(req, &resp); err != nil {
		return nil, err
	}
	if resp.Menu == nil {
		return nil, errors.RemoteError("update menu response carried no menu").
			WithContext("blog_id", blogID).
			WithContext("menu_id", menu.ID).
			Build()
	}

	updated := toMenu(blogID, *resp.Menu)
	if updated.ID == 0 {
		updated.ID = menu.ID
		updated.LocalID = model.MenuLocalID(blogID, menu.ID)
	}
	updated.SyncedAt = c.now().UTC()
	if _, err := model.WithFingerprint(updated); err != nil {
		return nil, errors.InternalError("failed to fingerprint menu").
			WithCause(err).
			WithContext("menu_id", updated.ID).
			Build()
	}
	return updated, nil
}

// DeleteMenu removes the menu remotely.
func (c *Client) DeleteMenu(ctx context.Context, blogID, menuID int64) error {
	req, err := c.NewRequest(ctx, http.MethodPost, fmt.Sprintf("sites/%d/menus/%d/delete", blogID, menuID), nil)
	if err != nil {
		return err
	}

	var resp deleteMenuResponse
	if err := c.DoRequest(req, &resp); err != nil {
		return err
	}
	if !resp.Deleted {
		return errors.RemoteError("remote refused to delete menu").
			WithContext("blog_id", blogID).
			WithContext("menu_id", menuID).
			Build()
	}
	return nil
}
