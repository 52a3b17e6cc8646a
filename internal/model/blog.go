// Package model defines the blog, menu, location and menu item values shared
// by the remote client, the local store and the menu service.
package model

import (
	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
)

// JetpackState describes the bridging plugin of a self-hosted blog.
type JetpackState struct {
	Connected bool `json:"connected" yaml:"connected"`
}

// Blog is a managed site within the account.
type Blog struct {
	ID               int64         `json:"id" yaml:"id"`
	Name             string        `json:"name,omitempty" yaml:"name,omitempty"`
	URL              string        `json:"url,omitempty" yaml:"url,omitempty"`
	HostedAtPlatform bool          `json:"hosted" yaml:"hosted"`
	Jetpack          *JetpackState `json:"jetpack,omitempty" yaml:"jetpack,omitempty"`
}

// SupportsMenus reports whether menus can be customized through the API:
// the blog is hosted on the platform or connected via Jetpack.
func (b *Blog) SupportsMenus() bool {
	if b == nil {
		return false
	}
	if b.HostedAtPlatform {
		return true
	}
	return b.Jetpack != nil && b.Jetpack.Connected
}

// Validate checks that the blog can address the remote API.
func (b *Blog) Validate() error {
	if b == nil {
		return errors.ValidationError("blog is required").Build()
	}
	if b.ID <= 0 {
		return errors.ValidationError("blog id must be positive").
			WithContext("blog_id", b.ID).
			Build()
	}
	return nil
}
