package config

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/model"
)

// InferHosted reports whether blogURL lives on the platform: its registrable
// domain (eTLD+1) equals platformDomain.
func InferHosted(blogURL, platformDomain string) bool {
	if blogURL == "" || platformDomain == "" {
		return false
	}
	raw := blogURL
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return false
	}
	return domain == strings.ToLower(platformDomain)
}

// ToModel converts the declaration into a model.Blog.
func (b BlogConfig) ToModel() *model.Blog {
	blog := &model.Blog{
		ID:   b.ID,
		Name: b.Name,
		URL:  b.URL,
	}
	if b.Hosted != nil {
		blog.HostedAtPlatform = *b.Hosted
	}
	if b.JetpackConnected {
		blog.Jetpack = &model.JetpackState{Connected: true}
	}
	return blog
}

// Blog returns the configured blog with id.
func (c *Config) Blog(id int64) (*model.Blog, error) {
	for _, b := range c.Blogs {
		if b.ID == id {
			return b.ToModel(), nil
		}
	}
	return nil, errors.NotFoundError("blog is not configured").
		WithContext("blog_id", id).
		Build()
}

// ModelBlogs returns every configured blog.
func (c *Config) ModelBlogs() []*model.Blog {
	out := make([]*model.Blog, 0, len(c.Blogs))
	for _, b := range c.Blogs {
		out = append(out, b.ToModel())
	}
	return out
}
