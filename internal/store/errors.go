package store

import (
	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/model"
)

func persistenceError(err error, op string) error {
	return errors.PersistenceError("local store "+op+" failed").
		WithCause(err).
		WithContext("op", op).
		Build()
}

func menuNotFound(blogID, menuID int64) error {
	return errors.NotFoundError("menu not found in local store").
		WithContext("blog_id", blogID).
		WithContext("menu_id", menuID).
		Build()
}

func validateSavable(menu *model.Menu) error {
	if menu == nil {
		return errors.ValidationError("menu is required").Build()
	}
	if !menu.IsSaved() {
		return errors.ValidationError("provisional menus cannot be persisted").
			WithContext("local_id", menu.LocalID).
			Build()
	}
	if menu.BlogID <= 0 {
		return errors.ValidationError("menu has no blog").
			WithContext("menu_id", menu.ID).
			Build()
	}
	return nil
}

// scoped returns a copy of menu owned by blogID with a freshly computed
// fingerprint. The caller's menu is never modified.
func scoped(menu *model.Menu, blogID int64) (*model.Menu, error) {
	c := menu.Clone()
	c.BlogID = blogID
	return model.WithFingerprint(c)
}
