package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/menusync/internal/services/menus"
)

// CreateCmd implements the 'create' command.
type CreateCmd struct {
	Blog int64  `short:"b" required:"" help:"Blog id"`
	Name string `short:"n" required:"" help:"Menu name"`
}

func (c *CreateCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	blog, err := cfg.Blog(c.Blog)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	a, err := openApp(ctx, g, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	menu, err := a.service.CreateMenu(ctx, c.Name, blog)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "created menu %d %q on blog %d\n", menu.ID, menu.Name, blog.ID)
	return nil
}

// UpdateCmd implements the 'update' command. Only the given flags change
// the stored menu.
type UpdateCmd struct {
	Blog        int64    `short:"b" required:"" help:"Blog id"`
	Menu        int64    `short:"m" required:"" help:"Menu id"`
	Name             string   `short:"n" help:"New menu name"`
	Description      string   `short:"d" xor:"description" help:"New menu description"`
	ClearDescription bool     `name:"clear-description" xor:"description" help:"Remove the menu description"`
	Location         []string `short:"l" help:"Theme location to assign the menu to (repeatable)"`
	NoLocations      bool     `name:"no-locations" help:"Unassign the menu from every location"`
}

func (u *UpdateCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	blog, err := cfg.Blog(u.Blog)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	a, err := openApp(ctx, g, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	menu, err := a.store.GetMenu(ctx, blog.ID, u.Menu)
	if err != nil {
		return err
	}
	if u.Name != "" {
		menu.Name = u.Name
	}
	switch {
	case u.ClearDescription:
		menu.Description = ""
	case u.Description != "":
		menu.Description = u.Description
	}
	switch {
	case u.NoLocations:
		menu.Locations = nil
	case len(u.Location) > 0:
		menu.Locations = u.Location
	}

	updated, err := a.service.UpdateMenu(ctx, menu, blog)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "updated menu %d %q on blog %d\n", updated.ID, updated.Name, blog.ID)
	return nil
}

// DeleteCmd implements the 'delete' command.
type DeleteCmd struct {
	Blog int64 `short:"b" required:"" help:"Blog id"`
	Menu int64 `short:"m" required:"" help:"Menu id"`
}

func (d *DeleteCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	blog, err := cfg.Blog(d.Blog)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	a, err := openApp(ctx, g, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	menu, err := a.store.GetMenu(ctx, blog.ID, d.Menu)
	if err != nil {
		return err
	}
	if err := a.service.DeleteMenu(ctx, menu, blog); err != nil {
		if menus.RemoteApplied(err) {
			_, _ = fmt.Fprintf(g.out(), "menu %d was deleted remotely; run 'menusync sync --blog %d' to refresh the local copy\n", menu.ID, blog.ID)
		}
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "deleted menu %d from blog %d\n", menu.ID, blog.ID)
	return nil
}

// ListCmd implements the 'list' command.
type ListCmd struct {
	Blog int64 `short:"b" required:"" help:"Blog id"`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	blog, err := cfg.Blog(l.Blog)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	a, err := openApp(ctx, g, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ms, err := a.store.ListMenus(ctx, blog.ID)
	if err != nil {
		return err
	}
	locations, err := a.store.ListLocations(ctx, blog.ID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tITEMS\tLOCATIONS\tSYNCED")
	for _, m := range ms {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", m.ID, m.Name, len(m.Items),
			strings.Join(m.Locations, ","), m.SyncedAt.Format("2006-01-02 15:04:05"))
	}
	_, _ = fmt.Fprintln(tw)
	_, _ = fmt.Fprintln(tw, "LOCATION\tMENU\tDESCRIPTION")
	for _, loc := range locations {
		menuID := "-"
		if loc.MenuID > 0 {
			menuID = fmt.Sprint(loc.MenuID)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", loc.Name, menuID, loc.Description)
	}
	return tw.Flush()
}
