package commands

import (
	"fmt"

	"git.home.luguber.info/inful/menusync/internal/services/menus"
)

// SupportsCmd implements the 'supports' command.
type SupportsCmd struct {
	Blog int64 `short:"b" required:"" help:"Blog id"`
}

func (s *SupportsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	blog, err := cfg.Blog(s.Blog)
	if err != nil {
		return err
	}

	// Capability checks never reach the remote or the store.
	svc := menus.NewService(nil, nil)
	if svc.SupportsMenuCustomization(blog) {
		_, _ = fmt.Fprintf(g.out(), "blog %d supports menu customization\n", blog.ID)
		return nil
	}
	_, _ = fmt.Fprintf(g.out(), "blog %d does not support menu customization (not hosted and not connected)\n", blog.ID)
	return nil
}
