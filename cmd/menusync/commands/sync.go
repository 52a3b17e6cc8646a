package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/model"
	"git.home.luguber.info/inful/menusync/internal/services/menus"
)

// SyncCmd implements the 'sync' command.
type SyncCmd struct {
	Blog int64 `short:"b" xor:"target" required:"" help:"Blog id"`
	All  bool  `xor:"target" required:"" help:"Sync every configured blog that supports menus"`
}

type syncLine struct {
	blogID int64
	result menus.SyncResult
	err    error
}

func (s *SyncCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	var blogs []*model.Blog
	if s.All {
		for _, b := range cfg.ModelBlogs() {
			if b.SupportsMenus() {
				blogs = append(blogs, b)
			}
		}
		if len(blogs) == 0 {
			return errors.ValidationError("no configured blog supports menu customization").Build()
		}
	} else {
		blog, err := cfg.Blog(s.Blog)
		if err != nil {
			return err
		}
		blogs = []*model.Blog{blog}
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := openApp(ctx, g, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	lines, err := syncBlogs(ctx, a.service, blogs, cfg.Daemon.Concurrency)
	printSyncLines(g.out(), lines)
	return err
}

// syncBlogs syncs blogs with at most limit in flight. Every blog is
// attempted; the first error is returned.
func syncBlogs(ctx context.Context, svc *menus.Service, blogs []*model.Blog, limit int) ([]syncLine, error) {
	var (
		mu    sync.Mutex
		lines = make([]syncLine, 0, len(blogs))
		g     errgroup.Group
	)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, blog := range blogs {
		g.Go(func() error {
			res, err := svc.SyncMenus(ctx, blog)
			mu.Lock()
			lines = append(lines, syncLine{blogID: blog.ID, result: res, err: err})
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	sort.Slice(lines, func(i, j int) bool { return lines[i].blogID < lines[j].blogID })
	return lines, err
}

func printSyncLines(w io.Writer, lines []syncLine) {
	for _, l := range lines {
		if l.err != nil {
			_, _ = fmt.Fprintf(w, "blog %d: failed: %v\n", l.blogID, l.err)
			continue
		}
		_, _ = fmt.Fprintf(w, "blog %d: %d menus, %d locations (%d changed, %d removed)\n",
			l.blogID, len(l.result.Menus), len(l.result.Locations), l.result.Changed, l.result.Removed)
	}
}
