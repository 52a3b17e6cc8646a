package commands

import (
	"fmt"
	"text/tabwriter"
	"time"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Blog  int64 `short:"b" required:"" help:"Blog id"`
	Limit int   `default:"20" help:"Show at most this many recent entries (0 for all)"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	blog, err := cfg.Blog(h.Blog)
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

	events, err := a.events.Recent(ctx, blog.ID, h.Limit)
	if err != nil {
		return err
	}

	projection := a.journal.Projection()
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}

	out := g.out()
	summary, ok := projection.GetBlog(blog.ID)
	if !ok {
		_, _ = fmt.Fprintf(out, "no journal entries for blog %d\n", blog.ID)
		return nil
	}
	_, _ = fmt.Fprintf(out, "blog %d: %d syncs, %d creates, %d updates, %d deletes, %d failures\n",
		blog.ID, summary.Syncs, summary.Creates, summary.Updates, summary.Deletes, summary.Failures)
	if !summary.LastSyncAt.IsZero() {
		_, _ = fmt.Fprintf(out, "last sync %s: %d menus, %d locations\n",
			summary.LastSyncAt.Format(time.RFC3339), summary.LastSync.Menus, summary.LastSync.Locations)
	}
	if summary.LastFailure != nil {
		_, _ = fmt.Fprintf(out, "last failure %s: %s: %s\n",
			summary.LastFailureAt.Format(time.RFC3339), summary.LastFailure.Operation, summary.LastFailure.Error)
	}
	_, _ = fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tEVENT\tPAYLOAD")
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp().Format(time.RFC3339), e.Type(), e.Payload())
	}
	return tw.Flush()
}
