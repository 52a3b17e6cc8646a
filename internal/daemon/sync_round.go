package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/logfields"
	"git.home.luguber.info/inful/menusync/internal/model"
	"git.home.luguber.info/inful/menusync/internal/observability"
	"git.home.luguber.info/inful/menusync/internal/retry"
)

// BlogResult is the outcome of syncing one blog in a round.
type BlogResult struct {
	BlogID    int64  `json:"blog_id"`
	Menus     int    `json:"menus"`
	Locations int    `json:"locations"`
	Changed   int    `json:"changed"`
	Removed   int    `json:"removed"`
	Attempts  int    `json:"attempts"`
	Category  string `json:"category,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RoundReport summarizes one periodic sync round.
type RoundReport struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Blogs      []BlogResult `json:"blogs"`
	Skipped    []int64      `json:"skipped,omitempty"`
}

// Failed returns how many blogs failed to sync.
func (r RoundReport) Failed() int {
	n := 0
	for _, b := range r.Blogs {
		if b.Error != "" {
			n++
		}
	}
	return n
}

// RunOnce syncs every configured blog that supports menus. Blogs are synced
// concurrently up to daemon.concurrency; a failing blog does not stop the
// others. Transient failures are retried per daemon.retry.
func (d *Daemon) RunOnce(ctx context.Context) RoundReport {
	cfg := d.Config()
	policy := retry.FromConfig(cfg.Daemon.Retry)
	report := RoundReport{ID: uuid.NewString(), StartedAt: time.Now()}
	ctx = observability.WithJobID(ctx, report.ID)

	var blogs []*model.Blog
	for _, blog := range cfg.ModelBlogs() {
		if !blog.SupportsMenus() {
			report.Skipped = append(report.Skipped, blog.ID)
			observability.DebugContext(ctx, "Skipping blog without menu support", logfields.BlogID(blog.ID))
			continue
		}
		blogs = append(blogs, blog)
	}

	results := make([]BlogResult, len(blogs))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Daemon.Concurrency > 0 {
		g.SetLimit(cfg.Daemon.Concurrency)
	}
	for i, blog := range blogs {
		g.Go(func() error {
			results[i] = d.syncBlog(gctx, blog, policy)
			return nil
		})
	}
	_ = g.Wait()

	report.Blogs = results
	report.FinishedAt = time.Now()
	d.setLastRound(report)

	observability.InfoContext(ctx, "Sync round finished",
		slog.Int("blogs", len(report.Blogs)),
		slog.Int("failed", report.Failed()),
		slog.Int("skipped", len(report.Skipped)),
		logfields.Duration(report.FinishedAt.Sub(report.StartedAt)))
	return report
}

func (d *Daemon) syncBlog(ctx context.Context, blog *model.Blog, policy retry.Policy) BlogResult {
	ctx = observability.WithBlogID(ctx, blog.ID)
	res := BlogResult{BlogID: blog.ID}

	err := policy.Do(ctx, func(ctx context.Context) error {
		res.Attempts++
		out, err := d.syncer.SyncMenus(ctx, blog)
		if err != nil {
			return err
		}
		res.Menus = len(out.Menus)
		res.Locations = len(out.Locations)
		res.Changed = out.Changed
		res.Removed = out.Removed
		return nil
	}, errors.IsTransient, func(attempt int, err error, delay time.Duration) {
		d.recorder.IncSyncRetry(blog.ID)
		observability.WarnContext(ctx, "Retrying menu sync",
			logfields.Attempt(attempt),
			logfields.Error(err),
			slog.Duration("delay", delay))
	})
	if err == nil {
		return res
	}

	if errors.IsTransient(err) && res.Attempts > policy.MaxRetries {
		d.recorder.IncSyncRetryExhausted(blog.ID)
	}
	res.Category = string(errors.GetCategory(err))
	res.Error = err.Error()
	observability.ErrorContext(ctx, "Menu sync failed",
		logfields.Attempt(res.Attempts),
		logfields.Error(err))
	return res
}

func (d *Daemon) setLastRound(r RoundReport) {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()
	d.lastRound = &r
}

// LastRound returns the most recent round report, if any.
func (d *Daemon) LastRound() (RoundReport, bool) {
	d.statusMu.RLock()
	defer d.statusMu.RUnlock()
	if d.lastRound == nil {
		return RoundReport{}, false
	}
	return *d.lastRound, true
}
