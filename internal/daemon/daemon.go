// Package daemon runs periodic menu syncs for every configured blog and
// serves metrics and health over HTTP.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/menusync/internal/config"
	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/logfields"
	"git.home.luguber.info/inful/menusync/internal/metrics"
	"git.home.luguber.info/inful/menusync/internal/model"
	"git.home.luguber.info/inful/menusync/internal/services"
	"git.home.luguber.info/inful/menusync/internal/services/menus"
)

// Service names registered with the orchestrator.
const (
	serviceHTTP      = "http"
	serviceScheduler = "scheduler"
	serviceWatcher   = "config-watcher"
)

// Syncer syncs one blog. *menus.Service implements it.
type Syncer interface {
	SyncMenus(ctx context.Context, blog *model.Blog) (menus.SyncResult, error)
}

// Options configures a Daemon.
type Options struct {
	// ConfigPath enables reloading when the file changes.
	ConfigPath string
	// Registry is served on /metrics. A fresh registry is used when nil.
	Registry *prom.Registry
	Recorder metrics.Recorder
	// ReloadDebounce overrides the config watcher debounce.
	ReloadDebounce time.Duration
}

// Daemon owns the scheduler, the HTTP server and the config watcher.
type Daemon struct {
	mu     sync.RWMutex
	cfg    *config.Config
	syncer Syncer

	recorder   metrics.Recorder
	registry   *prom.Registry
	configPath string
	debounce   time.Duration

	orchestrator *services.ServiceOrchestrator
	scheduler    *Scheduler
	http         *httpServer
	startedAt    time.Time

	statusMu  sync.RWMutex
	lastRound *RoundReport

	runCtx context.Context
}

// New creates a daemon for cfg.
func New(cfg *config.Config, syncer Syncer, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.ConfigError("daemon requires a configuration").Build()
	}
	if syncer == nil {
		return nil, errors.InternalError("daemon requires a syncer").Build()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prom.NewRegistry()
	}
	registerRuntimeCollectors(reg)

	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	return &Daemon{
		cfg:          cfg,
		syncer:       syncer,
		recorder:     rec,
		registry:     reg,
		configPath:   opts.ConfigPath,
		debounce:     opts.ReloadDebounce,
		orchestrator: services.NewServiceOrchestrator(),
		runCtx:       context.Background(),
	}, nil
}

func registerRuntimeCollectors(reg *prom.Registry) {
	for _, c := range []prom.Collector{
		promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			slog.Debug("Runtime collector not registered", logfields.Error(err))
		}
	}
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Run starts every component and blocks until ctx is canceled, then stops
// them in reverse order.
func (d *Daemon) Run(ctx context.Context) error {
	cfg := d.Config()
	d.runCtx = ctx
	d.startedAt = time.Now()

	sched, err := NewScheduler()
	if err != nil {
		return err
	}
	d.scheduler = sched
	if _, err := sched.ScheduleEvery("menu-sync", cfg.Daemon.Interval(), func() { d.RunOnce(d.runCtx) }); err != nil {
		_ = sched.Stop(context.Background())
		return err
	}
	if err := d.orchestrator.RegisterService(services.NewSchedulerService(serviceScheduler, sched)); err != nil {
		return err
	}

	if cfg.Daemon.MetricsAddr != "" {
		d.http = newHTTPServer(cfg.Daemon.MetricsAddr, d.routes())
		if err := d.orchestrator.RegisterService(services.NewHTTPServerService(serviceHTTP, d.http)); err != nil {
			return err
		}
	}

	if d.configPath != "" {
		watcher, err := NewConfigWatcher(d.configPath, d.ReloadConfig)
		if err != nil {
			return err
		}
		if d.debounce > 0 {
			watcher.debounceTime = d.debounce
		}
		if err := d.orchestrator.RegisterService(services.NewConfigWatcherService(serviceWatcher, watcher, serviceScheduler)); err != nil {
			return err
		}
	}

	if err := d.orchestrator.StartAll(ctx); err != nil {
		return err
	}
	slog.Info("Menu sync daemon started",
		slog.Int("blogs", len(cfg.Blogs)),
		slog.String("interval", cfg.Daemon.SyncInterval),
		slog.String("metrics_addr", cfg.Daemon.MetricsAddr))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return d.orchestrator.StopAll(stopCtx)
}

// ReloadConfig swaps in newCfg. Blogs, concurrency, retry and interval
// take effect for the next round; other sections need a restart.
func (d *Daemon) ReloadConfig(_ context.Context, newCfg *config.Config) error {
	d.mu.Lock()
	old := d.cfg
	d.cfg = newCfg
	d.mu.Unlock()

	warnRestartRequired(old, newCfg)

	if d.scheduler != nil && newCfg.Daemon.SyncInterval != old.Daemon.SyncInterval {
		if err := d.scheduler.Reschedule(newCfg.Daemon.Interval()); err != nil {
			return err
		}
		slog.Info("Sync interval changed", slog.String("interval", newCfg.Daemon.SyncInterval))
	}
	slog.Info("Configuration applied", slog.Int("blogs", len(newCfg.Blogs)))
	return nil
}

func warnRestartRequired(old, next *config.Config) {
	var changed []string
	if old.API != next.API {
		changed = append(changed, "api")
	}
	if old.Account != next.Account {
		changed = append(changed, "account")
	}
	if old.Storage != next.Storage {
		changed = append(changed, "storage")
	}
	if old.Daemon.MetricsAddr != next.Daemon.MetricsAddr {
		changed = append(changed, "daemon.metrics_addr")
	}
	if (old.Notify == nil) != (next.Notify == nil) || (old.Notify != nil && *old.Notify != *next.Notify) {
		changed = append(changed, "notify")
	}
	if old.Monitoring != next.Monitoring {
		changed = append(changed, "monitoring")
	}
	if len(changed) > 0 {
		slog.Warn("Configuration changes require a restart to take effect", slog.Any("sections", changed))
	}
}
