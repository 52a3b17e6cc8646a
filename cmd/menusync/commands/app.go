package commands

import (
	"context"
	"log/slog"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/menusync/internal/config"
	"git.home.luguber.info/inful/menusync/internal/eventstore"
	"git.home.luguber.info/inful/menusync/internal/logfields"
	"git.home.luguber.info/inful/menusync/internal/metrics"
	"git.home.luguber.info/inful/menusync/internal/notify"
	"git.home.luguber.info/inful/menusync/internal/remote"
	"git.home.luguber.info/inful/menusync/internal/services/menus"
	"git.home.luguber.info/inful/menusync/internal/store"
)

// app is the wired menu service with the resources it owns.
type app struct {
	cfg      *config.Config
	service  *menus.Service
	store    store.Store
	events   *eventstore.SQLiteStore
	journal  *eventstore.Journal
	registry *prom.Registry
	recorder *metrics.PrometheusRecorder
	closers  []func() error
}

// openApp resolves the token and opens the stores and the publisher
// configured in cfg.
func openApp(ctx context.Context, g *Global, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg, registry: prom.NewRegistry()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	token, err := g.resolver().Token(ctx, cfg.Account)
	if err != nil {
		return nil, err
	}
	if token == "" {
		slog.Warn("No API token configured; requests are sent unauthenticated")
	}
	client := remote.NewClient(&http.Client{Timeout: cfg.API.RequestTimeout()}, cfg.API.BaseURL, token)

	st, err := store.NewSQLiteStore(cfg.Storage.Database)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.closers = append(a.closers, st.Close)

	es, err := eventstore.NewSQLiteStore(cfg.Storage.EventsDatabase)
	if err != nil {
		return nil, err
	}
	a.events = es
	a.closers = append(a.closers, es.Close)
	a.journal = eventstore.NewJournal(es, eventstore.NewSyncHistoryProjection(es))

	var publisher notify.Publisher = notify.NoopPublisher{}
	if cfg.Notify != nil {
		p, err := notify.NewNATSPublisher(ctx, cfg.Notify)
		if err != nil {
			return nil, err
		}
		publisher = p
	}
	a.closers = append(a.closers, publisher.Close)

	a.recorder = metrics.NewPrometheusRecorder(a.registry)
	a.service = menus.NewService(client, st,
		menus.WithRecorder(a.recorder),
		menus.WithJournal(a.journal),
		menus.WithPublisher(publisher),
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("Failed to close resource", logfields.Error(err))
		}
	}
	a.closers = nil
}
