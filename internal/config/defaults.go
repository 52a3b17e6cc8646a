package config

import (
	"strings"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
)

// Default values applied by Load.
const (
	DefaultBaseURL        = "https://public-api.wordpress.com/rest/v1.1"
	DefaultTimeout        = "30s"
	DefaultPlatformDomain = "wordpress.com"
	DefaultDatabase       = "menusync.db"
	DefaultEventsDatabase = "menusync-events.db"
	DefaultSyncInterval   = "15m"
	DefaultMetricsAddr    = ":9464"
	DefaultConcurrency    = 4
	DefaultSubject        = "menusync.changes"
	DefaultStream         = "MENUSYNC"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// APIDefaultApplier handles API configuration defaults.
type APIDefaultApplier struct{}

func (APIDefaultApplier) Domain() string { return "api" }

func (APIDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimSuffix(cfg.API.BaseURL, "/")
	if cfg.API.Timeout == "" {
		cfg.API.Timeout = DefaultTimeout
	}
	if cfg.API.PlatformDomain == "" {
		cfg.API.PlatformDomain = DefaultPlatformDomain
	}
	cfg.API.PlatformDomain = strings.ToLower(cfg.API.PlatformDomain)
	return nil
}

// BlogDefaultApplier infers hosting for blogs that do not declare it.
type BlogDefaultApplier struct{}

func (BlogDefaultApplier) Domain() string { return "blogs" }

func (BlogDefaultApplier) ApplyDefaults(cfg *Config) error {
	for i := range cfg.Blogs {
		b := &cfg.Blogs[i]
		if b.Hosted != nil {
			continue
		}
		hosted := InferHosted(b.URL, cfg.API.PlatformDomain)
		b.Hosted = &hosted
	}
	return nil
}

// StorageDefaultApplier handles storage defaults.
type StorageDefaultApplier struct{}

func (StorageDefaultApplier) Domain() string { return "storage" }

func (StorageDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Storage.Database == "" {
		cfg.Storage.Database = DefaultDatabase
	}
	if cfg.Storage.EventsDatabase == "" {
		cfg.Storage.EventsDatabase = DefaultEventsDatabase
	}
	return nil
}

// DaemonDefaultApplier handles daemon and retry defaults.
type DaemonDefaultApplier struct{}

func (DaemonDefaultApplier) Domain() string { return "daemon" }

func (DaemonDefaultApplier) ApplyDefaults(cfg *Config) error {
	d := &cfg.Daemon
	if d.SyncInterval == "" {
		d.SyncInterval = DefaultSyncInterval
	}
	if d.MetricsAddr == "" {
		d.MetricsAddr = DefaultMetricsAddr
	}
	if d.Concurrency <= 0 {
		d.Concurrency = DefaultConcurrency
	}
	if d.Retry.Backoff == "" {
		d.Retry.Backoff = RetryBackoffLinear
	} else if mode := NormalizeRetryBackoff(string(d.Retry.Backoff)); mode != "" {
		d.Retry.Backoff = mode
	}
	if d.Retry.InitialDelay == "" {
		d.Retry.InitialDelay = "1s"
	}
	if d.Retry.MaxDelay == "" {
		d.Retry.MaxDelay = "30s"
	}
	return nil
}

// NotifyDefaultApplier handles notification defaults when the section is present.
type NotifyDefaultApplier struct{}

func (NotifyDefaultApplier) Domain() string { return "notify" }

func (NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify == nil {
		return nil
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultSubject
	}
	if cfg.Notify.JetStream && cfg.Notify.Stream == "" {
		cfg.Notify.Stream = DefaultStream
	}
	return nil
}

// MonitoringDefaultApplier handles logging defaults.
type MonitoringDefaultApplier struct{}

func (MonitoringDefaultApplier) Domain() string { return "monitoring" }

func (MonitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Monitoring.Logging.Level = NormalizeLogLevel(string(cfg.Monitoring.Logging.Level))
	cfg.Monitoring.Logging.Format = NormalizeLogFormat(string(cfg.Monitoring.Logging.Format))
	return nil
}

// defaultAppliers run in order; blogs depend on the api domain.
func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		APIDefaultApplier{},
		BlogDefaultApplier{},
		StorageDefaultApplier{},
		DaemonDefaultApplier{},
		NotifyDefaultApplier{},
		MonitoringDefaultApplier{},
	}
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return errors.ConfigError("failed to apply defaults").
				WithCause(err).
				WithContext("domain", a.Domain()).
				Build()
		}
	}
	return nil
}
