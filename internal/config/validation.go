package config

import (
	"fmt"
	"net/url"
	"time"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
)

// ValidateConfig validates a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	checks := []func() error{
		cv.validateAPI,
		cv.validateBlogs,
		cv.validateDaemon,
		cv.validateRetry,
		cv.validateNotify,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return errors.ConfigError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		Build()
}

func (cv *configurationValidator) validateAPI() error {
	u, err := url.Parse(cv.config.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("api.base_url", "invalid api.base_url: %q", cv.config.API.BaseURL)
	}
	if d, err := time.ParseDuration(cv.config.API.Timeout); err != nil || d <= 0 {
		return invalid("api.timeout", "invalid api.timeout: %q", cv.config.API.Timeout)
	}
	return nil
}

func (cv *configurationValidator) validateBlogs() error {
	seen := make(map[int64]bool, len(cv.config.Blogs))
	for i, b := range cv.config.Blogs {
		field := fmt.Sprintf("blogs[%d].id", i)
		if b.ID <= 0 {
			return invalid(field, "blog id must be positive: %d", b.ID)
		}
		if seen[b.ID] {
			return invalid(field, "duplicate blog id: %d", b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

func (cv *configurationValidator) validateDaemon() error {
	if d, err := time.ParseDuration(cv.config.Daemon.SyncInterval); err != nil || d < time.Second {
		return invalid("daemon.sync_interval", "invalid daemon.sync_interval: %q (minimum 1s)", cv.config.Daemon.SyncInterval)
	}
	return nil
}

func (cv *configurationValidator) validateRetry() error {
	r := cv.config.Daemon.Retry
	switch r.Backoff {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return invalid("daemon.retry.backoff", "invalid retry backoff: %s (allowed: fixed|linear|exponential)", r.Backoff)
	}
	initial, err := time.ParseDuration(r.InitialDelay)
	if err != nil {
		return invalid("daemon.retry.initial_delay", "invalid retry initial_delay: %q", r.InitialDelay)
	}
	maxDelay, err := time.ParseDuration(r.MaxDelay)
	if err != nil {
		return invalid("daemon.retry.max_delay", "invalid retry max_delay: %q", r.MaxDelay)
	}
	if maxDelay < initial {
		return invalid("daemon.retry.max_delay", "retry max_delay (%s) must be >= initial_delay (%s)", r.MaxDelay, r.InitialDelay)
	}
	if r.MaxRetries < 0 {
		return invalid("daemon.retry.max_retries", "max_retries cannot be negative: %d", r.MaxRetries)
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if n == nil {
		return nil
	}
	if n.NATSURL == "" {
		return invalid("notify.nats_url", "notify.nats_url is required when notify is configured")
	}
	return nil
}
