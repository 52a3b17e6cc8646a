// Package config loads and validates the menusync YAML configuration.
package config

import (
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
)

// CurrentVersion is the only configuration version understood by Load.
const CurrentVersion = "1"

// Config represents the application configuration.
type Config struct {
	Version    string           `yaml:"version"`
	API        APIConfig        `yaml:"api"`
	Account    AccountConfig    `yaml:"account"`
	Blogs      []BlogConfig     `yaml:"blogs"`
	Storage    StorageConfig    `yaml:"storage"`
	Daemon     DaemonConfig     `yaml:"daemon"`
	Notify     *NotifyConfig    `yaml:"notify,omitempty"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// APIConfig describes the remote REST API.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	Timeout        string `yaml:"timeout"`         // Go duration, per request
	PlatformDomain string `yaml:"platform_domain"` // registrable domain of hosted blogs
}

// AccountConfig selects where the API token comes from. The first non-empty
// source wins: token, token_env, token_secret.
type AccountConfig struct {
	Token        string `yaml:"token,omitempty"`
	TokenEnv     string `yaml:"token_env,omitempty"`
	TokenSecret  string `yaml:"token_secret,omitempty"` // AWS Secrets Manager secret id
	SecretRegion string `yaml:"secret_region,omitempty"`
}

// BlogConfig declares a blog managed by this installation.
type BlogConfig struct {
	ID               int64  `yaml:"id"`
	Name             string `yaml:"name,omitempty"`
	URL              string `yaml:"url,omitempty"`
	Hosted           *bool  `yaml:"hosted,omitempty"` // inferred from url when omitted
	JetpackConnected bool   `yaml:"jetpack_connected,omitempty"`
}

// StorageConfig holds local database paths.
type StorageConfig struct {
	Database       string `yaml:"database"`
	EventsDatabase string `yaml:"events_database"`
}

// DaemonConfig configures periodic syncing.
type DaemonConfig struct {
	SyncInterval string      `yaml:"sync_interval"`
	MetricsAddr  string      `yaml:"metrics_addr"`
	Concurrency  int         `yaml:"concurrency"`
	Retry        RetryConfig `yaml:"retry"`
}

// RetryConfig configures how the daemon retries transient sync failures.
type RetryConfig struct {
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay string           `yaml:"initial_delay"`
	MaxDelay     string           `yaml:"max_delay"`
	MaxRetries   int              `yaml:"max_retries"`
}

// NotifyConfig configures NATS change notifications.
type NotifyConfig struct {
	NATSURL   string `yaml:"nats_url"`
	Subject   string `yaml:"subject"`
	JetStream bool   `yaml:"jetstream"`
	Stream    string `yaml:"stream,omitempty"`
}

// MonitoringConfig represents observability configuration.
type MonitoringConfig struct {
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load loads, defaults and validates the configuration file at configPath.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	return Parse(data)
}

// Parse decodes YAML after expanding ${VAR} references, then applies
// defaults and validation.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.ConfigError("failed to unmarshal config").WithCause(err).Build()
	}

	if cfg.Version != CurrentVersion {
		return nil, errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).
			Build()
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RequestTimeout returns the parsed API timeout.
func (a APIConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Interval returns the parsed sync interval.
func (d DaemonConfig) Interval() time.Duration {
	v, err := time.ParseDuration(d.SyncInterval)
	if err != nil {
		return 0
	}
	return v
}

// Delays returns the parsed initial and max retry delays.
func (r RetryConfig) Delays() (initial, maxDelay time.Duration) {
	initial, _ = time.ParseDuration(r.InitialDelay)
	maxDelay, _ = time.ParseDuration(r.MaxDelay)
	return initial, maxDelay
}
