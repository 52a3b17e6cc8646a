package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
)

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	hosted := true
	example := Config{
		Version: CurrentVersion,
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			Timeout:        DefaultTimeout,
			PlatformDomain: DefaultPlatformDomain,
		},
		Account: AccountConfig{TokenEnv: "MENUSYNC_TOKEN"},
		Blogs: []BlogConfig{
			{ID: 12345678, Name: "example", URL: "https://example.wordpress.com", Hosted: &hosted},
			{ID: 87654321, Name: "self-hosted", URL: "https://blog.example.org", JetpackConnected: true},
		},
		Storage: StorageConfig{
			Database:       DefaultDatabase,
			EventsDatabase: DefaultEventsDatabase,
		},
		Daemon: DaemonConfig{
			SyncInterval: DefaultSyncInterval,
			MetricsAddr:  DefaultMetricsAddr,
			Concurrency:  DefaultConcurrency,
			Retry: RetryConfig{
				Backoff:      RetryBackoffExponential,
				InitialDelay: "2s",
				MaxDelay:     "1m",
				MaxRetries:   3,
			},
		},
		Monitoring: MonitoringConfig{
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatText},
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.InternalError("failed to marshal example config").WithCause(err).Build()
	}
	header := []byte("# menusync configuration\n# Token sources: account.token, account.token_env or account.token_secret (AWS Secrets Manager).\n")
	if err := os.WriteFile(configPath, append(header, data...), 0o600); err != nil {
		return errors.ConfigError("failed to write config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}
