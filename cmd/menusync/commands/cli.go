// Package commands implements the menusync command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/menusync/internal/config"
	"git.home.luguber.info/inful/menusync/internal/secrets"
)

// Global carries state shared by every subcommand.
type Global struct {
	Out io.Writer
	// Secrets resolves the API token. A default resolver is used when nil.
	Secrets *secrets.Resolver
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) resolver() *secrets.Resolver {
	if g == nil || g.Secrets == nil {
		return secrets.NewResolver()
	}
	return g.Secrets
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"menusync.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init     InitCmd     `cmd:"" help:"Write a starter configuration file"`
	Supports SupportsCmd `cmd:"" help:"Report whether a blog supports menu customization"`
	Sync     SyncCmd     `cmd:"" help:"Replace the local menus of one or all blogs with the remote ones"`
	Create   CreateCmd   `cmd:"" help:"Create a menu"`
	Update   UpdateCmd   `cmd:"" help:"Change a synced menu and push it"`
	Delete   DeleteCmd   `cmd:"" help:"Delete a synced menu"`
	List     ListCmd     `cmd:"" help:"Show the locally stored menus and locations of a blog"`
	History  HistoryCmd  `cmd:"" help:"Show the operation journal of a blog"`
	Daemon   DaemonCmd   `cmd:"" help:"Sync every configured blog periodically"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	setupLogging(config.MonitoringLogging{}, c.Verbose)
	return nil
}

// setupLogging installs the default logger. Verbose forces debug.
func setupLogging(lc config.MonitoringLogging, verbose bool) {
	level := config.NormalizeLogLevel(string(lc.Level)).SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if config.NormalizeLogFormat(string(lc.Format)) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig loads the configuration and applies its logging section.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Monitoring.Logging, c.Verbose)
	return cfg, nil
}
