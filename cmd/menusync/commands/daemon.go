package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/menusync/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
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

	dm, err := daemon.New(cfg, a.service, daemon.Options{
		ConfigPath: root.Config,
		Registry:   a.registry,
		Recorder:   a.recorder,
	})
	if err != nil {
		return err
	}

	slog.Info("Starting daemon mode", slog.String("config", root.Config))
	if err := dm.Run(ctx); err != nil {
		return err
	}
	slog.Info("Daemon stopped successfully")
	return nil
}
