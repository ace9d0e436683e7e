package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/subsleuth/subsleuth/cmd/common"
	"github.com/subsleuth/subsleuth/internal/config"
	"github.com/urfave/cli"
)

// ErrDaemonAlreadyRunning is returned when the PID file names a live process.
var ErrDaemonAlreadyRunning = errors.New("daemon already running")

func daemon(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	cfg, err := config.Load()
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "load_config", err)
		return nil
	}
	if err := os.MkdirAll(cfg.ConfigDir, 0700); err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "config_dir", err)
		return nil
	}

	log := daemonLogger(cfg)
	defer log.Close()

	if err := CleanupStalePidFile(cfg.ConfigDir); err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "pid_file", err)
		return nil
	}
	if err := WritePidFile(cfg.ConfigDir); err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "pid_file", err)
		return nil
	}
	defer func() {
		if err := RemovePidFile(cfg.ConfigDir); err != nil {
			log.Warning("daemon: removing PID file: %v", err)
		}
	}()

	comps, err := initDaemonComponents(cfg, log)
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "init", err)
		return nil
	}

	sctx, cancel := setupShutdownHandler()
	defer cancel()
	if err := comps.Run(sctx); err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "serve", err)
		return cli.NewExitError(fmt.Sprintf("daemon stopped: %v", err), 1)
	}
	return nil
}
