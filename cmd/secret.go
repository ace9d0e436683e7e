package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/subsleuth/subsleuth/cmd/common"
	"github.com/subsleuth/subsleuth/internal/config"
	"github.com/subsleuth/subsleuth/pkg/credman/keyring"
	"github.com/urfave/cli"
)

var errSecretFromEnv = errors.New("the secret is set by SUBSLEUTH_RPC_SECRET; change it there")

func rotateSecret(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	cfg, err := config.Load()
	if err != nil {
		common.PrintRuntimeErr(ctx, "rotate-secret", "load_config", err)
		return nil
	}
	if cfg.Secret != "" {
		common.PrintRuntimeErr(ctx, "rotate-secret", "rotate", errSecretFromEnv)
		return nil
	}
	if err := os.MkdirAll(cfg.ConfigDir, 0700); err != nil {
		common.PrintRuntimeErr(ctx, "rotate-secret", "mkdir", err)
		return nil
	}
	if _, err := keyring.NewResolver(cfg.ConfigDir).Rotate(); err != nil {
		common.PrintRuntimeErr(ctx, "rotate-secret", "rotate", err)
		return nil
	}
	fmt.Fprintln(stdout, "RPC secret rotated. Restart the daemon and reconnect the browser extension to apply it.")
	return nil
}
