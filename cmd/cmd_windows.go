//go:build windows

package cmd

import (
	"fmt"

	"github.com/subsleuth/subsleuth/cmd/common"
	"github.com/subsleuth/subsleuth/pkg/logger"
	"github.com/urfave/cli"
)

// getPlatformCommands returns Windows-specific CLI commands.
func getPlatformCommands() []cli.Command {
	return []cli.Command{
		{
			Name:   "eventlog-install",
			Usage:  "register the daemon as a Windows Event Log source",
			Action: installEventSource,
		},
	}
}

func installEventSource(ctx *cli.Context) error {
	if err := logger.InstallEventSource(EventSourceName); err != nil {
		common.PrintRuntimeErr(ctx, "eventlog-install", "install", err)
		return nil
	}
	fmt.Fprintf(stdout, "Registered event source %q\n", EventSourceName)
	return nil
}
