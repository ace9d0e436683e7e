//go:build !windows

package cmd

import "github.com/urfave/cli"

// getPlatformCommands returns nothing outside Windows.
func getPlatformCommands() []cli.Command {
	return nil
}
