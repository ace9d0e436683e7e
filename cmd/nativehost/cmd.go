// Package nativehost provides the CLI commands that connect the SubSleuth
// browser extension to the daemon through native messaging.
package nativehost

import (
	"io"
	"os"
	"strings"

	"github.com/subsleuth/subsleuth/internal/nativehost"
	"github.com/urfave/cli"
)

// out is replaced in tests.
var out io.Writer = os.Stdout

func browserNames() string {
	names := []string{}
	for _, b := range nativehost.SupportedBrowsers() {
		names = append(names, string(b))
	}
	return strings.Join(append(names, "all"), ", ")
}

// Commands are the subcommands of "subsleuth native-host".
var Commands = []cli.Command{
	{
		Name:      "install",
		Usage:     "register SubSleuth with your browsers",
		UsageText: "subsleuth native-host install [--browser NAME] [--chrome-extension-id ID] [--firefox-extension-id ID]",
		Action:    install,
		Flags:     installFlags,
	},
	{
		Name:      "uninstall",
		Usage:     "remove the SubSleuth registration from your browsers",
		UsageText: "subsleuth native-host uninstall [--browser NAME]",
		Action:    uninstall,
		Flags:     []cli.Flag{browserFlag},
	},
	{
		Name:   "status",
		Usage:  "show where the host manifest is installed",
		Action: status,
	},
	{
		// Browsers start the host themselves; users never need this.
		Name:   "run",
		Usage:  "serve the extension over stdin/stdout",
		Action: Run,
		Hidden: true,
	},
}

var browserFlag = cli.StringFlag{
	Name:  "browser",
	Usage: "one of " + browserNames(),
	Value: "all",
}

var installFlags = []cli.Flag{
	browserFlag,
	cli.StringFlag{
		Name:  "chrome-extension-id",
		Usage: "extension ID allowed to connect from Chrome, Chromium, Edge and Brave",
	},
	cli.StringFlag{
		Name:  "firefox-extension-id",
		Usage: "add-on ID allowed to connect from Firefox",
	},
	cli.BoolFlag{
		Name:  "auto",
		Usage: "use the IDs of the published SubSleuth extension",
	},
}
