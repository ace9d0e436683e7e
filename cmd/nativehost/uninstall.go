package nativehost

import (
	"fmt"
	"os"

	"github.com/subsleuth/subsleuth/internal/nativehost"
	"github.com/urfave/cli"
)

func uninstall(c *cli.Context) error {
	browsers, err := nativehost.ParseBrowser(c.String("browser"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	hostPath, _ := os.Executable()
	installer := newInstaller(hostPath, "", "")

	var removed, failed []string
	for _, b := range browsers {
		path, err := installer.Uninstall(b)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", b, err))
			continue
		}
		removed = append(removed, fmt.Sprintf("%s: %s", b, path))
	}

	if len(removed) > 0 {
		fmt.Fprintln(out, "Uninstalled manifests (or were not installed):")
		for _, m := range removed {
			fmt.Fprintf(out, "  %s\n", m)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintln(out, "\nErrors:")
		for _, e := range failed {
			fmt.Fprintf(out, "  %s\n", e)
		}
		return cli.NewExitError("uninstall failed", 1)
	}
	return nil
}
