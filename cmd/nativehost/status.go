package nativehost

import (
	"fmt"
	"os"
	"strings"

	"github.com/subsleuth/subsleuth/internal/nativehost"
	"github.com/urfave/cli"
)

func status(c *cli.Context) error {
	hostPath, _ := os.Executable()
	statuses, err := newInstaller(hostPath, "", "").Status()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("failed to read manifest status: %v", err), 1)
	}

	fmt.Fprintln(out, "Native Messaging Host Status")
	fmt.Fprintln(out, "============================")
	fmt.Fprintf(out, "Host Name: %s\n\n", nativehost.HostName)
	for _, s := range statuses {
		name := strings.ToUpper(string(s.Browser[:1])) + string(s.Browser[1:])
		if !s.Installed {
			fmt.Fprintf(out, "%s: Not installed\n", name)
			continue
		}
		fmt.Fprintf(out, "%s: Installed\n", name)
		fmt.Fprintf(out, "  Path: %s\n", s.Path)
	}
	return nil
}
