package nativehost

import (
	"fmt"
	"os"

	"github.com/subsleuth/subsleuth/internal/nativehost"
	"github.com/urfave/cli"
)

// newInstaller builds the manifest installer. Replaced in tests.
var newInstaller = func(hostPath, chromeID, firefoxID string) *nativehost.ManifestInstaller {
	return &nativehost.ManifestInstaller{
		HostPath:           hostPath,
		ChromeExtensionID:  chromeID,
		FirefoxExtensionID: firefoxID,
	}
}

func install(c *cli.Context) error {
	chromeID := c.String("chrome-extension-id")
	firefoxID := c.String("firefox-extension-id")
	if c.Bool("auto") {
		if !nativehost.HasOfficialExtensions() {
			return cli.NewExitError("no published extension IDs are configured", 1)
		}
		if chromeID == "" {
			chromeID = nativehost.OfficialChromeExtensionID
		}
		if firefoxID == "" {
			firefoxID = nativehost.OfficialFirefoxExtensionID
		}
	}
	if chromeID == "" && firefoxID == "" {
		return cli.NewExitError("at least one extension ID is required (--chrome-extension-id or --firefox-extension-id)", 1)
	}

	browsers, err := nativehost.ParseBrowser(c.String("browser"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	hostPath, err := os.Executable()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("failed to get executable path: %v", err), 1)
	}
	installer := newInstaller(hostPath, chromeID, firefoxID)
	all := len(browsers) > 1

	var installed, failed []string
	for _, b := range browsers {
		// "all" only covers the browsers an extension ID was given for.
		if all && ((b.IsFirefox() && firefoxID == "") || (!b.IsFirefox() && chromeID == "")) {
			continue
		}
		path, err := installer.Install(b)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", b, err))
			continue
		}
		installed = append(installed, fmt.Sprintf("%s: %s", b, path))
	}

	if len(installed) > 0 {
		fmt.Fprintln(out, "Installed manifests:")
		for _, m := range installed {
			fmt.Fprintf(out, "  %s\n", m)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintln(out, "\nErrors:")
		for _, e := range failed {
			fmt.Fprintf(out, "  %s\n", e)
		}
		if len(installed) == 0 {
			return cli.NewExitError("installation failed", 1)
		}
	}
	return nil
}
