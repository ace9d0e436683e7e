package nativehost

import (
	"bytes"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/subsleuth/subsleuth/internal/nativehost"
	"github.com/urfave/cli"
)

func newContext(args []string, name string, flags []cli.Flag) *cli.Context {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	for _, f := range flags {
		f.Apply(set)
	}
	_ = set.Parse(args)
	app := cli.NewApp()
	app.Name = "subsleuth"
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: name}
	return ctx
}

// memInstaller routes every installer the commands build to fs under /home.
func memInstaller(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	orig := newInstaller
	newInstaller = func(hostPath, chromeID, firefoxID string) *nativehost.ManifestInstaller {
		return &nativehost.ManifestInstaller{
			HostPath:           "/usr/bin/subsleuth",
			ChromeExtensionID:  chromeID,
			FirefoxExtensionID: firefoxID,
			Fs:                 fs,
			BaseDir:            "/home",
			Platform:           "linux",
		}
	}
	t.Cleanup(func() { newInstaller = orig })
	return fs
}

func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := out
	out = &buf
	t.Cleanup(func() { out = orig })
	return &buf
}

func assertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

func chromePath() string {
	return filepath.Join("/home", ".config", "google-chrome", "NativeMessagingHosts", nativehost.HostName+".json")
}

func firefoxPath() string {
	return filepath.Join("/home", ".mozilla", "native-messaging-hosts", nativehost.HostName+".json")
}

func TestInstallCommand_MissingExtensionIDs(t *testing.T) {
	memInstaller(t)
	captureOut(t)
	err := install(newContext(nil, "install", installFlags))
	if err == nil || !strings.Contains(err.Error(), "extension ID is required") {
		t.Fatalf("expected missing ID error, got %v", err)
	}
}

func TestInstallCommand_ChromeOnly(t *testing.T) {
	fs := memInstaller(t)
	buf := captureOut(t)
	ctx := newContext([]string{"--browser", "chrome", "--chrome-extension-id", "abc"}, "install", installFlags)
	if err := install(ctx); err != nil {
		t.Fatalf("install: %v", err)
	}
	assertContains(t, buf.String(), "chrome: "+chromePath())
	data, err := afero.ReadFile(fs, chromePath())
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	assertContains(t, string(data), "chrome-extension://abc/")
}

func TestInstallCommand_AllSkipsBrowsersWithoutID(t *testing.T) {
	fs := memInstaller(t)
	buf := captureOut(t)
	ctx := newContext([]string{"--firefox-extension-id", "ext@example.com"}, "install", installFlags)
	if err := install(ctx); err != nil {
		t.Fatalf("install: %v", err)
	}
	if ok, _ := afero.Exists(fs, firefoxPath()); !ok {
		t.Fatal("firefox manifest missing")
	}
	if ok, _ := afero.Exists(fs, chromePath()); ok {
		t.Fatal("chrome manifest written without an extension ID")
	}
	if strings.Contains(buf.String(), "Errors") {
		t.Fatalf("unexpected errors:\n%s", buf.String())
	}
}

func TestInstallCommand_ExplicitBrowserWithoutID(t *testing.T) {
	memInstaller(t)
	captureOut(t)
	ctx := newContext([]string{"--browser", "chrome", "--firefox-extension-id", "ext@example.com"}, "install", installFlags)
	if err := install(ctx); err == nil {
		t.Fatal("expected failure installing chrome without a chrome extension ID")
	}
}

func TestInstallCommand_Auto(t *testing.T) {
	fs := memInstaller(t)
	captureOut(t)
	ctx := newContext([]string{"--auto", "--browser", "firefox"}, "install", installFlags)
	if err := install(ctx); err != nil {
		t.Fatalf("install --auto: %v", err)
	}
	data, err := afero.ReadFile(fs, firefoxPath())
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	assertContains(t, string(data), nativehost.OfficialFirefoxExtensionID)
}

func TestInstallUnknownBrowser(t *testing.T) {
	memInstaller(t)
	captureOut(t)
	ctx := newContext([]string{"--browser", "unknown", "--chrome-extension-id", "abc"}, "install", installFlags)
	if err := install(ctx); err == nil {
		t.Error("Expected error for unknown browser")
	}
}

func TestUninstallCommand(t *testing.T) {
	fs := memInstaller(t)
	captureOut(t)
	if err := install(newContext([]string{"--chrome-extension-id", "abc", "--firefox-extension-id", "ext@example.com"}, "install", installFlags)); err != nil {
		t.Fatalf("install: %v", err)
	}
	buf := captureOut(t)
	if err := uninstall(newContext(nil, "uninstall", []cli.Flag{browserFlag})); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
	assertContains(t, buf.String(), "Uninstalled manifests")
	for _, p := range []string{chromePath(), firefoxPath()} {
		if ok, _ := afero.Exists(fs, p); ok {
			t.Errorf("%s still present", p)
		}
	}
	// Removing again is not an error.
	if err := uninstall(newContext(nil, "uninstall", []cli.Flag{browserFlag})); err != nil {
		t.Fatalf("second uninstall: %v", err)
	}
}

func TestUninstallUnknownBrowser(t *testing.T) {
	memInstaller(t)
	captureOut(t)
	if err := uninstall(newContext([]string{"--browser", "unknown"}, "uninstall", []cli.Flag{browserFlag})); err == nil {
		t.Error("Expected error for unknown browser")
	}
}

func TestStatusCommand(t *testing.T) {
	memInstaller(t)
	captureOut(t)
	if err := install(newContext([]string{"--browser", "brave", "--chrome-extension-id", "abc"}, "install", installFlags)); err != nil {
		t.Fatalf("install: %v", err)
	}
	buf := captureOut(t)
	if err := status(newContext(nil, "status", nil)); err != nil {
		t.Fatalf("status: %v", err)
	}
	output := buf.String()
	assertContains(t, output, "Host Name: "+nativehost.HostName)
	assertContains(t, output, "Brave: Installed")
	assertContains(t, output, "Chrome: Not installed")
	assertContains(t, output, "Firefox: Not installed")
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"install": false, "uninstall": false, "run": false, "status": false}
	for _, cmd := range Commands {
		if _, ok := want[cmd.Name]; ok {
			want[cmd.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestInstallFlagsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, f := range installFlags {
		names[f.GetName()] = true
	}
	for _, n := range []string{"browser", "chrome-extension-id", "firefox-extension-id", "auto"} {
		if !names[n] {
			t.Errorf("install flag %q missing", n)
		}
	}
}

func TestRunCommandHidden(t *testing.T) {
	for _, cmd := range Commands {
		if cmd.Name == "run" {
			if !cmd.Hidden {
				t.Error("Run command should be hidden")
			}
			return
		}
	}
	t.Fatal("Run command not found")
}

func TestIsBrowserLaunch(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"list"}, false},
		{[]string{"chrome-extension://abcdef/"}, true},
		{[]string{"chrome-extension://abcdef/", "--parent-window=42"}, true},
		{[]string{"/home/u/.mozilla/native-messaging-hosts/" + nativehost.HostName + ".json", "ext@example.com"}, true},
	}
	for _, tt := range tests {
		if got := IsBrowserLaunch(tt.args); got != tt.want {
			t.Errorf("IsBrowserLaunch(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
