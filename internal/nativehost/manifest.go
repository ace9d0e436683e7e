package nativehost

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

// HostName is the native messaging host identifier. Extensions connect with
// runtime.connectNative(HostName).
const HostName = "com.subsleuth.host"

const hostDescription = "SubSleuth subscription reminders"

// Browser represents a supported browser for native messaging.
type Browser string

const (
	BrowserChrome   Browser = "chrome"
	BrowserFirefox  Browser = "firefox"
	BrowserChromium Browser = "chromium"
	BrowserEdge     Browser = "edge"
	BrowserBrave    Browser = "brave"
)

// SupportedBrowsers returns all browsers that support native messaging.
func SupportedBrowsers() []Browser {
	return []Browser{BrowserChrome, BrowserFirefox, BrowserChromium, BrowserEdge, BrowserBrave}
}

// ParseBrowser resolves a browser name; "all" yields every browser.
func ParseBrowser(name string) ([]Browser, error) {
	if name == "" || name == "all" {
		return SupportedBrowsers(), nil
	}
	for _, b := range SupportedBrowsers() {
		if string(b) == name {
			return []Browser{b}, nil
		}
	}
	return nil, fmt.Errorf("unknown browser: %s", name)
}

// IsFirefox reports whether b uses the Firefox manifest format.
func (b Browser) IsFirefox() bool {
	return b == BrowserFirefox
}

// ChromeManifest represents Chrome/Chromium native messaging host manifest.
type ChromeManifest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Path           string   `json:"path"`
	Type           string   `json:"type"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// FirefoxManifest represents Firefox native messaging host manifest.
type FirefoxManifest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Path              string   `json:"path"`
	Type              string   `json:"type"`
	AllowedExtensions []string `json:"allowed_extensions"`
}

// GenerateChromeManifest creates a Chrome/Chromium native messaging manifest.
func GenerateChromeManifest(hostPath, extensionID string) []byte {
	m := ChromeManifest{
		Name:           HostName,
		Description:    hostDescription,
		Path:           hostPath,
		Type:           "stdio",
		AllowedOrigins: []string{"chrome-extension://" + extensionID + "/"},
	}
	b, _ := json.MarshalIndent(m, "", "  ")
	return b
}

// GenerateFirefoxManifest creates a Firefox native messaging manifest.
func GenerateFirefoxManifest(hostPath, extensionID string) []byte {
	m := FirefoxManifest{
		Name:              HostName,
		Description:       hostDescription,
		Path:              hostPath,
		Type:              "stdio",
		AllowedExtensions: []string{extensionID},
	}
	b, _ := json.MarshalIndent(m, "", "  ")
	return b
}

// ManifestPath returns where the manifest for browser lives on platform.
// On Windows the file location is ours to choose; the browser finds it
// through a registry key.
func ManifestPath(browser Browser, platform, homeDir string) string {
	manifestFile := HostName + ".json"

	switch platform {
	case "darwin":
		appSupport := filepath.Join(homeDir, "Library", "Application Support")
		switch browser {
		case BrowserChrome:
			return filepath.Join(appSupport, "Google", "Chrome", "NativeMessagingHosts", manifestFile)
		case BrowserChromium:
			return filepath.Join(appSupport, "Chromium", "NativeMessagingHosts", manifestFile)
		case BrowserFirefox:
			return filepath.Join(appSupport, "Mozilla", "NativeMessagingHosts", manifestFile)
		case BrowserEdge:
			return filepath.Join(appSupport, "Microsoft Edge", "NativeMessagingHosts", manifestFile)
		case BrowserBrave:
			return filepath.Join(appSupport, "BraveSoftware", "Brave-Browser", "NativeMessagingHosts", manifestFile)
		}
	case "linux", "freebsd", "openbsd":
		switch browser {
		case BrowserChrome:
			return filepath.Join(homeDir, ".config", "google-chrome", "NativeMessagingHosts", manifestFile)
		case BrowserChromium:
			return filepath.Join(homeDir, ".config", "chromium", "NativeMessagingHosts", manifestFile)
		case BrowserFirefox:
			return filepath.Join(homeDir, ".mozilla", "native-messaging-hosts", manifestFile)
		case BrowserEdge:
			return filepath.Join(homeDir, ".config", "microsoft-edge", "NativeMessagingHosts", manifestFile)
		case BrowserBrave:
			return filepath.Join(homeDir, ".config", "BraveSoftware", "Brave-Browser", "NativeMessagingHosts", manifestFile)
		}
	case "windows":
		return filepath.Join(homeDir, "AppData", "Local", "SubSleuth", "NativeMessagingHosts", string(browser), manifestFile)
	}
	return ""
}

// ManifestStatus describes one browser's installation.
type ManifestStatus struct {
	Browser   Browser
	Path      string
	Installed bool
}

// ManifestInstaller handles installation and removal of native messaging
// manifests.
type ManifestInstaller struct {
	HostPath           string
	ChromeExtensionID  string
	FirefoxExtensionID string

	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// BaseDir overrides the home directory.
	BaseDir string
	// Platform overrides runtime.GOOS.
	Platform string
	// Registry is consulted on Windows; nil uses the current user's hive.
	Registry HostRegistry
}

// HostRegistry points a browser at a manifest file outside the filesystem
// search path. Only Windows browsers need one.
type HostRegistry interface {
	Register(browser Browser, manifestPath string) error
	Unregister(browser Browser) error
}

func (m *ManifestInstaller) fs() afero.Fs {
	if m.Fs == nil {
		m.Fs = afero.NewOsFs()
	}
	return m.Fs
}

func (m *ManifestInstaller) platform() string {
	if m.Platform != "" {
		return m.Platform
	}
	return runtime.GOOS
}

func (m *ManifestInstaller) homeDir() (string, error) {
	if m.BaseDir != "" {
		return m.BaseDir, nil
	}
	return os.UserHomeDir()
}

func (m *ManifestInstaller) registry() HostRegistry {
	if m.platform() != "windows" {
		return nil
	}
	if m.Registry == nil {
		m.Registry = defaultRegistry()
	}
	return m.Registry
}

// Validate checks that a host path is set.
func (m *ManifestInstaller) Validate() error {
	if m.HostPath == "" {
		return errors.New("host path is required")
	}
	return nil
}

// manifestFor returns the manifest bytes for browser, or an error when the
// matching extension ID is missing.
func (m *ManifestInstaller) manifestFor(browser Browser) ([]byte, error) {
	if browser.IsFirefox() {
		if m.FirefoxExtensionID == "" {
			return nil, errors.New("firefox extension ID is required")
		}
		return GenerateFirefoxManifest(m.HostPath, m.FirefoxExtensionID), nil
	}
	if m.ChromeExtensionID == "" {
		return nil, errors.New("chrome extension ID is required")
	}
	return GenerateChromeManifest(m.HostPath, m.ChromeExtensionID), nil
}

func (m *ManifestInstaller) path(browser Browser) (string, error) {
	home, err := m.homeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	p := ManifestPath(browser, m.platform(), home)
	if p == "" {
		return "", fmt.Errorf("unsupported browser/platform: %s/%s", browser, m.platform())
	}
	return p, nil
}

// Install writes the manifest for browser and returns its path.
func (m *ManifestInstaller) Install(browser Browser) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	manifest, err := m.manifestFor(browser)
	if err != nil {
		return "", err
	}
	manifestPath, err := m.path(browser)
	if err != nil {
		return "", err
	}

	fs := m.fs()
	if err := fs.MkdirAll(filepath.Dir(manifestPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := afero.WriteFile(fs, manifestPath, manifest, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	if reg := m.registry(); reg != nil {
		if err := reg.Register(browser, manifestPath); err != nil {
			return "", fmt.Errorf("failed to register manifest: %w", err)
		}
	}
	return manifestPath, nil
}

// Uninstall removes the manifest for browser. Missing manifests are not an
// error.
func (m *ManifestInstaller) Uninstall(browser Browser) (string, error) {
	manifestPath, err := m.path(browser)
	if err != nil {
		return "", err
	}
	if reg := m.registry(); reg != nil {
		if err := reg.Unregister(browser); err != nil {
			return "", fmt.Errorf("failed to unregister manifest: %w", err)
		}
	}
	err = m.fs().Remove(manifestPath)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	return manifestPath, nil
}

// Status reports the manifest location and presence for every browser.
func (m *ManifestInstaller) Status() ([]ManifestStatus, error) {
	var out []ManifestStatus
	for _, b := range SupportedBrowsers() {
		p, err := m.path(b)
		if err != nil {
			return nil, err
		}
		ok, err := afero.Exists(m.fs(), p)
		if err != nil {
			return nil, err
		}
		out = append(out, ManifestStatus{Browser: b, Path: p, Installed: ok})
	}
	return out, nil
}
