//go:build windows

package nativehost

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// currentUserRegistry writes HKCU\Software\<vendor>\NativeMessagingHosts\<HostName>.
type currentUserRegistry struct{}

func defaultRegistry() HostRegistry {
	return currentUserRegistry{}
}

func registryKey(browser Browser) (string, error) {
	var vendor string
	switch browser {
	case BrowserChrome:
		vendor = `Google\Chrome`
	case BrowserChromium:
		vendor = `Chromium`
	case BrowserEdge:
		vendor = `Microsoft\Edge`
	case BrowserBrave:
		vendor = `BraveSoftware\Brave-Browser`
	case BrowserFirefox:
		vendor = `Mozilla`
	default:
		return "", fmt.Errorf("unknown browser: %s", browser)
	}
	return `Software\` + vendor + `\NativeMessagingHosts\` + HostName, nil
}

func (currentUserRegistry) Register(browser Browser, manifestPath string) error {
	path, err := registryKey(browser)
	if err != nil {
		return err
	}
	k, _, err := registry.CreateKey(registry.CURRENT_USER, path, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	return k.SetStringValue("", manifestPath)
}

func (currentUserRegistry) Unregister(browser Browser) error {
	path, err := registryKey(browser)
	if err != nil {
		return err
	}
	err = registry.DeleteKey(registry.CURRENT_USER, path)
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	return err
}
