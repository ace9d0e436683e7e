package nativehost

// Published extension IDs, used by "native-host install --auto". Empty until
// the extensions are listed in the stores.
const (
	OfficialChromeExtensionID  = ""
	OfficialFirefoxExtensionID = "subsleuth@subsleuth.app"
)

// HasOfficialExtensions reports whether at least one published extension ID
// is configured.
func HasOfficialExtensions() bool {
	return OfficialChromeExtensionID != "" || OfficialFirefoxExtensionID != ""
}
