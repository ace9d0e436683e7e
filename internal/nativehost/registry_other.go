//go:build !windows

package nativehost

// defaultRegistry is unused off Windows; browsers there scan fixed
// directories.
func defaultRegistry() HostRegistry {
	return nil
}
