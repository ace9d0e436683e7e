//go:build windows

package cmd

import "os"

// Windows only delivers os.Interrupt.
var shutdownSignals = []os.Signal{os.Interrupt}
