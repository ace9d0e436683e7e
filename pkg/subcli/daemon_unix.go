//go:build !windows

package subcli

import "syscall"

// detachedAttr puts the daemon in its own process group so that a Ctrl-C in
// the CLI's terminal does not reach it.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
