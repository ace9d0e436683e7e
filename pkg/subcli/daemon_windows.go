//go:build windows

package subcli

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// detachedAttr starts the daemon without a console in a new process group.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
	}
}
