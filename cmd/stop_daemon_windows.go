//go:build windows

package cmd

import (
	"fmt"
	"os"
	"time"
)

const stopTimeout = 5 * time.Second

// killDaemon interrupts the daemon and terminates it when it has not exited
// within stopTimeout. Console interrupts do not reach a detached daemon, so
// the interrupt usually fails and the process is killed right away.
func killDaemon(pid int) error {
	if !isProcessRunning(pid) {
		return fmt.Errorf("daemon not running (PID %d)", pid)
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("process not found: %w", err)
	}
	if err := process.Signal(os.Interrupt); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to stop daemon: %w", err)
		}
		return nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := process.Wait()
		done <- err
	}()
	select {
	case <-done:
		return nil
	case <-time.After(stopTimeout):
		fmt.Fprintln(stdout, "Graceful shutdown timeout, forcing kill...")
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to kill daemon: %w", err)
		}
		return nil
	}
}
