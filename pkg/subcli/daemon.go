package subcli

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	daemonStartTimeout = 3 * time.Second
	healthPollInterval = 50 * time.Millisecond
	healthDialTimeout  = 300 * time.Millisecond
)

// spawn is replaced in tests.
var spawn = spawnDaemon

// IsDaemonRunning reports whether a daemon answers /healthz at addr.
func IsDaemonRunning(addr string) bool {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	hc := &http.Client{Timeout: healthDialTimeout}
	resp, err := hc.Get(strings.TrimSuffix(addr, "/") + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// EnsureDaemon starts "<executable> daemon" in the background unless a
// daemon already answers at addr, then waits for it to come up.
func EnsureDaemon(addr string) error {
	if IsDaemonRunning(addr) {
		return nil
	}
	if err := spawn(); err != nil {
		return err
	}
	return waitForDaemon(addr, daemonStartTimeout)
}

// spawnDaemon starts "<executable> daemon" detached from the calling
// terminal. The child inherits the environment, so SUBSLEUTH_* settings of
// the CLI apply to the daemon as well.
func spawnDaemon() error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	c := exec.Command(self, "daemon")
	c.SysProcAttr = detachedAttr()
	if err := c.Start(); err != nil {
		return fmt.Errorf("spawn daemon: %w", err)
	}
	return c.Process.Release()
}

// waitForDaemon polls addr until it answers or timeout expires.
func waitForDaemon(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if IsDaemonRunning(addr) {
			return nil
		}
		time.Sleep(healthPollInterval)
	}
	return fmt.Errorf("daemon failed to start within %v", timeout)
}
