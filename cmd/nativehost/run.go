package nativehost

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	cmdcommon "github.com/subsleuth/subsleuth/cmd/common"
	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/config"
	"github.com/subsleuth/subsleuth/internal/nativehost"
	"github.com/subsleuth/subsleuth/pkg/logger"
	"github.com/subsleuth/subsleuth/pkg/subcli"
	"github.com/urfave/cli"
)

// newClientFunc connects to the daemon. Replaced in tests.
var newClientFunc = func() (*subcli.Client, error) {
	client, _, err := cmdcommon.NewDaemonClient("")
	return client, err
}

// IsBrowserLaunch reports whether args are the arguments a browser passes
// when it starts the native host: the calling origin for Chromium browsers,
// the manifest path and extension ID for Firefox.
func IsBrowserLaunch(args []string) bool {
	if len(args) == 0 {
		return false
	}
	first := args[0]
	return strings.HasPrefix(first, "chrome-extension://") ||
		strings.HasSuffix(first, nativehost.HostName+".json")
}

// Run serves one extension port on stdin and stdout until the browser closes
// it. Diagnostics go to stderr since stdout carries the protocol.
func Run(c *cli.Context) error {
	cfg, _ := config.Load()
	l := logger.NewStandardLogger(log.New(os.Stderr, "subsleuth-host: ", log.LstdFlags), logger.WithDebug(cfg.Debug))

	client, err := newClientFunc()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to daemon: %v\n", err)
		return cli.NewExitError("failed to connect to daemon", 1)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notes <-chan common.Notification
	listener, err := client.Listen(ctx)
	if err != nil {
		l.Warning("push channel unavailable, reminders will not reach the extension: %v", err)
	} else {
		defer listener.Close()
		notes = listener.C()
	}

	host := nativehost.NewHost(client, l)
	if err := host.Run(ctx, notes); err != nil {
		fmt.Fprintf(os.Stderr, "native host error: %v\n", err)
		return cli.NewExitError("native host error", 1)
	}
	return nil
}
