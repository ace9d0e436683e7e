package cmd

import (
	"errors"
	"fmt"
	"time"

	cmdcommon "github.com/subsleuth/subsleuth/cmd/common"
	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/pkg/subcli"
	"github.com/vbauerster/mpb/v8"
)

// waitSlack is replaced in tests.
var waitSlack = DEF_WAIT_SLACK

// notificationSource is the part of *subcli.Listener the countdown reads.
type notificationSource interface {
	C() <-chan common.Notification
}

var _ notificationSource = (*subcli.Listener)(nil)

// awaitTestNotification shows a countdown over delay and returns the test
// notification of subscription id once the daemon pushes it. It gives up
// waitSlack after the delay has elapsed.
func awaitTestNotification(src notificationSource, id string, delay time.Duration) (*common.Notification, error) {
	want := common.NotificationID(id, true)
	p := mpb.New(
		mpb.WithOutput(stdout),
		mpb.WithWidth(48),
		mpb.WithRefreshRate(DEF_COUNTDOWN_REFRESH),
	)
	bar := cmdcommon.InitCountdownBar(p, "Test notification", delay)
	total := delay.Milliseconds()

	start := time.Now()
	ticker := time.NewTicker(DEF_COUNTDOWN_REFRESH)
	defer ticker.Stop()
	timeout := time.NewTimer(delay + waitSlack)
	defer timeout.Stop()

	for {
		select {
		case n, ok := <-src.C():
			if !ok {
				bar.Abort(false)
				p.Wait()
				return nil, errors.New("connection to the daemon was lost")
			}
			if n.ID != want {
				continue
			}
			bar.SetTotal(-1, true)
			p.Wait()
			return &n, nil
		case <-ticker.C:
			// the bar completes on delivery, not when the delay runs out
			if elapsed := time.Since(start).Milliseconds(); elapsed < total {
				bar.SetCurrent(elapsed)
			}
		case <-timeout.C:
			bar.Abort(false)
			p.Wait()
			return nil, fmt.Errorf("no notification received within %s", delay+waitSlack)
		}
	}
}
