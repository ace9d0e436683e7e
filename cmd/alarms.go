package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/subsleuth/subsleuth/cmd/common"
	"github.com/subsleuth/subsleuth/pkg/subcli"
	"github.com/subsleuth/subsleuth/pkg/sublib"
	"github.com/urfave/cli"
)

func summary(ctx *cli.Context) error {
	client, _, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "summary", "new_client", err)
		return nil
	}
	defer client.Close()
	s, err := client.Summary()
	if err != nil {
		common.PrintRuntimeErr(ctx, "summary", "summary", err)
		return nil
	}
	fmt.Fprintf(stdout, "Subscriptions:        %d\n", s.Count)
	fmt.Fprintf(stdout, "Monthly spend:        %s\n", s.MonthlyTotalText)
	fmt.Fprintf(stdout, "Rarely used:          %s across %d subscription(s)\n", s.RarelyUsedTotalText, s.RarelyUsedCount)
	if len(s.Upcoming) == 0 {
		fmt.Fprintln(stdout, "\nNo renewals in the next 30 days.")
		return nil
	}
	fmt.Fprintln(stdout, "\nUpcoming renewals:")
	for _, r := range s.Upcoming {
		fmt.Fprintf(stdout, "  %s  %s\n", r.Date.Format(sublib.DisplayDateLayout), r.Subscription.Name)
	}
	return nil
}

func syncAlarms(ctx *cli.Context) error {
	client, _, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "sync", "new_client", err)
		return nil
	}
	defer client.Close()
	if _, err := client.SyncAlarms(); err != nil {
		common.PrintRuntimeErr(ctx, "sync", "sync_alarms", err)
		return nil
	}
	fmt.Fprintln(stdout, "Reminders rebuilt.")
	return nil
}

func alarms(ctx *cli.Context) error {
	client, cfg, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "alarms", "new_client", err)
		return nil
	}
	defer client.Close()
	list, err := client.GetAlarms()
	if err != nil {
		common.PrintRuntimeErr(ctx, "alarms", "get_alarms", err)
		return nil
	}
	if len(list) == 0 {
		fmt.Fprintln(stdout, "subsleuth: no reminders scheduled")
		return nil
	}
	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}
	sort.Slice(list, func(i, j int) bool { return list[i].FireAt.Before(list[j].FireAt) })
	for _, a := range list {
		fmt.Fprintf(stdout, "%-24s %s\n", a.FireAt.In(loc).Format("Jan 2, 2006 15:04 MST"), a.Name)
	}
	return nil
}

func notifyDays(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	var days int
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return common.PrintErrWithCmdHelp(ctx, fmt.Errorf("invalid number of days %q", arg))
		}
		days = n
	}
	client, _, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "notify-days", "new_client", err)
		return nil
	}
	defer client.Close()
	if arg == "" {
		cfg, err := client.GetConfig()
		if err != nil {
			common.PrintRuntimeErr(ctx, "notify-days", "get_config", err)
			return nil
		}
		fmt.Fprintf(stdout, "Reminders fire %d day(s) before billing.\n", cfg.LeadDays)
		return nil
	}
	if _, err := client.SetNotifyDays(days); err != nil {
		printDaemonErr(ctx, "notify-days", "set_notify_days", err)
		return nil
	}
	fmt.Fprintf(stdout, "Reminders now fire %d day(s) before billing.\n", days)
	return nil
}

var (
	waitForTest bool

	testFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "wait, w",
			Usage:       "wait for the test notification to arrive (default: false)",
			Destination: &waitForTest,
		},
	}
)

func testAlarm(ctx *cli.Context) error {
	ref := ctx.Args().First()
	switch ref {
	case "":
		return common.PrintErrWithCmdHelp(ctx, errors.New("no subscription id provided"))
	case "help":
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, cfg, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "test", "new_client", err)
		return nil
	}
	defer client.Close()
	subs, err := client.ListSubscriptions()
	if err != nil {
		common.PrintRuntimeErr(ctx, "test", "list_subscriptions", err)
		return nil
	}
	sub, err := findSubscription(subs, ref)
	if err != nil {
		common.PrintRuntimeErr(ctx, "test", "find", err)
		return nil
	}

	var listener *subcli.Listener
	if waitForTest {
		lctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		// Subscribe before scheduling so the push cannot be missed.
		listener, err = client.Listen(lctx)
		if err != nil {
			common.PrintRuntimeErr(ctx, "test", "listen", err)
			return nil
		}
		defer listener.Close()
	}
	if _, err := client.TestAlarm(sub); err != nil {
		common.PrintRuntimeErr(ctx, "test", "test_alarm", err)
		return nil
	}
	fmt.Fprintf(stdout, "Test notification for %s scheduled in %s.\n", sub.Name, cfg.TestDelay)
	if listener == nil {
		return nil
	}
	n, err := awaitTestNotification(listener, sub.ID, cfg.TestDelay)
	if err != nil {
		common.PrintRuntimeErr(ctx, "test", "wait", err)
		return nil
	}
	fmt.Fprintf(stdout, "\n%s\n%s\n", n.Title, n.Message)
	return nil
}
