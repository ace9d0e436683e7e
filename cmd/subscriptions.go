package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/subsleuth/subsleuth/cmd/common"
	"github.com/subsleuth/subsleuth/pkg/sublib"
	"github.com/urfave/cli"
)

var (
	showRarelyUsed bool
	listJSON       bool
	forceRemove    bool

	lsFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "rarely-used, r",
			Usage:       "only list rarely used subscriptions (default: false)",
			Destination: &showRarelyUsed,
		},
		cli.BoolFlag{
			Name:        "json, j",
			Usage:       "print the subscriptions as JSON (default: false)",
			Destination: &listJSON,
		},
	}

	subFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "name, n",
			Usage: "display name of the subscription",
		},
		cli.StringFlag{
			Name:  "amount, a",
			Usage: "charge per billing period",
		},
		cli.StringFlag{
			Name:  "frequency, f",
			Usage: "billing cadence: weekly, monthly or yearly (default: monthly)",
		},
		cli.StringFlag{
			Name:  "next-billing, d",
			Usage: "next billing date as YYYY-MM-DD",
		},
		cli.StringFlag{
			Name:  "usage, u",
			Usage: "frequently-used or rarely-used (default: frequently-used)",
		},
	}

	rmFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "yes, y",
			Usage:       "remove without asking for confirmation (default: false)",
			Destination: &forceRemove,
		},
	}
)

// applySubFlags copies every flag the user set onto sub.
func applySubFlags(ctx *cli.Context, sub *sublib.Subscription) error {
	if ctx.IsSet("name") {
		sub.Name = ctx.String("name")
	}
	if ctx.IsSet("amount") {
		amount, err := decimal.NewFromString(strings.TrimSpace(ctx.String("amount")))
		if err != nil {
			return fmt.Errorf("invalid amount %q", ctx.String("amount"))
		}
		sub.Amount = amount
	}
	if ctx.IsSet("frequency") {
		sub.Frequency = sublib.Frequency(strings.ToLower(ctx.String("frequency")))
	}
	if ctx.IsSet("next-billing") {
		sub.NextBilling = ctx.String("next-billing")
	}
	if ctx.IsSet("usage") {
		sub.Usage = sublib.Usage(strings.ToLower(ctx.String("usage")))
	}
	return nil
}

func list(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, cfg, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "list", "new_client", err)
		return nil
	}
	defer client.Close()
	subs, err := client.ListSubscriptions()
	if err != nil {
		common.PrintRuntimeErr(ctx, "list", "list_subscriptions", err)
		return nil
	}
	if showRarelyUsed {
		kept := subs[:0]
		for _, s := range subs {
			if s.IsRarelyUsed() {
				kept = append(kept, s)
			}
		}
		subs = kept
	}
	if listJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(subs)
	}
	if len(subs) == 0 {
		fmt.Fprintln(stdout, "subsleuth: no subscriptions found")
		return nil
	}
	f, err := cfg.Formatter()
	if err != nil {
		f = sublib.DefaultFormatter()
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].NextBilling < subs[j].NextBilling
	})

	txt := "Here are your subscriptions:"
	txt += "\n\n--------------------------------------------------------------------------------"
	txt += "\n|    ID    |        Name        |    Amount    | Frequency | Next billing | Use |"
	txt += "\n|----------|--------------------|--------------|-----------|--------------|-----|"
	for _, s := range subs {
		use := ""
		if s.IsRarelyUsed() {
			use = "low"
		}
		txt += fmt.Sprintf("\n|%s|%s|%s|%s|%s|%s|",
			common.Beaut(shortID(s.ID), 10),
			common.Beaut(s.Name, 20),
			common.Beaut(f.Money(s.Amount), 14),
			common.Beaut(f.FrequencyLabel(s.Frequency), 11),
			common.Beaut(sublib.DisplayDate(s.NextBilling), 14),
			common.Beaut(use, 5),
		)
	}
	txt += "\n--------------------------------------------------------------------------------"
	fmt.Fprintln(stdout, txt)
	return nil
}

func add(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	sub := sublib.Subscription{Frequency: sublib.Monthly, Usage: sublib.FrequentlyUsed}
	if err := applySubFlags(ctx, &sub); err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	if strings.TrimSpace(sub.Name) == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("--name is required"))
	}
	if sub.NextBilling == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("--next-billing is required"))
	}
	client, _, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "add", "new_client", err)
		return nil
	}
	defer client.Close()
	resp, err := client.SaveSubscription(sub)
	if err != nil {
		printDaemonErr(ctx, "add", "save_subscription", err)
		return nil
	}
	fmt.Fprintf(stdout, "Added %s (id %s).\n", resp.Subscription.Name, resp.Subscription.ID)
	printScheduled(resp.Scheduled)
	return nil
}

func edit(ctx *cli.Context) error {
	ref := ctx.Args().First()
	switch ref {
	case "":
		return common.PrintErrWithCmdHelp(ctx, errors.New("no subscription id provided"))
	case "help":
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, _, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "edit", "new_client", err)
		return nil
	}
	defer client.Close()
	subs, err := client.ListSubscriptions()
	if err != nil {
		common.PrintRuntimeErr(ctx, "edit", "list_subscriptions", err)
		return nil
	}
	sub, err := findSubscription(subs, ref)
	if err != nil {
		common.PrintRuntimeErr(ctx, "edit", "find", err)
		return nil
	}
	if err := applySubFlags(ctx, &sub); err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	resp, err := client.SaveSubscription(sub)
	if err != nil {
		printDaemonErr(ctx, "edit", "save_subscription", err)
		return nil
	}
	fmt.Fprintf(stdout, "Updated %s.\n", resp.Subscription.Name)
	printScheduled(resp.Scheduled)
	return nil
}

func remove(ctx *cli.Context) error {
	ref := ctx.Args().First()
	switch ref {
	case "":
		return common.PrintErrWithCmdHelp(ctx, errors.New("no subscription id provided"))
	case "help":
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, _, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "remove", "new_client", err)
		return nil
	}
	defer client.Close()
	subs, err := client.ListSubscriptions()
	if err != nil {
		common.PrintRuntimeErr(ctx, "remove", "list_subscriptions", err)
		return nil
	}
	sub, err := findSubscription(subs, ref)
	if err != nil {
		common.PrintRuntimeErr(ctx, "remove", "find", err)
		return nil
	}
	if !confirm(command("remove"), forceRemove) {
		return nil
	}
	if _, err := client.DeleteSubscription(sub.ID); err != nil {
		common.PrintRuntimeErr(ctx, "remove", "delete_subscription", err)
		return nil
	}
	fmt.Fprintf(stdout, "Removed %s.\n", sub.Name)
	return nil
}

func printScheduled(scheduled bool) {
	if scheduled {
		fmt.Fprintln(stdout, "Reminder scheduled.")
		return
	}
	fmt.Fprintln(stdout, "No reminder scheduled: the reminder date has already passed.")
}
