package cmd

import (
	"fmt"
	"strings"

	"github.com/subsleuth/subsleuth/cmd/common"
	subcommon "github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/config"
	"github.com/subsleuth/subsleuth/pkg/subcli"
	"github.com/subsleuth/subsleuth/pkg/sublib"
	"github.com/urfave/cli"
)

func newClient() (*subcli.Client, config.Config, error) {
	return common.NewDaemonClient(currentBuildArgs.Version)
}

// printDaemonErr reports a failed daemon call. Requests the daemon rejected
// as invalid are printed with the command help.
func printDaemonErr(ctx *cli.Context, cmd, action string, err error) {
	switch subcli.ErrorCode(err) {
	case subcommon.CodeInvalidParams, subcommon.CodeLeadDaysOutOfRange:
		_ = common.PrintErrWithCmdHelp(ctx, err)
	default:
		common.PrintRuntimeErr(ctx, cmd, action, err)
	}
}

// findSubscription resolves ref as a full id or a unique id prefix.
func findSubscription(subs []sublib.Subscription, ref string) (sublib.Subscription, error) {
	if sub, ok := sublib.Find(subs, ref); ok {
		return sub, nil
	}
	var matches []sublib.Subscription
	for _, s := range subs {
		if strings.HasPrefix(s.ID, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return sublib.Subscription{}, fmt.Errorf("no subscription with id %q", ref)
	case 1:
		return matches[0], nil
	}
	return sublib.Subscription{}, fmt.Errorf("id %q matches %d subscriptions", ref, len(matches))
}

// shortID is the id prefix shown in tables.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
