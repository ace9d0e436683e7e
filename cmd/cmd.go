package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/subsleuth/subsleuth/cmd/common"
	"github.com/subsleuth/subsleuth/cmd/nativehost"
	"github.com/urfave/cli"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

// currentBuildArgs is reported by the daemon's version method.
var currentBuildArgs BuildArgs

// stdout is replaced in tests.
var stdout io.Writer = os.Stdout

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	app := cli.App{
		Name:                  "subsleuth",
		HelpName:              "subsleuth",
		Usage:                 "Reminders before your subscriptions renew.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "subsleuth <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: append([]cli.Command{
			{
				Name:               "daemon",
				Usage:              "run the reminder daemon in the foreground",
				Description:        DaemonDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             daemon,
			},
			{
				Name:               "stop",
				Usage:              "stop the running daemon",
				Description:        StopDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             stopDaemon,
			},
			{
				Name:                   "list",
				Aliases:                []string{"l", "ls"},
				Usage:                  "display tracked subscriptions",
				Description:            ListDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				UseShortOptionHandling: true,
				Flags:                  lsFlags,
				Action:                 list,
			},
			{
				Name:                   "add",
				Aliases:                []string{"a"},
				Usage:                  "track a new subscription",
				Description:            AddDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				UseShortOptionHandling: true,
				Flags:                  subFlags,
				Action:                 add,
			},
			{
				Name:               "edit",
				Aliases:            []string{"e"},
				Usage:              "update a tracked subscription",
				UsageText:          "<id> [flags]",
				Description:        EditDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Flags:              subFlags,
				Action:             edit,
			},
			{
				Name:               "remove",
				Aliases:            []string{"rm"},
				Usage:              "stop tracking a subscription",
				UsageText:          "<id>",
				Description:        RemoveDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Flags:              rmFlags,
				Action:             remove,
			},
			{
				Name:               "summary",
				Aliases:            []string{"s"},
				Usage:              "show monthly spend and upcoming renewals",
				Description:        SummaryDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             summary,
			},
			{
				Name:               "sync",
				Usage:              "rebuild every reminder",
				Description:        SyncDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             syncAlarms,
			},
			{
				Name:               "alarms",
				Usage:              "list scheduled reminders",
				Description:        AlarmsDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             alarms,
			},
			{
				Name:               "test",
				Aliases:            []string{"t"},
				Usage:              "send a test notification for a subscription",
				UsageText:          "[--wait] <id>",
				Description:        TestDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Flags:              testFlags,
				Action:             testAlarm,
			},
			{
				Name:               "notify-days",
				Usage:              "show or set how many days ahead reminders fire",
				UsageText:          "[days]",
				Description:        NotifyDaysDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             notifyDays,
			},
			{
				Name:               "rotate-secret",
				Usage:              "replace the RPC secret shared by the daemon and its clients",
				UsageText:          " ",
				Description:        RotateSecretDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             rotateSecret,
			},
			{
				Name:        "native-host",
				Usage:       "manage browser native messaging integration",
				Subcommands: nativehost.Commands,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of subsleuth",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		}, getPlatformCommands()...),
		Action:      defaultAction,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}

// defaultAction runs the native host when a browser launched the binary and
// prints the help otherwise.
func defaultAction(ctx *cli.Context) error {
	if nativehost.IsBrowserLaunch(ctx.Args()) {
		return nativehost.Run(ctx)
	}
	return common.Help(ctx)
}
