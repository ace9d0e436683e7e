package cmd

import "time"

const (
	// DEF_WAIT_SLACK is added to the test delay before `test --wait` gives up.
	DEF_WAIT_SLACK = 30 * time.Second
	// DEF_COUNTDOWN_REFRESH is the refresh rate of the countdown bar.
	DEF_COUNTDOWN_REFRESH = 250 * time.Millisecond
)

const DESCRIPTION = `
SubSleuth keeps track of your recurring subscriptions and
reminds you a few days before each of them renews.
`

const (
	DaemonDescription = `The daemon command starts the reminder daemon in the
foreground. It schedules reminders for every stored
subscription and serves the JSON-RPC endpoint used by
the CLI and the browser extension.

Example:
        subsleuth daemon

`
	StopDescription = `The stop command stops a running daemon using the
PID file in the config directory.

Example:
        subsleuth stop

`
	ListDescription = `The list command displays every tracked subscription
along with its id, which the edit, remove and test
commands expect.

Example:
        subsleuth list

`
	AddDescription = `The add command starts tracking a new subscription and
schedules its reminder.

Example:
        subsleuth add -n Netflix -a 649 -f monthly -d 2026-11-02

`
	EditDescription = `The edit command updates the fields given as flags on
an existing subscription and moves its reminder.

Example:
        subsleuth edit 3f2a9c1e -a 799

`
	RemoveDescription = `The remove command stops tracking a subscription and
cancels its reminder.

Example:
        subsleuth remove 3f2a9c1e

`
	SummaryDescription = `The summary command prints the monthly spend across
all subscriptions and the renewals due within a week.

Example:
        subsleuth summary

`
	SyncDescription = `The sync command rebuilds every reminder from the
stored subscriptions.

Example:
        subsleuth sync

`
	AlarmsDescription = `The alarms command lists the reminders currently
scheduled by the daemon.

Example:
        subsleuth alarms

`
	TestDescription = `The test command schedules a test notification for a
subscription. With --wait it stays attached to the
daemon and shows a countdown until the notification
arrives.

Example:
        subsleuth test --wait 3f2a9c1e

`
	NotifyDaysDescription = `The notify-days command prints how many days before
a renewal reminders fire, or changes it when given a
number between 1 and 30.

Example:
        subsleuth notify-days 5

`
	RotateSecretDescription = `The rotate-secret command generates a new RPC secret
in the OS keyring (or the secret file when no keyring
is available). A running daemon keeps the old secret
until it is restarted.

Example:
        subsleuth rotate-secret

`
)
