package common

import (
	"strings"

	"github.com/subsleuth/subsleuth/pkg/sublib"
)

// Timer names. A subscription owns at most one reminder timer and one test
// timer; every timer created on behalf of a subscription carries TimerPrefix.
const (
	TimerPrefix     = "remind_"
	TestTimerSuffix = sublib.ReservedIDSuffix
	// ResyncTimerName is the periodic full reconciliation job. It lives
	// outside TimerPrefix so reconciliation never cancels it.
	ResyncTimerName = "resync"
)

// Store keys, kept identical to the extension's storage layout.
const (
	SubscriptionsKey = "subs_sst"
	ConfigKey        = "subs_config"
)

// Notification ids and push method names.
const (
	NotificationPrefix = "notif_"
	NotifyMethod       = "reminder.notify"
	NotifyEvent        = "notify"
)

// Lead time bounds, in days.
const (
	MinLeadDays     = 1
	MaxLeadDays     = 30
	DefaultLeadDays = 3
)

// JSON-RPC error codes returned by the daemon.
const (
	CodeSubscriptionNotFound = -32001
	CodeLeadDaysOutOfRange   = -32003
	CodeInvalidParams        = -32602
)

// DefaultPort is the loopback TCP port of the daemon.
const DefaultPort = 9476

// ReminderTimerName returns the reminder timer name for a subscription id.
func ReminderTimerName(id string) string {
	return TimerPrefix + id
}

// TestTimerName returns the test timer name for a subscription id.
func TestTimerName(id string) string {
	return TimerPrefix + id + TestTimerSuffix
}

// ParseTimerName extracts the subscription id from a timer name and reports
// whether it is a test timer. ok is false for names outside TimerPrefix.
func ParseTimerName(name string) (id string, test bool, ok bool) {
	rest, found := strings.CutPrefix(name, TimerPrefix)
	if !found || rest == "" {
		return "", false, false
	}
	if id, found := strings.CutSuffix(rest, TestTimerSuffix); found && id != "" {
		return id, true, true
	}
	return rest, false, true
}

// NotificationID returns the notification id for a fired timer.
func NotificationID(id string, test bool) string {
	if test {
		return NotificationPrefix + id + TestTimerSuffix
	}
	return NotificationPrefix + id
}
