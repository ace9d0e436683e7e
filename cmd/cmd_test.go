package cmd

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	cmdcommon "github.com/subsleuth/subsleuth/cmd/common"
	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/config"
	"github.com/subsleuth/subsleuth/pkg/sublib"
	gokeyring "github.com/zalando/go-keyring"
)

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(sublib.DateLayout)
}

func assertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

func listSubs(t *testing.T) []sublib.Subscription {
	t.Helper()
	var subs []sublib.Subscription
	if err := json.Unmarshal([]byte(run(t, "list", "--json")), &subs); err != nil {
		t.Fatalf("decode list --json: %v", err)
	}
	return subs
}

func TestSubscriptionLifecycle(t *testing.T) {
	startDaemon(t)

	out := run(t, "add", "-n", "Netflix", "-a", "649", "-f", "monthly", "-d", futureDate(20))
	assertContains(t, out, "Added Netflix")
	assertContains(t, out, "Reminder scheduled.")

	subs := listSubs(t)
	if len(subs) != 1 || subs[0].Name != "Netflix" || subs[0].ID == "" {
		t.Fatalf("unexpected subscriptions %+v", subs)
	}
	id := subs[0].ID

	out = run(t, "list")
	assertContains(t, out, "Netflix")
	assertContains(t, out, shortID(id))

	out = run(t, "alarms")
	assertContains(t, out, common.ReminderTimerName(id))

	out = run(t, "edit", shortID(id), "-a", "799", "-u", "rarely-used")
	assertContains(t, out, "Updated Netflix")
	subs = listSubs(t)
	if !subs[0].Amount.Equal(decimal.RequireFromString("799")) || !subs[0].IsRarelyUsed() {
		t.Fatalf("edit not applied: %+v", subs[0])
	}

	out = run(t, "summary")
	assertContains(t, out, "Subscriptions:        1")
	assertContains(t, out, "Netflix")

	out = run(t, "remove", "--yes", id)
	assertContains(t, out, "Removed Netflix")
	assertContains(t, run(t, "list"), "no subscriptions found")
	assertContains(t, run(t, "alarms"), "no reminders scheduled")
}

func TestAddDueWithinLeadTimeSkipsReminder(t *testing.T) {
	startDaemon(t)
	out := run(t, "add", "-n", "Gym", "-a", "20", "-d", futureDate(1))
	assertContains(t, out, "No reminder scheduled")
	if subs := listSubs(t); len(subs) != 1 {
		t.Fatalf("expected the subscription to be stored, got %d", len(subs))
	}
}

func TestAddRequiresName(t *testing.T) {
	startDaemon(t)
	run(t, "add", "-a", "5", "-d", futureDate(10))
	if subs := listSubs(t); len(subs) != 0 {
		t.Fatalf("nothing should be stored, got %+v", subs)
	}
}

func TestAddInvalidDateLeavesStoreUntouched(t *testing.T) {
	startDaemon(t)
	run(t, "add", "-n", "Broken", "-a", "5", "-d", "2026-13-45")
	if subs := listSubs(t); len(subs) != 0 {
		t.Fatalf("nothing should be stored, got %+v", subs)
	}
}

func TestRemoveDeclined(t *testing.T) {
	startDaemon(t)
	run(t, "add", "-n", "Music", "-a", "9", "-d", futureDate(15))
	id := listSubs(t)[0].ID

	orig := stdin
	stdin = strings.NewReader("no\n")
	defer func() { stdin = orig }()
	out := run(t, "remove", id)
	assertContains(t, out, "Cancelled remove command")
	if len(listSubs(t)) != 1 {
		t.Fatal("declined remove must keep the subscription")
	}
}

func TestNotifyDays(t *testing.T) {
	startDaemon(t)
	assertContains(t, run(t, "notify-days"), "3 day(s)")
	assertContains(t, run(t, "notify-days", "7"), "now fire 7 day(s)")
	run(t, "notify-days", "31")
	run(t, "notify-days", "0")
	assertContains(t, run(t, "notify-days"), "7 day(s)")
}

func TestSync(t *testing.T) {
	startDaemon(t)
	run(t, "add", "-n", "Cloud", "-a", "2", "-d", futureDate(40))
	assertContains(t, run(t, "sync"), "Reminders rebuilt.")
	id := listSubs(t)[0].ID
	assertContains(t, run(t, "alarms"), common.ReminderTimerName(id))
}

func TestTestWaitReceivesNotification(t *testing.T) {
	startDaemon(t)
	orig := waitSlack
	waitSlack = 5 * time.Second
	defer func() { waitSlack = orig }()

	run(t, "add", "-n", "News", "-a", "3", "-d", futureDate(25))
	id := listSubs(t)[0].ID
	out := run(t, "test", "--wait", id)
	assertContains(t, out, "Test notification for News scheduled")
	assertContains(t, out, "Test Notification: News")
}

func TestTestUnknownID(t *testing.T) {
	startDaemon(t)
	out := run(t, "test", "nope")
	if strings.Contains(out, "scheduled") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestClientWithoutDaemon(t *testing.T) {
	setConfigEnv(t)
	if _, _, err := newClient(); err == nil {
		t.Fatal("expected an error with no daemon running")
	}
}

func TestFindSubscription(t *testing.T) {
	subs := []sublib.Subscription{
		{ID: "abc123", Name: "A"},
		{ID: "abd456", Name: "B"},
		{ID: "xyz", Name: "C"},
	}
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"abc123", "A", false},
		{"abd", "B", false},
		{"x", "C", false},
		{"ab", "", true},
		{"zzz", "", true},
	}
	for _, tt := range tests {
		got, err := findSubscription(subs, tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("findSubscription(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if got.Name != tt.want {
			t.Errorf("findSubscription(%q) = %q, want %q", tt.ref, got.Name, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q", got)
	}
}

func TestConfirm(t *testing.T) {
	captureStdout(t)
	orig := stdin
	defer func() { stdin = orig }()

	for input, want := range map[string]bool{"yes\n": true, "Y\n": true, "no\n": false, "": false} {
		stdin = strings.NewReader(input)
		if got := confirm(command("remove")); got != want {
			t.Errorf("confirm(%q) = %v, want %v", input, got, want)
		}
	}
	if !confirm(command("remove"), true) {
		t.Error("forced confirm must succeed")
	}
}

type fakeSource chan common.Notification

func (f fakeSource) C() <-chan common.Notification { return f }

func TestAwaitTestNotification(t *testing.T) {
	captureStdout(t)
	src := make(fakeSource, 2)
	src <- common.Notification{ID: common.NotificationID("other", true)}
	src <- common.Notification{ID: common.NotificationID("a", true), Title: "Test Notification: A"}

	n, err := awaitTestNotification(src, "a", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("awaitTestNotification: %v", err)
	}
	if n.Title != "Test Notification: A" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestAwaitTestNotificationTimeout(t *testing.T) {
	captureStdout(t)
	orig := waitSlack
	waitSlack = 50 * time.Millisecond
	defer func() { waitSlack = orig }()

	_, err := awaitTestNotification(make(fakeSource), "a", 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout")
	}
}

func TestAwaitTestNotificationSourceClosed(t *testing.T) {
	captureStdout(t)
	src := make(fakeSource)
	close(src)
	start := time.Now()
	if _, err := awaitTestNotification(src, "a", time.Minute); err == nil {
		t.Fatal("expected an error for a closed source")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("closed source was not detected promptly")
	}
}

func TestVersionCommand(t *testing.T) {
	captureStdout(t)
	if err := Execute([]string{"subsleuth", "version"}, BuildArgs{Version: "1.0.0", BuildType: "test"}); err != nil {
		t.Fatalf("version: %v", err)
	}
}

func TestRotateSecret(t *testing.T) {
	setConfigEnv(t)
	t.Setenv("SUBSLEUTH_RPC_SECRET", "")
	gokeyring.MockInit()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	before, err := cmdcommon.ResolveSecret(cfg)
	if err != nil {
		t.Fatalf("ResolveSecret: %v", err)
	}
	assertContains(t, run(t, "rotate-secret"), "RPC secret rotated")
	after, err := cmdcommon.ResolveSecret(cfg)
	if err != nil {
		t.Fatalf("ResolveSecret: %v", err)
	}
	if after == "" || after == before {
		t.Fatalf("secret not rotated: before %q after %q", before, after)
	}
}

func TestRotateSecretFromEnv(t *testing.T) {
	setConfigEnv(t)
	if out := run(t, "rotate-secret"); strings.Contains(out, "rotated") {
		t.Fatalf("rotated a secret owned by the environment: %q", out)
	}
}
