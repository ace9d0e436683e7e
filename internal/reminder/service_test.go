package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/scheduler"
	"github.com/subsleuth/subsleuth/internal/store"
	"github.com/subsleuth/subsleuth/pkg/logger"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

func TestRunSyncsOnStartup(t *testing.T) {
	f := newFixture(t)
	f.seed(t, sub("a", "A", "2024-06-10"))
	f.start(t)

	// any request is answered after startup completed
	if _, err := f.svc.GetAlarms(context.Background()); err != nil {
		t.Fatalf("GetAlarms: %v", err)
	}
	if _, found := f.timers.get("remind_a"); !found {
		t.Fatal("expected startup sync to schedule remind_a")
	}
	raw, found, err := f.kv.Get(context.Background(), common.ConfigKey)
	if err != nil || !found {
		t.Fatalf("expected default config to be written, err=%v", err)
	}
	if string(raw) != `{"leadDays":3}` {
		t.Fatalf("unexpected config %s", raw)
	}
}

func TestRunRejectsSecondRun(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	_, _ = f.svc.GetAlarms(context.Background())
	if err := f.svc.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestSetNotifyDaysValidation(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	for _, days := range []int{0, 31, -4} {
		ok, err := f.svc.SetNotifyDays(ctx, days)
		if !errors.Is(err, ErrLeadDaysOutOfRange) || ok {
			t.Errorf("days=%d: expected ErrLeadDaysOutOfRange, got ok=%v err=%v", days, ok, err)
		}
	}
	cfg, err := f.svc.GetConfig(ctx)
	if err != nil || cfg.LeadDays != common.DefaultLeadDays {
		t.Fatalf("config must be untouched, got %+v err=%v", cfg, err)
	}
}

func TestSetNotifyDaysReschedules(t *testing.T) {
	f := newFixture(t)
	f.seed(t, sub("a", "A", "2024-06-20"), sub("b", "B", "2024-06-25"))
	f.start(t)
	ctx := context.Background()

	ok, err := f.svc.SetNotifyDays(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("SetNotifyDays: ok=%v err=%v", ok, err)
	}
	cfg, _ := f.svc.GetConfig(ctx)
	if cfg.LeadDays != 7 {
		t.Fatalf("expected 7, got %d", cfg.LeadDays)
	}
	alarms, err := f.svc.GetAlarms(ctx)
	if err != nil {
		t.Fatalf("GetAlarms: %v", err)
	}
	want := map[string]int{"remind_a": 13, "remind_b": 18}
	if len(alarms) != len(want) {
		t.Fatalf("unexpected alarms %+v", alarms)
	}
	for _, a := range alarms {
		if a.FireAt.Day() != want[a.Name] {
			t.Errorf("%s: expected day %d, got %v", a.Name, want[a.Name], a.FireAt)
		}
	}
}

func TestCreateAlarmReportsScheduled(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	ok, err := f.svc.CreateAlarm(ctx, sub("a", "A", "2024-06-10"))
	if err != nil || !ok {
		t.Fatalf("expected scheduled, got ok=%v err=%v", ok, err)
	}
	ok, err = f.svc.CreateAlarm(ctx, sub("b", "B", "2024-06-01"))
	if err != nil || ok {
		t.Fatalf("expected skipped, got ok=%v err=%v", ok, err)
	}
	if _, err := f.svc.CreateAlarm(ctx, sub("c", "C", "garbage")); !errors.Is(err, sublib.ErrInvalidBillingDate) {
		t.Fatalf("expected ErrInvalidBillingDate, got %v", err)
	}
}

func TestSaveSubscriptionRejectsInvalidDate(t *testing.T) {
	f := newFixture(t)
	f.seed(t, sub("a", "A", "2024-06-10"))
	f.start(t)
	ctx := context.Background()

	_, _, err := f.svc.SaveSubscription(ctx, sub("", "New", "31/12/2024"))
	if !errors.Is(err, sublib.ErrInvalidBillingDate) {
		t.Fatalf("expected ErrInvalidBillingDate, got %v", err)
	}
	subs, _ := f.svc.ListSubscriptions(ctx)
	if len(subs) != 1 {
		t.Fatalf("store must be untouched, got %+v", subs)
	}
}

func TestSaveSubscriptionUpsertsAndSchedules(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	saved, scheduled, err := f.svc.SaveSubscription(ctx, sublib.Subscription{
		Name:        "Gym",
		Amount:      decimal.NewFromInt(1500),
		Frequency:   sublib.Monthly,
		NextBilling: "2024-06-15",
	})
	if err != nil || !scheduled {
		t.Fatalf("SaveSubscription: scheduled=%v err=%v", scheduled, err)
	}
	if saved.ID == "" || saved.Usage != sublib.FrequentlyUsed {
		t.Fatalf("expected normalized subscription, got %+v", saved)
	}
	if _, found := f.timers.get(common.ReminderTimerName(saved.ID)); !found {
		t.Fatal("expected reminder timer")
	}

	saved.NextBilling = "2024-06-03"
	_, scheduled, err = f.svc.SaveSubscription(ctx, saved)
	if err != nil || scheduled {
		t.Fatalf("edit into the past: scheduled=%v err=%v", scheduled, err)
	}
	if _, found := f.timers.get(common.ReminderTimerName(saved.ID)); found {
		t.Fatal("edited subscription must lose its stale timer")
	}
	subs, _ := f.svc.ListSubscriptions(ctx)
	if len(subs) != 1 || subs[0].NextBilling != "2024-06-03" {
		t.Fatalf("expected in-place update, got %+v", subs)
	}
}

func TestDeleteSubscriptionCancelsAndDropsFire(t *testing.T) {
	f := newFixture(t)
	f.seed(t, sub("a", "A", "2024-06-10"))
	f.start(t)
	ctx := context.Background()

	ok, err := f.svc.DeleteSubscription(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("DeleteSubscription: ok=%v err=%v", ok, err)
	}
	if _, found := f.timers.get("remind_a"); found {
		t.Fatal("timer must be cancelled")
	}
	// a fire already in flight when the delete ran
	f.svc.Fire("remind_a")
	if _, err := f.svc.GetAlarms(ctx); err != nil {
		t.Fatalf("GetAlarms: %v", err)
	}
	if len(f.notes.all()) != 0 {
		t.Fatal("deleted subscription must not notify")
	}
	if _, err := f.svc.DeleteSubscription(ctx, "a"); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}

func TestTestSuffixIDCannotShareTimers(t *testing.T) {
	f := newFixture(t)
	// a record written before ids were checked
	f.seed(t, sub("a", "A", "2024-06-10"), sub("a_test", "B", "2024-06-12"))
	f.start(t)
	ctx := context.Background()

	if _, err := f.svc.SyncAlarms(ctx); err != nil {
		t.Fatalf("SyncAlarms: %v", err)
	}
	if names := f.timers.names(); !names["remind_a"] || names["remind_a_test"] {
		t.Fatalf("expected only remind_a, got %v", names)
	}
	if _, _, err := f.svc.SaveSubscription(ctx, sub("b_test", "C", "2024-06-12")); !errors.Is(err, sublib.ErrInvalidID) {
		t.Fatalf("SaveSubscription: expected ErrInvalidID, got %v", err)
	}
	if _, err := f.svc.CreateAlarm(ctx, sub("a_test", "B", "2024-06-12")); !errors.Is(err, sublib.ErrInvalidID) {
		t.Fatalf("CreateAlarm: expected ErrInvalidID, got %v", err)
	}
	if _, err := f.svc.TestAlarm(ctx, sub("a", "A", "2024-06-10")); err != nil {
		t.Fatalf("TestAlarm: %v", err)
	}
	if _, err := f.svc.DeleteAlarm(ctx, "a"); err != nil {
		t.Fatalf("DeleteAlarm: %v", err)
	}
	if names := f.timers.names(); len(names) != 0 {
		t.Fatalf("expected a's timers gone and nothing else scheduled, got %v", names)
	}
	subs, _ := f.svc.ListSubscriptions(ctx)
	if len(subs) != 2 {
		t.Fatalf("rejected save must not touch the store, got %+v", subs)
	}
}

func TestDeleteAlarmIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := f.svc.DeleteAlarm(ctx, "missing")
		if err != nil || !ok {
			t.Fatalf("DeleteAlarm: ok=%v err=%v", ok, err)
		}
	}
}

func TestSummaryUsesStore(t *testing.T) {
	f := newFixture(t)
	rare := sub("b", "B", "2024-06-05")
	rare.Usage = sublib.RarelyUsed
	f.seed(t, sub("a", "A", "2024-06-10"), rare)
	f.start(t)

	sum, err := f.svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Count != 2 || sum.RarelyUsedCount != 1 || len(sum.Upcoming) != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.Upcoming[0].Subscription.ID != "b" {
		t.Errorf("expected b first, got %s", sum.Upcoming[0].Subscription.ID)
	}
}

func TestResyncTimerSurvivesSync(t *testing.T) {
	f := newFixture(t)
	f.svc.resyncCron = "0 3 * * *"
	f.start(t)
	ctx := context.Background()

	if _, err := f.svc.SyncAlarms(ctx); err != nil {
		t.Fatalf("SyncAlarms: %v", err)
	}
	if _, found := f.timers.get(common.ResyncTimerName); !found {
		t.Fatal("resync job must survive a full sync")
	}
}

func TestRequestsAfterStopFail(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.svc.Run(ctx)
	}()
	_, _ = f.svc.GetAlarms(context.Background())
	cancel()
	<-done

	if _, err := f.svc.SyncAlarms(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	f.svc.Fire("remind_a")
}

func TestSubmitHonoursCallerContext(t *testing.T) {
	f := newFixture(t)
	// not running, so nothing answers
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.svc.SyncAlarms(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestConcurrentRequestsAreSerialized(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := sub("", "Sub", "2024-06-20")
			s.Name = s.Name + string(rune('A'+i))
			if _, _, err := f.svc.SaveSubscription(ctx, s); err != nil {
				t.Errorf("SaveSubscription: %v", err)
			}
		}(i)
	}
	wg.Wait()
	subs, err := f.svc.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("ListSubscriptions: %v", err)
	}
	if len(subs) != 20 {
		t.Fatalf("lost updates: expected 20 subscriptions, got %d", len(subs))
	}
}

func TestEndToEndWithScheduler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.New(store.NewMemoryKV())
	notes := newNotifications()
	var svc *Service
	timers := scheduler.New(ctx, func(name string) { svc.Fire(name) })
	svc = New(st, timers, notes, Options{
		Logger:    logger.NewNopLogger(),
		TestDelay: 50 * time.Millisecond,
	})
	go func() { _ = svc.Run(ctx) }()

	saved, _, err := svc.SaveSubscription(ctx, sub("", "Music", time.Now().AddDate(0, 2, 0).Format(sublib.DateLayout)))
	if err != nil {
		t.Fatalf("SaveSubscription: %v", err)
	}
	if _, err := svc.TestAlarm(ctx, saved); err != nil {
		t.Fatalf("TestAlarm: %v", err)
	}

	select {
	case <-notes.recv:
	case <-time.After(2 * time.Second):
		t.Fatal("test notification never fired")
	}
	got := notes.all()
	if len(got) != 1 || !got[0].Test || got[0].SubscriptionID != saved.ID {
		t.Fatalf("unexpected notifications %+v", got)
	}
	alarms, err := svc.GetAlarms(ctx)
	if err != nil {
		t.Fatalf("GetAlarms: %v", err)
	}
	if len(alarms) != 1 || alarms[0].Name != common.ReminderTimerName(saved.ID) {
		t.Fatalf("expected only the real reminder to remain, got %+v", alarms)
	}
}
