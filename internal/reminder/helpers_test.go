package reminder

import (
	"context"
	"strings"
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

// fakeTimers is an in-memory Timers that never fires on its own.
type fakeTimers struct {
	mu     sync.Mutex
	events map[string]scheduler.ScheduleEvent
	err    error
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{events: make(map[string]scheduler.ScheduleEvent)}
}

func (f *fakeTimers) Add(e scheduler.ScheduleEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events[e.Name] = e
	return nil
}

func (f *fakeTimers) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, name)
	return nil
}

func (f *fakeTimers) RemovePrefix(prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name := range f.events {
		if strings.HasPrefix(name, prefix) {
			delete(f.events, name)
		}
	}
	return nil
}

func (f *fakeTimers) Events() ([]scheduler.ScheduleEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scheduler.ScheduleEvent, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeTimers) get(name string) (scheduler.ScheduleEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[name]
	return e, ok
}

func (f *fakeTimers) names() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]bool, len(f.events))
	for name := range f.events {
		out[name] = true
	}
	return out
}

func pending(q *queue) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// notifications records delivered notifications.
type notifications struct {
	mu   sync.Mutex
	got  []common.Notification
	recv chan struct{}
}

func newNotifications() *notifications {
	return &notifications{recv: make(chan struct{}, 16)}
}

func (n *notifications) Notify(_ context.Context, note *common.Notification) error {
	n.mu.Lock()
	n.got = append(n.got, *note)
	n.mu.Unlock()
	select {
	case n.recv <- struct{}{}:
	default:
	}
	return nil
}

func (n *notifications) all() []common.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]common.Notification(nil), n.got...)
}

// testNow is the fixed clock of every test service.
var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	kv     *store.MemoryKV
	store  *store.KVStore
	timers *fakeTimers
	notes  *notifications
	log    *logger.MockLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := store.NewMemoryKV()
	f := &fixture{
		kv:     kv,
		store:  store.New(kv),
		timers: newFakeTimers(),
		notes:  newNotifications(),
		log:    logger.NewMockLogger(),
	}
	f.svc = New(f.store, f.timers, f.notes, Options{
		Logger:   f.log,
		Location: time.UTC,
		RemindAt: TimeOfDay{Hour: 9},
		Now:      func() time.Time { return testNow },
	})
	return f
}

// start runs the service until the test ends.
func (f *fixture) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.svc.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (f *fixture) seed(t *testing.T, subs ...sublib.Subscription) {
	t.Helper()
	if err := f.store.SaveSubscriptions(context.Background(), subs); err != nil {
		t.Fatalf("SaveSubscriptions: %v", err)
	}
}

func sub(id, name, next string) sublib.Subscription {
	return sublib.Subscription{
		ID:          id,
		Name:        name,
		Amount:      decimal.RequireFromString("9.99"),
		Frequency:   sublib.Monthly,
		NextBilling: next,
		Usage:       sublib.FrequentlyUsed,
	}
}
