package reminder

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/scheduler"
	"github.com/subsleuth/subsleuth/internal/store"
	"github.com/subsleuth/subsleuth/pkg/logger"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

// DefaultTestDelay is how long after a test request the test timer fires.
const DefaultTestDelay = time.Minute

// Timers is the one-shot timer facility the service drives.
// *scheduler.Scheduler implements it.
type Timers interface {
	Add(event scheduler.ScheduleEvent) error
	Remove(name string) error
	RemovePrefix(prefix string) error
	Events() ([]scheduler.ScheduleEvent, error)
}

// TimeOfDay is the wall-clock time reminders fire on their reminder day.
type TimeOfDay struct {
	Hour, Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(v string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q, want HH:MM", v)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	Logger    logger.Logger
	Formatter *sublib.Formatter
	// Location interprets billing dates. Defaults to time.Local.
	Location *time.Location
	RemindAt TimeOfDay
	// TestDelay defaults to DefaultTestDelay.
	TestDelay time.Duration
	// ResyncCron, when set, schedules a recurring full reconciliation.
	ResyncCron string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service owns reminder timers and notifications.
type Service struct {
	store    store.Store
	timers   Timers
	notifier Notifier

	log        logger.Logger
	format     *sublib.Formatter
	loc        *time.Location
	remindAt   TimeOfDay
	testDelay  time.Duration
	resyncCron string
	now        func() time.Time

	queue   *queue
	running atomic.Bool

	// previews holds subscriptions passed to TestAlarm so a test timer can
	// still fire for a form that was never saved. Owned by the Run goroutine.
	previews map[string]sublib.Subscription
}

// New creates a Service. Nothing is scheduled until Run is called.
func New(st store.Store, timers Timers, notifier Notifier, opts Options) *Service {
	s := &Service{
		store:      st,
		timers:     timers,
		notifier:   notifier,
		log:        opts.Logger,
		format:     opts.Formatter,
		loc:        opts.Location,
		remindAt:   opts.RemindAt,
		testDelay:  opts.TestDelay,
		resyncCron: opts.ResyncCron,
		now:        opts.Now,
		queue:      newQueue(),
		previews:   make(map[string]sublib.Subscription),
	}
	if s.log == nil {
		s.log = logger.NewNopLogger()
	}
	if s.format == nil {
		s.format = sublib.DefaultFormatter()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.testDelay <= 0 {
		s.testDelay = DefaultTestDelay
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Log: s.log}
	}
	return s
}

// Run reconciles every stored subscription, then executes queued commands
// until ctx is cancelled. Requests still pending on exit fail with
// ErrStopped.
func (s *Service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		for _, c := range s.queue.close() {
			if c.reply != nil {
				c.reply <- result{err: ErrStopped}
			}
		}
	}()

	s.startup(ctx)

	for {
		for c, ok := s.queue.pop(); ok; c, ok = s.queue.pop() {
			r := s.handle(ctx, c)
			if c.reply != nil {
				c.reply <- r
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-s.queue.ready:
		}
	}
}

func (s *Service) startup(ctx context.Context) {
	cfg, err := s.store.Config(ctx)
	if err != nil {
		s.log.Error("reminder: failed to read config: %v", err)
	} else if err := s.store.SaveConfig(ctx, cfg); err != nil {
		s.log.Error("reminder: failed to write config: %v", err)
	}
	if _, err := s.syncAll(ctx); err != nil {
		s.log.Error("reminder: initial sync failed: %v", err)
	}
	if s.resyncCron != "" {
		err := s.timers.Add(scheduler.ScheduleEvent{Name: common.ResyncTimerName, CronExpr: s.resyncCron})
		if err != nil {
			s.log.Error("reminder: failed to schedule resync %q: %v", s.resyncCron, err)
		}
	}
}

// Fire posts an elapsed timer to the queue. It never blocks and is meant to
// be the scheduler's trigger callback.
func (s *Service) Fire(name string) {
	if !s.queue.push(command{kind: CmdFire, timer: name}) {
		s.log.Debug("reminder: dropping fire for %s after shutdown", name)
	}
}

// submit queues c and waits for its result. A command whose caller gave up
// on ctx still runs.
func (s *Service) submit(ctx context.Context, c command) (result, error) {
	c.reply = make(chan result, 1)
	if !s.queue.push(c) {
		return result{}, ErrStopped
	}
	select {
	case r := <-c.reply:
		return r, r.err
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// SyncAlarms rebuilds every reminder timer from the store.
func (s *Service) SyncAlarms(ctx context.Context) (bool, error) {
	r, err := s.submit(ctx, command{kind: CmdSyncAlarms})
	return r.ok, err
}

// CreateAlarm (re)schedules the reminder for sub. It reports false when the
// reminder date has already passed.
func (s *Service) CreateAlarm(ctx context.Context, sub sublib.Subscription) (bool, error) {
	r, err := s.submit(ctx, command{kind: CmdCreateAlarm, sub: sub})
	return r.ok, err
}

// TestAlarm schedules a test notification for sub shortly from now.
func (s *Service) TestAlarm(ctx context.Context, sub sublib.Subscription) (bool, error) {
	r, err := s.submit(ctx, command{kind: CmdTestAlarm, sub: sub})
	return r.ok, err
}

// DeleteAlarm cancels the reminder and test timers of a subscription.
func (s *Service) DeleteAlarm(ctx context.Context, id string) (bool, error) {
	r, err := s.submit(ctx, command{kind: CmdDeleteAlarm, id: id})
	return r.ok, err
}

// SetNotifyDays persists a new lead time and reschedules everything.
func (s *Service) SetNotifyDays(ctx context.Context, days int) (bool, error) {
	r, err := s.submit(ctx, command{kind: CmdSetNotifyDays, days: days})
	return r.ok, err
}

// GetAlarms lists pending timers, earliest first.
func (s *Service) GetAlarms(ctx context.Context) ([]common.Alarm, error) {
	r, err := s.submit(ctx, command{kind: CmdGetAlarms})
	return r.alarms, err
}

// GetConfig returns the stored notification config.
func (s *Service) GetConfig(ctx context.Context) (store.Config, error) {
	r, err := s.submit(ctx, command{kind: CmdGetConfig})
	return r.config, err
}

// ListSubscriptions returns the stored subscriptions in insertion order.
func (s *Service) ListSubscriptions(ctx context.Context) ([]sublib.Subscription, error) {
	r, err := s.submit(ctx, command{kind: CmdListSubscriptions})
	return r.subs, err
}

// SaveSubscription validates and upserts sub, then reconciles its reminder.
// The returned bool reports whether a reminder timer was scheduled. Once
// validation passes the error is only about storage; a timer that could not
// be created is logged and reported as false.
func (s *Service) SaveSubscription(ctx context.Context, sub sublib.Subscription) (sublib.Subscription, bool, error) {
	r, err := s.submit(ctx, command{kind: CmdSaveSubscription, sub: sub})
	return r.sub, r.ok, err
}

// DeleteSubscription removes a subscription and cancels its timers.
func (s *Service) DeleteSubscription(ctx context.Context, id string) (bool, error) {
	r, err := s.submit(ctx, command{kind: CmdDeleteSubscription, id: id})
	return r.ok, err
}

// Summary returns spend totals and upcoming renewals.
func (s *Service) Summary(ctx context.Context) (sublib.Summary, error) {
	r, err := s.submit(ctx, command{kind: CmdSummary})
	return r.summary, err
}

// Formatter returns the formatter used for notification text.
func (s *Service) Formatter() *sublib.Formatter {
	return s.format
}
