package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/adhocore/gronx"
)

const maxSleepCap = 60 * time.Second

var (
	// ErrStopped is returned once the scheduler context is cancelled.
	ErrStopped = errors.New("scheduler: stopped")
	// ErrEmptyName is returned when adding an event without a name.
	ErrEmptyName = errors.New("scheduler: event name is required")
	// ErrInvalidCron is returned for cron expressions that never fire.
	ErrInvalidCron = errors.New("scheduler: invalid cron expression")
)

// Scheduler manages named timers using a min-heap.
// It runs a background goroutine that sleeps until the next event's
// trigger time, then calls the onTrigger callback with the event name.
type Scheduler struct {
	ops     chan op
	ctx     context.Context
	now     func() time.Time
	onPanic PanicHandler
}

// PanicHandler receives a panic recovered from the trigger callback along
// with the name of the event being fired and the goroutine stack.
type PanicHandler func(name string, r any, stack []byte)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPanicHandler installs fn for panics raised by the trigger callback.
// Without one, such panics are recovered and dropped.
func WithPanicHandler(fn PanicHandler) Option {
	return func(s *Scheduler) { s.onPanic = fn }
}

// New creates and starts a new Scheduler.
// The onTrigger callback is invoked from the scheduler goroutine when an
// event fires; it must not call back into the Scheduler synchronously.
// The scheduler goroutine exits when ctx is cancelled.
func New(ctx context.Context, onTrigger func(string), opts ...Option) *Scheduler {
	s := &Scheduler{
		ops: make(chan op, 64),
		ctx: ctx,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run(onTrigger)
	return s
}

// Add schedules event, replacing a pending event with the same name.
// A recurring event with a zero TriggerAt starts at the next cron occurrence.
func (s *Scheduler) Add(event ScheduleEvent) error {
	if event.Name == "" {
		return ErrEmptyName
	}
	if event.CronExpr != "" {
		if err := ValidateCron(event.CronExpr, s.now()); err != nil {
			return err
		}
		if event.TriggerAt.IsZero() {
			next, err := nextCronOccurrence(event.CronExpr, s.now())
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidCron, err)
			}
			event.TriggerAt = next
		}
	}
	return s.send(op{kind: opAdd, event: event})
}

// Remove cancels the event with the given name. Unknown names are ignored.
func (s *Scheduler) Remove(name string) error {
	return s.send(op{kind: opRemove, name: name})
}

// RemovePrefix cancels every event whose name starts with prefix.
func (s *Scheduler) RemovePrefix(prefix string) error {
	return s.send(op{kind: opRemovePrefix, name: prefix})
}

// Events returns the pending events ordered by trigger time. It observes
// every Add and Remove issued before it.
func (s *Scheduler) Events() ([]ScheduleEvent, error) {
	reply := make(chan []ScheduleEvent, 1)
	if err := s.send(op{kind: opList, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case events := <-reply:
		return events, nil
	case <-s.ctx.Done():
		return nil, ErrStopped
	}
}

func (s *Scheduler) send(o op) error {
	if s.ctx.Err() != nil {
		return ErrStopped
	}
	select {
	case s.ops <- o:
		return nil
	case <-s.ctx.Done():
		return ErrStopped
	}
}

// run is the core scheduler goroutine implementing the active-object pattern.
// It maintains a min-heap of events and sleeps with a 60s max-sleep-cap.
// For recurring events (CronExpr != ""), after firing it computes the next
// occurrence and re-adds it to the heap automatically.
func (s *Scheduler) run(onTrigger func(string)) {
	h := &scheduleHeap{}
	heap.Init(h)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			// No events: wait for the next op.
			return nil
		}
		dur := (*h)[0].TriggerAt.Sub(s.now())
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()

	for {
		select {
		case <-s.ctx.Done():
			return

		case o := <-s.ops:
			s.apply(h, o)
			timerCh = resetTimer()

		case <-timerCh:
			// Check and fire all events whose time has arrived
			now := s.now()
			for h.Len() > 0 && !(*h)[0].TriggerAt.After(now) {
				event := heapPop(h)
				s.trigger(onTrigger, event.Name)
				if event.CronExpr != "" {
					next, err := nextCronOccurrence(event.CronExpr, now)
					if err == nil {
						heapPush(h, ScheduleEvent{
							Name:      event.Name,
							TriggerAt: next,
							CronExpr:  event.CronExpr,
						})
					}
				}
			}
			timerCh = resetTimer()
		}
	}
}

// trigger calls onTrigger, keeping the scheduler goroutine alive if it
// panics.
func (s *Scheduler) trigger(onTrigger func(string), name string) {
	defer func() {
		if r := recover(); r != nil && s.onPanic != nil {
			s.onPanic(name, r, debug.Stack())
		}
	}()
	onTrigger(name)
}

func (s *Scheduler) apply(h *scheduleHeap, o op) {
	switch o.kind {
	case opAdd:
		heapPush(h, o.event)
	case opRemove:
		heapRemoveByName(h, o.name)
	case opRemovePrefix:
		heapRemoveByPrefix(h, o.name)
	case opList:
		o.reply <- heapSnapshot(h)
	}
}

// nextCronOccurrence returns the next time the cron expression fires strictly
// after start. Uses gronx.NextTickAfter with inclRefTime=false.
func nextCronOccurrence(expr string, start time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, start, false)
}

// ValidateCron checks that expr parses and fires at least once within a
// year of from.
func ValidateCron(expr string, from time.Time) error {
	if !gronx.New().IsValid(expr) {
		return fmt.Errorf("%w: %q", ErrInvalidCron, expr)
	}
	if !hasOccurrenceWithinYear(expr, from) {
		return fmt.Errorf("%w: %q never fires within a year", ErrInvalidCron, expr)
	}
	return nil
}

// hasOccurrenceWithinYear checks if a cron expression has any occurrence
// within 1 year from the given time. Returns false for invalid expressions
// or if no occurrence exists within the 1-year window.
func hasOccurrenceWithinYear(expr string, from time.Time) bool {
	next, err := gronx.NextTickAfter(expr, from, false)
	if err != nil {
		return false
	}
	return next.Before(from.Add(365 * 24 * time.Hour))
}
