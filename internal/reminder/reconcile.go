package reminder

import (
	"errors"
	"fmt"
	"time"

	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/scheduler"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

// fireAt is leadDays calendar days before the billing date, at remindAt.
func (s *Service) fireAt(sub sublib.Subscription, leadDays int) (time.Time, error) {
	billing, err := sub.BillingDate(s.loc)
	if err != nil {
		return time.Time{}, err
	}
	day := billing.AddDate(0, 0, -leadDays)
	return time.Date(day.Year(), day.Month(), day.Day(), s.remindAt.Hour, s.remindAt.Minute, 0, 0, s.loc), nil
}

// reconcileOne replaces the reminder timer of sub. It reports false without
// error when the reminder time is not in the future.
func (s *Service) reconcileOne(sub sublib.Subscription, leadDays int) (bool, error) {
	if err := checkID(sub.ID); err != nil {
		return false, err
	}
	name := common.ReminderTimerName(sub.ID)
	if err := s.timers.Remove(name); err != nil {
		return false, err
	}
	at, err := s.fireAt(sub, leadDays)
	if err != nil {
		s.log.Warning("reminder: skipping %q: %v", sub.Name, err)
		return false, err
	}
	if !at.After(s.now()) {
		s.log.Debug("reminder: not scheduling %q, reminder time %s already passed", sub.Name, at.Format(time.RFC3339))
		return false, nil
	}
	if err := s.timers.Add(scheduler.ScheduleEvent{Name: name, TriggerAt: at}); err != nil {
		return false, fmt.Errorf("schedule %s: %w", name, err)
	}
	s.log.Debug("reminder: %q will fire at %s", sub.Name, at.Format(time.RFC3339))
	return true, nil
}

// reconcileAll drops every reminder-namespace timer, pending test fires
// included, and reschedules subs.
// Timers outside the namespace are left alone. Failures are joined; one bad
// subscription never stops the rest.
func (s *Service) reconcileAll(subs []sublib.Subscription, leadDays int) error {
	if err := s.timers.RemovePrefix(common.TimerPrefix); err != nil {
		return err
	}
	clear(s.previews)
	var errs []error
	scheduled := 0
	for _, sub := range subs {
		ok, err := s.reconcileOne(sub, leadDays)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sub.ID, err))
			continue
		}
		if ok {
			scheduled++
		}
	}
	s.log.Info("reminder: reconciled %d subscriptions, %d reminders scheduled (lead %d days)", len(subs), scheduled, leadDays)
	return errors.Join(errs...)
}

// cancel removes the reminder and test timers of a subscription.
func (s *Service) cancel(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	delete(s.previews, id)
	return errors.Join(
		s.timers.Remove(common.ReminderTimerName(id)),
		s.timers.Remove(common.TestTimerName(id)),
	)
}

// checkID guards the timer namespace: an id ending in the test suffix would
// share its reminder timer with another subscription's test timer.
func checkID(id string) error {
	if id == "" {
		return ErrMissingID
	}
	return sublib.CheckID(id)
}
