package reminder

import (
	"context"

	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/scheduler"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

// testFire schedules the test timer of sub. The real reminder is untouched.
func (s *Service) testFire(sub sublib.Subscription) error {
	if err := checkID(sub.ID); err != nil {
		return err
	}
	name := common.TestTimerName(sub.ID)
	at := s.now().Add(s.testDelay)
	if err := s.timers.Add(scheduler.ScheduleEvent{Name: name, TriggerAt: at}); err != nil {
		return err
	}
	s.previews[sub.ID] = sub
	s.log.Info("reminder: test notification for %q at %s", sub.Name, at.Format("15:04:05"))
	return nil
}

// onFire turns an elapsed timer into a notification using the subscription
// as stored right now. Test timers fall back to the snapshot taken when the
// test was requested.
func (s *Service) onFire(ctx context.Context, name string) {
	id, test, ok := common.ParseTimerName(name)
	if !ok {
		s.log.Debug("reminder: ignoring foreign timer %s", name)
		return
	}
	subs, err := s.store.Subscriptions(ctx)
	if err != nil {
		s.log.Error("reminder: cannot read subscriptions for %s: %v", name, err)
		return
	}
	sub, found := sublib.Find(subs, id)
	if test {
		if !found {
			sub, found = s.previews[id]
		}
		delete(s.previews, id)
	}
	if !found {
		s.log.Debug("reminder: %s fired for deleted subscription, dropping", name)
		return
	}

	n := &common.Notification{
		ID:             common.NotificationID(id, test),
		SubscriptionID: id,
		Title:          s.format.ReminderTitle(&sub, test),
		Message:        s.format.ReminderMessage(&sub, test),
		Test:           test,
		Subscription:   sub,
		FiredAt:        s.now(),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Error("reminder: failed to deliver %s: %v", n.ID, err)
	}
}
