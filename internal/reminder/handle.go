package reminder

import (
	"context"
	"fmt"

	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/store"
	"github.com/subsleuth/subsleuth/pkg/sublib"
)

// handle executes one command on the service goroutine.
func (s *Service) handle(ctx context.Context, c command) result {
	s.log.Debug("reminder: %s", c.kind)
	switch c.kind {
	case CmdSyncAlarms:
		ok, err := s.syncAll(ctx)
		return result{ok: ok, err: err}

	case CmdCreateAlarm:
		cfg, err := s.store.Config(ctx)
		if err != nil {
			return result{err: err}
		}
		ok, err := s.reconcileOne(c.sub, cfg.LeadDays)
		return result{ok: ok, err: err}

	case CmdTestAlarm:
		if err := s.testFire(c.sub); err != nil {
			return result{err: err}
		}
		return result{ok: true}

	case CmdDeleteAlarm:
		if err := s.cancel(c.id); err != nil {
			return result{err: err}
		}
		return result{ok: true}

	case CmdSetNotifyDays:
		return s.setNotifyDays(ctx, c.days)

	case CmdGetAlarms:
		alarms, err := s.alarms()
		return result{alarms: alarms, err: err}

	case CmdGetConfig:
		cfg, err := s.store.Config(ctx)
		return result{config: cfg, err: err}

	case CmdListSubscriptions:
		subs, err := s.store.Subscriptions(ctx)
		return result{subs: subs, err: err}

	case CmdSaveSubscription:
		return s.saveSubscription(ctx, c.sub)

	case CmdDeleteSubscription:
		return s.deleteSubscription(ctx, c.id)

	case CmdSummary:
		subs, err := s.store.Subscriptions(ctx)
		if err != nil {
			return result{err: err}
		}
		return result{summary: sublib.Summarize(subs, s.now().In(s.loc))}

	case CmdFire:
		if c.timer == common.ResyncTimerName {
			if _, err := s.syncAll(ctx); err != nil {
				s.log.Error("reminder: periodic resync failed: %v", err)
			}
			return result{ok: true}
		}
		s.onFire(ctx, c.timer)
		return result{ok: true}
	}
	return result{err: fmt.Errorf("unknown command %d", c.kind)}
}

// syncAll reads the store and runs reconcileAll. Per-subscription failures
// are logged and do not fail the batch; only an unreadable store does.
func (s *Service) syncAll(ctx context.Context) (bool, error) {
	subs, err := s.store.Subscriptions(ctx)
	if err != nil {
		return false, err
	}
	cfg, err := s.store.Config(ctx)
	if err != nil {
		return false, err
	}
	if err := s.reconcileAll(subs, cfg.LeadDays); err != nil {
		s.log.Warning("reminder: sync completed with errors: %v", err)
	}
	return true, nil
}

func (s *Service) setNotifyDays(ctx context.Context, days int) result {
	if days < common.MinLeadDays || days > common.MaxLeadDays {
		return result{err: fmt.Errorf("%w: got %d", ErrLeadDaysOutOfRange, days)}
	}
	if err := s.store.SaveConfig(ctx, store.Config{LeadDays: days}); err != nil {
		return result{err: err}
	}
	s.log.Info("reminder: notify days set to %d", days)
	ok, err := s.syncAll(ctx)
	return result{ok: ok, err: err}
}

func (s *Service) alarms() ([]common.Alarm, error) {
	events, err := s.timers.Events()
	if err != nil {
		return nil, err
	}
	alarms := make([]common.Alarm, 0, len(events))
	for _, e := range events {
		alarms = append(alarms, common.Alarm{Name: e.Name, FireAt: e.TriggerAt})
	}
	return alarms, nil
}

func (s *Service) saveSubscription(ctx context.Context, sub sublib.Subscription) result {
	sub.Normalize()
	if err := sub.Validate(); err != nil {
		return result{err: err}
	}
	subs, err := s.store.Subscriptions(ctx)
	if err != nil {
		return result{err: err}
	}
	if err := s.store.SaveSubscriptions(ctx, sublib.Upsert(subs, sub)); err != nil {
		return result{err: err}
	}
	// The record is stored at this point; a scheduling failure is reported
	// as an unscheduled save and repaired by the next resync.
	scheduled := false
	cfg, err := s.store.Config(ctx)
	if err == nil {
		scheduled, err = s.reconcileOne(sub, cfg.LeadDays)
	}
	if err != nil {
		s.log.Error("reminder: saved %q but could not schedule its reminder: %v", sub.Name, err)
	}
	return result{sub: sub, ok: scheduled}
}

func (s *Service) deleteSubscription(ctx context.Context, id string) result {
	subs, err := s.store.Subscriptions(ctx)
	if err != nil {
		return result{err: err}
	}
	rest, found := sublib.Remove(subs, id)
	if !found {
		return result{err: fmt.Errorf("%w: %s", ErrSubscriptionNotFound, id)}
	}
	if err := s.store.SaveSubscriptions(ctx, rest); err != nil {
		return result{err: err}
	}
	if err := s.cancel(id); err != nil {
		return result{err: err}
	}
	return result{ok: true}
}
