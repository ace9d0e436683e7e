package reminder

import (
	"context"
	"errors"

	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/pkg/logger"
)

// Notifier delivers a fired reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, n *common.Notification) error
}

// MultiNotifier delivers to every notifier in order and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n *common.Notification) error {
	var errs []error
	for _, nt := range m {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Log logger.Logger
}

func (l LogNotifier) Notify(_ context.Context, n *common.Notification) error {
	l.Log.Info("notification %s: %s | %s", n.ID, n.Title, n.Message)
	return nil
}
