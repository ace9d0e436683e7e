package reminder

import "errors"

var (
	// ErrLeadDaysOutOfRange is returned by SetNotifyDays for values outside
	// [common.MinLeadDays, common.MaxLeadDays].
	ErrLeadDaysOutOfRange = errors.New("notify days must be between 1 and 30")
	// ErrSubscriptionNotFound is returned when deleting an unknown id.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrMissingID is returned for timer operations on a subscription
	// without an id.
	ErrMissingID = errors.New("subscription id is required")
	// ErrStopped is returned for requests submitted after Run exited.
	ErrStopped = errors.New("reminder service stopped")
	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("reminder service already running")
)
