// Package reminder keeps one-shot reminder timers in step with the stored
// subscriptions and turns elapsed timers into notifications.
//
// All requests and timer callbacks are commands on a single FIFO queue
// drained by one goroutine (Service.Run). Handlers read the store at the
// start of their own execution, so a timer that fires after its subscription
// was deleted finds nothing and drops the event.
package reminder
