// Package scheduler provides the named one-shot timers behind SubSleuth
// reminders. It implements a single-goroutine scheduler using a min-heap of
// ScheduleEvents sorted by trigger time, with a 60-second max-sleep-cap to
// handle NTP steps, DST transitions, and system sleep (macOS monotonic clock
// pause).
//
// Every mutation travels through one ordered channel, so a Remove followed
// by an Add for the same name is always applied in that order. Event names
// are unique: adding an event replaces any pending event with the same name.
// The scheduler keeps no state on disk; callers rebuild it on restart.
package scheduler
