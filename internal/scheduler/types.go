package scheduler

import "time"

// ScheduleEvent is a pending named timer.
type ScheduleEvent struct {
	// Name identifies the timer and is passed to the trigger callback.
	Name string
	// TriggerAt is the wall-clock time when the timer fires.
	TriggerAt time.Time
	// CronExpr makes the event recurring. Empty string means one-shot.
	CronExpr string
}

type opKind int

const (
	opAdd opKind = iota
	opRemove
	opRemovePrefix
	opList
)

// op is one request to the scheduler goroutine.
type op struct {
	kind  opKind
	event ScheduleEvent
	name  string
	reply chan []ScheduleEvent
}
