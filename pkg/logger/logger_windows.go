//go:build windows

package logger

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/svc/eventlog"
)

// Event IDs for Windows Event Log entries.
const (
	EventIDInfo    uint32 = 1
	EventIDWarning uint32 = 2
	EventIDError   uint32 = 3
)

// EventLogWriter is the subset of *eventlog.Log that EventLogger needs.
type EventLogWriter interface {
	Info(eid uint32, msg string) error
	Warning(eid uint32, msg string) error
	Error(eid uint32, msg string) error
	Close() error
}

// EventLogger writes log messages to Windows Event Log. Debug messages are
// not forwarded.
type EventLogger struct {
	log EventLogWriter
}

// NewEventLogger opens the Event Log source sourceName, registering it first
// when it does not exist yet.
func NewEventLogger(sourceName string) (*EventLogger, error) {
	elog, err := eventlog.Open(sourceName)
	if err != nil {
		if ierr := InstallEventSource(sourceName); ierr != nil {
			return nil, fmt.Errorf("failed to open event log: %w", errors.Join(err, ierr))
		}
		if elog, err = eventlog.Open(sourceName); err != nil {
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
	}
	return NewEventLoggerWithWriter(elog), nil
}

// NewEventLoggerWithWriter wraps an existing writer, used by tests.
func NewEventLoggerWithWriter(w EventLogWriter) *EventLogger {
	return &EventLogger{log: w}
}

// InstallEventSource registers sourceName with the Windows Event Log.
func InstallEventSource(sourceName string) error {
	return eventlog.InstallAsEventCreate(sourceName, eventlog.Error|eventlog.Warning|eventlog.Info)
}

func (e *EventLogger) Debug(format string, args ...interface{}) {}

func (e *EventLogger) Info(format string, args ...interface{}) {
	// service must continue even if logging fails
	_ = e.log.Info(EventIDInfo, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Warning(format string, args ...interface{}) {
	_ = e.log.Warning(EventIDWarning, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Error(format string, args ...interface{}) {
	_ = e.log.Error(EventIDError, fmt.Sprintf(format, args...))
}

// Close releases the Windows Event Log handle. Safe to call twice.
func (e *EventLogger) Close() error {
	if e.log == nil {
		return nil
	}
	err := e.log.Close()
	e.log = nil
	return err
}

var _ Logger = (*EventLogger)(nil)
