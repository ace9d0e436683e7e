// Package logger provides the logging interface used by every SubSleuth
// component, with console, Windows Event Log and test backends.
package logger

import (
	"fmt"
	"log"
	"sync"
)

// Logger defines the interface for logging across SubSleuth components.
type Logger interface {
	// Debug logs a diagnostic message. Backends drop it unless debug
	// output was enabled.
	Debug(format string, args ...interface{})

	// Info logs an informational message (e.g., "Reminder scheduled").
	Info(format string, args ...interface{})

	// Warning logs a warning message (e.g., "Skipping subscription with bad date").
	Warning(format string, args ...interface{})

	// Error logs an error message (e.g., "Failed to read store: disk I/O error").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger (e.g., Windows Event Log handle).
	// Safe to call multiple times. Returns nil for loggers without resources.
	Close() error
}

// Level is the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// StandardLogger wraps the stdlib *log.Logger for console/file output.
type StandardLogger struct {
	logger *log.Logger
	debug  bool
}

// Option configures a StandardLogger.
type Option func(*StandardLogger)

// WithDebug enables or disables Debug output.
func WithDebug(enabled bool) Option {
	return func(s *StandardLogger) { s.debug = enabled }
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
func NewStandardLogger(l *log.Logger, opts ...Option) *StandardLogger {
	s := &StandardLogger{logger: l}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *StandardLogger) printf(level Level, format string, args ...interface{}) {
	s.logger.Printf("["+level.String()+"] "+format, args...)
}

// Debug logs with [DEBUG] prefix when debug output is enabled.
func (s *StandardLogger) Debug(format string, args ...interface{}) {
	if s.debug {
		s.printf(LevelDebug, format, args...)
	}
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.printf(LevelInfo, format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.printf(LevelWarning, format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.printf(LevelError, format, args...)
}

// Close is a no-op for StandardLogger (no resources to release).
func (s *StandardLogger) Close() error {
	return nil
}

// NopLogger is a logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(format string, args ...interface{})   {}
func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

// Ensure implementations satisfy the Logger interface.
var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger implements Logger for testing purposes.
// It records all log calls and is safe for concurrent use.
type MockLogger struct {
	mu          sync.Mutex
	calls       map[Level][]string
	closeCalled bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{calls: make(map[Level][]string)}
}

func (m *MockLogger) record(level Level, format string, args ...interface{}) {
	m.mu.Lock()
	m.calls[level] = append(m.calls[level], fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.record(LevelDebug, format, args...)
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.record(LevelInfo, format, args...)
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.record(LevelWarning, format, args...)
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.record(LevelError, format, args...)
}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.mu.Lock()
	m.closeCalled = true
	m.mu.Unlock()
	return nil
}

// Messages returns a copy of the messages recorded at level.
func (m *MockLogger) Messages(level Level) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls[level]...)
}

// Closed reports whether Close was called.
func (m *MockLogger) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalled
}

// Ensure MockLogger satisfies the Logger interface.
var _ Logger = (*MockLogger)(nil)
