//go:build windows

package cmd

import (
	"log"

	"github.com/subsleuth/subsleuth/internal/config"
	"github.com/subsleuth/subsleuth/pkg/logger"
)

// EventSourceName is the Windows Event Log source of the daemon.
const EventSourceName = "SubSleuth"

// daemonLogger writes to the console and, when the source can be opened, to
// the Windows Event Log.
func daemonLogger(cfg config.Config) logger.Logger {
	stdLogger := logger.NewStandardLogger(log.Default(), logger.WithDebug(cfg.Debug))
	eventLogger, err := logger.NewEventLogger(EventSourceName)
	if err != nil {
		stdLogger.Warning("event log unavailable, logging to console only: %v", err)
		return stdLogger
	}
	return logger.NewMultiLogger(stdLogger, eventLogger)
}
