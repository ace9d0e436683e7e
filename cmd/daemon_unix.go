//go:build !windows

package cmd

import (
	"log"

	"github.com/subsleuth/subsleuth/internal/config"
	"github.com/subsleuth/subsleuth/pkg/logger"
)

// daemonLogger writes to stderr.
func daemonLogger(cfg config.Config) logger.Logger {
	return logger.NewStandardLogger(log.Default(), logger.WithDebug(cfg.Debug))
}
