package cmd

import (
	"context"
	"os/signal"
)

// setupShutdownHandler returns a context cancelled on the first shutdown
// signal. Later signals get their default behaviour back.
func setupShutdownHandler() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}
