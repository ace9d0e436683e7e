package cmd

import (
	"context"
	"errors"

	"github.com/subsleuth/subsleuth/cmd/common"
	"github.com/subsleuth/subsleuth/internal/config"
	daemonpkg "github.com/subsleuth/subsleuth/internal/daemon"
	"github.com/subsleuth/subsleuth/internal/reminder"
	"github.com/subsleuth/subsleuth/internal/scheduler"
	"github.com/subsleuth/subsleuth/internal/server"
	"github.com/subsleuth/subsleuth/internal/store"
	"github.com/subsleuth/subsleuth/pkg/logger"
)

// DaemonComponents holds every running part of the daemon so that startup
// and cleanup live in one place.
type DaemonComponents struct {
	Config    config.Config
	Store     *store.KVStore
	Timers    *scheduler.Scheduler
	Reminders *reminder.Service
	Notifier  *server.RPCNotifier
	RPC       *server.RPCServer
	Web       *server.WebServer
	Runner    *daemonpkg.Runner

	log    logger.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops the reminder service and releases the store. It is safe to
// call after a partial initialization.
func (c *DaemonComponents) Close() {
	c.log.Info("Shutting down daemon...")
	if c.RPC != nil {
		c.RPC.Close()
	}
	if c.cancel != nil {
		c.cancel()
	}
	if c.done != nil {
		<-c.done
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.log.Warning("daemon: closing store: %v", err)
		}
	}
	c.log.Info("Daemon stopped")
}

// Run serves until ctx is cancelled and then shuts everything down.
func (c *DaemonComponents) Run(ctx context.Context) error {
	defer c.Close()
	c.log.Info("Starting daemon on %s (store %s, config %s)", c.Config.Addr(), c.Config.Store, c.Config.ConfigDir)
	err := c.Runner.Start(ctx)
	if errors.Is(err, daemonpkg.ErrShutdownTimeout) {
		c.log.Warning("daemon: %v", err)
		return nil
	}
	return err
}

// initDaemonComponents opens the store, starts the reminder service and
// prepares the RPC server. Nothing listens until Run is called.
var initDaemonComponents = func(cfg config.Config, log logger.Logger) (*DaemonComponents, error) {
	c := &DaemonComponents{Config: cfg, log: log}

	secret, err := common.ResolveSecret(cfg)
	if err != nil {
		log.Error("RPC secret initialization failed: %v", err)
		return nil, err
	}

	opts, err := cfg.ReminderOptions()
	if err != nil {
		log.Error("Invalid reminder options: %v", err)
		return nil, err
	}
	opts.Logger = log

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.Store, err = store.Open(ctx, cfg.Store, cfg.ConfigDir)
	if err != nil {
		log.Error("Store initialization failed: %v", err)
		cancel()
		return nil, err
	}

	c.Notifier = server.NewRPCNotifier(log)
	notifier := reminder.MultiNotifier{c.Notifier, reminder.LogNotifier{Log: log}}

	var svc *reminder.Service
	c.Timers = scheduler.New(ctx, func(name string) { svc.Fire(name) },
		scheduler.WithPanicHandler(func(name string, r any, stack []byte) {
			log.Error("PANIC [%s]: %v\n%s", name, r, stack)
		}))
	svc = reminder.New(c.Store, c.Timers, notifier, opts)
	c.Reminders = svc

	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		if err := svc.Run(ctx); err != nil {
			log.Error("reminder service stopped: %v", err)
		}
	}()

	c.RPC = server.NewRPCServer(&server.RPCConfig{
		Secret:  secret,
		Version: currentBuildArgs.Version,
		Commit:  currentBuildArgs.Commit,
	}, svc)
	c.Web = server.NewWebServer(log, c.RPC, c.Notifier)

	c.Runner = daemonpkg.New(&daemonpkg.Config{
		Host:            cfg.ListenHost(),
		Port:            cfg.Port,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, &daemonpkg.Dependencies{
		Serve:        c.Web.Serve,
		ShutdownFunc: c.Web.Shutdown,
	})
	return c, nil
}
