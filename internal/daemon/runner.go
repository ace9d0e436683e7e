// Package daemon runs the SubSleuth RPC listener: it owns the TCP listener,
// hands it to the HTTP server and coordinates a bounded shutdown.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// Sentinel errors for the daemon runner.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running daemon.
	ErrAlreadyRunning = errors.New("daemon is already running")

	// ErrNotRunning is returned when Shutdown() is called on a stopped daemon.
	ErrNotRunning = errors.New("daemon is not running")

	// ErrShutdownTimeout is returned when shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// DefaultHost keeps the RPC endpoint on loopback.
const DefaultHost = "127.0.0.1"

// Config holds the configuration for the daemon runner.
type Config struct {
	// Host is the interface to bind. Empty means DefaultHost.
	Host string

	// Port is the TCP port. Use 0 for an ephemeral port.
	Port int

	// ShutdownTimeout bounds ShutdownFunc. A zero value means no timeout.
	ShutdownTimeout time.Duration
}

// Dependencies holds the external dependencies for the daemon runner.
type Dependencies struct {
	// ListenerFactory creates network listeners.
	// If nil, net.Listen is used.
	ListenerFactory func(network, address string) (net.Listener, error)

	// Serve handles connections on the listener until ShutdownFunc stops it.
	// If nil, the listener is held open but nothing is served.
	Serve func(l net.Listener) error

	// ShutdownFunc is called once when the daemon stops.
	ShutdownFunc func(ctx context.Context) error
}

// Runner manages the daemon lifecycle.
type Runner struct {
	config   *Config
	deps     *Dependencies
	running  bool
	mu       sync.Mutex
	cancel   context.CancelFunc
	listener net.Listener
	done     chan struct{}
	stopErr  error
}

// New creates a new daemon runner. A nil config listens on DefaultHost with
// an ephemeral port.
func New(config *Config, deps *Dependencies) *Runner {
	if config == nil {
		config = &Config{}
	}
	if config.Host == "" {
		config.Host = DefaultHost
	}
	if deps == nil {
		deps = &Dependencies{}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}
	return &Runner{
		config: config,
		deps:   deps,
	}
}

// Config returns the runner's configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// ListenAddress formats host and port for net.Listen. Port 0 asks for an
// ephemeral port.
func ListenAddress(host string, port int) string {
	if port < 0 {
		port = 0
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Start listens, serves, and blocks until ctx is cancelled, Shutdown is
// called, or Serve fails. The listener exists before IsRunning reports true.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}

	addr := ListenAddress(r.config.Host, r.config.Port)
	listener, err := r.deps.ListenerFactory("tcp", addr)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.listener = listener
	r.done = make(chan struct{})
	r.stopErr = nil
	r.running = true
	done := r.done
	r.mu.Unlock()

	serveErr := make(chan error, 1)
	if r.deps.Serve != nil {
		go func() { serveErr <- r.deps.Serve(listener) }()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		if runErr != nil {
			runErr = fmt.Errorf("serve: %w", runErr)
		}
	}

	stopErr := r.stop()
	close(done)
	if runErr != nil {
		return runErr
	}
	return stopErr
}

// Addr returns the bound address while running, or nil.
func (r *Runner) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// stop runs the shutdown hook and releases the listener.
func (r *Runner) stop() error {
	err := r.executeShutdownFunc()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.stopErr = err
	r.cancel()
	if r.listener != nil {
		_ = r.listener.Close()
		r.listener = nil
	}
	return err
}

// executeShutdownFunc runs the shutdown hook, bounded by ShutdownTimeout
// when set.
func (r *Runner) executeShutdownFunc() error {
	if r.deps.ShutdownFunc == nil {
		return nil
	}
	if r.config.ShutdownTimeout <= 0 {
		return r.deps.ShutdownFunc(context.Background())
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- r.deps.ShutdownFunc(ctx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrShutdownTimeout
		}
		return err
	case <-ctx.Done():
		return ErrShutdownTimeout
	}
}

// Shutdown stops a running daemon and waits for Start to return.
func (r *Runner) Shutdown() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopErr
}

// IsRunning returns true if the daemon is currently running.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
