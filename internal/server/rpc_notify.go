package server

import (
	"context"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/subsleuth/subsleuth/common"
	"github.com/subsleuth/subsleuth/internal/reminder"
	"github.com/subsleuth/subsleuth/pkg/logger"
)

// RPCNotifier maintains the set of connected WebSocket jrpc2 servers and
// pushes reminder notifications to all of them.
type RPCNotifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	log     logger.Logger
}

var _ reminder.Notifier = (*RPCNotifier)(nil)

// NewRPCNotifier creates a new notifier. A nil logger discards output.
func NewRPCNotifier(l logger.Logger) *RPCNotifier {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &RPCNotifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     l,
	}
}

// Register adds a server to the broadcast set.
func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

// Unregister removes a server from the broadcast set.
func (n *RPCNotifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Broadcast sends a push notification to all registered servers and returns
// how many accepted it. Servers that fail are unregistered.
func (n *RPCNotifier) Broadcast(ctx context.Context, method string, params any) int {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		if err := srv.Notify(ctx, method, params); err != nil {
			n.log.Warning("rpc: push %s failed: %v", method, err)
			failed = append(failed, srv)
		}
	}

	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
	return len(servers) - len(failed)
}

// Notify pushes n as a reminder.notify call. Having no listeners is not an
// error; the notification is still logged by the daemon.
func (n *RPCNotifier) Notify(ctx context.Context, note *common.Notification) error {
	delivered := n.Broadcast(ctx, common.NotifyMethod, note)
	n.log.Debug("rpc: %s delivered to %d client(s)", note.ID, delivered)
	return nil
}

// Count returns the number of registered servers.
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}
