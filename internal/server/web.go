package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/subsleuth/subsleuth/pkg/logger"
)

const readHeaderTimeout = 10 * time.Second

// WebServer serves the JSON-RPC endpoints over HTTP and WebSocket.
type WebServer struct {
	log      logger.Logger
	rpc      *RPCServer
	notifier *RPCNotifier
	server   *http.Server
	cancel   context.CancelFunc
	mu       sync.Mutex
}

// NewWebServer wires the RPC server and the push notifier to an HTTP mux.
// A nil logger discards output.
func NewWebServer(l logger.Logger, rpc *RPCServer, notifier *RPCNotifier) *WebServer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &WebServer{log: l, rpc: rpc, notifier: notifier}
}

// Handler returns the routes:
//
//	/jsonrpc     JSON-RPC over HTTP POST (token required)
//	/jsonrpc/ws  JSON-RPC over WebSocket with reminder pushes (token required)
//	/healthz     liveness probe
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/jsonrpc", requireToken(ws.rpc.cfg.Secret, &ws.rpc.bridge))
	mux.Handle("/jsonrpc/ws", requireToken(ws.rpc.cfg.Secret, http.HandlerFunc(ws.serveWS)))
	mux.HandleFunc("/healthz", ws.healthz)
	return mux
}

func (ws *WebServer) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": ws.rpc.cfg.Version,
		"clients": ws.notifier.Count(),
	})
}

// Serve accepts connections on l until Shutdown is called.
func (ws *WebServer) Serve(l net.Listener) error {
	ctx, cancel := context.WithCancel(context.Background())
	ws.mu.Lock()
	ws.cancel = cancel
	ws.server = &http.Server{
		Handler:           ws.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	srv := ws.server
	ws.mu.Unlock()

	ws.log.Info("rpc: listening on %s", l.Addr())
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the web server. WebSocket connections are
// hijacked and invisible to http.Server, so their base context is cancelled
// first.
func (ws *WebServer) Shutdown(ctx context.Context) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.server == nil {
		return nil
	}
	ws.cancel()
	return ws.server.Shutdown(ctx)
}
