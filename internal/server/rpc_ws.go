package server

import (
	"context"
	"net/http"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
)

// wsChannel adapts a coder/websocket.Conn to the jrpc2 Channel interface.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

// Send writes a JSON-RPC message to the WebSocket connection.
func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

// Recv reads a JSON-RPC message from the WebSocket connection.
func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

// Close shuts down the WebSocket connection with a normal closure status.
func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}

// serveWS upgrades the request and serves the RPC methods over it until the
// peer goes away. Each connection is registered for reminder pushes.
func (ws *WebServer) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, &cws.AcceptOptions{
		OriginPatterns: ws.rpc.cfg.OriginPatterns,
	})
	if err != nil {
		ws.log.Warning("rpc: websocket accept failed: %v", err)
		return
	}

	ch := &wsChannel{conn: conn, ctx: r.Context()}
	srv := jrpc2.NewServer(ws.rpc.methods, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(ch)
	ws.notifier.Register(srv)
	defer ws.notifier.Unregister(srv)

	ws.log.Debug("rpc: websocket client %s connected", r.RemoteAddr)
	if err := srv.Wait(); err != nil {
		ws.log.Debug("rpc: websocket client %s gone: %v", r.RemoteAddr, err)
	}
}
