package subcli

import (
	"context"
	"fmt"
	"net/http"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
	"github.com/subsleuth/subsleuth/common"
)

// Listener receives reminder notifications pushed by the daemon.
type Listener struct {
	conn *cws.Conn
	cli  *jrpc2.Client
	c    chan common.Notification
}

// wsChannel adapts a client-side WebSocket to jrpc2.Channel.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}

// Listen opens the push channel. Notifications are delivered on C until ctx
// is cancelled or Close is called. Slow readers drop notifications rather
// than stall the connection.
func (c *Client) Listen(ctx context.Context) (*Listener, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	conn, _, err := cws.Dial(dialCtx, c.endpoint("ws", "/jsonrpc/ws"), &cws.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + c.token}},
	})
	if err != nil {
		return nil, fmt.Errorf("connect push channel: %w", err)
	}

	l := &Listener{conn: conn, c: make(chan common.Notification, 16)}
	l.cli = jrpc2.NewClient(&wsChannel{conn: conn, ctx: ctx}, &jrpc2.ClientOptions{
		OnNotify: l.onNotify,
	})
	return l, nil
}

func (l *Listener) onNotify(req *jrpc2.Request) {
	if req.Method() != common.NotifyMethod {
		return
	}
	var n common.Notification
	if err := req.UnmarshalParams(&n); err != nil {
		return
	}
	select {
	case l.c <- n:
	default:
	}
}

// C returns the notification stream.
func (l *Listener) C() <-chan common.Notification {
	return l.c
}

// Close ends the push channel.
func (l *Listener) Close() error {
	return l.cli.Close()
}
