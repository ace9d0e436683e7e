// Package subcli is the Go client for the SubSleuth daemon's JSON-RPC API.
package subcli

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
)

// DefaultTimeout bounds each call made through a Client.
const DefaultTimeout = 10 * time.Second

// ErrNoSecret is returned by NewClient when no RPC secret is available.
var ErrNoSecret = errors.New("rpc secret is empty")

// Client talks to a running daemon over HTTP.
type Client struct {
	base    *url.URL
	token   string
	timeout time.Duration
	http    *http.Client
	cli     *jrpc2.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped
// to add the bearer token.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// bearerTransport adds the Authorization header to every request.
type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	return t.next.RoundTrip(r)
}

// NewClient connects to the daemon at addr ("host:port" or an http URL)
// using token for authentication. No request is made until the first call.
func NewClient(addr, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrNoSecret
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	base, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid daemon address %q: %w", addr, err)
	}
	c := &Client{
		base:    base,
		token:   token,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := &http.Client{}
	if c.http != nil {
		*hc = *c.http
	}
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = &bearerTransport{token: token, next: next}
	c.http = hc

	ch := jhttp.NewChannel(c.endpoint("http", "/jsonrpc"), &jhttp.ChannelOptions{Client: hc})
	c.cli = jrpc2.NewClient(ch, nil)
	return c, nil
}

// endpoint returns the URL of path on the daemon using scheme.
func (c *Client) endpoint(scheme, path string) string {
	u := *c.base
	switch {
	case scheme == "ws" && u.Scheme == "https":
		u.Scheme = "wss"
	case scheme == "ws":
		u.Scheme = "ws"
	}
	u.Path = path
	return u.String()
}

// Close releases the underlying jrpc2 client.
func (c *Client) Close() error {
	return c.cli.Close()
}

// ErrorCode returns the JSON-RPC error code carried by err, or 0.
func ErrorCode(err error) int {
	var e *jrpc2.Error
	if errors.As(err, &e) {
		return int(e.Code)
	}
	return 0
}
