package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultHandshakeTimeout bounds the websocket handshake when no Timeout is configured.
const DefaultHandshakeTimeout = 5 * time.Second

// WebSocket multiplexes requests over a single websocket connection.
type WebSocket struct {
	*multiplexed
	endpoint string
}

var _ Transport = (*WebSocket)(nil)

func websocketFactory(cfg Config) (Transport, error) {
	return NewWebSocket(cfg)
}

// NewWebSocket builds a websocket transport. The connection is dialed on the
// first request.
func NewWebSocket(cfg Config) (*WebSocket, error) {
	scheme := "ws"
	if cfg.Kind == "wss" {
		scheme = "wss"
	}
	endpoint, err := cfg.Endpoint(scheme)
	if err != nil {
		return nil, err
	}

	handshake := cfg.Timeout
	if handshake <= 0 {
		handshake = DefaultHandshakeTimeout
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshake,
	}
	if cfg.InsecureSkipVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	header := http.Header{}
	for k, v := range cfg.Headers {
		header.Set(k, v)
	}

	logger := cfg.logger()
	dial := func(ctx context.Context) (frameConn, error) {
		conn, _, err := dialer.DialContext(ctx, endpoint, header)
		if err != nil {
			return nil, err
		}
		return &wsConn{conn: conn, logger: logger}, nil
	}

	return &WebSocket{
		multiplexed: newMultiplexed("websocket", cfg, dial),
		endpoint:    endpoint,
	}, nil
}

// Endpoint returns the websocket URL.
func (t *WebSocket) Endpoint() string {
	return t.endpoint
}

type wsConn struct {
	conn   *websocket.Conn
	logger Logger
}

func (c *wsConn) WriteRequest(req *Request) error {
	return c.conn.WriteJSON(req)
}

// ReadResponse skips messages that are not JSON-RPC responses; each websocket
// message is framed independently so one bad message does not poison the rest.
func (c *wsConn) ReadResponse() (*Response, error) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		res, err := DecodeResponse(data)
		if err != nil {
			c.logger.Warn("malformed websocket message", "message", string(data), "error", err)
			continue
		}
		return res, nil
	}
}

func (c *wsConn) Close() error {
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}
