package transport

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

// frameConn exchanges whole JSON-RPC envelopes over a connection.
type frameConn interface {
	WriteRequest(req *Request) error
	ReadResponse() (*Response, error)
	Close() error
}

type dialFunc func(ctx context.Context) (frameConn, error)

type callResult struct {
	res *Response
	err error
}

// multiplexed shares one lazily dialed connection between concurrent calls
// and routes responses back to their caller by request id. A broken
// connection fails every pending call and is redialed on the next request.
type multiplexed struct {
	name    string
	dial    dialFunc
	timeout time.Duration
	logger  Logger

	mu      sync.Mutex
	conn    frameConn
	dialing chan struct{}
	pending map[string]chan callResult
	closed  bool

	writeMu sync.Mutex
}

func newMultiplexed(name string, cfg Config, dial dialFunc) *multiplexed {
	return &multiplexed{
		name:    name,
		dial:    dial,
		timeout: cfg.Timeout,
		logger:  cfg.logger(),
		pending: make(map[string]chan callResult),
	}
}

func (m *multiplexed) Request(ctx context.Context, method string, params any) (*Response, error) {
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	req := NewRequest(method, params)
	conn, sink, err := m.register(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	defer m.unregister(req.ID)

	m.writeMu.Lock()
	err = conn.WriteRequest(req)
	m.writeMu.Unlock()
	if err != nil {
		m.fail(conn, err)
		return nil, failed(err, m.name+" write request")
	}

	select {
	case <-ctx.Done():
		return nil, failed(ctx.Err(), m.name+" awaiting response")
	case r := <-sink:
		if r.err != nil {
			return nil, r.err
		}
		return finish(r.res)
	}
}

// Pending returns the number of calls awaiting a response.
func (m *multiplexed) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *multiplexed) Close() error {
	m.mu.Lock()
	m.closed = true
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return nil
	}
	m.fail(conn, m.closedError())
	return nil
}

// register returns the current connection and a sink for the response to id,
// dialing when there is no connection. The dial runs outside m.mu; callers
// arriving meanwhile wait for it under their own context.
func (m *multiplexed) register(ctx context.Context, id string) (frameConn, chan callResult, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, failed(err, m.name+" awaiting connection")
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, nil, m.closedError()
		}
		if m.conn != nil {
			conn, sink := m.conn, m.addPending(id)
			m.mu.Unlock()
			return conn, sink, nil
		}
		if wait := m.dialing; wait != nil {
			m.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, nil, failed(ctx.Err(), m.name+" awaiting connection")
			case <-wait:
			}
			continue
		}
		done := make(chan struct{})
		m.dialing = done
		m.mu.Unlock()

		conn, err := m.dial(ctx)

		m.mu.Lock()
		m.dialing = nil
		close(done)
		if err != nil {
			m.mu.Unlock()
			return nil, nil, failed(err, m.name+" dial")
		}
		if m.closed {
			m.mu.Unlock()
			_ = conn.Close()
			return nil, nil, m.closedError()
		}
		m.conn = conn
		sink := m.addPending(id)
		m.mu.Unlock()

		m.logger.Debug("transport connected", "transport", m.name)
		go m.readLoop(conn)
		return conn, sink, nil
	}
}

// addPending must be called with m.mu held.
func (m *multiplexed) addPending(id string) chan callResult {
	sink := make(chan callResult, 1)
	m.pending[id] = sink
	return sink
}

func (m *multiplexed) closedError() error {
	return errors.New(m.name+" transport closed", errors.CategoryExternal).
		WithTextCode(ErrCodeTransportClosed)
}

func (m *multiplexed) unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, id)
}

func (m *multiplexed) readLoop(conn frameConn) {
	for {
		res, err := conn.ReadResponse()
		if err != nil {
			m.fail(conn, err)
			return
		}

		id := res.IDString()
		m.mu.Lock()
		sink, ok := m.pending[id]
		delete(m.pending, id)
		m.mu.Unlock()

		if !ok {
			m.logger.Warn("dropping response for unknown request", "transport", m.name, "id", id)
			continue
		}
		sink <- callResult{res: res}
	}
}

// fail tears down conn if it is still current and fails its pending calls.
func (m *multiplexed) fail(conn frameConn, cause error) {
	m.mu.Lock()
	if m.conn != conn {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	pending := m.pending
	m.pending = make(map[string]chan callResult)
	m.mu.Unlock()

	_ = conn.Close()

	var err error
	if cause == io.EOF {
		err = failed(cause, m.name+" connection closed by peer")
	} else if _, ok := cause.(*errors.Error); ok {
		err = cause
	} else {
		err = failed(cause, m.name+" connection lost")
	}

	m.logger.Debug("transport disconnected", "transport", m.name, "pending", len(pending), "error", cause)
	for _, sink := range pending {
		sink <- callResult{err: err}
	}
}

// streamConn frames envelopes as a stream of JSON values, one per line.
type streamConn struct {
	rwc    io.ReadWriteCloser
	enc    *json.Encoder
	dec    *json.Decoder
	logger Logger
}

func newStreamConn(rwc io.ReadWriteCloser, logger Logger) *streamConn {
	if logger == nil {
		logger = nopLogger{}
	}
	return &streamConn{
		rwc:    rwc,
		enc:    json.NewEncoder(rwc),
		dec:    json.NewDecoder(rwc),
		logger: logger,
	}
}

func (c *streamConn) WriteRequest(req *Request) error {
	return c.enc.Encode(req)
}

// ReadResponse skips JSON values that are not responses, such as server
// notifications. Only a broken stream or invalid JSON ends the connection.
func (c *streamConn) ReadResponse() (*Response, error) {
	for {
		var raw json.RawMessage
		if err := c.dec.Decode(&raw); err != nil {
			return nil, err
		}
		res, err := DecodeResponse(raw)
		if err != nil {
			c.logger.Warn("malformed stream message", "message", string(raw), "error", err)
			continue
		}
		return res, nil
	}
}

func (c *streamConn) Close() error {
	return c.rwc.Close()
}
