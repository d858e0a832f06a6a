package rpcclient

import (
	"github.com/goliatone/go-rpcclient/schema"
	"github.com/goliatone/go-rpcclient/transport"
)

// Option customizes client construction.
type Option func(*Client)

// WithLogger sets the client logger. The logger is also handed to the
// transport unless its config already names one.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEngine replaces the JSON Schema engine used by the schema registry.
func WithEngine(engine schema.Engine) Option {
	return func(c *Client) {
		if engine != nil {
			c.engine = engine
		}
	}
}

// WithTransportRegistry resolves the transport kind from registry instead of
// the default registry.
func WithTransportRegistry(registry *transport.Registry) Option {
	return func(c *Client) {
		if registry != nil {
			c.transports = registry
		}
	}
}

// WithTransport uses tr as is and skips resolving the configured kind. The
// configuration must still name a kind.
func WithTransport(tr transport.Transport) Option {
	return func(c *Client) {
		if tr != nil {
			c.transport = tr
		}
	}
}

// WithMiddleware appends dispatch middleware in registration order.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Client) {
		for _, m := range mw {
			if m != nil {
				c.middleware = append(c.middleware, m)
			}
		}
	}
}

// WithValidationObserver registers a callback for rejected calls.
func WithValidationObserver(observer ValidationObserver) Option {
	return func(c *Client) {
		if observer != nil {
			c.observers = append(c.observers, observer)
		}
	}
}
