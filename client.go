package rpcclient

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/goliatone/go-rpcclient/catalog"
	"github.com/goliatone/go-rpcclient/schema"
	"github.com/goliatone/go-rpcclient/transport"
)

// Client validates every call against the param schemas of its catalog and
// forwards valid calls to a JSON-RPC transport. A Client is safe for
// concurrent use; it holds no per-call state.
type Client struct {
	catalog    catalog.Catalog
	registry   *schema.Registry
	engine     schema.Engine
	transports *transport.Registry
	transport  transport.Transport
	bindings   map[string]*binding
	middleware []Middleware
	observers  []ValidationObserver
	logger     Logger
}

// MethodFunc is a callable bound to one catalog method.
type MethodFunc func(ctx context.Context, args ...any) (json.RawMessage, error)

// binding pairs the validate-and-shape step of a method with its dispatch
// chain. Bindings are built once by New.
type binding struct {
	method catalog.Method
	invoke InvokeHandler
}

// New builds a client for methods over the transport named by cfg.
//
// Construction fails when cfg names no transport kind, when the kind is not
// registered, or when any param schema fails to compile. No client is
// returned in those cases.
func New(methods catalog.Catalog, cfg transport.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		catalog:    methods,
		transports: transport.DefaultRegistry(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = normalizeLogger(c.logger)

	c.registry = schema.NewRegistry(c.engine)
	if err := c.registry.RegisterCatalog(methods); err != nil {
		return nil, err
	}

	if c.transport == nil {
		if cfg.Logger == nil {
			cfg.Logger = withLoggerFields(c.logger, map[string]any{"transport": strings.ToLower(cfg.Kind)})
		}
		tr, err := c.transports.Resolve(cfg)
		if err != nil {
			return nil, err
		}
		c.transport = tr
	}

	c.bindings = make(map[string]*binding, methods.Len())
	for _, m := range methods.Methods() {
		c.bindings[m.Name] = &binding{
			method: m,
			invoke: applyMiddleware(c.middleware, c.dispatch),
		}
	}

	c.logger.Debug("rpc client initialized",
		"transport", cfg.Kind,
		"methods", methods.Len(),
		"schemas", c.registry.Len(),
	)
	return c, nil
}

// Request validates args against method's params and, when they all pass,
// sends the call and returns the raw result member of the response.
//
// A call with invalid arguments fails with ValidationErrors listing every
// offending position and never reaches the transport. Transport failures
// are returned unchanged.
func (c *Client) Request(ctx context.Context, method string, args ...any) (json.RawMessage, error) {
	b, ok := c.bindings[method]
	if !ok {
		return nil, newUnknownMethod(method)
	}
	return c.call(ctx, b, args)
}

// Method returns a callable bound to name.
func (c *Client) Method(name string) (MethodFunc, error) {
	b, ok := c.bindings[name]
	if !ok {
		return nil, newUnknownMethod(name)
	}
	return func(ctx context.Context, args ...any) (json.RawMessage, error) {
		return c.call(ctx, b, args)
	}, nil
}

// Validate runs the validation of Request without dispatching and returns
// the params as they would be sent on the wire.
func (c *Client) Validate(method string, args ...any) (any, error) {
	b, ok := c.bindings[method]
	if !ok {
		return nil, newUnknownMethod(method)
	}
	params, errs := c.prepare(b.method, args)
	if len(errs) > 0 {
		return nil, errs
	}
	return params, nil
}

// Methods returns the catalog methods sorted by name.
func (c *Client) Methods() []catalog.Method {
	out := c.catalog.Methods()
	slices.SortFunc(out, func(a, b catalog.Method) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Describe returns the descriptor of name.
func (c *Client) Describe(name string) (catalog.Method, bool) {
	return c.catalog.Lookup(name)
}

// Transport returns the transport calls are sent over.
func (c *Client) Transport() transport.Transport {
	return c.transport
}

// Close releases the transport.
func (c *Client) Close() error {
	if c.transport == nil {
		return nil
	}
	return c.transport.Close()
}

func (c *Client) call(ctx context.Context, b *binding, args []any) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	params, errs := c.prepare(b.method, args)
	if len(errs) > 0 {
		for _, observe := range c.observers {
			observe(b.method.Name, errs)
		}
		return nil, errs
	}

	return b.invoke(ctx, InvokeRequest{
		Method:     b.method.Name,
		Descriptor: b.method,
		Params:     params,
	})
}

func (c *Client) dispatch(ctx context.Context, req InvokeRequest) (json.RawMessage, error) {
	res, err := c.transport.Request(ctx, req.Method, req.Params)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

// prepare checks every argument position and shapes the params. It never
// stops at the first failure.
func (c *Client) prepare(m catalog.Method, args []any) (any, ValidationErrors) {
	var errs ValidationErrors

	for i, p := range m.Params {
		if i >= len(args) {
			if p.Required {
				errs = append(errs, ValidationError{
					Method:  m.Name,
					Index:   i,
					Param:   p.Name,
					Schema:  p.Schema,
					Missing: true,
					Message: missingMessage(i, p.Name, p.Schema),
				})
			}
			continue
		}

		ok, diagnostics, err := c.registry.Check(m, i, args[i])
		if err != nil {
			diagnostics = append(diagnostics, schema.Diagnostic{
				Field:       "(root)",
				Type:        "check",
				Description: err.Error(),
			})
		}
		if !ok {
			errs = append(errs, ValidationError{
				Method:  m.Name,
				Index:   i,
				Param:   p.Name,
				Schema:  p.Schema,
				Value:   args[i],
				Message: mismatchMessage(i, p.Schema, args[i]),
				Causes:  diagnostics,
			})
		}
	}

	for i := len(m.Params); i < len(args); i++ {
		errs = append(errs, ValidationError{
			Method:     m.Name,
			Index:      i,
			Value:      args[i],
			Unexpected: true,
			Message:    unexpectedMessage(i, len(m.Params), args[i]),
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return shape(m, args), nil
}

// shape builds the wire params: the supplied values in order for by-position
// methods, or keyed by declared param name for by-name methods.
func shape(m catalog.Method, args []any) any {
	if m.Structure() == catalog.ByName {
		out := make(map[string]any, len(args))
		for i, v := range args {
			out[m.Params[i].Name] = v
		}
		return out
	}
	out := make([]any, len(args))
	copy(out, args)
	return out
}
