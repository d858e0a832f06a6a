package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	ErrCodeConfiguration     = "CONFIGURATION_INVALID"
	ErrCodeUnknownKind       = "TRANSPORT_KIND_UNKNOWN"
	ErrCodeKindConflict      = "TRANSPORT_KIND_CONFLICT"
	ErrCodeTransportFailed   = "TRANSPORT_FAILED"
	ErrCodeMalformedResponse = "TRANSPORT_MALFORMED_RESPONSE"
	ErrCodeTransportClosed   = "TRANSPORT_CLOSED"
)

// Transport sends a JSON-RPC request and returns the matching response.
// A response carrying a JSON-RPC error object is returned as *RPCError.
type Transport interface {
	Request(ctx context.Context, method string, params any) (*Response, error)
	Close() error
}

// Logger is the subset of the logging contract transports use.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Config names a transport kind and its connection parameters.
type Config struct {
	// Kind selects the transport, e.g. "http", "websocket", "tcp", "stdio".
	Kind string `json:"type" yaml:"type"`
	// URL is the full endpoint. When empty it is built from Host, Port and Path.
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
	Host    string            `json:"host,omitempty" yaml:"host,omitempty"`
	Port    int               `json:"port,omitempty" yaml:"port,omitempty"`
	Path    string            `json:"path,omitempty" yaml:"path,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Timeout bounds each request. Zero means no transport level timeout.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Command, Args, Env and Dir configure the stdio transport child process.
	Command string   `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
	Env     []string `json:"env,omitempty" yaml:"env,omitempty"`
	Dir     string   `json:"dir,omitempty" yaml:"dir,omitempty"`

	InsecureSkipVerify bool `json:"insecureSkipVerify,omitempty" yaml:"insecureSkipVerify,omitempty"`

	Logger Logger `json:"-" yaml:"-"`
}

// Validate reports configuration errors that make a transport unusable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Kind) == "" {
		return errors.New("transport kind required", errors.CategoryBadInput).
			WithTextCode(ErrCodeConfiguration)
	}
	return nil
}

// Endpoint returns the configured URL, or one built from Host, Port and Path
// using scheme.
func (c Config) Endpoint(scheme string) (string, error) {
	if c.URL != "" {
		if _, err := url.Parse(c.URL); err != nil {
			return "", errors.Wrap(err, errors.CategoryBadInput, "invalid transport url").
				WithTextCode(ErrCodeConfiguration)
		}
		return c.URL, nil
	}
	if c.Host == "" {
		return "", errors.New(fmt.Sprintf("%s transport requires url or host", c.Kind), errors.CategoryBadInput).
			WithTextCode(ErrCodeConfiguration)
	}
	u := url.URL{
		Scheme: scheme,
		Host:   c.Address(),
		Path:   c.Path,
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// Address returns host:port, or just the host when no port is set.
func (c Config) Address() string {
	if c.Port == 0 {
		return c.Host
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) logger() Logger {
	if c.Logger == nil {
		return nopLogger{}
	}
	return c.Logger
}

// Factory builds a transport from its configuration.
type Factory func(cfg Config) (Transport, error)

// Registry resolves transport kinds to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the built in transports registered.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	r.factories["http"] = httpFactory
	r.factories["https"] = httpFactory
	r.factories["websocket"] = websocketFactory
	r.factories["ws"] = websocketFactory
	r.factories["wss"] = websocketFactory
	r.factories["tcp"] = tcpFactory
	r.factories["tls"] = tlsFactory
	r.factories["stdio"] = stdioFactory
	return r
}

// NewEmptyRegistry returns a registry with no transports.
func NewEmptyRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for kind. Kinds are case insensitive.
func (r *Registry) Register(kind string, factory Factory) error {
	kind = normalizeKind(kind)
	if kind == "" {
		return errors.New("transport kind required", errors.CategoryBadInput).
			WithTextCode(ErrCodeConfiguration)
	}
	if factory == nil {
		return errors.New("transport factory cannot be nil", errors.CategoryBadInput).
			WithTextCode(ErrCodeConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return errors.New(fmt.Sprintf("transport kind %q already registered", kind), errors.CategoryConflict).
			WithTextCode(ErrCodeKindConflict)
	}
	r.factories[kind] = factory
	return nil
}

// Kinds returns the registered kinds sorted alphabetically.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve validates cfg and builds the transport it names.
func (r *Registry) Resolve(cfg Config) (Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kind := normalizeKind(cfg.Kind)
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New(fmt.Sprintf("unknown transport kind %q", cfg.Kind), errors.CategoryBadInput).
			WithTextCode(ErrCodeUnknownKind).
			WithMetadata(map[string]any{"kind": cfg.Kind})
	}

	cfg.Kind = kind
	return factory(cfg)
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(kind string, factory Factory) error {
	return defaultRegistry.Register(kind, factory)
}

// Resolve builds a transport from the default registry.
func Resolve(cfg Config) (Transport, error) {
	return defaultRegistry.Resolve(cfg)
}

// DefaultRegistry returns the process wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

func failed(err error, msg string) error {
	return errors.Wrap(err, errors.CategoryExternal, msg).
		WithTextCode(ErrCodeTransportFailed)
}

func malformed(err error, msg string) error {
	if err == nil {
		return errors.New(msg, errors.CategoryExternal).
			WithTextCode(ErrCodeMalformedResponse)
	}
	return errors.Wrap(err, errors.CategoryExternal, msg).
		WithTextCode(ErrCodeMalformedResponse)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}
