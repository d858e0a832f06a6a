package rpcclient

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-rpcclient/catalog"
)

// InvokeRequest carries a validated call through middleware. Params is
// already shaped for the wire: []any for by-position methods and
// map[string]any for by-name methods.
type InvokeRequest struct {
	Method     string
	Descriptor catalog.Method
	Params     any
}

// InvokeHandler executes one dispatch step in a middleware chain.
type InvokeHandler func(context.Context, InvokeRequest) (json.RawMessage, error)

// Middleware wraps dispatch with cross-cutting behavior. It only sees calls
// that passed validation.
type Middleware func(next InvokeHandler) InvokeHandler

func applyMiddleware(middleware []Middleware, invoke InvokeHandler) InvokeHandler {
	handler := invoke
	for i := len(middleware) - 1; i >= 0; i-- {
		current := middleware[i]
		if current == nil {
			continue
		}
		handler = current(handler)
	}
	return handler
}

// ValidationObserver is notified of every rejected call before the error is
// returned to the caller.
type ValidationObserver func(method string, errs ValidationErrors)
