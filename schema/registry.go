package schema

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-rpcclient/catalog"
)

const (
	ErrCodeSchemaCompilation     = "SCHEMA_COMPILATION_FAILED"
	ErrCodeDuplicateSchema       = "SCHEMA_ALREADY_REGISTERED"
	ErrCodeSchemaNotFound        = "SCHEMA_NOT_FOUND"
	ErrCodeRegistryFrozen        = "REGISTRY_ALREADY_INITIALIZED"
	ErrCodeParamIndexOutOfBounds = "PARAM_INDEX_OUT_OF_RANGE"
)

// ID addresses the schema owned by one (method, param position) pair.
type ID string

// NewID derives the schema id for the param at index of method. Method and
// param names are path escaped so no two distinct pairs can collide.
func NewID(method string, index int, param string) ID {
	return ID(url.PathEscape(method) + "/" + strconv.Itoa(index) + "/" + url.PathEscape(param))
}

// Parse splits an id back into its method, index and param parts.
func (id ID) Parse() (method string, index int, param string, err error) {
	parts := strings.Split(string(id), "/")
	if len(parts) != 3 {
		return "", 0, "", fmt.Errorf("malformed schema id %q", string(id))
	}
	if method, err = url.PathUnescape(parts[0]); err != nil {
		return "", 0, "", err
	}
	if index, err = strconv.Atoi(parts[1]); err != nil {
		return "", 0, "", err
	}
	if param, err = url.PathUnescape(parts[2]); err != nil {
		return "", 0, "", err
	}
	return method, index, param, nil
}

// ParamID returns the schema id for method.Params[index].
func ParamID(method catalog.Method, index int) ID {
	return NewID(method.Name, index, method.Params[index].Name)
}

// Registry compiles one schema per method param and validates values against it.
// Registration happens once; after Freeze the registry is read only.
type Registry struct {
	mu     sync.RWMutex
	engine Engine
	ids    map[ID]struct{}
	frozen bool
}

// NewRegistry creates a registry over engine. A nil engine uses gojsonschema.
func NewRegistry(engine Engine) *Registry {
	if engine == nil {
		engine = NewGoJSONSchema()
	}
	return &Registry{
		engine: engine,
		ids:    make(map[ID]struct{}),
	}
}

// Register compiles the schema of method.Params[index] under its id.
func (r *Registry) Register(method catalog.Method, index int) error {
	if index < 0 || index >= len(method.Params) {
		return outOfRange(method, index)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("cannot register schemas after registry has been initialized", errors.CategoryConflict).
			WithTextCode(ErrCodeRegistryFrozen)
	}

	param := method.Params[index]
	id := ParamID(method, index)
	if _, exists := r.ids[id]; exists {
		return errors.New(fmt.Sprintf("schema %q already registered", id), errors.CategoryConflict).
			WithTextCode(ErrCodeDuplicateSchema)
	}

	if err := r.engine.Compile(id, param.Schema); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, fmt.Sprintf("compile schema for param %q of %q", param.Name, method.Name)).
			WithTextCode(ErrCodeSchemaCompilation).
			WithMetadata(map[string]any{
				"schema_id": string(id),
				"method":    method.Name,
				"param":     param.Name,
				"index":     index,
			})
	}

	r.ids[id] = struct{}{}
	return nil
}

// RegisterCatalog registers every param of every method in c and freezes the
// registry. The first failure aborts registration.
func (r *Registry) RegisterCatalog(c catalog.Catalog) error {
	for _, m := range c.Methods() {
		for i := range m.Params {
			if err := r.Register(m, i); err != nil {
				return err
			}
		}
	}
	r.Freeze()
	return nil
}

// Freeze rejects any further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}

// Has reports whether id was registered.
func (r *Registry) Has(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[id]
	return ok
}

// Check validates value against the schema of method.Params[index].
// Diagnostics are only returned when the value does not match.
func (r *Registry) Check(method catalog.Method, index int, value any) (bool, []Diagnostic, error) {
	if index < 0 || index >= len(method.Params) {
		return false, nil, outOfRange(method, index)
	}

	id := ParamID(method, index)
	if !r.Has(id) {
		return false, nil, errors.New(fmt.Sprintf("schema %q not registered", id), errors.CategoryBadInput).
			WithTextCode(ErrCodeSchemaNotFound)
	}
	return r.engine.Test(id, value)
}

func outOfRange(method catalog.Method, index int) error {
	return errors.New(fmt.Sprintf("method %q has no param at position %d", method.Name, index), errors.CategoryBadInput).
		WithTextCode(ErrCodeParamIndexOutOfBounds).
		WithMetadata(map[string]any{
			"method": method.Name,
			"index":  index,
		})
}
