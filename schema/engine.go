package schema

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-errors"
	gjs "github.com/juju/gojsonschema"
)

// Diagnostic is a single validator finding for a value checked against a schema.
type Diagnostic struct {
	Field       string `json:"field"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (d Diagnostic) String() string {
	if d.Field == "" {
		return d.Description
	}
	return fmt.Sprintf("%s: %s", d.Field, d.Description)
}

// Engine compiles schemas under an identifier and later tests values against them.
// Implementations must be safe for concurrent Test calls once compilation is done.
type Engine interface {
	Compile(id ID, doc any) error
	Test(id ID, value any) (bool, []Diagnostic, error)
}

// GoJSONSchema is the default Engine backed by gojsonschema.
type GoJSONSchema struct {
	mu      sync.RWMutex
	schemas map[ID]*gjs.Schema
}

var _ Engine = (*GoJSONSchema)(nil)

// NewGoJSONSchema returns an empty engine.
func NewGoJSONSchema() *GoJSONSchema {
	return &GoJSONSchema{
		schemas: make(map[ID]*gjs.Schema),
	}
}

// Compile parses doc as a JSON Schema and stores it under id.
// A nil doc compiles to the empty schema, which accepts any value.
func (e *GoJSONSchema) Compile(id ID, doc any) error {
	if doc == nil {
		doc = map[string]any{}
	}

	compiled, err := gjs.NewSchema(gjs.NewGoLoader(doc))
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.schemas[id]; exists {
		return errors.New(fmt.Sprintf("schema %q already compiled", id), errors.CategoryConflict).
			WithTextCode(ErrCodeDuplicateSchema)
	}
	e.schemas[id] = compiled
	return nil
}

// Test validates value against the schema stored under id.
func (e *GoJSONSchema) Test(id ID, value any) (bool, []Diagnostic, error) {
	e.mu.RLock()
	compiled, ok := e.schemas[id]
	e.mu.RUnlock()
	if !ok {
		return false, nil, errors.New(fmt.Sprintf("schema %q not registered", id), errors.CategoryBadInput).
			WithTextCode(ErrCodeSchemaNotFound)
	}

	result, err := compiled.Validate(gjs.NewGoLoader(value))
	if err != nil {
		// values that cannot be loaded as JSON never match
		return false, []Diagnostic{{Type: "load", Description: err.Error()}}, nil
	}
	if result.Valid() {
		return true, nil, nil
	}

	diags := make([]Diagnostic, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		diags = append(diags, Diagnostic{
			Field:       re.Field(),
			Type:        re.Type(),
			Description: re.Description(),
		})
	}
	return false, diags, nil
}
