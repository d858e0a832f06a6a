package catalog

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
)

// ParamStructure declares how validated arguments are shaped on the wire.
type ParamStructure string

const (
	// ByPosition sends params as an ordered array. This is the default.
	ByPosition ParamStructure = "by-position"
	// ByName sends params as an object keyed by declared param name.
	ByName ParamStructure = "by-name"
	// Either is accepted from OpenRPC documents and shaped as ByPosition.
	Either ParamStructure = "either"
)

const ErrCodeInvalidCatalog = "CATALOG_INVALID"

// Param describes one positional parameter of a remote method.
// Its index inside Method.Params is significant.
type Param struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	// Schema is a decoded JSON Schema document. A nil schema accepts any value.
	Schema any `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Result describes the value a method resolves with. It is never validated.
type Result struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      any    `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Method describes a single remote procedure.
type Method struct {
	Name           string         `json:"name" yaml:"name"`
	Summary        string         `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description    string         `json:"description,omitempty" yaml:"description,omitempty"`
	Tags           []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Deprecated     bool           `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Params         []Param        `json:"params" yaml:"params"`
	Result         Result         `json:"result" yaml:"result"`
	ParamStructure ParamStructure `json:"paramStructure,omitempty" yaml:"paramStructure,omitempty"`
}

// Structure returns the effective param structure, defaulting to ByPosition.
func (m Method) Structure() ParamStructure {
	if m.ParamStructure == ByName {
		return ByName
	}
	return ByPosition
}

// RequiredParams returns the number of params declared as required.
func (m Method) RequiredParams() int {
	n := 0
	for _, p := range m.Params {
		if p.Required {
			n++
		}
	}
	return n
}

func (m Method) clone() Method {
	m.Tags = cloneStrings(m.Tags)
	m.Params = slices.Clone(m.Params)
	return m
}

// Catalog is an immutable, name indexed set of method descriptors.
// Declaration order is preserved.
type Catalog struct {
	methods []Method
	index   map[string]int
}

// New validates the given methods and builds a catalog from them.
func New(methods ...Method) (Catalog, error) {
	c := Catalog{
		methods: make([]Method, 0, len(methods)),
		index:   make(map[string]int, len(methods)),
	}

	var errs []error
	for i, m := range methods {
		if err := validateMethod(i, m); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, exists := c.index[m.Name]; exists {
			errs = append(errs, invalid(fmt.Sprintf("method %q declared more than once", m.Name), map[string]any{
				"method": m.Name,
				"index":  i,
			}))
			continue
		}
		c.index[m.Name] = len(c.methods)
		c.methods = append(c.methods, m.clone())
	}

	switch len(errs) {
	case 0:
		return c, nil
	case 1:
		return Catalog{}, errs[0]
	default:
		return Catalog{}, errors.Join(errs...)
	}
}

// Len returns the number of methods in the catalog.
func (c Catalog) Len() int {
	return len(c.methods)
}

// Lookup returns the method declared under name.
func (c Catalog) Lookup(name string) (Method, bool) {
	i, ok := c.index[name]
	if !ok {
		return Method{}, false
	}
	return c.methods[i].clone(), true
}

// Methods returns every method in declaration order.
func (c Catalog) Methods() []Method {
	out := make([]Method, 0, len(c.methods))
	for _, m := range c.methods {
		out = append(out, m.clone())
	}
	return out
}

// Names returns the method names sorted alphabetically.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.methods))
	for _, m := range c.methods {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

func validateMethod(i int, m Method) error {
	if strings.TrimSpace(m.Name) == "" {
		return invalid("method name required", map[string]any{"index": i})
	}

	switch m.ParamStructure {
	case "", ByPosition, ByName, Either:
	default:
		return invalid(fmt.Sprintf("method %q has unknown param structure %q", m.Name, m.ParamStructure), map[string]any{
			"method":         m.Name,
			"paramStructure": string(m.ParamStructure),
		})
	}

	seen := make(map[string]struct{}, len(m.Params))
	for pi, p := range m.Params {
		if strings.TrimSpace(p.Name) == "" {
			return invalid(fmt.Sprintf("method %q param %d has no name", m.Name, pi), map[string]any{
				"method": m.Name,
				"param":  pi,
			})
		}
		if _, dup := seen[p.Name]; dup {
			return invalid(fmt.Sprintf("method %q declares param %q more than once", m.Name, p.Name), map[string]any{
				"method": m.Name,
				"param":  p.Name,
			})
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

func invalid(msg string, meta map[string]any) error {
	return errors.New(msg, errors.CategoryBadInput).
		WithTextCode(ErrCodeInvalidCatalog).
		WithMetadata(meta)
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return slices.Clone(values)
}
