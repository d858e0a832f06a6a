package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

//go:embed ethereum.json
var ethereumJSON []byte

var ethereum = sync.OnceValues(func() (Catalog, error) {
	return Parse(ethereumJSON)
})

// Ethereum returns the bundled catalog of eth_* methods.
func Ethereum() Catalog {
	c, err := ethereum()
	if err != nil {
		panic(fmt.Sprintf("catalog: bundled ethereum catalog is invalid: %v", err))
	}
	return c
}

// Document is the subset of an OpenRPC document this package reads.
type Document struct {
	OpenRPC string   `json:"openrpc,omitempty" yaml:"openrpc,omitempty"`
	Methods []Method `json:"methods" yaml:"methods"`
}

// Parse reads a catalog from JSON or YAML. The input may be a bare array of
// methods or an object holding a "methods" array (an OpenRPC document).
func Parse(data []byte) (Catalog, error) {
	var probe any
	// yaml can handle JSON too, so a single decoder serves both formats
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return Catalog{}, errors.Wrap(err, errors.CategoryBadInput, "decode catalog").
			WithTextCode(ErrCodeInvalidCatalog)
	}

	switch probe.(type) {
	case []any:
		var methods []Method
		if err := yaml.Unmarshal(data, &methods); err != nil {
			return Catalog{}, errors.Wrap(err, errors.CategoryBadInput, "decode catalog methods").
				WithTextCode(ErrCodeInvalidCatalog)
		}
		return New(methods...)
	case map[string]any:
		var doc Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Catalog{}, errors.Wrap(err, errors.CategoryBadInput, "decode catalog document").
				WithTextCode(ErrCodeInvalidCatalog)
		}
		if doc.Methods == nil {
			return Catalog{}, errors.New("catalog document must contain a methods array", errors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidCatalog)
		}
		return New(doc.Methods...)
	default:
		return Catalog{}, errors.New("catalog must be an array of methods or an object with methods", errors.CategoryBadInput).
			WithTextCode(ErrCodeInvalidCatalog)
	}
}

// Load reads and parses the catalog stored at path.
func Load(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, errors.Wrap(err, errors.CategoryBadInput, "read catalog").
			WithTextCode(ErrCodeInvalidCatalog).
			WithMetadata(map[string]any{"path": path})
	}
	return Parse(raw)
}
