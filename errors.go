package rpcclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-rpcclient/schema"
	"github.com/goliatone/go-rpcclient/transport"
)

const (
	ErrCodeValidation    = "VALIDATION_FAILED"
	ErrCodeUnknownMethod = "UNKNOWN_METHOD"

	// Construction failures keep the codes of the package that raised them.
	ErrCodeConfiguration     = transport.ErrCodeConfiguration
	ErrCodeUnknownTransport  = transport.ErrCodeUnknownKind
	ErrCodeSchemaCompilation = schema.ErrCodeSchemaCompilation
)

// ErrValidation is a sentinel error used to mark validation failures.
// A rejected call can be detected with errors.Is(err, ErrValidation).
var ErrValidation = errors.New("validation error", errors.CategoryValidation).
	WithTextCode(ErrCodeValidation)

// ValidationError describes one argument that failed its param schema.
type ValidationError struct {
	Method string
	// Index is the argument position.
	Index int
	// Param is the declared param name, empty for unexpected arguments.
	Param  string
	Schema any
	Value  any
	// Missing is set when a required argument was not supplied.
	Missing bool
	// Unexpected is set for arguments past the declared params.
	Unexpected bool
	Message    string
	Causes     []schema.Diagnostic
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors is the ordered batch of failures for a single call.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = ve.Message
	}
	return fmt.Sprintf("invalid params for %q: %s", e[0].Method, strings.Join(parts, "; "))
}

// Is matches ErrValidation.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Positions returns the argument index of every failure in order.
func (e ValidationErrors) Positions() []int {
	out := make([]int, len(e))
	for i, ve := range e {
		out[i] = ve.Index
	}
	return out
}

// FieldErrors maps the batch onto go-errors field errors, keyed by param name
// or position.
func (e ValidationErrors) FieldErrors() errors.ValidationErrors {
	out := make(errors.ValidationErrors, 0, len(e))
	for _, ve := range e {
		field := ve.Param
		if field == "" {
			field = fmt.Sprintf("params[%d]", ve.Index)
		}
		out = append(out, errors.FieldError{
			Field:   field,
			Message: ve.Message,
			Value:   ve.Value,
		})
	}
	return out
}

// AsError converts the batch into a go-errors validation error carrying the
// VALIDATION_FAILED text code.
func (e ValidationErrors) AsError() *errors.Error {
	method := ""
	if len(e) > 0 {
		method = e[0].Method
	}
	return errors.NewValidation(fmt.Sprintf("invalid params for %q", method), e.FieldErrors()...).
		WithTextCode(ErrCodeValidation).
		WithMetadata(map[string]any{
			"method":    method,
			"positions": e.Positions(),
		})
}

func newUnknownMethod(method string) error {
	return errors.New(fmt.Sprintf("unknown method %q", method), errors.CategoryBadInput).
		WithTextCode(ErrCodeUnknownMethod).
		WithMetadata(map[string]any{"method": method})
}

func mismatchMessage(index int, schemaDoc, value any) string {
	return fmt.Sprintf("Expected param in position %d to match the json schema: %s. The function received instead %s.",
		index, render(schemaDoc), render(value))
}

func missingMessage(index int, param string, schemaDoc any) string {
	return fmt.Sprintf("Expected required param %q in position %d to match the json schema: %s. The function received nothing.",
		param, index, render(schemaDoc))
}

func unexpectedMessage(index, declared int, value any) string {
	return fmt.Sprintf("Unexpected param in position %d: the method declares %d params. The function received %s.",
		index, declared, render(value))
}

func render(v any) string {
	if v == nil {
		return "null"
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
