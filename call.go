package rpcclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-errors"
)

const ErrCodeResultDecode = "RESULT_DECODE_FAILED"

// Requester is anything that can issue a validated call by name. *Client
// implements it.
type Requester interface {
	Request(ctx context.Context, method string, args ...any) (json.RawMessage, error)
}

var _ Requester = (*Client)(nil)

// Call issues method through r and decodes the result into T. A null
// result leaves T at its zero value.
func Call[T any](ctx context.Context, r Requester, method string, args ...any) (T, error) {
	var out T
	raw, err := r.Request(ctx, method, args...)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, errors.Wrap(err, errors.CategoryExternal, fmt.Sprintf("decode result of %q", method)).
			WithTextCode(ErrCodeResultDecode).
			WithMetadata(map[string]any{"method": method})
	}
	return out, nil
}
