package rpcclient

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/goliatone/go-errors"
)

const ErrCodePanic = "PANIC_RECOVERED"

// Recover returns a middleware that turns a panic raised further down the
// chain, by another middleware or by the transport, into an error. The panic
// is logged together with a trimmed stack trace.
func Recover(logger Logger) Middleware {
	logger = normalizeLogger(logger)
	return func(next InvokeHandler) InvokeHandler {
		return func(ctx context.Context, req InvokeRequest) (res json.RawMessage, err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				stack := make([]byte, 8096)
				stack = cleanStackTrace(stack[:runtime.Stack(stack, false)])

				logger.Error("recovered from panic",
					"method", req.Method,
					"panic", fmt.Sprint(r),
					"type", fmt.Sprintf("%T", r),
					"stack", string(stack),
				)
				res = nil
				err = errors.New(fmt.Sprintf("panic while calling %s: %v", req.Method, r), errors.CategoryHandler).
					WithTextCode(ErrCodePanic).
					WithMetadata(map[string]any{"method": req.Method})
			}()
			return next(ctx, req)
		}
	}
}

// cleanStackTrace drops the frames up to and including the runtime panic call.
func cleanStackTrace(stack []byte) []byte {
	lines := strings.Split(string(stack), "\n")

	panicLine := -1
	for i, line := range lines {
		if strings.Contains(line, "panic(") {
			panicLine = i
			break
		}
	}

	// panic({0x101fc1100?, 0x14000817248?})
	//         ./go/src/runtime/panic.go:785 +0x124
	if panicLine >= 0 && panicLine+2 < len(lines) {
		lines = lines[panicLine+2:]
	}
	return []byte(strings.Join(lines, "\n"))
}
