package transport

import (
	"encoding/json"
	"fmt"
	"sync"
)

type wireRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// answer is the server side used by the transport tests: "echo" returns its
// params, "fail" returns a JSON-RPC error and "nil" returns a null result.
func answer(req wireRequest) map[string]any {
	out := map[string]any{"jsonrpc": Version, "id": req.ID}
	switch req.Method {
	case "fail":
		out["error"] = map[string]any{"code": -32000, "message": "boom", "data": req.Method}
	case "nil":
		out["result"] = nil
	default:
		if len(req.Params) == 0 {
			out["result"] = nil
		} else {
			out["result"] = req.Params
		}
	}
	return out
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

func (l *recordingLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprint(l.entries)
}
