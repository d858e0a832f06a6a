package transport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Version is the JSON-RPC protocol version sent on every request.
const Version = "2.0"

// Request is the outbound JSON-RPC envelope. Params is either an ordered
// array or a name keyed object.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewRequest builds a request with a fresh id.
func NewRequest(method string, params any) *Request {
	return &Request{
		JSONRPC: Version,
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}
}

// Response is the inbound JSON-RPC envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// IDString returns the response id as text. String ids are unquoted and
// numeric ids keep their literal form.
func (r *Response) IDString() string {
	if r == nil || len(r.ID) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.ID, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(r.ID))
}

// Err returns the embedded JSON-RPC error, if any.
func (r *Response) Err() error {
	if r == nil || r.Error == nil {
		return nil
	}
	return r.Error
}

// RPCError is a JSON-RPC error object returned by the remote side.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("jsonrpc error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// DecodeResponse parses a JSON-RPC response. A response must carry either a
// result member (possibly null) or an error object.
func DecodeResponse(data []byte) (*Response, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, malformed(err, "decode jsonrpc response")
	}

	res := &Response{
		ID: fields["id"],
	}
	if raw, ok := fields["jsonrpc"]; ok {
		if err := json.Unmarshal(raw, &res.JSONRPC); err != nil {
			return nil, malformed(err, "decode jsonrpc version")
		}
	}

	rawErr, hasErr := fields["error"]
	if hasErr && !isNull(rawErr) {
		res.Error = &RPCError{}
		if err := json.Unmarshal(rawErr, res.Error); err != nil {
			return nil, malformed(err, "decode jsonrpc error object")
		}
		return res, nil
	}

	result, hasResult := fields["result"]
	if !hasResult {
		return nil, malformed(nil, "jsonrpc response has neither result nor error")
	}
	res.Result = result
	return res, nil
}

// finish turns a decoded response into the Transport.Request return values.
func finish(res *Response) (*Response, error) {
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
