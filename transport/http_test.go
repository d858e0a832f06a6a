package transport

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTPServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func jsonrpcHandler(t *testing.T, seen chan<- *http.Request) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if seen != nil {
			seen <- r
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(answer(req))
	}
}

func TestHTTPRequestReturnsResult(t *testing.T) {
	seen := make(chan *http.Request, 1)
	srv := newHTTPServer(t, jsonrpcHandler(t, seen))

	tr, err := NewHTTP(Config{
		Kind:    "http",
		URL:     srv.URL,
		Headers: map[string]string{"X-Api-Key": "secret"},
	})
	require.NoError(t, err)
	defer tr.Close()

	res, err := tr.Request(context.Background(), "echo", []any{"0xabc", "latest"})
	require.NoError(t, err)
	assert.JSONEq(t, `["0xabc","latest"]`, string(res.Result))
	assert.NotEmpty(t, res.IDString())

	r := <-seen
	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
	assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
}

func TestHTTPRequestByNameParams(t *testing.T) {
	srv := newHTTPServer(t, jsonrpcHandler(t, nil))
	tr, err := NewHTTP(Config{Kind: "http", URL: srv.URL})
	require.NoError(t, err)

	res, err := tr.Request(context.Background(), "echo", map[string]any{"address": "0x1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"address":"0x1"}`, string(res.Result))
}

func TestHTTPRequestNullResult(t *testing.T) {
	srv := newHTTPServer(t, jsonrpcHandler(t, nil))
	tr, err := NewHTTP(Config{Kind: "http", URL: srv.URL})
	require.NoError(t, err)

	res, err := tr.Request(context.Background(), "nil", nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(res.Result))
}

func TestHTTPRequestRPCError(t *testing.T) {
	srv := newHTTPServer(t, jsonrpcHandler(t, nil))
	tr, err := NewHTTP(Config{Kind: "http", URL: srv.URL})
	require.NoError(t, err)

	res, err := tr.Request(context.Background(), "fail", []any{})
	require.Error(t, err)
	assert.Nil(t, res)

	var rpcErr *RPCError
	require.True(t, stderrors.As(err, &rpcErr))
	assert.Equal(t, -32000, rpcErr.Code)
	assert.Equal(t, "boom", rpcErr.Message)
}

func TestHTTPRequestBadStatus(t *testing.T) {
	srv := newHTTPServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>bad gateway</html>", http.StatusBadGateway)
	})
	tr, err := NewHTTP(Config{Kind: "http", URL: srv.URL})
	require.NoError(t, err)

	_, err = tr.Request(context.Background(), "echo", []any{1})
	require.Error(t, err)
	assert.Equal(t, ErrCodeTransportFailed, textCode(t, err))
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPRequestMalformedResponse(t *testing.T) {
	srv := newHTTPServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1}`))
	})
	tr, err := NewHTTP(Config{Kind: "http", URL: srv.URL})
	require.NoError(t, err)

	_, err = tr.Request(context.Background(), "echo", []any{1})
	require.Error(t, err)
	assert.Equal(t, ErrCodeMalformedResponse, textCode(t, err))
}

func TestHTTPRequestTimeout(t *testing.T) {
	srv := newHTTPServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	tr, err := NewHTTP(Config{Kind: "http", URL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = tr.Request(context.Background(), "echo", []any{1})
	require.Error(t, err)
	assert.Equal(t, ErrCodeTransportFailed, textCode(t, err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestHTTPRequestContextCanceled(t *testing.T) {
	srv := newHTTPServer(t, jsonrpcHandler(t, nil))
	tr, err := NewHTTP(Config{Kind: "http", URL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Request(ctx, "echo", []any{1})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, context.Canceled))
}
