package rpcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goliatone/go-rpcclient/catalog"
	"github.com/goliatone/go-rpcclient/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallDecodesResult(t *testing.T) {
	spy := &spyTransport{result: json.RawMessage(`"0x1F"`)}
	c := newSpyClient(t, spy)

	balance, err := Call[string](context.Background(), c, "getBalance", "0xAB", "latest")
	require.NoError(t, err)
	assert.Equal(t, "0x1F", balance)
}

func TestCallNullResultIsZero(t *testing.T) {
	c := newSpyClient(t, &spyTransport{result: json.RawMessage(`null`)})

	out, err := Call[*struct{ Hash string }](context.Background(), c, "ping")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestCallDecodeFailure(t *testing.T) {
	c := newSpyClient(t, &spyTransport{result: json.RawMessage(`{"not":"a number"}`)})

	_, err := Call[int](context.Background(), c, "ping")
	require.Error(t, err)
	assert.Equal(t, ErrCodeResultDecode, textCode(t, err))
}

func TestCallPropagatesValidationErrors(t *testing.T) {
	spy := &spyTransport{}
	c := newSpyClient(t, spy)

	_, err := Call[string](context.Background(), c, "getBalance", "0xAB")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, spy.Calls())
}

// TestEthereumOverHTTP runs the bundled catalog against a JSON-RPC server.
func TestEthereumOverHTTP(t *testing.T) {
	var (
		mu  sync.Mutex
		got []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		got = append(got, req)
		mu.Unlock()

		result := any("0x0234c8a3397aab58")
		if req["method"] == "eth_getBlockByNumber" {
			result = map[string]any{"number": "0x1b4", "hash": nil}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req["id"],
			"result":  result,
		})
	}))
	defer srv.Close()

	c, err := New(catalog.Ethereum(), transport.Config{Kind: "http", URL: srv.URL})
	require.NoError(t, err)
	defer c.Close()

	balance, err := Call[string](context.Background(), c, "eth_getBalance",
		"0x407d73d8a49eeb85d32cf465507dd71d507100c1", "latest")
	require.NoError(t, err)
	assert.Equal(t, "0x0234c8a3397aab58", balance)

	block, err := Call[map[string]any](context.Background(), c, "eth_getBlockByNumber", "0x1b4", true)
	require.NoError(t, err)
	assert.Equal(t, "0x1b4", block["number"])

	_, err = c.Request(context.Background(), "eth_getBalance", "0xZZ", "yesterday")
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []int{0, 1}, errs.Positions())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "2.0", got[0]["jsonrpc"])
	assert.Equal(t, "eth_getBalance", got[0]["method"])
	assert.Equal(t, []any{"0x407d73d8a49eeb85d32cf465507dd71d507100c1", "latest"}, got[0]["params"])
	assert.Equal(t, []any{"0x1b4", true}, got[1]["params"])
}
