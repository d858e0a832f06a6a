package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxResponseBytes = 32 << 20

// HTTP posts each request to a single endpoint.
type HTTP struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	logger   Logger
}

var _ Transport = (*HTTP)(nil)

func httpFactory(cfg Config) (Transport, error) {
	return NewHTTP(cfg)
}

// NewHTTP builds an HTTP transport. Kind "https" selects the https scheme
// when the endpoint is assembled from Host and Port.
func NewHTTP(cfg Config) (*HTTP, error) {
	scheme := "http"
	if cfg.Kind == "https" {
		scheme = "https"
	}
	endpoint, err := cfg.Endpoint(scheme)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.InsecureSkipVerify {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		client.Transport = tr
	}

	return &HTTP{
		endpoint: endpoint,
		headers:  cloneHeaders(cfg.Headers),
		client:   client,
		logger:   cfg.logger(),
	}, nil
}

// Endpoint returns the URL requests are posted to.
func (t *HTTP) Endpoint() string {
	return t.endpoint
}

func (t *HTTP) Request(ctx context.Context, method string, params any) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := NewRequest(method, params)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, failed(err, "marshal jsonrpc request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, failed(err, "build http request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	t.logger.Debug("http jsonrpc request", "method", method, "id", req.ID, "endpoint", t.endpoint)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, failed(err, "send http request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, failed(err, "read http response")
	}

	res, err := DecodeResponse(raw)
	if err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, failed(fmt.Errorf("unexpected status %d", resp.StatusCode), "http jsonrpc request")
		}
		return nil, err
	}
	return finish(res)
}

// Close releases idle connections.
func (t *HTTP) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func cloneHeaders(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
