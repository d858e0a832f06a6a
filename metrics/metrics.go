package metrics

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	rpcclient "github.com/goliatone/go-rpcclient"
	"github.com/goliatone/go-rpcclient/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcomes used as the "outcome" label.
const (
	OutcomeSuccess        = "success"
	OutcomeInvalid        = "invalid"
	OutcomeRPCError       = "rpc_error"
	OutcomeTransportError = "transport_error"
)

// Validation failure reasons used as the "reason" label.
const (
	ReasonMismatch   = "mismatch"
	ReasonMissing    = "missing"
	ReasonUnexpected = "unexpected"
)

// Metrics contains the Prometheus collectors for an rpc client.
type Metrics struct {
	// Calls counts every call by method and outcome.
	Calls *prometheus.CounterVec
	// Duration observes dispatch latency of calls that passed validation.
	Duration *prometheus.HistogramVec
	// ValidationFailures counts rejected arguments by method and reason.
	ValidationFailures *prometheus.CounterVec
}

// NewMetrics registers the client metrics with the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry registers the client metrics with registry.
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		Calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpcclient_calls_total",
				Help: "The total number of rpc calls by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpcclient_call_duration_seconds",
				Help:    "Time spent dispatching validated rpc calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpcclient_validation_failures_total",
				Help: "The total number of arguments rejected by param schemas",
			},
			[]string{"method", "reason"},
		),
	}
}

// Options returns the client options that feed these metrics.
func (m *Metrics) Options() []rpcclient.Option {
	return []rpcclient.Option{
		rpcclient.WithMiddleware(m.Middleware()),
		rpcclient.WithValidationObserver(m.ObserveValidation),
	}
}

// Middleware times every dispatched call and records its outcome.
func (m *Metrics) Middleware() rpcclient.Middleware {
	return func(next rpcclient.InvokeHandler) rpcclient.InvokeHandler {
		return func(ctx context.Context, req rpcclient.InvokeRequest) (json.RawMessage, error) {
			start := time.Now()
			out, err := next(ctx, req)
			m.Duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
			m.Calls.WithLabelValues(req.Method, outcome(err)).Inc()
			return out, err
		}
	}
}

// ObserveValidation records a rejected call.
func (m *Metrics) ObserveValidation(method string, errs rpcclient.ValidationErrors) {
	m.Calls.WithLabelValues(method, OutcomeInvalid).Inc()
	for _, ve := range errs {
		m.ValidationFailures.WithLabelValues(method, reason(ve)).Inc()
	}
}

func outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var rpcErr *transport.RPCError
	if stderrors.As(err, &rpcErr) {
		return OutcomeRPCError
	}
	return OutcomeTransportError
}

func reason(ve rpcclient.ValidationError) string {
	switch {
	case ve.Missing:
		return ReasonMissing
	case ve.Unexpected:
		return ReasonUnexpected
	default:
		return ReasonMismatch
	}
}
