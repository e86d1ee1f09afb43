package http

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/openflag/internal/logging"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

// Logging logs every call of op with its duration and outcome.
func Logging(l logging.Logger, op Operation) endpoint.Middleware {
	l = l.With("operation", string(op))
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				took := time.Since(begin)
				if err != nil {
					l.Warn(ctx, "request failed", "took", took, "status", codeFrom(err), "error", err)
					return
				}
				l.Debug(ctx, "request served", "took", took)
			}(time.Now())
			return next(ctx, request)
		}
	}
}

// Metrics are the request counters and latency histograms, labelled by
// method and error.
type Metrics struct {
	Requests metrics.Counter
	Latency  metrics.Histogram
}

// NewPrometheusMetrics registers the request metrics on the default
// Prometheus registry. It must be called once per process.
func NewPrometheusMetrics() *Metrics {
	labels := []string{"method", "error"}
	return &Metrics{
		Requests: kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: "openflag",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Number of requests received.",
		}, labels),
		Latency: kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: "openflag",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds.",
		}, labels),
	}
}

// Instrumenting records a count and a latency observation per call of op.
func Instrumenting(m *Metrics, op Operation) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				lvs := []string{"method", string(op), "error", fmt.Sprint(err != nil)}
				m.Requests.With(lvs...).Add(1)
				m.Latency.With(lvs...).Observe(time.Since(begin).Seconds())
			}(time.Now())
			return next(ctx, request)
		}
	}
}
