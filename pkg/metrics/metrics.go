// Package metrics exposes the gateway's Prometheus collectors: authorization
// decisions, identity-service calls, and HTTP RED metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gateway"

const (
	labelRoute     = "route"
	labelOutcome   = "outcome"
	labelOverride  = "guest_override"
	labelOperation = "operation"
	labelResult    = "result"
	labelMethod    = "method"
	labelPath      = "path"
	labelStatus    = "status"
)

// Metrics holds all collectors for one registry.
type Metrics struct {
	registry *prometheus.Registry

	AuthDecisions           *prometheus.CounterVec
	IdentityRequests        *prometheus.CounterVec
	IdentityRequestDuration *prometheus.HistogramVec
	HTTPRequests            *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
	RouteReloads            *prometheus.CounterVec
}

// New registers every collector on a fresh registry together with the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AuthDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_decisions_total",
				Help:      "Authorization decisions by route, final outcome and whether the guest policy overrode a failure.",
			},
			[]string{labelRoute, labelOutcome, labelOverride},
		),
		IdentityRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "identity_requests_total",
				Help:      "Calls to the identity service by operation and result.",
			},
			[]string{labelOperation, labelResult},
		),
		IdentityRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "identity_request_duration_seconds",
				Help:      "Identity service call latency in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
			},
			[]string{labelOperation},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, path, and status.",
			},
			[]string{labelMethod, labelPath, labelStatus},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
			},
			[]string{labelMethod, labelPath},
		),
		RouteReloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "route_reloads_total",
				Help:      "Route permission reload attempts by result.",
			},
			[]string{labelResult},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDecision counts one authorization decision. Nil-safe.
func (m *Metrics) ObserveDecision(route, outcome string, guestOverride bool) {
	if m == nil {
		return
	}
	m.AuthDecisions.WithLabelValues(route, outcome, strconv.FormatBool(guestOverride)).Inc()
}

// ObserveIdentityCall records one identity service call. Nil-safe.
func (m *Metrics) ObserveIdentityCall(operation, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.IdentityRequests.WithLabelValues(operation, result).Inc()
	m.IdentityRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveReload counts a route reload attempt. Nil-safe.
func (m *Metrics) ObserveReload(result string) {
	if m == nil {
		return
	}
	m.RouteReloads.WithLabelValues(result).Inc()
}

// Middleware tracks request count and latency per matched route path.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			m.HTTPRequests.WithLabelValues(method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}
