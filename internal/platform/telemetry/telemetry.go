// Package telemetry owns the Prometheus registry, the HTTP server metrics
// and tracing middleware, and the booking domain collectors.
package telemetry

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const namespace = "clinic"

var httpTracer = otel.Tracer("clinic.internal.platform.http")

// Provider holds the registry every collector in the process registers with.
type Provider struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewProvider creates a registry with Go runtime and process collectors
// plus the HTTP server metrics.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &Provider{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}
	reg.MustRegister(p.requests, p.duration, p.inFlight)
	return p
}

// Registerer is used by the domain collectors.
func (p *Provider) Registerer() prometheus.Registerer { return p.registry }

func (p *Provider) Gatherer() prometheus.Gatherer { return p.registry }

// PrometheusHandler serves /metrics.
func (p *Provider) PrometheusHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}

func route(c echo.Context) string {
	if r := c.Path(); r != "" {
		return r
	}
	return "unmatched"
}

// statusOf returns the code that will be written for this request. When a
// handler returns an error, echo writes the response after the middleware
// chain unwinds, so the code comes from the error.
func statusOf(c echo.Context, err error) int {
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he.Code
		}
		return http.StatusInternalServerError
	}
	return c.Response().Status
}

// MetricsMiddleware records request counts, latency and in-flight requests.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.inFlight.Inc()
			start := time.Now()

			err := next(c)

			p.inFlight.Dec()
			method, rt := c.Request().Method, route(c)
			p.duration.WithLabelValues(method, rt).Observe(time.Since(start).Seconds())
			p.requests.WithLabelValues(method, rt, strconv.Itoa(statusOf(c, err))).Inc()
			return err
		}
	}
}

// TracingMiddleware starts a server span per request, continuing any trace
// context propagated in the request headers.
func TracingMiddleware() echo.MiddlewareFunc {
	prop := propagation.TraceContext{}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := prop.Extract(req.Context(), propagation.HeaderCarrier(req.Header))
			ctx, span := httpTracer.Start(ctx, "HTTP "+req.Method+" "+route(c),
				trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			code := statusOf(c, err)
			span.SetAttributes(
				attribute.String("http.request.method", req.Method),
				attribute.String("http.route", route(c)),
				attribute.Int("http.response.status_code", code),
			)
			if code >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(code))
				if err != nil {
					span.RecordError(err)
				}
			}
			return err
		}
	}
}
