package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RequestsCollectorName = "http_requests_total"
	LatencyCollectorName  = "http_request_duration_seconds"
	InFlightCollectorName = "http_requests_in_flight"

	unmatchedRoute = "unmatched"
)

// DefaultLatencyBuckets cover quick reads up to slow backend round trips.
var DefaultLatencyBuckets = []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 5, 30}

type MiddlewareOption func(m *Middleware)

func WithLatencyBuckets(buckets []float64) MiddlewareOption {
	return func(m *Middleware) {
		m.buckets = buckets
	}
}

// Middleware counts and times the console requests by route pattern, so
// /jobs/{id} is one series whatever the id.
type Middleware struct {
	buckets  []float64
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func NewMiddleware(service string, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{buckets: DefaultLatencyBuckets}
	for _, o := range opts {
		o(m)
	}

	constLabels := prometheus.Labels{"service": service}
	m.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        RequestsCollectorName,
			Help:        "Number of HTTP requests partitioned by status code, method and route.",
			ConstLabels: constLabels,
		}, []string{"code", "method", "route"})

	m.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        LatencyCollectorName,
		Help:        "Time spent serving a request partitioned by status code, method and route.",
		ConstLabels: constLabels,
		Buckets:     m.buckets,
	}, []string{"code", "method", "route"})

	m.inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        InFlightCollectorName,
		Help:        "Number of HTTP requests being served.",
		ConstLabels: constLabels,
	})

	return m
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := strconv.Itoa(ww.Status())
		m.requests.WithLabelValues(code, r.Method, route).Inc()
		m.latency.WithLabelValues(code, r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Middleware) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.latency, m.inFlight}
}

// MustRegisterDefault registers the collectors on the default registry served by promhttp.Handler.
func (m *Middleware) MustRegisterDefault() {
	prometheus.MustRegister(m.Collectors()...)
}
