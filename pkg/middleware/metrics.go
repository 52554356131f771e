package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/dashkit/pkg/features/resource"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "dashkit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// Route maps a request to its route label. Default: NormalizeRoute
	// of the URL path.
	Route func(*http.Request) string
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// WithRouteFunc sets the route label function.
func WithRouteFunc(fn func(*http.Request) string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Route = fn
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "dashkit",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
		Route: func(r *http.Request) string {
			return NormalizeRoute(r.URL.Path)
		},
	}
}

// Metrics holds the client metrics. Create one per registry.
type Metrics struct {
	route            func(*http.Request) string
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestErrors    *prometheus.CounterVec
	inFlight         prometheus.Gauge
	sliceTransitions *prometheus.CounterVec
}

// NewMetrics registers the metrics with the configured registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		route: config.Route,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "api_requests_total",
			Help:        "Total number of backend API requests",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "api_request_duration_seconds",
			Help:        "Backend API request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"method", "route"}),

		requestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "api_errors_total",
			Help:        "Backend API requests that produced no response",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "route"}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "api_in_flight",
			Help:        "Backend API requests currently in flight",
			ConstLabels: config.ConstLabels,
		}),

		sliceTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "slice_transitions_total",
			Help:        "Resource slice state transitions",
			ConstLabels: config.ConstLabels,
		}, []string{"slice", "state"}),
	}
}

// Transport returns client middleware that records request metrics.
func (m *Metrics) Transport() func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			route := m.route(req)
			m.inFlight.Inc()
			defer m.inFlight.Dec()

			start := time.Now()
			resp, err := next.RoundTrip(req)
			m.requestDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())

			if err != nil {
				m.requestErrors.WithLabelValues(req.Method, route).Inc()
				m.requestsTotal.WithLabelValues(req.Method, route, "error").Inc()
				return nil, err
			}
			m.requestsTotal.WithLabelValues(req.Method, route, strconv.Itoa(resp.StatusCode)).Inc()
			return resp, nil
		})
	}
}

// WatchSlices counts state transitions of each slice until it closes.
// The returned function stops watching early.
func (m *Metrics) WatchSlices(slices ...resource.Observable) (stop func()) {
	cancels := make([]func(), 0, len(slices))
	for _, s := range slices {
		name := s.Name()
		cancels = append(cancels, s.Watch(func(v resource.View) {
			m.sliceTransitions.WithLabelValues(name, v.State).Inc()
		}))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// NormalizeRoute replaces path segments that look like identifiers with
// ":id" to keep label cardinality bounded.
func NormalizeRoute(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if looksLikeID(p) {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func looksLikeID(seg string) bool {
	if seg == "" {
		return false
	}
	if len(seg) >= 20 {
		return true
	}
	for _, r := range seg {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
