package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the tracking and API flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	pollsTotal             *prometheus.CounterVec
	reconcileOutcomesTotal *prometheus.CounterVec
	notificationsTotal     *prometheus.CounterVec
	sessionsActive         prometheus.Gauge
	sessionsTimedOutTotal  prometheus.Counter
	authorityCallDuration  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement_tracker",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "settlement_tracker",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		pollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement_tracker",
				Name:      "polls_total",
				Help:      "Total number of status polls grouped by result (ok, transient_error, not_found).",
			},
			[]string{"result"},
		),
		reconcileOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement_tracker",
				Name:      "reconcile_outcomes_total",
				Help:      "Total number of reconciliation decisions grouped by outcome.",
			},
			[]string{"outcome"},
		),
		notificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement_tracker",
				Name:      "notifications_total",
				Help:      "Total number of user notifications emitted grouped by kind.",
			},
			[]string{"kind"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "settlement_tracker",
				Name:      "sessions_active",
				Help:      "Current number of active tracking sessions.",
			},
		),
		sessionsTimedOutTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "settlement_tracker",
				Name:      "sessions_timed_out_total",
				Help:      "Total number of tracking sessions that hit the max poll duration.",
			},
		),
		authorityCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "settlement_tracker",
				Name:      "authority_call_duration_seconds",
				Help:      "Authority request duration in seconds grouped by call.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"call"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.pollsTotal,
		m.reconcileOutcomesTotal,
		m.notificationsTotal,
		m.sessionsActive,
		m.sessionsTimedOutTotal,
		m.authorityCallDuration,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncPoll(result string) {
	if m == nil {
		return
	}
	m.pollsTotal.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) IncReconcileOutcome(outcome string) {
	if m == nil {
		return
	}
	m.reconcileOutcomesTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncNotification(kind string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) IncSessionsActive() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

func (m *Metrics) DecSessionsActive() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

func (m *Metrics) IncSessionTimedOut() {
	if m == nil {
		return
	}
	m.sessionsTimedOutTotal.Inc()
}

func (m *Metrics) ObserveAuthorityCallDuration(call string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.authorityCallDuration.WithLabelValues(normalizeLabel(call)).Observe(seconds)
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
