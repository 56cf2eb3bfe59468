package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics exposes Prometheus observability primitives for the payment pipeline.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	webhookEvents   *prometheus.CounterVec
	reconcileRuns   *prometheus.CounterVec
	reconcileTime   *prometheus.HistogramVec
	gatewayCalls    *prometheus.CounterVec
	gatewayTime     *prometheus.HistogramVec
	notifyDispatch  *prometheus.CounterVec
	projectsCreated prometheus.Counter
}

// New registers and returns the application metrics together with the
// registry the /metrics endpoint serves.
func New() (*Metrics, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(registry), registry
}

// NewWithRegistry registers the application metrics on the given registerer.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "projectnest_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "projectnest_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "projectnest_webhook_events_total",
		Help: "Gateway webhook deliveries by event and result.",
	}, []string{"event", "result"})

	reconcileRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "projectnest_reconcile_total",
		Help: "Payment reconciliation runs by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	reconcileTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "projectnest_reconcile_duration_seconds",
		Help:    "Payment reconciliation latency including the gateway roundtrip.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 8, 15},
	}, []string{"trigger"})

	gatewayCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "projectnest_gateway_requests_total",
		Help: "Outbound payment gateway calls by operation and result.",
	}, []string{"operation", "result"})

	gatewayTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "projectnest_gateway_request_duration_seconds",
		Help:    "Outbound payment gateway latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	notifyDispatch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "projectnest_notification_dispatch_total",
		Help: "Post-payment notification deliveries by channel and result.",
	}, []string{"channel", "result"})

	projectsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "projectnest_projects_created_total",
		Help: "Projects synthesized from converted leads.",
	})

	registerer.MustRegister(
		httpRequests,
		httpDuration,
		webhookEvents,
		reconcileRuns,
		reconcileTime,
		gatewayCalls,
		gatewayTime,
		notifyDispatch,
		projectsCreated,
	)

	return &Metrics{
		httpRequests:    httpRequests,
		httpDuration:    httpDuration,
		webhookEvents:   webhookEvents,
		reconcileRuns:   reconcileRuns,
		reconcileTime:   reconcileTime,
		gatewayCalls:    gatewayCalls,
		gatewayTime:     gatewayTime,
		notifyDispatch:  notifyDispatch,
		projectsCreated: projectsCreated,
	}
}

// ObserveHTTPRequest records one served request and its latency.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	routeLabel := sanitizeLabel(route)
	m.httpRequests.WithLabelValues(method, routeLabel, status).Inc()
	m.httpDuration.WithLabelValues(method, routeLabel).Observe(duration.Seconds())
}

// ObserveWebhookEvent records one webhook delivery outcome.
func (m *Metrics) ObserveWebhookEvent(event, result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(sanitizeLabel(event), sanitizeLabel(result)).Inc()
}

// ObserveReconcile records one reconciliation run and its latency.
func (m *Metrics) ObserveReconcile(trigger, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	triggerLabel := sanitizeLabel(trigger)
	m.reconcileRuns.WithLabelValues(triggerLabel, sanitizeLabel(outcome)).Inc()
	m.reconcileTime.WithLabelValues(triggerLabel).Observe(duration.Seconds())
}

// ObserveGatewayCall records one outbound gateway request.
func (m *Metrics) ObserveGatewayCall(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	opLabel := sanitizeLabel(operation)
	m.gatewayCalls.WithLabelValues(opLabel, sanitizeLabel(result)).Inc()
	m.gatewayTime.WithLabelValues(opLabel).Observe(duration.Seconds())
}

// ObserveNotification records one notification dispatch attempt.
func (m *Metrics) ObserveNotification(channel, result string) {
	if m == nil {
		return
	}
	m.notifyDispatch.WithLabelValues(sanitizeLabel(channel), sanitizeLabel(result)).Inc()
}

// ObserveProjectCreated increments the lead-to-project conversion counter.
func (m *Metrics) ObserveProjectCreated() {
	if m == nil {
		return
	}
	m.projectsCreated.Inc()
}

func sanitizeLabel(val string) string {
	if strings.TrimSpace(val) == "" {
		return "unknown"
	}
	return val
}
