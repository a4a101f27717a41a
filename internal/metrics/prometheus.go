package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RunsTotal           *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	DecisionsTotal      *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
	PeakConsumedUnits   *prometheus.GaugeVec
	ProvisionedUnits    *prometheus.GaugeVec
	RegisteredBounds    *prometheus.GaugeVec
	BoundUpdatesTotal   *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics, registered on their own registry
func Get() *Metrics {
	once.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		instance = New(reg)
	})
	return instance
}

// New registers the autoscaler metrics on reg
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoscaler_runs_total",
			Help: "Total number of runs by status",
		}, []string{"status"}),

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "autoscaler_run_duration_seconds",
			Help:    "Duration of a full sample, decide and update run",
			Buckets: prometheus.DefBuckets,
		}),

		DecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoscaler_decisions_total",
			Help: "Total number of decisions by axis and action",
		}, []string{"axis", "action"}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoscaler_errors_total",
			Help: "Total number of per-axis failures by kind",
		}, []string{"axis", "kind"}),

		PeakConsumedUnits: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "autoscaler_peak_consumed_units",
			Help: "Peak consumed capacity units seen in the last window",
		}, []string{"axis"}),

		ProvisionedUnits: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "autoscaler_provisioned_units",
			Help: "Peak provisioned capacity units seen in the last window",
		}, []string{"axis"}),

		RegisteredBounds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "autoscaler_registered_bounds",
			Help: "Last known registered capacity bounds",
		}, []string{"axis", "bound"}),

		BoundUpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoscaler_bound_updates_total",
			Help: "Total number of bound registrations by axis and status",
		}, []string{"axis", "status"}),

		CircuitBreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "autoscaler_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autoscaler_http_requests_total",
			Help: "Total number of API requests by method, route and status",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "autoscaler_http_request_duration_seconds",
			Help:    "API request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) RecordRun(status string, d time.Duration) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

func (m *Metrics) IncDecision(axis, action string) {
	m.DecisionsTotal.WithLabelValues(axis, action).Inc()
}

func (m *Metrics) IncError(axis, kind string) {
	m.ErrorsTotal.WithLabelValues(axis, kind).Inc()
}

func (m *Metrics) SetPeakConsumed(axis string, units float64) {
	m.PeakConsumedUnits.WithLabelValues(axis).Set(units)
}

func (m *Metrics) SetProvisioned(axis string, units float64) {
	m.ProvisionedUnits.WithLabelValues(axis).Set(units)
}

func (m *Metrics) SetRegisteredBounds(axis string, min, max int) {
	m.RegisteredBounds.WithLabelValues(axis, "min").Set(float64(min))
	m.RegisteredBounds.WithLabelValues(axis, "max").Set(float64(max))
}

func (m *Metrics) IncBoundUpdate(axis, status string) {
	m.BoundUpdatesTotal.WithLabelValues(axis, status).Inc()
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// ObserveHTTPRequest records one API request; route is the gin route
// template so path parameters do not explode label cardinality
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
