package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the booking engine's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	BookingAttempts     *prometheus.CounterVec
	BookingRejections   *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
	AvailabilityLatency prometheus.Histogram
	StoreRetries        prometheus.Counter
	CacheLookups        *prometheus.CounterVec
	CompletedBySweep    prometheus.Counter
	RPCDuration         *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, along with the Go and
// process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		BookingAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Appointment creation attempts by outcome",
		}, []string{"outcome"}),
		BookingRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "rejections_total",
			Help:      "Rejected bookings by reason",
		}, []string{"reason"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Applied appointment status transitions",
		}, []string{"from", "to"}),
		AvailabilityLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "availability",
			Name:      "derive_duration_seconds",
			Help:      "Time spent deriving availability for a range",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		StoreRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "retries_total",
			Help:      "Transactions retried after a transient store failure",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "availability",
			Name:      "cache_lookups_total",
			Help:      "Availability cache lookups by result",
		}, []string{"result"}),
		CompletedBySweep: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "completed_appointments_total",
			Help:      "Appointments moved to COMPLETED by the completion sweep",
		}),
		RPCDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of gRPC requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "code"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) BookingOutcome(outcome string) {
	if m == nil {
		return
	}
	m.BookingAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.BookingAttempts.WithLabelValues("rejected").Inc()
	m.BookingRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) Transitioned(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveAvailability(d time.Duration) {
	if m == nil {
		return
	}
	m.AvailabilityLatency.Observe(d.Seconds())
}

func (m *Metrics) Retried() {
	if m == nil {
		return
	}
	m.StoreRetries.Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Completed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CompletedBySweep.Add(float64(n))
}

func (m *Metrics) ObserveRPC(method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.RPCDuration.WithLabelValues(method, code).Observe(d.Seconds())
}
