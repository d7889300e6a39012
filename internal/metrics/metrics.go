package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels for transition attempts.
const (
	OutcomeOK                = "ok"
	OutcomeValidation        = "validation"
	OutcomeInvalidTransition = "invalid_transition"
	OutcomeNotFound          = "not_found"
	OutcomeUnauthorized      = "unauthorized"
	OutcomeError             = "error"
)

// Classifier maps an error to an outcome label. Set by the caller so this
// package does not depend on the domain errors.
type Classifier func(error) string

// Metrics exposes counters/histograms for appointment and HTTP flows.
type Metrics struct {
	transitions     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	classify        Classifier
}

// New registers the collectors on reg (the default registerer when nil).
func New(reg prometheus.Registerer, classify Classifier) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Appointment lifecycle operations by outcome",
		}, []string{"operation", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		classify: classify,
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.requestDuration)
	return m
}

// ObserveTransition counts one lifecycle operation.
func (m *Metrics) ObserveTransition(operation string, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, m.outcome(err)).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

func (m *Metrics) outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if m.classify != nil {
		if label := m.classify(err); label != "" {
			return label
		}
	}
	return OutcomeError
}
