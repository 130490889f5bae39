package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application collectors.
type Metrics struct {
	HTTPRequests          *prometheus.CounterVec
	HTTPLatency           *prometheus.HistogramVec
	AppointmentTransition *prometheus.CounterVec
	FamilyDoctorChanges   *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		AppointmentTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_transitions_total",
			Help:      "Appointment state machine transitions by outcome",
		}, []string{"transition", "result"}),
		FamilyDoctorChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "family_doctor_changes_total",
			Help:      "Family doctor ledger entries by change type",
		}, []string{"change_type"}),
	}

	if reg != nil {
		reg.MustRegister(m.HTTPRequests, m.HTTPLatency, m.AppointmentTransition, m.FamilyDoctorChanges)
	}

	return m
}

// NewNop returns unregistered collectors, handy for tests.
func NewNop() *Metrics {
	return New("test", nil)
}

// ObserveTransition counts one state machine transition attempt.
func (m *Metrics) ObserveTransition(transition string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.AppointmentTransition.WithLabelValues(transition, result).Inc()
}

// ObserveFamilyDoctorChange counts one ledger entry.
func (m *Metrics) ObserveFamilyDoctorChange(changeType string) {
	if m == nil {
		return
	}
	m.FamilyDoctorChanges.WithLabelValues(changeType).Inc()
}
