package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveTransition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("clinic", reg)

	m.ObserveTransition("approve_doctor", nil)
	m.ObserveTransition("approve_doctor", nil)
	m.ObserveTransition("approve_doctor", errors.New("not pending"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AppointmentTransition.WithLabelValues("approve_doctor", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AppointmentTransition.WithLabelValues("approve_doctor", "error")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition("cancel", nil)
		m.ObserveFamilyDoctorChange("ASSIGNED")
	})
}
