package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLifecycle(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveLifecycle("ec2", "create", 0.2, nil)
	m.ObserveLifecycle("ec2", "create", 0.3, errors.New("boom"))
	m.ObserveLifecycle("ec2", "create", 0.1, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lifecycleTotal.WithLabelValues("ec2", "create", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lifecycleTotal.WithLabelValues("ec2", "create", OutcomeError)))
}

func TestConsoleCollectors(t *testing.T) {
	m := New(nil)
	m.ConsoleOpened()
	m.ConsoleOpened()
	m.ConsoleClosed()
	m.ConsoleBytes("out", 10)
	m.ConsoleBytes("out", 0)
	m.ConsoleResult("relayed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.consoleActive))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.consoleBytes.WithLabelValues("out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.consoleTotal.WithLabelValues("relayed")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLifecycle("rds", "delete", 1, nil)
		m.ConsoleOpened()
		m.ConsoleClosed()
		m.ConsoleResult("rejected")
		m.ConsoleBytes("in", 3)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(nil)
	m.ObserveLifecycle("rds", "create", 1, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cloudemu_lifecycle_operations_total")
}
