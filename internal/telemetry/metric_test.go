package telemetry

import (
	"inspector/config"
	"inspector/internal/core"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enabledConfig() *config.Configuration {
	conf := config.Default()
	conf.App.Name = "inspector-test"
	conf.Telemetry.Metric.Enabled = true
	return conf
}

func TestNewMetric_DisabledIsNoop(t *testing.T) {
	m := NewMetric(config.Default())

	assert.NotPanics(t, func() {
		m.ObserveRecord(10, 2)
		m.SubscriberAttached()
		m.SubscriberDetached(true)
		m.EventSent(core.EventKindRecord)
		m.SetGauges(1, 1)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewMetric_IndependentRegistries(t *testing.T) {
	// 每次建立都有獨立 registry，不應 duplicate register panic
	assert.NotPanics(t, func() {
		NewMetric(enabledConfig())
		NewMetric(enabledConfig())
	})
}

func TestMetric_Observe(t *testing.T) {
	m := NewMetric(enabledConfig())

	m.ObserveRecord(1001, 0)
	m.ObserveRecord(500, 501)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsTotal))
	assert.Equal(t, 501.0, testutil.ToFloat64(m.RecordsEvictedTotal))
	assert.Equal(t, 500.0, testutil.ToFloat64(m.LogStoreSize))

	m.SubscriberAttached()
	m.SubscriberAttached()
	m.SubscriberDetached(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSubscribers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscribersEvictedTotal))

	m.EventSent(core.EventKindHistory)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsSentTotal.WithLabelValues(core.EventKindHistory)))
}

func TestMetric_Handler(t *testing.T) {
	m := NewMetric(enabledConfig())
	m.ObserveRecord(1, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "inspector_test_records_total 1")
}

func TestMetricPrefix(t *testing.T) {
	assert.Equal(t, "", metricPrefix(""))
	assert.Equal(t, "my_app_", metricPrefix("my-app"))
}
