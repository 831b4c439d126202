package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveUpload(time.Second, nil)
		m.AddRows("vendas", 10)
		m.SetSessions(3)
		m.ObserveComputation(true)
		m.ObserveRequest("GET", "/x", 200, time.Millisecond)
		m.ObserveJob("report", time.Second, errors.New("boom"))
	})
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.ObserveUpload(time.Second, nil)
	m.ObserveUpload(time.Second, errors.New("bad file"))
	m.AddRows("vendas", 5)
	m.AddRows("vendas", 0)
	m.SetSessions(2)
	m.ObserveComputation(false)
	m.ObserveComputation(true)
	m.ObserveComputation(true)
	m.ObserveJob("", time.Second, nil)

	body := scrape(t, m)
	assert.Contains(t, body, `returns_insights_uploads_total{outcome="ok"} 1`)
	assert.Contains(t, body, `returns_insights_uploads_total{outcome="error"} 1`)
	assert.Contains(t, body, `returns_insights_loaded_rows_total{ledger="vendas"} 5`)
	assert.Contains(t, body, "returns_insights_active_sessions 2")
	assert.Contains(t, body, `returns_insights_metric_computations_total{cache="hit"} 2`)
	assert.Contains(t, body, `returns_insights_job_runs_total{job="unknown",outcome="ok"} 1`)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("GET", "", 404, time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `returns_insights_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
