package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineMetricsCountsDrops(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg, Config{ServiceName: "weighbill", Environment: "test"})

	m.AddDropped(StageCorrelate, "unmatched_session", 3)
	m.AddDropped(StageCorrelate, "unmatched_session", 0)
	m.AddDropped(StageNeto, "unknown_truck_tara", 1)
	m.IncBuild("ok")
	m.ObserveStage(StageCollect, 20*time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.rowsDropped.WithLabelValues(StageCorrelate, "unmatched_session")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rowsDropped.WithLabelValues(StageNeto, "unknown_truck_tara")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.buildOutcomes.WithLabelValues("ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))
}

func TestPipelineMetricsNilSafe(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.AddDropped(StageEnrich, "unattributed", 1)
		m.IncBuild("ok")
		m.ObserveStage(StageEnrich, time.Millisecond)
		m.ObserveLookup("session", time.Millisecond)
	})
}

func TestHTTPMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := newHTTPMetrics(reg, Config{})
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/bill/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bill/42", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/bill/:id", "GET", "204")))
}

func TestPipelineMetricsLabelFacility(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg, Config{ServiceName: "weighbill", Environment: "test", Facility: "north-gate"})
	m.IncBuild("unknown_provider")

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	labels := map[string]string{}
	for _, lp := range families[0].GetMetric()[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Equal(t, "north-gate", labels["facility"])
	assert.Equal(t, "weighbill", labels["service"])
}

func TestServiceLabelsSkipBlankFacility(t *testing.T) {
	labels := serviceLabels(Config{})
	assert.Equal(t, prometheus.Labels{"service": "weighbill", "env": "unknown"}, labels)
}
