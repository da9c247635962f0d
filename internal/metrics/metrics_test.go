package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	m := New()

	m.ObserveCall("image", "ok", 2*time.Second)
	m.ObserveCall("image", "transient", time.Second)
	m.ObserveEnrichment("image", campaign.TaskCompleted)
	m.ObservePhase("RESEARCH")
	m.ObserveRun("completed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderCalls.WithLabelValues("image", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderCalls.WithLabelValues("image", "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrichTasks.WithLabelValues("image", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelinePhases.WithLabelValues("RESEARCH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CampaignRuns.WithLabelValues("completed")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/ping", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "viralpilot_http_requests_total")
}
