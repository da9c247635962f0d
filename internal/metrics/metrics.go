// Package metrics exposes Prometheus counters for provider calls, pipeline
// phases, enrichment tasks and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/viralpilot/internal/campaign"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "viralpilot"

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	registry *prometheus.Registry

	// Provider gateway
	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec

	// Pipeline and enrichment
	PipelinePhases *prometheus.CounterVec
	CampaignRuns   *prometheus.CounterVec
	EnrichTasks    *prometheus.CounterVec

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the metrics on a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "AI provider calls by capability and outcome",
		}, []string{"capability", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "AI provider call latency",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"capability"}),
		PipelinePhases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_phases_total",
			Help:      "Pipeline phases entered",
		}, []string{"step"}),
		CampaignRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "campaign_runs_total",
			Help:      "Campaign runs by outcome",
		}, []string{"outcome"}),
		EnrichTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_tasks_total",
			Help:      "Media enrichment tasks by kind and final status",
		}, []string{"kind", "status"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ProviderCalls,
		m.ProviderDuration,
		m.PipelinePhases,
		m.CampaignRuns,
		m.EnrichTasks,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// ObserveCall records one provider gateway call.
func (m *Metrics) ObserveCall(capability, outcome string, elapsed time.Duration) {
	m.ProviderCalls.WithLabelValues(capability, outcome).Inc()
	m.ProviderDuration.WithLabelValues(capability).Observe(elapsed.Seconds())
}

// ObserveEnrichment records the final status of one media task.
func (m *Metrics) ObserveEnrichment(kind string, status campaign.TaskStatus) {
	m.EnrichTasks.WithLabelValues(kind, string(status)).Inc()
}

// ObservePhase counts a pipeline phase.
func (m *Metrics) ObservePhase(step string) {
	m.PipelinePhases.WithLabelValues(step).Inc()
}

// ObserveRun counts a finished campaign run.
func (m *Metrics) ObserveRun(outcome string) {
	m.CampaignRuns.WithLabelValues(outcome).Inc()
}

// Middleware collects HTTP metrics. Streaming endpoints are timed until the
// stream closes.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
