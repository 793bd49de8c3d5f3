package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the automation
// engine.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	dbQueryDuration  *prometheus.HistogramVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	actionsCreated   *prometheus.CounterVec
	messagesSent     *prometheus.CounterVec
	campaignRuns     *prometheus.CounterVec
	campaignDuration *prometheus.HistogramVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	actionsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketing_actions_created_total",
		Help: "Total marketing actions created by type",
	}, []string{"action_type"})

	messagesSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_messages_total",
		Help: "Total outbound message attempts by outcome",
	}, []string{"outcome"})

	campaignRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "campaign_runs_total",
		Help: "Total campaign executions by type",
	}, []string{"campaign_type"})

	campaignDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campaign_duration_seconds",
		Help:    "Duration of campaign batch runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"campaign_type"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration, cacheHits, cacheMisses,
		actionsCreated, messagesSent, campaignRuns, campaignDuration, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		dbQueryDuration:  dbQueryDuration,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		actionsCreated:   actionsCreated,
		messagesSent:     messagesSent,
		campaignRuns:     campaignRuns,
		campaignDuration: campaignDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordActionCreated counts a persisted marketing action.
func (m *MetricsService) RecordActionCreated(actionType string) {
	if m == nil {
		return
	}
	m.actionsCreated.WithLabelValues(actionType).Inc()
}

// RecordMessageAttempt counts one outbound send attempt.
func (m *MetricsService) RecordMessageAttempt(sent bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if sent {
		outcome = "sent"
	}
	m.messagesSent.WithLabelValues(outcome).Inc()
}

// ObserveCampaign records one campaign batch run.
func (m *MetricsService) ObserveCampaign(campaignType string, duration time.Duration) {
	if m == nil {
		return
	}
	m.campaignRuns.WithLabelValues(campaignType).Inc()
	m.campaignDuration.WithLabelValues(campaignType).Observe(duration.Seconds())
}
