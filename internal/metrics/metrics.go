// Package metrics provides Prometheus metrics for the chat pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chat pipeline metrics
	ChatRequestsTotal   *prometheus.CounterVec
	ChatDurationSeconds prometheus.Histogram

	// Intent metrics
	IntentDetectionsTotal *prometheus.CounterVec

	// Retrieval metrics
	RetrievalTotal *prometheus.CounterVec

	// Conversation metrics
	SessionClosuresTotal prometheus.Counter

	// LLM fallback metrics
	LLMFallbackTotal *prometheus.CounterVec

	// Directory cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ChatRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faix_chat_requests_total",
				Help: "Total number of chat requests by outcome",
			},
			[]string{"outcome"}, // outcome: answered, conversation, llm, clarification, error
		),

		ChatDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "faix_chat_duration_seconds",
				Help:    "End-to-end chat pipeline duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
		),

		IntentDetectionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faix_intent_detections_total",
				Help: "Total number of intent detections by intent name",
			},
			[]string{"intent"},
		),

		RetrievalTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faix_retrieval_total",
				Help: "Total number of retrievals by match kind",
			},
			[]string{"kind"}, // kind: keyword, vector, not_found
		),

		SessionClosuresTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "faix_session_closures_total",
				Help: "Total number of sessions closed by a farewell message",
			},
		),

		LLMFallbackTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faix_llm_fallback_total",
				Help: "Total number of LLM fallback calls by provider and status",
			},
			[]string{"provider", "status"}, // status: success, error
		),

		CacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faix_cache_hits_total",
				Help: "Total number of cache hits by module",
			},
			[]string{"module"},
		),

		CacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faix_cache_misses_total",
				Help: "Total number of cache misses by module",
			},
			[]string{"module"},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faix_http_errors_total",
				Help: "Total number of HTTP errors by status code",
			},
			[]string{"status"},
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "faix_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiting",
			},
			[]string{"scope"}, // scope: session, global
		),
	}

	return m
}

// RecordChat records a completed chat request with its outcome and duration.
func (m *Metrics) RecordChat(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ChatRequestsTotal.WithLabelValues(outcome).Inc()
	m.ChatDurationSeconds.Observe(seconds)
}

// RecordIntent records a detected intent.
func (m *Metrics) RecordIntent(intent string) {
	if m == nil {
		return
	}
	m.IntentDetectionsTotal.WithLabelValues(intent).Inc()
}

// RecordRetrieval records a retrieval outcome (keyword, vector, not_found).
func (m *Metrics) RecordRetrieval(kind string) {
	if m == nil {
		return
	}
	m.RetrievalTotal.WithLabelValues(kind).Inc()
}

// RecordSessionClosure records a farewell-triggered session closure.
func (m *Metrics) RecordSessionClosure() {
	if m == nil {
		return
	}
	m.SessionClosuresTotal.Inc()
}

// RecordLLMFallback records an LLM fallback call.
func (m *Metrics) RecordLLMFallback(provider, status string) {
	if m == nil {
		return
	}
	m.LLMFallbackTotal.WithLabelValues(provider, status).Inc()
}

// RecordCacheHit records a cache hit for the given module.
func (m *Metrics) RecordCacheHit(module string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(module).Inc()
}

// RecordCacheMiss records a cache miss for the given module.
func (m *Metrics) RecordCacheMiss(module string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(module).Inc()
}

// RecordHTTPError records an HTTP error response.
func (m *Metrics) RecordHTTPError(status string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(status).Inc()
}

// RecordRateLimiterDrop records a dropped request for the given scope.
func (m *Metrics) RecordRateLimiterDrop(scope string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(scope).Inc()
}
