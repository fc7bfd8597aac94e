// Package main provides the FAIX chatbot server entry point.
package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shanle1117/workshop2-sub001/internal/bot"
	"github.com/shanle1117/workshop2-sub001/internal/config"
	"github.com/shanle1117/workshop2-sub001/internal/directory"
	apperrors "github.com/shanle1117/workshop2-sub001/internal/errors"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
	"github.com/shanle1117/workshop2-sub001/internal/metrics"
	"github.com/shanle1117/workshop2-sub001/internal/rag"
	"github.com/shanle1117/workshop2-sub001/internal/ratelimit"
	"github.com/shanle1117/workshop2-sub001/internal/storage"
)

// maxMessageLength caps chat messages; anything longer is not a question.
const maxMessageLength = 1000

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, cfg *config.Config, handler *chatHandler, db *storage.DB, retriever *rag.Retriever, dir *directory.Directory, registry *prometheus.Registry) {
	// Root endpoint - service info
	rootHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "faix-chatbot",
			"version": release(),
		})
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Liveness probe - only checks that the process is running.
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe - checks the database and the knowledge base.
	readyHandler := func(c *gin.Context) {
		if err := db.Conn().PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}
		if retriever.Count() == 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "knowledge base empty",
			})
			return
		}

		staffCount := 0
		if dir != nil {
			staffCount = dir.Count()
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"knowledge": gin.H{
				"entries": retriever.Count(),
				"staff":   staffCount,
			},
		})
	}
	router.GET("/readyz", readyHandler)
	router.HEAD("/readyz", readyHandler)

	// Chat endpoint
	router.POST("/api/chat", handler.Handle)

	// Prometheus metrics endpoint, behind basic auth when a password is set.
	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if cfg.MetricsPassword != "" {
		authorized := router.Group("/", gin.BasicAuth(gin.Accounts{
			cfg.MetricsUsername: cfg.MetricsPassword,
		}))
		authorized.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}

// chatHandler serves POST /api/chat.
type chatHandler struct {
	pipeline       *bot.Pipeline
	sessions       *storage.SessionRepository
	globalLimiter  *ratelimit.Limiter
	sessionLimiter *ratelimit.PerKeyLimiter
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

type chatRequest struct {
	// SessionID continues an existing conversation; empty starts a new one.
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Closed    bool   `json:"closed"`
}

// Handle runs one chat turn: rate limiting, session context load, pipeline,
// session context save.
func (h *chatHandler) Handle(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Message) > maxMessageLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message too long"})
		return
	}

	if !h.globalLimiter.Allow() {
		h.metrics.RecordRateLimiterDrop("global")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	sessionID := req.SessionID
	newSession := sessionID == ""
	if newSession {
		sessionID = uuid.NewString()
	}

	if !h.sessionLimiter.Allow(sessionID) {
		// The per-key limiter records the drop via its OnDrop callback.
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests for this session"})
		return
	}

	log := h.logger.WithSessionID(sessionID)

	var prior map[string]any
	if !newSession {
		session, err := h.sessions.Get(c.Request.Context(), sessionID)
		switch {
		case err == nil:
			prior = session.Context
		case errors.Is(err, apperrors.ErrNotFound):
			// Unknown or expired session ID starts fresh under the same ID.
		default:
			log.WithError(err).Warn("Failed to load session context")
		}
	}

	result := h.pipeline.Process(c.Request.Context(), req.Message, prior)

	if err := h.sessions.Save(c.Request.Context(), sessionID, result.Context); err != nil {
		// The turn already succeeded; losing the context only costs
		// conversational continuity.
		log.WithError(err).Warn("Failed to save session context")
	}

	c.JSON(http.StatusOK, chatResponse{
		SessionID: sessionID,
		Response:  result.Response,
		Closed:    result.Closed,
	})
}
