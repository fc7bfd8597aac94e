package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanle1117/workshop2-sub001/internal/bot"
	"github.com/shanle1117/workshop2-sub001/internal/config"
	"github.com/shanle1117/workshop2-sub001/internal/conversation"
	"github.com/shanle1117/workshop2-sub001/internal/intent"
	"github.com/shanle1117/workshop2-sub001/internal/knowledge"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
	"github.com/shanle1117/workshop2-sub001/internal/rag"
	"github.com/shanle1117/workshop2-sub001/internal/ratelimit"
	"github.com/shanle1117/workshop2-sub001/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testEntries() []knowledge.Entry {
	return []knowledge.Entry{
		{
			Question: "What courses does the department offer?",
			Answer:   "We offer courses in AI, databases, and networks.",
			Category: "course_info",
			Keywords: []string{"courses", "offer", "available"},
		},
		{
			Question: "When does registration open?",
			Answer:   "Registration opens on August 1st.",
			Category: "registration",
			Keywords: []string{"registration", "open", "start"},
		},
	}
}

type serverFixture struct {
	router *gin.Engine
	db     *storage.DB
}

func newServerFixture(t *testing.T, cfg *config.Config, sessionLimiter *ratelimit.PerKeyLimiter) *serverFixture {
	t.Helper()

	log := logger.New("error")

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	retriever, err := rag.NewRetriever(log, nil, testEntries())
	require.NoError(t, err)

	matcher := intent.NewMatcher(log, nil)
	manager := conversation.NewManager(log, nil, 10)
	pipeline := bot.NewPipeline(log, nil, matcher, retriever, manager, bot.Options{})

	if sessionLimiter == nil {
		sessionLimiter = ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
			MaxTokens:  100,
			RefillRate: 100,
		})
	}
	t.Cleanup(sessionLimiter.Stop)

	handler := &chatHandler{
		pipeline:       pipeline,
		sessions:       storage.NewSessionRepository(db),
		globalLimiter:  ratelimit.New(100, 100),
		sessionLimiter: sessionLimiter,
		logger:         log,
	}

	router := gin.New()
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	setupRoutes(router, cfg, handler, db, retriever, nil, prometheus.NewRegistry())

	return &serverFixture{router: router, db: db}
}

func (f *serverFixture) postChat(t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	f := newServerFixture(t, &config.Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestReadyEndpoint(t *testing.T) {
	f := newServerFixture(t, &config.Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestSecurityHeaders(t *testing.T) {
	f := newServerFixture(t, &config.Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
}

func TestRequestIDHeader(t *testing.T) {
	f := newServerFixture(t, &config.Config{}, nil)

	// A generated ID is returned when the client sends none.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	// A client-provided ID is echoed back.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
}

func TestChatRejectsInvalidBody(t *testing.T) {
	f := newServerFixture(t, &config.Config{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatRejectsOversizedMessage(t *testing.T) {
	f := newServerFixture(t, &config.Config{}, nil)

	long := make([]byte, maxMessageLength+1)
	for i := range long {
		long[i] = 'a'
	}
	w := f.postChat(t, chatRequest{Message: string(long)})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatAssignsSessionAndAnswers(t *testing.T) {
	f := newServerFixture(t, &config.Config{}, nil)

	w := f.postChat(t, chatRequest{Message: "what courses are available"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, resp.Response, "AI")
	assert.False(t, resp.Closed)
}

func TestChatContinuesSession(t *testing.T) {
	f := newServerFixture(t, &config.Config{}, nil)

	w := f.postChat(t, chatRequest{Message: "when does registration open"})
	require.Equal(t, http.StatusOK, w.Code)
	var first chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	w = f.postChat(t, chatRequest{SessionID: first.SessionID, Message: "goodbye"})
	require.Equal(t, http.StatusOK, w.Code)

	var second chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.True(t, second.Closed)
	assert.Contains(t, second.Response, "Thank you")
}

func TestChatUnknownSessionIDStartsFresh(t *testing.T) {
	f := newServerFixture(t, &config.Config{}, nil)

	w := f.postChat(t, chatRequest{SessionID: "never-seen-before", Message: "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "never-seen-before", resp.SessionID)
	assert.False(t, resp.Closed)
}

func TestChatSessionRateLimit(t *testing.T) {
	limiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
		MaxTokens:     1,
		RefillRate:    0.0001,
		CleanupPeriod: time.Minute,
	})
	f := newServerFixture(t, &config.Config{}, limiter)

	w := f.postChat(t, chatRequest{SessionID: "busy-session", Message: "hello"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.postChat(t, chatRequest{SessionID: "busy-session", Message: "hello again"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestMetricsRequiresAuthWhenConfigured(t *testing.T) {
	cfg := &config.Config{MetricsUsername: "prometheus", MetricsPassword: "secret"}
	f := newServerFixture(t, cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	credentials := base64.StdEncoding.EncodeToString([]byte("prometheus:secret"))
	req.Header.Set("Authorization", "Basic "+credentials)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsOpenWithoutPassword(t *testing.T) {
	f := newServerFixture(t, &config.Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
