// Package main provides the FAIX chatbot server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/shanle1117/workshop2-sub001/internal/bot"
	"github.com/shanle1117/workshop2-sub001/internal/buildinfo"
	"github.com/shanle1117/workshop2-sub001/internal/config"
	"github.com/shanle1117/workshop2-sub001/internal/conversation"
	"github.com/shanle1117/workshop2-sub001/internal/directory"
	"github.com/shanle1117/workshop2-sub001/internal/genai"
	"github.com/shanle1117/workshop2-sub001/internal/intent"
	"github.com/shanle1117/workshop2-sub001/internal/knowledge"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
	"github.com/shanle1117/workshop2-sub001/internal/metrics"
	"github.com/shanle1117/workshop2-sub001/internal/rag"
	"github.com/shanle1117/workshop2-sub001/internal/ratelimit"
	"github.com/shanle1117/workshop2-sub001/internal/s3client"
	"github.com/shanle1117/workshop2-sub001/internal/scraper"
	"github.com/shanle1117/workshop2-sub001/internal/scraper/faix"
	"github.com/shanle1117/workshop2-sub001/internal/sentry"
	"github.com/shanle1117/workshop2-sub001/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger, shipping to Better Stack when configured
	log := logger.NewWithOptions(cfg.LogLevel, logger.Options{
		BetterstackToken:    cfg.BetterstackToken,
		BetterstackEndpoint: cfg.BetterstackEndpoint,
	})
	log.WithField("version", release()).Info("Starting FAIX Chatbot server")

	// Initialize error tracking (disabled when no token is set)
	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.Environment,
		Release:     release(),
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize error tracking")
	}
	defer sentry.Flush(2 * time.Second)

	// Connect to the session database
	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	// Create Prometheus registry with standard collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)
	log.Info("Metrics initialized")

	ctx := context.Background()

	// Load the knowledge dataset: local CSV first, object storage snapshot
	// as the fallback for disk-less deployments.
	entries, err := loadDataset(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to load knowledge dataset")
		os.Exit(1)
	}
	log.WithField("entries", len(entries)).Info("Knowledge dataset loaded")

	retriever, err := rag.NewRetriever(log, m, entries)
	if err != nil {
		log.WithError(err).Error("Failed to build retriever")
		os.Exit(1)
	}

	// BM25 context index feeds the LLM responder; losing it only degrades
	// fallback answers, so failure is non-fatal.
	contextIndex := rag.NewContextIndex(log)
	if err := contextIndex.Initialize(entries); err != nil {
		log.WithError(err).Warn("Failed to build BM25 context index, LLM grounding degraded")
		contextIndex = nil
	}

	intentCfg := intent.DefaultConfig()
	intentCfg.Threshold = cfg.ConfidenceThreshold
	matcher := intent.NewMatcher(log, intentCfg)
	manager := conversation.NewManager(log, m, cfg.HistoryLimit)

	// Staff directory: CSV, SQLite cache, or the live staff page.
	var staffSource directory.Source
	if cfg.StaffPageURL != "" {
		scraperClient := scraper.NewClient(cfg.ScraperTimeout, cfg.ScraperMaxRetries)
		staffSource = faix.NewStaffScraper(scraperClient, cfg.StaffPageURL, log)
	}
	dir := directory.New(log, m, storage.NewStaffRepository(db), staffSource)
	if err := dir.Load(ctx, cfg.StaffPath); err != nil {
		log.WithError(err).Warn("Staff directory unavailable, staff answers fall back to the dataset")
		dir = nil
	}

	// Optional LLM responder for questions the dataset cannot answer.
	var responder bot.Responder
	fallbackResponder, err := genai.CreateResponder(ctx, genai.Options{
		GeminiAPIKey:     cfg.GeminiAPIKey,
		GeminiModel:      cfg.GeminiModel,
		GroqAPIKey:       cfg.GroqAPIKey,
		GroqModel:        cfg.GroqModel,
		PrimaryProvider:  genai.Provider(cfg.LLMPrimaryProvider),
		FallbackProvider: genai.Provider(cfg.LLMFallbackProvider),
	}, m)
	if err != nil {
		log.WithError(err).Warn("Failed to create LLM responder")
	} else if fallbackResponder != nil {
		responder = fallbackResponder
		defer func() { _ = fallbackResponder.Close() }()
	}

	pipeline := bot.NewPipeline(log, m, matcher, retriever, manager, bot.Options{
		Directory:    dir,
		ContextIndex: contextIndex,
		Responder:    responder,
	})

	sessions := storage.NewSessionRepository(db)

	globalLimiter := ratelimit.New(cfg.GlobalRateLimitRPS, cfg.GlobalRateLimitRPS)
	sessionLimiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
		MaxTokens:     cfg.SessionRateLimitBurst,
		RefillRate:    cfg.SessionRateLimitRefill,
		CleanupPeriod: 5 * time.Minute,
	})
	sessionLimiter.OnDrop(func() { m.RecordRateLimiterDrop("session") })
	defer sessionLimiter.Stop()

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: false}))
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(errorMetricsMiddleware(m))

	handler := &chatHandler{
		pipeline:       pipeline,
		sessions:       sessions,
		globalLimiter:  globalLimiter,
		sessionLimiter: sessionLimiter,
		metrics:        m,
		logger:         log.WithModule("http"),
	}
	setupRoutes(router, cfg, handler, db, retriever, dir, registry)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Run the server and background jobs until a signal arrives.
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		purgeStaleSessions(gctx, sessions, log)
		return nil
	})

	if dir != nil && staffSource != nil {
		g.Go(func() error {
			refreshStaffDirectory(gctx, dir, log)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
	log.Info("Server stopped")
}

// release builds the version string reported to logs and error tracking.
func release() string {
	if buildinfo.Version == "" {
		return "dev"
	}
	if buildinfo.Commit != "" {
		return buildinfo.Version + "+" + buildinfo.Commit
	}
	return buildinfo.Version
}

// loadDataset loads the FAQ entries from the local CSV, falling back to the
// zstd snapshot in object storage when the file is missing.
func loadDataset(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]knowledge.Entry, error) {
	if cfg.DatasetPath != "" {
		entries, err := knowledge.LoadCSV(cfg.DatasetPath)
		if err == nil {
			return entries, nil
		}
		if !cfg.HasSnapshotStore() {
			return nil, err
		}
		log.WithError(err).Warn("Local dataset unavailable, trying snapshot store")
	}

	if !cfg.HasSnapshotStore() {
		return nil, errors.New("no dataset source configured")
	}

	client, err := s3client.New(ctx, s3client.Config{
		Endpoint:    cfg.SnapshotEndpoint,
		AccessKeyID: cfg.SnapshotAccessKey,
		SecretKey:   cfg.SnapshotSecretKey,
		BucketName:  cfg.SnapshotBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}

	body, etag, err := client.Download(ctx, cfg.SnapshotKey)
	if err != nil {
		return nil, fmt.Errorf("snapshot download: %w", err)
	}
	defer func() { _ = body.Close() }()

	log.WithFields(map[string]any{"key": cfg.SnapshotKey, "etag": etag}).Info("Dataset snapshot downloaded")
	return knowledge.LoadSnapshot(body, cfg.SnapshotKey)
}
