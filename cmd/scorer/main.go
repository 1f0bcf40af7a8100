// Command scorer serves the keyword extraction, overlap scoring and resume
// analysis API.
//
// Usage:
//
//	go run ./cmd/scorer [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lou463/Underscore-Resume-BETA01/internal/analysis"
	"github.com/lou463/Underscore-Resume-BETA01/internal/analysis/store"
	"github.com/lou463/Underscore-Resume-BETA01/internal/analytics"
	"github.com/lou463/Underscore-Resume-BETA01/internal/api/handler"
	"github.com/lou463/Underscore-Resume-BETA01/internal/ats"
	"github.com/lou463/Underscore-Resume-BETA01/internal/document"
	"github.com/lou463/Underscore-Resume-BETA01/internal/scoring"
	"github.com/lou463/Underscore-Resume-BETA01/internal/scoring/cache"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/config"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/health"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/kafka"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/logger"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/metrics"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/middleware"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/postgres"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/ratelimit"
	pkgredis "github.com/lou463/Underscore-Resume-BETA01/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting scorer service",
		"port", cfg.Server.Port,
		"language", cfg.Keywords.Language,
		"min_length", cfg.Keywords.MinLength,
		"stemming", cfg.Keywords.Stemming,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		metricsServer.Start()
		defer metricsServer.Shutdown(context.Background())
	}

	static, err := ats.StaticAxesFromConfig(cfg.ATS)
	if err != nil {
		slog.Error("invalid ats placeholders", "error", err)
		os.Exit(1)
	}

	checker := health.NewChecker()

	var scoreCache scoring.Cache
	var cacheAdmin handler.CacheAdmin
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, score caching disabled", "error", err)
			checker.Register("redis", health.PingCheck(nil, false))
		} else {
			defer redisClient.Close()
			resultCache := cache.New(redisClient, cfg.Redis.CacheTTL)
			scoreCache, cacheAdmin = resultCache, resultCache
			checker.Register("redis", health.PingCheck(redisClient, false))
			slog.Info("score cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var tracker scoring.Tracker
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ScoreEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Analytics.BufferSize, m.EventsDroppedTotal)
		collector.Start(ctx)
		defer collector.Close()
		tracker = collector
		slog.Info("analytics collector started", "topic", producer.Topic())
	}

	var analyses store.Store = store.NewMemory(1000)
	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = pg.Migrate(migrateCtx)
		cancel()
		if err != nil {
			slog.Error("failed to migrate analyses schema", "error", err)
			os.Exit(1)
		}
		analyses = pg
		checker.Register("postgres", health.PingCheck(db, true))
		slog.Info("analysis store enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	} else {
		slog.Warn("postgres disabled, analyses kept in memory")
	}

	var source handler.DocumentSource
	if cfg.Storage.Enabled {
		s3Source, err := document.NewS3Source(ctx, cfg.Storage, cfg.Documents.MaxBytes)
		if err != nil {
			slog.Error("failed to configure object storage", "error", err)
			os.Exit(1)
		}
		source = s3Source
		slog.Info("object storage enabled", "bucket", cfg.Storage.Bucket, "endpoint", cfg.Storage.Endpoint)
	}

	svc, err := scoring.NewService(cfg.Keywords, scoreCache, m, tracker)
	if err != nil {
		slog.Error("invalid keyword configuration", "error", err)
		os.Exit(1)
	}
	checker.Register("scorer", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: svc.Config().Language}
	})

	h := handler.New(handler.Deps{
		Scorer:       svc,
		Analyzer:     analysis.NewAnalyzer(svc, static, cfg.ATS.IndustryAverage),
		Extractor:    document.NewExtractor(cfg.Documents, m),
		Source:       source,
		Store:        analyses,
		Cache:        cacheAdmin,
		Metrics:      m,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, time.Minute)
		defer limiter.Stop()
		chain = middleware.RateLimit(limiter)(chain)
	}
	chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.CORS.AllowOrigins))(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("scorer service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("scorer service stopped")
}
