// Command analytics starts the standalone analytics aggregation service.
//
// It consumes score events from Kafka, aggregates them in memory (score
// percentiles, cache hit rate, degenerate references, most frequently
// missing keywords), optionally snapshots the stats to PostgreSQL and serves
// them at GET /api/v1/analytics.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
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
	"github.com/lou463/Underscore-Resume-BETA01/internal/analytics"
	"github.com/lou463/Underscore-Resume-BETA01/internal/analytics/aggregator"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/config"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/health"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/kafka"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/logger"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/middleware"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/postgres"
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
	slog.Info("starting analytics service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ScoreEvents, agg.HandleEvent())
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started", "topic", cfg.Kafka.Topics.ScoreEvents)

	checker := health.NewChecker()
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		select {
		case <-consumerDone:
			return health.ComponentHealth{Status: health.StatusDown, Message: "consumer stopped"}
		default:
			return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
		}
	})

	var snapshots analytics.SnapshotLister
	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		snapStore := aggregator.NewStore(db)
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = snapStore.Migrate(migrateCtx)
		cancel()
		if err != nil {
			slog.Error("failed to migrate snapshot schema", "error", err)
			os.Exit(1)
		}
		snapStore.StartPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval)
		snapshots = snapStore
		checker.Register("postgres", health.PingCheck(db, false))
	}

	analyticsHandler := analytics.NewHandler(agg, snapshots)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	mux.HandleFunc("GET /api/v1/analytics/snapshots", analyticsHandler.Snapshots)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
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

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	<-consumerDone
	if err := consumer.Close(); err != nil {
		slog.Error("closing consumer", "error", err)
	}
	slog.Info("analytics service stopped")
}
