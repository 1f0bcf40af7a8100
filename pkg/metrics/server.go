package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a gatherer for scraping on a port separate from the API.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds the scrape server. GET / redirects to /metrics; gather
// errors are logged and the metrics that could be collected are still served.
func NewServer(port int, gatherer prometheus.Gatherer) *Server {
	logger := slog.Default().With("component", "metrics-server")
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		ErrorHandling:     promhttp.ContinueOnError,
		EnableOpenMetrics: true,
	}))
	mux.Handle("GET /{$}", http.RedirectHandler("/metrics", http.StatusFound))

	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start listens in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Info("metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server error", "error", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
