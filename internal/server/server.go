package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"transitfeed/internal/config"
	"transitfeed/internal/gtfs"
	"transitfeed/internal/handler"
	"transitfeed/internal/realtime"
	"transitfeed/internal/storage"
)

// Server is the HTTP server of the feed inspector.
type Server struct {
	mux     *http.ServeMux
	cfg     *config.Config
	logger  *slog.Logger
	holder  *gtfs.Holder
	limiter *clientLimiter
}

// New creates a new Server with all routes registered. db may be nil.
func New(cfg *config.Config, holder *gtfs.Holder, rt *realtime.Store, db *storage.DB, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	h := handler.New(holder, rt, db, cfg, logger)

	// Pages
	mux.HandleFunc("GET /", h.Summary)
	mux.HandleFunc("GET /agencies", h.AgencyList)
	mux.HandleFunc("GET /routes", h.RouteList)
	mux.HandleFunc("GET /routes/{id}", h.RouteDetail)
	mux.HandleFunc("GET /stops/{id}", h.StopDetail)
	mux.HandleFunc("GET /trips/{id}", h.TripDetail)
	mux.HandleFunc("GET /services/{id}", h.ServiceDetail)
	mux.HandleFunc("GET /realtime", h.Realtime)

	// API
	mux.HandleFunc("GET /api/summary", h.APISummary)
	mux.HandleFunc("GET /api/shapes/{id}", h.APIShape)
	mux.HandleFunc("GET /healthz", h.Healthz)

	return &Server{
		mux:     mux,
		cfg:     cfg,
		logger:  logger,
		holder:  holder,
		limiter: newClientLimiter(cfg.APIRateLimit),
	}
}

// Handler returns the mux wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return withMiddleware(s.mux, s.logger, s.holder, s.limiter)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
