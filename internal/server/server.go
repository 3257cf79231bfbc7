// Package server exposes the staking ledger's public operation surface as a
// JSON/HTTP API plus a WebSocket event feed.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"staking-ledger/internal/server/handler"
	"staking-ledger/internal/server/middleware"
	"staking-ledger/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port int
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health *handler.HealthHandler
	Ledger *handler.LedgerHandler
}

// Server is the HTTP + WebSocket API server for the staking ledger.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered. wsHub may be nil
// when the event feed is disabled.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Mutating ledger operations.
	mux.HandleFunc("POST /api/stake", handlers.Ledger.Stake)
	mux.HandleFunc("POST /api/positions/{id}/close", handlers.Ledger.Close)
	mux.HandleFunc("POST /api/lock-periods", handlers.Ledger.ModifyLockPeriods)
	mux.HandleFunc("PUT /api/positions/{id}/unlock-date", handlers.Ledger.ChangeUnlockDate)

	// Read-only queries.
	mux.HandleFunc("GET /api/ledger", handlers.Ledger.Status)
	mux.HandleFunc("GET /api/positions", handlers.Ledger.ListPositionIDs)
	mux.HandleFunc("GET /api/positions/{id}", handlers.Ledger.GetPosition)
	mux.HandleFunc("GET /api/lock-periods", handlers.Ledger.ListLockPeriods)
	mux.HandleFunc("GET /api/interest-rate/{days}", handlers.Ledger.GetInterestRate)

	// WebSocket event feed.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	return s.httpServer.Shutdown(ctx)
}
