package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/campusbid/stallbid/internal/domain"
	"github.com/campusbid/stallbid/internal/server/handler"
	"github.com/campusbid/stallbid/internal/server/middleware"
	"github.com/campusbid/stallbid/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// Limiter, when set, throttles bid submissions per client. It shares
	// the bidding rate policy so API callers compete under the same budget
	// as the local submitter.
	Limiter    domain.RateLimiter
	RateLimit  int
	RatePeriod time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Bids, Results and Archives may be nil; their routes are then not registered.
type Handlers struct {
	Health   *handler.HealthHandler
	Status   *handler.StatusHandler
	Stalls   *handler.StallHandler
	Bids     *handler.BidHandler
	Results  *handler.ResultHandler
	Archives *handler.ArchiveHandler
}

// Server is the headless HTTP + WebSocket API server for the auction client.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth) and attaches the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	// Watched stall endpoints.
	mux.HandleFunc("GET /api/stalls", handlers.Stalls.ListStalls)
	mux.HandleFunc("GET /api/stalls/{id}", handlers.Stalls.GetStall)
	mux.HandleFunc("GET /api/stalls/{id}/history", handlers.Stalls.GetHistory)
	mux.HandleFunc("GET /api/stalls/{id}/highest", handlers.Stalls.HighestBid)

	// Bid submission, rate limited per client when a limiter is wired.
	if handlers.Bids != nil {
		var place http.Handler = http.HandlerFunc(handlers.Bids.PlaceBid)
		if cfg.Limiter != nil && cfg.RateLimit > 0 {
			place = middleware.RateLimit(cfg.Limiter, cfg.RateLimit, cfg.RatePeriod)(place)
		}
		mux.Handle("POST /api/stalls/{id}/bids", place)
	}

	// Archived auction outcomes.
	if handlers.Results != nil {
		mux.HandleFunc("GET /api/results", handlers.Results.ListResults)
		mux.HandleFunc("GET /api/results/{id}", handlers.Results.GetResult)
	}

	// Cold-storage auction records.
	if handlers.Archives != nil {
		mux.HandleFunc("GET /api/stalls/{id}/archives", handlers.Archives.ListArchives)
		mux.HandleFunc("GET /api/stalls/{id}/archives/latest", handlers.Archives.LatestArchive)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
