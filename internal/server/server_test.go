package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campusbid/stallbid/internal/auction"
	"github.com/campusbid/stallbid/internal/domain"
	"github.com/campusbid/stallbid/internal/server/handler"
)

type stubViews struct{}

func (stubViews) StallIDs() []int64 { return []int64{7} }

func (stubViews) State(stallID int64) (auction.ViewState, bool) {
	if stallID != 7 {
		return auction.ViewState{}, false
	}
	return auction.NewViewState(), true
}

type stubBidder struct {
	placed int
}

func (b *stubBidder) Place(ctx context.Context, stallID, amount int64) (domain.BidResult, error) {
	b.placed++
	return domain.BidResult{Success: true, Message: "bid placed"}, nil
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (l *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.allowed, l.err
}

func newTestServer(cfg Config, bidder *stubBidder) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := Handlers{
		Health: handler.NewHealthHandler(logger),
		Status: handler.NewStatusHandler("serve", []int64{7}),
		Stalls: handler.NewStallHandler(stubViews{}, nil, logger),
		Bids:   handler.NewBidHandler(bidder, logger),
	}
	return NewServer(cfg, handlers, nil, logger)
}

func postBid(srv *Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/stalls/7/bids", strings.NewReader(`{"amount":5100}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rr, req)
	return rr
}

func TestBidRouteThrottledWhenLimitExceeded(t *testing.T) {
	bidder := &stubBidder{}
	srv := newTestServer(Config{
		Port:       8000,
		Limiter:    &stubLimiter{allowed: false},
		RateLimit:  5,
		RatePeriod: 10 * time.Second,
	}, bidder)

	rr := postBid(srv)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if bidder.placed != 0 {
		t.Errorf("placed = %d, bid reached the service despite the limit", bidder.placed)
	}
}

func TestBidRoutePassesUnderLimit(t *testing.T) {
	bidder := &stubBidder{}
	srv := newTestServer(Config{
		Port:       8000,
		Limiter:    &stubLimiter{allowed: true},
		RateLimit:  5,
		RatePeriod: 10 * time.Second,
	}, bidder)

	rr := postBid(srv)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if bidder.placed != 1 {
		t.Errorf("placed = %d", bidder.placed)
	}
}

func TestBidRouteFailsOpenOnLimiterError(t *testing.T) {
	bidder := &stubBidder{}
	srv := newTestServer(Config{
		Port:       8000,
		Limiter:    &stubLimiter{allowed: false, err: context.DeadlineExceeded},
		RateLimit:  5,
		RatePeriod: 10 * time.Second,
	}, bidder)

	rr := postBid(srv)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if bidder.placed != 1 {
		t.Errorf("placed = %d", bidder.placed)
	}
}

func TestBidRouteUnguardedWithoutLimiter(t *testing.T) {
	bidder := &stubBidder{}
	srv := newTestServer(Config{Port: 8000}, bidder)

	rr := postBid(srv)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestCORSHeadersOnAllowedOrigin(t *testing.T) {
	srv := newTestServer(Config{
		Port:        8000,
		CORSOrigins: []string{"https://dash.campus.example"},
	}, &stubBidder{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://dash.campus.example")
	rr := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.campus.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://other.example")
	rr = httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q for disallowed origin", got)
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	srv := newTestServer(Config{Port: 8000}, &stubBidder{})

	req := httptest.NewRequest(http.MethodOptions, "/api/stalls/7/bids", nil)
	req.Header.Set("Origin", "https://dash.campus.example")
	rr := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
}
