package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/campusbid/stallbid/internal/domain"
)

// BidService places a bid on a watched stall. Declared locally so the
// handler does not depend on the concrete submitter wiring.
type BidService interface {
	Place(ctx context.Context, stallID, amount int64) (domain.BidResult, error)
}

// BidHandler serves the bid submission endpoint.
type BidHandler struct {
	bids   BidService
	logger *slog.Logger
}

// NewBidHandler creates a BidHandler with the given service and logger.
func NewBidHandler(bids BidService, logger *slog.Logger) *BidHandler {
	return &BidHandler{
		bids:   bids,
		logger: logger,
	}
}

// placeBidRequest is the submission payload.
type placeBidRequest struct {
	Amount int64 `json:"amount"`
}

// placeBidResponse mirrors the backend's acceptance envelope.
type placeBidResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Bid     *domain.Bid `json:"bid,omitempty"`
}

// PlaceBid submits a bid on a watched stall. Validation failures map to
// client-error statuses; the backend's rejection message is passed through
// verbatim so the caller sees the authoritative reason.
// POST /api/stalls/{id}/bids
func (h *BidHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	id, ok := stallIDParam(w, r)
	if !ok {
		return
	}

	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	result, err := h.bids.Place(r.Context(), id, req.Amount)
	if err != nil {
		h.writeBidError(w, r, id, req.Amount, err)
		return
	}

	writeJSON(w, http.StatusOK, placeBidResponse{
		Success: result.Success,
		Message: result.Message,
		Bid:     result.Bid,
	})
}

func (h *BidHandler) writeBidError(w http.ResponseWriter, r *http.Request, stallID, amount int64, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "stall not watched")
	case errors.Is(err, domain.ErrBidTooLow):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrAuctionNotStarted):
		writeError(w, http.StatusConflict, "auction has not started")
	case errors.Is(err, domain.ErrAuctionEnded):
		writeError(w, http.StatusConflict, "auction has ended")
	case errors.Is(err, domain.ErrBidInFlight):
		writeError(w, http.StatusConflict, "a bid is already in flight")
	case errors.Is(err, domain.ErrBidRejected):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "session expired")
	default:
		h.logger.ErrorContext(r.Context(), "handler: place bid failed",
			slog.Int64("stall_id", stallID),
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to place bid")
	}
}
