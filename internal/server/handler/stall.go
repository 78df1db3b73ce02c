package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/campusbid/stallbid/internal/auction"
	"github.com/campusbid/stallbid/internal/domain"
)

// StallViews is the read surface the stall handler needs from the watch
// layer. It is declared locally so the handler package does not depend on
// the concrete wiring.
type StallViews interface {
	StallIDs() []int64
	State(stallID int64) (auction.ViewState, bool)
}

// StallHandler serves the watched-stall HTTP endpoints.
type StallHandler struct {
	views  StallViews
	bids   domain.BidStore // nil when no archive store is configured
	logger *slog.Logger
}

// NewStallHandler creates a StallHandler. bids may be nil; history is then
// served from the live view instead of the archive.
func NewStallHandler(views StallViews, bids domain.BidStore, logger *slog.Logger) *StallHandler {
	return &StallHandler{
		views:  views,
		bids:   bids,
		logger: logger,
	}
}

// stallStateResponse is the JSON projection of one live-auction view.
type stallStateResponse struct {
	StallID       int64        `json:"stall_id"`
	Phase         string       `json:"phase"`
	Stall         domain.Stall `json:"stall"`
	History       []domain.Bid `json:"history"`
	MinBidAmount  int64        `json:"min_bid_amount"`
	BidInput      int64        `json:"bid_input"`
	Countdown     string       `json:"countdown"`
	CountdownText string       `json:"countdown_label"`
	Urgent        bool         `json:"urgent"`
	SyncedAt      string       `json:"synced_at,omitempty"`
}

func toStallStateResponse(stallID int64, v auction.ViewState) stallStateResponse {
	resp := stallStateResponse{
		StallID:       stallID,
		Phase:         string(v.Phase),
		Stall:         v.Stall,
		History:       v.History,
		MinBidAmount:  v.MinBidAmount,
		BidInput:      v.BidInput,
		Countdown:     v.Countdown.Display,
		CountdownText: v.Countdown.Label,
		Urgent:        v.Countdown.Urgent,
	}
	if resp.History == nil {
		resp.History = []domain.Bid{}
	}
	if !v.SyncedAt.IsZero() {
		resp.SyncedAt = v.SyncedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// listStallsResponse wraps the list endpoint output.
type listStallsResponse struct {
	Stalls []stallStateResponse `json:"stalls"`
	Total  int                  `json:"total"`
}

// ListStalls returns the live view of every watched stall.
// GET /api/stalls
func (h *StallHandler) ListStalls(w http.ResponseWriter, r *http.Request) {
	ids := h.views.StallIDs()
	stalls := make([]stallStateResponse, 0, len(ids))
	for _, id := range ids {
		if state, ok := h.views.State(id); ok {
			stalls = append(stalls, toStallStateResponse(id, state))
		}
	}

	writeJSON(w, http.StatusOK, listStallsResponse{
		Stalls: stalls,
		Total:  len(stalls),
	})
}

// GetStall returns the live view of a single watched stall.
// GET /api/stalls/{id}
func (h *StallHandler) GetStall(w http.ResponseWriter, r *http.Request) {
	id, ok := stallIDParam(w, r)
	if !ok {
		return
	}

	state, ok := h.views.State(id)
	if !ok {
		writeError(w, http.StatusNotFound, "stall not watched")
		return
	}

	writeJSON(w, http.StatusOK, toStallStateResponse(id, state))
}

// listBidsResponse wraps the history endpoint output with metadata.
type listBidsResponse struct {
	Bids   []domain.Bid `json:"bids"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// GetHistory returns the bid history for a watched stall. When an archive
// store is configured it serves the full persisted history with pagination;
// otherwise it falls back to the capped in-memory history of the live view.
// GET /api/stalls/{id}/history?limit=50&offset=0
func (h *StallHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := stallIDParam(w, r)
	if !ok {
		return
	}

	if h.bids == nil {
		state, ok := h.views.State(id)
		if !ok {
			writeError(w, http.StatusNotFound, "stall not watched")
			return
		}
		bids := state.History
		if bids == nil {
			bids = []domain.Bid{}
		}
		writeJSON(w, http.StatusOK, listBidsResponse{
			Bids:  bids,
			Total: int64(len(bids)),
			Limit: len(bids),
		})
		return
	}

	opts := parseListOpts(r)

	bids, err := h.bids.ListByStall(r.Context(), id, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list bids failed",
			slog.Int64("stall_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list bids")
		return
	}
	if bids == nil {
		bids = []domain.Bid{}
	}

	total, err := h.bids.Count(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count bids failed",
			slog.Int64("stall_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count bids")
		return
	}

	writeJSON(w, http.StatusOK, listBidsResponse{
		Bids:   bids,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// HighestBid returns the highest archived bid for a stall.
// GET /api/stalls/{id}/highest
func (h *StallHandler) HighestBid(w http.ResponseWriter, r *http.Request) {
	id, ok := stallIDParam(w, r)
	if !ok {
		return
	}

	if h.bids == nil {
		writeError(w, http.StatusNotFound, "bid archive not configured")
		return
	}

	bid, err := h.bids.HighestByStall(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no bids recorded")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: highest bid failed",
			slog.Int64("stall_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get highest bid")
		return
	}

	writeJSON(w, http.StatusOK, bid)
}

// stallIDParam parses the {id} path parameter, writing a 400 on failure.
func stallIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := pathParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid stall id")
		return 0, false
	}
	return id, true
}
