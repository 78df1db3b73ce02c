package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/campusbid/stallbid/internal/domain"
)

// ResultHandler serves archived auction outcomes.
type ResultHandler struct {
	results domain.ResultStore
	logger  *slog.Logger
}

// NewResultHandler creates a ResultHandler with the given store and logger.
func NewResultHandler(results domain.ResultStore, logger *slog.Logger) *ResultHandler {
	return &ResultHandler{
		results: results,
		logger:  logger,
	}
}

// listResultsResponse wraps the list endpoint output.
type listResultsResponse struct {
	Results []domain.BiddingResult `json:"results"`
	Total   int                    `json:"total"`
}

// ListResults returns the most recently declared auction outcomes.
// GET /api/results?limit=20
func (h *ResultHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	results, err := h.results.ListRecent(r.Context(), opts.Limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list results failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	if results == nil {
		results = []domain.BiddingResult{}
	}

	writeJSON(w, http.StatusOK, listResultsResponse{
		Results: results,
		Total:   len(results),
	})
}

// GetResult returns the declared outcome for one stall.
// GET /api/results/{id}
func (h *ResultHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	id, ok := stallIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.results.GetByStall(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no result for stall")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get result failed",
			slog.Int64("stall_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get result")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
