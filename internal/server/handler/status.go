package handler

import (
	"net/http"
	"time"
)

// StatusHandler serves the backend status (mode, watched stalls) for the
// dashboard.
type StatusHandler struct {
	Mode      string
	StallIDs  []int64
	StartedAt time.Time
}

// NewStatusHandler creates a StatusHandler with the given mode and stall IDs.
func NewStatusHandler(mode string, stallIDs []int64) *StatusHandler {
	return &StatusHandler{Mode: mode, StallIDs: stallIDs, StartedAt: time.Now().UTC()}
}

// GetStatus responds with the current run mode, watched stalls, and uptime.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	stalls := h.StallIDs
	if stalls == nil {
		stalls = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":           h.Mode,
		"watched_stalls": stalls,
		"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
	})
}
