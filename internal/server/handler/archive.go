package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	s3blob "github.com/campusbid/stallbid/internal/blob/s3"
	"github.com/campusbid/stallbid/internal/domain"
)

// ArchiveStore is the cold-storage surface the archive handler reads. It is
// declared locally so the handler package does not depend on the concrete
// wiring.
type ArchiveStore interface {
	ListAuctionArchives(ctx context.Context, stallID int64) ([]domain.BlobInfo, error)
	LatestAuction(ctx context.Context, stallID int64) (s3blob.AuctionRecord, error)
}

// ArchiveHandler serves closed-auction records out of cold storage.
type ArchiveHandler struct {
	archives ArchiveStore
	logger   *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler with the given store and logger.
func NewArchiveHandler(archives ArchiveStore, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archives: archives,
		logger:   logger,
	}
}

// archiveInfoResponse describes one stored record.
type archiveInfoResponse struct {
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified,omitempty"`
}

// listArchivesResponse wraps the list endpoint output.
type listArchivesResponse struct {
	Archives []archiveInfoResponse `json:"archives"`
	Total    int                   `json:"total"`
}

// ListArchives returns metadata for every archived record of one stall.
// GET /api/stalls/{id}/archives
func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	id, ok := stallIDParam(w, r)
	if !ok {
		return
	}

	infos, err := h.archives.ListAuctionArchives(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list archives failed",
			slog.Int64("stall_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}

	out := make([]archiveInfoResponse, 0, len(infos))
	for _, info := range infos {
		entry := archiveInfoResponse{Path: info.Path, Size: info.Size}
		if !info.LastModified.IsZero() {
			entry.LastModified = info.LastModified.UTC().Format(time.RFC3339)
		}
		out = append(out, entry)
	}

	writeJSON(w, http.StatusOK, listArchivesResponse{
		Archives: out,
		Total:    len(out),
	})
}

// LatestArchive returns the most recently archived record for one stall.
// GET /api/stalls/{id}/archives/latest
func (h *ArchiveHandler) LatestArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := stallIDParam(w, r)
	if !ok {
		return
	}

	rec, err := h.archives.LatestAuction(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no archive for stall")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: latest archive failed",
			slog.Int64("stall_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load archive")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
