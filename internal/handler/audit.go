package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hmansour/medilabel/internal/audit"
	"github.com/hmansour/medilabel/internal/model"
	"github.com/hmansour/medilabel/internal/store"
)

type AuditHandler struct {
	entries *store.AuditStore
	logger  *slog.Logger
}

func NewAuditHandler(entries *store.AuditStore, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		entries: entries,
		logger:  logger.With("component", "audit_handler"),
	}
}

// List returns the full audit log, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.ListAll()
	if err != nil {
		h.logger.Error("list audit entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load audit log")
		return
	}

	// Stored oldest first; the UI wants the latest print on top.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "entries": entries, "count": len(entries)})
}

// Export streams the audit log as a dated CSV download.
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.ListAll()
	if err != nil {
		h.logger.Error("export audit entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load audit log")
		return
	}

	data, err := audit.ExportCSV(entries)
	if err != nil {
		if errors.Is(err, audit.ErrNoEntries) {
			writeError(w, http.StatusConflict, "there are no audit entries to export")
			return
		}
		h.logger.Error("render audit csv", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export audit log")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+audit.FileName(time.Now())+`"`)
	w.Write(data)
}

type clearRequest struct {
	Confirm bool `json:"confirm"`
}

// Clear wipes the entire audit log. The explicit confirm flag keeps a
// stray DELETE from erasing the print history.
func (h *AuditHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Confirm {
		writeError(w, http.StatusBadRequest, "confirmation is required to clear the audit log")
		return
	}

	removed, err := h.entries.ClearAll()
	if err != nil {
		h.logger.Error("clear audit log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear audit log")
		return
	}
	h.logger.Info("audit log cleared", "removed", removed)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "removed": removed})
}
