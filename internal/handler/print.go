package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hmansour/medilabel/internal/auth"
	"github.com/hmansour/medilabel/internal/basket"
	"github.com/hmansour/medilabel/internal/metrics"
	"github.com/hmansour/medilabel/internal/printing"
	"github.com/hmansour/medilabel/internal/websocket"
)

type PrintHandler struct {
	printer *printing.Orchestrator
	metrics *metrics.Metrics
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewPrintHandler(p *printing.Orchestrator, m *metrics.Metrics, hub *websocket.Hub, logger *slog.Logger) *PrintHandler {
	return &PrintHandler{
		printer: p,
		metrics: m,
		hub:     hub,
		logger:  logger.With("component", "print_handler"),
	}
}

// Print runs the current basket through the print pipeline and returns the
// rendered label document. The basket survives so the run can be repeated.
func (h *PrintHandler) Print(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	result, err := h.printer.Print(ac.Patient, ac.User, time.Now())
	if err != nil {
		h.writePrintError(w, err)
		return
	}

	h.metrics.PrintSessionsTotal.Inc()
	h.metrics.LabelsPrintedTotal.Add(float64(result.LabelCount))
	h.metrics.AuditEntriesTotal.Add(float64(result.EntryCount))
	h.hub.Broadcast(websocket.PrintCompleted(result.PrintSessionID, result.LabelCount))
	h.hub.Broadcast(websocket.AuditAppended(result.EntryCount))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"html":           result.HTML,
		"labelCount":     result.LabelCount,
		"entryCount":     result.EntryCount,
		"printSessionId": result.PrintSessionID,
	})
}

func (h *PrintHandler) writePrintError(w http.ResponseWriter, err error) {
	var missing *printing.MissingExpiryError
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusConflict, map[string]any{
			"success":       false,
			"message":       "some medications are missing expiry dates",
			"missingExpiry": missing.Drugs,
		})
	case errors.Is(err, basket.ErrNoPatientSelected):
		writeError(w, http.StatusConflict, "select a patient before printing")
	case errors.Is(err, basket.ErrEmpty):
		writeError(w, http.StatusConflict, "the basket is empty")
	default:
		h.logger.Error("print failed", "error", err)
		writeError(w, http.StatusInternalServerError, "print failed")
	}
}
