package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hmansour/medilabel/internal/auth"
	"github.com/hmansour/medilabel/internal/basket"
	"github.com/hmansour/medilabel/internal/group"
	"github.com/hmansour/medilabel/internal/model"
	"github.com/hmansour/medilabel/internal/websocket"
)

type BasketHandler struct {
	basket *basket.Store
	groups *group.Engine
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewBasketHandler(b *basket.Store, g *group.Engine, hub *websocket.Hub, logger *slog.Logger) *BasketHandler {
	return &BasketHandler{
		basket: b,
		groups: g,
		hub:    hub,
		logger: logger.With("component", "basket_handler"),
	}
}

func (h *BasketHandler) broadcast() {
	h.hub.Broadcast(websocket.BasketUpdated(len(h.basket.Items()), h.basket.TotalLabels()))
}

// Get returns the basket with its derived counts and print-readiness.
func (h *BasketHandler) Get(w http.ResponseWriter, r *http.Request) {
	items := h.basket.Items()
	if items == nil {
		items = []model.LineItem{}
	}
	missing := h.basket.MissingRequiredExpiry()
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"items":         items,
		"totalLabels":   h.basket.TotalLabels(),
		"missingExpiry": missing,
	})
}

type addItemRequest struct {
	Drug        model.Drug `json:"drug"`
	Instruction string     `json:"instruction"`
}

func (h *BasketHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Drug.DrugName) == "" {
		writeError(w, http.StatusBadRequest, "drug name is required")
		return
	}

	item, err := h.basket.Add(ac.Patient, req.Drug, req.Instruction)
	if err != nil {
		h.writeBasketError(w, err)
		return
	}
	h.broadcast()
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "item": item})
}

// AddGroup expands a medication group into the basket.
func (h *BasketHandler) AddGroup(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	groupID, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	// Check the patient first so the user gets the actionable error and no
	// backend round trip is wasted.
	if ac.Patient == nil {
		h.writeBasketError(w, basket.ErrNoPatientSelected)
		return
	}

	detail, err := h.groups.Expand(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, group.ErrNoDrugs) {
			writeError(w, http.StatusUnprocessableEntity, "group contains no drugs")
			return
		}
		writeGatewayError(w, err)
		return
	}

	added, err := h.basket.AddGroupItems(ac.Patient, detail.GroupName, detail.Drugs)
	if err != nil {
		h.writeBasketError(w, err)
		return
	}
	h.broadcast()
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"group":   detail.GroupName,
		"added":   added,
	})
}

type quantityRequest struct {
	Quantity any `json:"quantity"`
}

// UpdateQuantity accepts the quantity as number or string; out-of-range and
// unparseable values are clamped, never rejected.
func (h *BasketHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	raw := ""
	switch v := req.Quantity.(type) {
	case string:
		raw = v
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	}

	item, err := h.basket.UpdateQuantity(chi.URLParam(r, "itemID"), raw)
	if err != nil {
		h.writeBasketError(w, err)
		return
	}
	h.broadcast()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

type expiryRequest struct {
	Month *string `json:"month"`
	Year  *string `json:"year"`
}

// SetExpiry updates whichever expiry parts the request carries.
func (h *BasketHandler) SetExpiry(w http.ResponseWriter, r *http.Request) {
	var req expiryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Month == nil && req.Year == nil {
		writeError(w, http.StatusBadRequest, "month or year is required")
		return
	}

	itemID := chi.URLParam(r, "itemID")
	var item model.LineItem
	var err error
	if req.Month != nil {
		if item, err = h.basket.SetExpiryMonth(itemID, *req.Month); err != nil {
			h.writeBasketError(w, err)
			return
		}
	}
	if req.Year != nil {
		if item, err = h.basket.SetExpiryYear(itemID, *req.Year); err != nil {
			h.writeBasketError(w, err)
			return
		}
	}
	h.broadcast()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

func (h *BasketHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.basket.Remove(chi.URLParam(r, "itemID")); err != nil {
		h.writeBasketError(w, err)
		return
	}
	h.broadcast()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *BasketHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.basket.Clear(); err != nil {
		h.writeBasketError(w, err)
		return
	}
	h.broadcast()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Duplicate replaces the basket with fresh-id copies of every line.
func (h *BasketHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	items, err := h.basket.Duplicate()
	if err != nil {
		h.writeBasketError(w, err)
		return
	}
	h.broadcast()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "items": items})
}

func (h *BasketHandler) ResetExpiry(w http.ResponseWriter, r *http.Request) {
	if err := h.basket.ResetAllExpiry(); err != nil {
		h.writeBasketError(w, err)
		return
	}
	h.broadcast()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *BasketHandler) writeBasketError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, basket.ErrNoPatientSelected):
		writeError(w, http.StatusConflict, "select a patient before adding medications")
	case errors.Is(err, basket.ErrNotFound):
		writeError(w, http.StatusNotFound, "basket item not found")
	case errors.Is(err, basket.ErrEmpty):
		writeError(w, http.StatusConflict, "basket is empty")
	case errors.Is(err, basket.ErrEmptyGroup):
		writeError(w, http.StatusUnprocessableEntity, "group contains no drugs")
	default:
		h.logger.Error("basket operation", "error", err)
		writeError(w, http.StatusInternalServerError, "basket operation failed")
	}
}
