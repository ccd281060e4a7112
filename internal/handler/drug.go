package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hmansour/medilabel/internal/auth"
	"github.com/hmansour/medilabel/internal/basket"
	"github.com/hmansour/medilabel/internal/expiry"
	"github.com/hmansour/medilabel/internal/gateway"
	"github.com/hmansour/medilabel/internal/model"
	"github.com/hmansour/medilabel/internal/websocket"
)

type DrugHandler struct {
	gateway *gateway.Client
	basket  *basket.Store
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewDrugHandler(gw *gateway.Client, b *basket.Store, hub *websocket.Hub, logger *slog.Logger) *DrugHandler {
	return &DrugHandler{
		gateway: gw,
		basket:  b,
		hub:     hub,
		logger:  logger.With("component", "drug_handler"),
	}
}

func (h *DrugHandler) List(w http.ResponseWriter, r *http.Request) {
	drugs, err := h.gateway.Medications(r.Context())
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	if drugs == nil {
		drugs = []model.Drug{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "medications": drugs})
}

type customDrugRequest struct {
	DrugName       string `json:"drugName"`
	Instruction    string `json:"instruction"`
	RequiresExpiry *bool  `json:"requiresExpiryDate"`
	AddToBasket    bool   `json:"addToBasket"`
}

// AddCustom registers a one-off drug and optionally drops it straight into
// the basket. An omitted requires-expiry flag means it is required.
func (h *DrugHandler) AddCustom(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req customDrugRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.DrugName = strings.TrimSpace(req.DrugName)
	if req.DrugName == "" {
		writeError(w, http.StatusBadRequest, "drugName is required")
		return
	}
	if req.AddToBasket && ac.Patient == nil {
		writeError(w, http.StatusConflict, "select a patient before adding medications")
		return
	}

	requires := true
	if req.RequiresExpiry != nil {
		requires = *req.RequiresExpiry
	}
	drug := model.Drug{
		DrugName:       req.DrugName,
		Instruction:    req.Instruction,
		RequiresExpiry: expiry.FlagOf(requires),
	}

	created, err := h.gateway.AddCustomDrug(r.Context(), drug)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	response := map[string]any{"success": true, "medication": created}
	if req.AddToBasket {
		item, err := h.basket.Add(ac.Patient, *created, "")
		if err != nil {
			h.logger.Error("add custom drug to basket", "error", err)
			writeError(w, http.StatusInternalServerError, "drug saved but could not be added to basket")
			return
		}
		h.hub.Broadcast(websocket.BasketUpdated(len(h.basket.Items()), h.basket.TotalLabels()))
		response["item"] = item
	}
	writeJSON(w, http.StatusCreated, response)
}
