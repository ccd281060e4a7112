package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hmansour/medilabel/internal/gateway"
	"github.com/hmansour/medilabel/internal/model"
)

type GroupHandler struct {
	gateway *gateway.Client
	logger  *slog.Logger
}

func NewGroupHandler(gw *gateway.Client, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{
		gateway: gw,
		logger:  logger.With("component", "group_handler"),
	}
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.gateway.Groups(r.Context())
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	if groups == nil {
		groups = []model.GroupSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "groups": groups})
}

func (h *GroupHandler) Details(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	detail, err := h.gateway.GroupDetails(r.Context(), groupID)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "group": detail})
}

type groupRequest struct {
	GroupName   string            `json:"groupName"`
	Description string            `json:"description"`
	Drugs       []model.GroupDrug `json:"drugs"`
}

func (req *groupRequest) validate() string {
	req.GroupName = strings.TrimSpace(req.GroupName)
	if req.GroupName == "" {
		return "groupName is required"
	}
	if len(req.Drugs) == 0 {
		return "a group needs at least one drug"
	}
	for _, d := range req.Drugs {
		if strings.TrimSpace(d.DrugName) == "" {
			return "every group drug needs a name"
		}
	}
	return ""
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	detail, err := h.gateway.CreateGroup(r.Context(), gateway.GroupInput{
		GroupName:   req.GroupName,
		Description: req.Description,
		Drugs:       req.Drugs,
	})
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	h.logger.Info("group created", "group", detail.GroupName, "drugs", len(detail.Drugs))
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "group": detail})
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	detail, err := h.gateway.UpdateGroup(r.Context(), groupID, gateway.GroupInput{
		GroupName:   req.GroupName,
		Description: req.Description,
		Drugs:       req.Drugs,
	})
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "group": detail})
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	if err := h.gateway.DeleteGroup(r.Context(), groupID); err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
