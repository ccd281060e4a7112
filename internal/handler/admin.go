package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hmansour/medilabel/internal/backup"
	"github.com/hmansour/medilabel/internal/gateway"
	"github.com/hmansour/medilabel/internal/model"
	"github.com/hmansour/medilabel/internal/store"
)

// AdminHandler covers user administration, statistics and backups. Every
// route here sits behind the admin middleware.
type AdminHandler struct {
	gateway *gateway.Client
	audit   *store.AuditStore
	backups *store.BackupStore
	manager *backup.Manager
	logger  *slog.Logger
}

func NewAdminHandler(gw *gateway.Client, auditStore *store.AuditStore, backups *store.BackupStore, manager *backup.Manager, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		gateway: gw,
		audit:   auditStore,
		backups: backups,
		manager: manager,
		logger:  logger.With("component", "admin_handler"),
	}
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.gateway.Users(r.Context())
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	if users == nil {
		users = []gateway.BackendUser{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

type createUserRequest struct {
	Username    string `json:"username"`
	FullName    string `json:"fullName"`
	Password    string `json:"password"`
	AccessLevel string `json:"accessLevel"`
}

func validAccessLevel(level string) bool {
	switch level {
	case model.AccessLevelUser, model.AccessLevelManager, model.AccessLevelAdmin:
		return true
	}
	return false
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Username == "" || req.FullName == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, fullName and password are required")
		return
	}
	if !validAccessLevel(req.AccessLevel) {
		writeError(w, http.StatusBadRequest, "accessLevel must be user, manager or admin")
		return
	}

	user, err := h.gateway.CreateUser(r.Context(), gateway.NewUser{
		UserName:    req.Username,
		FullName:    req.FullName,
		Password:    req.Password,
		AccessLevel: req.AccessLevel,
	})
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	h.logger.Info("user created", "username", user.UserName, "level", user.AccessLevel)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "user": user})
}

type updateUserRequest struct {
	FullName    string `json:"fullName"`
	Password    string `json:"password"`
	AccessLevel string `json:"accessLevel"`
	IsActive    bool   `json:"isActive"`
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !validAccessLevel(req.AccessLevel) {
		writeError(w, http.StatusBadRequest, "accessLevel must be user, manager or admin")
		return
	}

	user, err := h.gateway.UpdateUser(r.Context(), id, gateway.UserUpdate{
		FullName:    strings.TrimSpace(req.FullName),
		Password:    req.Password,
		AccessLevel: req.AccessLevel,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.gateway.DeleteUser(r.Context(), id); err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Statistics combines backend aggregates with local audit counts.
func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.gateway.Statistics(r.Context())
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	auditCount, err := h.audit.Count()
	if err != nil {
		h.logger.Error("count audit entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load statistics")
		return
	}

	groupCount := 0
	if groups, err := h.gateway.Groups(r.Context()); err == nil {
		groupCount = len(groups)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"statistics": map[string]any{
			"totalPatients":    stats.TotalPatients,
			"totalMedications": stats.TotalMedications,
			"totalUsers":       stats.TotalUsers,
			"totalGroups":      groupCount,
			"auditEntries":     auditCount,
		},
	})
}

// RecentActivity returns the latest audit entries for the dashboard.
func (h *AdminHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.ListRecent(20)
	if err != nil {
		h.logger.Error("recent activity", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load recent activity")
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "entries": entries})
}

func (h *AdminHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.List()
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "backups": backups})
}

// RunBackup triggers an immediate backup outside the schedule.
func (h *AdminHandler) RunBackup(w http.ResponseWriter, r *http.Request) {
	// Detached from the request context; a closed browser tab should not
	// abort a half-written backup.
	filename, err := h.manager.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			writeError(w, http.StatusInternalServerError, "backup was interrupted")
			return
		}
		h.logger.Error("manual backup", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "filename": filename})
}
