package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hmansour/medilabel/internal/auth"
	"github.com/hmansour/medilabel/internal/gateway"
	"github.com/hmansour/medilabel/internal/middleware"
	"github.com/hmansour/medilabel/internal/store"
)

type AuthHandler struct {
	gateway  *gateway.Client
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(gw *gateway.Client, sessions *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		gateway:  gw,
		sessions: sessions,
		logger:   logger.With("component", "auth"),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates against the backend and opens a local session. The
// backend is the only credential authority; nothing is checked here beyond
// non-empty fields.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := h.gateway.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("login rejected", "username", req.Username, "remote", middleware.RealIP(r))
		writeGatewayError(w, err)
		return
	}

	// Cap the local session at the backend token's expiry so we never hold
	// a session whose upstream credential is already dead.
	var tokenExpiry time.Time
	if claims, err := gateway.ParseTokenClaims(result.Token); err == nil {
		tokenExpiry = claims.ExpiresAt
	}

	sess, err := h.sessions.Create(result.User, result.Token, tokenExpiry)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("login", "username", result.User.Username, "level", result.User.AccessLevel)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    result.User,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me returns the logged-in user and their session's active patient.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    ac.User,
		"patient": ac.Patient,
	})
}
