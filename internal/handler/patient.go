package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hmansour/medilabel/internal/auth"
	"github.com/hmansour/medilabel/internal/gateway"
	"github.com/hmansour/medilabel/internal/model"
	"github.com/hmansour/medilabel/internal/store"
)

type PatientHandler struct {
	gateway  *gateway.Client
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewPatientHandler(gw *gateway.Client, sessions *store.SessionStore, logger *slog.Logger) *PatientHandler {
	return &PatientHandler{
		gateway:  gw,
		sessions: sessions,
		logger:   logger.With("component", "patient_handler"),
	}
}

// Search looks a patient up by file number and year and makes them the
// session's active patient. The basket is never touched by a patient
// switch.
func (h *PatientHandler) Search(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	patientID := strings.TrimSpace(r.URL.Query().Get("patientId"))
	year := strings.TrimSpace(r.URL.Query().Get("year"))
	if patientID == "" || year == "" {
		writeError(w, http.StatusBadRequest, "patientId and year are required")
		return
	}

	patient, err := h.gateway.SearchPatient(r.Context(), patientID, year)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	if err := h.sessions.SetPatient(ac.SessionID, patient); err != nil {
		h.logger.Error("set session patient", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to select patient")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "patient": patient})
}

type selectPatientRequest struct {
	PatientID string `json:"patientId"`
	Year      string `json:"year"`
}

// Select makes a known patient the session's active one. It revalidates
// against the backend so a stale roster row cannot be selected.
func (h *PatientHandler) Select(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req selectPatientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.PatientID = strings.TrimSpace(req.PatientID)
	req.Year = strings.TrimSpace(req.Year)
	if req.PatientID == "" || req.Year == "" {
		writeError(w, http.StatusBadRequest, "patientId and year are required")
		return
	}

	patient, err := h.gateway.SearchPatient(r.Context(), req.PatientID, req.Year)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	if err := h.sessions.SetPatient(ac.SessionID, patient); err != nil {
		h.logger.Error("set session patient", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to select patient")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "patient": patient})
}

// ClearActive deselects the session's patient.
func (h *PatientHandler) ClearActive(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := h.sessions.SetPatient(ac.SessionID, nil); err != nil {
		h.logger.Error("clear session patient", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear patient")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	result, err := h.gateway.ListPatients(r.Context(), page, perPage, strings.TrimSpace(q.Get("search")))
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	if result.Patients == nil {
		result.Patients = []model.Patient{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"patients": result.Patients,
		"total":    result.Total,
		"page":     result.Page,
		"perPage":  result.PerPage,
	})
}

type patientRequest struct {
	PatientID   string `json:"patientId"`
	Year        string `json:"year"`
	PatientName string `json:"patientName"`
	NationalID  string `json:"nationalId"`
}

func (req *patientRequest) validate() string {
	req.PatientID = strings.TrimSpace(req.PatientID)
	req.Year = strings.TrimSpace(req.Year)
	req.PatientName = strings.TrimSpace(req.PatientName)
	if req.PatientID == "" || req.Year == "" || req.PatientName == "" {
		return "patientId, year and patientName are required"
	}
	return ""
}

// Create registers a patient on the backend and immediately selects them,
// matching the register-then-label workflow at the counter.
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	patient, err := h.gateway.CreatePatient(r.Context(), model.Patient{
		PatientID:   req.PatientID,
		Year:        req.Year,
		PatientName: req.PatientName,
		NationalID:  req.NationalID,
	})
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	if err := h.sessions.SetPatient(ac.SessionID, patient); err != nil {
		h.logger.Error("select created patient", "error", err)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "patient": patient})
}

func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.PatientID = chi.URLParam(r, "patientID")
	req.Year = chi.URLParam(r, "year")
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	patient, err := h.gateway.UpdatePatient(r.Context(), model.Patient{
		PatientID:   req.PatientID,
		Year:        req.Year,
		PatientName: req.PatientName,
		NationalID:  req.NationalID,
	})
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	// Keep the active selection in sync when it is the patient just edited.
	if ac.Patient != nil && ac.Patient.PatientID == patient.PatientID && ac.Patient.Year == patient.Year {
		if err := h.sessions.SetPatient(ac.SessionID, patient); err != nil {
			h.logger.Error("refresh selected patient", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "patient": patient})
}

func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	patientID := chi.URLParam(r, "patientID")
	year := chi.URLParam(r, "year")
	if err := h.gateway.DeletePatient(r.Context(), patientID, year); err != nil {
		writeGatewayError(w, err)
		return
	}

	if ac.Patient != nil && ac.Patient.PatientID == patientID && ac.Patient.Year == year {
		if err := h.sessions.SetPatient(ac.SessionID, nil); err != nil {
			h.logger.Error("clear deleted patient", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
