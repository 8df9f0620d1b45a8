package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/marovet/roundsync/internal/domain/entities"
	"github.com/marovet/roundsync/internal/domain/repositories"
	"github.com/marovet/roundsync/internal/validation"
	apperrors "github.com/marovet/roundsync/pkg/errors"
)

// PatientReader defines the read operations used by the patient handler.
type PatientReader interface {
	GetByID(ctx context.Context, id string) (*entities.UnifiedPatient, error)
	List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.UnifiedPatient, error)
}

// PatientHandler handles patient read and readiness endpoints.
type PatientHandler struct {
	patients PatientReader
}

// NewPatientHandler creates a new patient handler.
func NewPatientHandler(patients PatientReader) *PatientHandler {
	return &PatientHandler{patients: patients}
}

// ListPatients handles GET /api/patients
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	filter := repositories.PatientFilter{
		Status: entities.LifecycleStatus(r.URL.Query().Get("status")),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			filter.Offset = n
		}
	}

	patients, err := h.patients.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list patients")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// GetPatient handles GET /api/patients/{id}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "patient id is required")
		return
	}

	patient, err := h.patients.GetByID(r.Context(), id)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			respondWithError(w, http.StatusNotFound, "patient not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to get patient")
		return
	}

	respondWithJSON(w, http.StatusOK, patient)
}

type validateReadinessRequest struct {
	Patients []entities.UnifiedPatient `json:"patients"`
}

// ValidateReadiness handles POST /api/patients/validate-readiness. With an
// empty body it validates every stored patient instead.
func (h *PatientHandler) ValidateReadiness(w http.ResponseWriter, r *http.Request) {
	var payload validateReadinessRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	patients := payload.Patients
	if len(patients) == 0 {
		stored, err := h.patients.List(r.Context(), repositories.PatientFilter{Status: entities.StatusActive})
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to list patients")
			return
		}
		for _, p := range stored {
			patients = append(patients, *p)
		}
	}

	respondWithJSON(w, http.StatusOK, validation.ValidateForDocumentGeneration(patients))
}
