package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marovet/roundsync/internal/adapters/cache"
	"github.com/marovet/roundsync/internal/domain/entities"
	"github.com/marovet/roundsync/internal/infrastructure/observability"
	apperrors "github.com/marovet/roundsync/pkg/errors"
)

// ImportRunner defines the import operations used by the handler.
type ImportRunner interface {
	ImportActivePatients(ctx context.Context, existingByName map[string]entities.UnifiedPatient) (*entities.ImportReport, error)
	LastImportReport(ctx context.Context) (*entities.ImportReport, error)
}

// Syncer defines the per-patient sync operations used by the handler.
type Syncer interface {
	SyncOne(ctx context.Context, existing entities.UnifiedPatient) (entities.UnifiedPatient, error)
	SyncMany(ctx context.Context, existing []entities.UnifiedPatient) *entities.SyncReport
}

// PatientStore defines the stored-patient operations used by the handler.
type PatientStore interface {
	GetByID(ctx context.Context, id string) (*entities.UnifiedPatient, error)
	Update(ctx context.Context, patient *entities.UnifiedPatient) error
	ActiveByName(ctx context.Context) (map[string]entities.UnifiedPatient, error)
}

// SyncHandler handles sync and import endpoints.
type SyncHandler struct {
	imports  ImportRunner
	syncer   Syncer
	patients PatientStore
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(imports ImportRunner, syncer Syncer, patients PatientStore) *SyncHandler {
	return &SyncHandler{
		imports:  imports,
		syncer:   syncer,
		patients: patients,
	}
}

// TriggerImport handles POST /api/sync/import
func (h *SyncHandler) TriggerImport(w http.ResponseWriter, r *http.Request) {
	existing, err := h.patients.ActiveByName(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load stored patients")
		return
	}

	report, err := h.imports.ImportActivePatients(r.Context(), existing)
	if err != nil {
		// The report still describes what happened; the status code tells
		// the client the provider side failed, not us.
		respondWithJSON(w, http.StatusBadGateway, report)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// SyncPatient handles POST /api/sync/patients/{id}
func (h *SyncHandler) SyncPatient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "patient id is required")
		return
	}

	existing, err := h.patients.GetByID(r.Context(), id)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			respondWithError(w, http.StatusNotFound, "patient not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to load patient")
		return
	}

	synced, err := h.syncer.SyncOne(r.Context(), *existing)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := h.patients.Update(r.Context(), &synced); err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).
			Str("patient_id", synced.ID).
			Msg("failed to persist synced patient")
		respondWithError(w, http.StatusInternalServerError, "sync succeeded but persisting failed")
		return
	}

	respondWithJSON(w, http.StatusOK, synced)
}

// SyncAllPatients handles POST /api/sync/patients
func (h *SyncHandler) SyncAllPatients(w http.ResponseWriter, r *http.Request) {
	byName, err := h.patients.ActiveByName(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load stored patients")
		return
	}

	existing := make([]entities.UnifiedPatient, 0, len(byName))
	for _, p := range byName {
		existing = append(existing, p)
	}

	report := h.syncer.SyncMany(r.Context(), existing)

	logger := observability.LoggerFromContext(r.Context())
	for i := range report.Patients {
		if err := h.patients.Update(r.Context(), &report.Patients[i]); err != nil {
			logger.Error().Err(err).
				Str("patient_id", report.Patients[i].ID).
				Msg("failed to persist synced patient")
			report.Errors = append(report.Errors, "persist "+report.Patients[i].Demographics.Name+": "+err.Error())
		}
	}

	respondWithJSON(w, http.StatusOK, report)
}

// GetImportReport handles GET /api/sync/report
func (h *SyncHandler) GetImportReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.imports.LastImportReport(r.Context())
	if err != nil {
		if errors.Is(err, cache.ErrNoReport) {
			respondWithError(w, http.StatusNotFound, "no import has run yet")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to load import report")
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
