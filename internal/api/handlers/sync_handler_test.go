package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marovet/roundsync/internal/adapters/cache"
	"github.com/marovet/roundsync/internal/api/handlers"
	"github.com/marovet/roundsync/internal/domain/entities"
	apperrors "github.com/marovet/roundsync/pkg/errors"
)

type stubImports struct {
	report     *entities.ImportReport
	importErr  error
	lastReport *entities.ImportReport
}

func (s *stubImports) ImportActivePatients(ctx context.Context, existingByName map[string]entities.UnifiedPatient) (*entities.ImportReport, error) {
	return s.report, s.importErr
}

func (s *stubImports) LastImportReport(ctx context.Context) (*entities.ImportReport, error) {
	if s.lastReport == nil {
		return nil, cache.ErrNoReport
	}
	return s.lastReport, nil
}

type stubSyncer struct {
	synced  entities.UnifiedPatient
	syncErr error
	report  *entities.SyncReport
}

func (s *stubSyncer) SyncOne(ctx context.Context, existing entities.UnifiedPatient) (entities.UnifiedPatient, error) {
	if s.syncErr != nil {
		return existing, s.syncErr
	}
	return s.synced, nil
}

func (s *stubSyncer) SyncMany(ctx context.Context, existing []entities.UnifiedPatient) *entities.SyncReport {
	return s.report
}

type stubStore struct {
	patients map[string]entities.UnifiedPatient
	updated  []entities.UnifiedPatient
}

func (s *stubStore) GetByID(ctx context.Context, id string) (*entities.UnifiedPatient, error) {
	p, ok := s.patients[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	return &p, nil
}

func (s *stubStore) Update(ctx context.Context, patient *entities.UnifiedPatient) error {
	s.updated = append(s.updated, *patient)
	return nil
}

func (s *stubStore) ActiveByName(ctx context.Context) (map[string]entities.UnifiedPatient, error) {
	byName := make(map[string]entities.UnifiedPatient)
	for _, p := range s.patients {
		byName[p.Demographics.Name] = p
	}
	return byName, nil
}

func rexPatient() entities.UnifiedPatient {
	return entities.UnifiedPatient{
		ID:           "p1",
		Demographics: entities.Demographics{Name: "Rex Jones"},
	}
}

func TestSyncHandler_TriggerImport(t *testing.T) {
	imports := &stubImports{report: &entities.ImportReport{Success: true}}
	store := &stubStore{patients: map[string]entities.UnifiedPatient{"p1": rexPatient()}}
	handler := handlers.NewSyncHandler(imports, &stubSyncer{}, store)

	req := httptest.NewRequest("POST", "/api/sync/import", nil)
	w := httptest.NewRecorder()

	handler.TriggerImport(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var report entities.ImportReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.True(t, report.Success)
}

func TestSyncHandler_TriggerImport_ProviderFailure(t *testing.T) {
	imports := &stubImports{
		report:    &entities.ImportReport{Success: false, Errors: []string{"provider down"}},
		importErr: errors.New("provider down"),
	}
	store := &stubStore{patients: map[string]entities.UnifiedPatient{}}
	handler := handlers.NewSyncHandler(imports, &stubSyncer{}, store)

	req := httptest.NewRequest("POST", "/api/sync/import", nil)
	w := httptest.NewRecorder()

	handler.TriggerImport(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var report entities.ImportReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.False(t, report.Success)
	assert.NotEmpty(t, report.Errors)
}

func TestSyncHandler_SyncPatient(t *testing.T) {
	synced := rexPatient()
	synced.Demographics.WeightKg = 23

	store := &stubStore{patients: map[string]entities.UnifiedPatient{"p1": rexPatient()}}
	handler := handlers.NewSyncHandler(&stubImports{}, &stubSyncer{synced: synced}, store)

	req := httptest.NewRequest("POST", "/api/sync/patients/p1", nil)
	req.SetPathValue("id", "p1")
	w := httptest.NewRecorder()

	handler.SyncPatient(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.updated, 1)
	assert.Equal(t, 23.0, store.updated[0].Demographics.WeightKg)
}

func TestSyncHandler_SyncPatient_NotFound(t *testing.T) {
	store := &stubStore{patients: map[string]entities.UnifiedPatient{}}
	handler := handlers.NewSyncHandler(&stubImports{}, &stubSyncer{}, store)

	req := httptest.NewRequest("POST", "/api/sync/patients/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	handler.SyncPatient(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncHandler_SyncAllPatients(t *testing.T) {
	report := &entities.SyncReport{Patients: []entities.UnifiedPatient{rexPatient()}}
	store := &stubStore{patients: map[string]entities.UnifiedPatient{"p1": rexPatient()}}
	handler := handlers.NewSyncHandler(&stubImports{}, &stubSyncer{report: report}, store)

	req := httptest.NewRequest("POST", "/api/sync/patients", nil)
	w := httptest.NewRecorder()

	handler.SyncAllPatients(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.updated, 1)
}

func TestSyncHandler_GetImportReport_NoneYet(t *testing.T) {
	handler := handlers.NewSyncHandler(&stubImports{}, &stubSyncer{}, &stubStore{})

	req := httptest.NewRequest("GET", "/api/sync/report", nil)
	w := httptest.NewRecorder()

	handler.GetImportReport(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
