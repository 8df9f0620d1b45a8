package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marovet/roundsync/internal/adapters/cache"
	"github.com/marovet/roundsync/internal/domain/entities"
	"github.com/marovet/roundsync/internal/domain/repositories"
	"github.com/marovet/roundsync/internal/infrastructure/observability"
	"github.com/marovet/roundsync/internal/mapping"
	"github.com/marovet/roundsync/internal/merge"
	"github.com/marovet/roundsync/internal/validation"
)

// Manual-entry estimate: opening a chart and typing one field takes about
// half a minute; finding the patient at all takes about a minute.
const (
	manualEntryBaseSeconds     = 60
	manualEntryPerFieldSeconds = 30
)

// ImportService pulls the whole active-patient list from the provider,
// reconciles it against known patients, and reports what still needs manual
// entry afterwards.
type ImportService struct {
	sync    *SyncService
	repo    repositories.PatientRepository
	reports *cache.ReportCache
	metrics *observability.Metrics
}

// NewImportService creates a new import service. repo and reports are
// optional; without them the import still runs but nothing is persisted or
// cached.
func NewImportService(sync *SyncService, repo repositories.PatientRepository, reports *cache.ReportCache, metrics *observability.Metrics) *ImportService {
	return &ImportService{
		sync:    sync,
		repo:    repo,
		reports: reports,
		metrics: metrics,
	}
}

// ImportActivePatients extracts every patient in the configured category and
// maps each into a UnifiedPatient, merging against a known patient when
// existingByName has one under the scraped display name. The returned report
// always covers the full batch; per-patient persistence failures are
// recorded in Errors rather than aborting.
func (s *ImportService) ImportActivePatients(ctx context.Context, existingByName map[string]entities.UnifiedPatient) (*entities.ImportReport, error) {
	ctx, span := observability.StartSpan(ctx, "ImportService.ImportActivePatients")
	defer span.End()

	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	report := &entities.ImportReport{
		Patients:                make([]entities.UnifiedPatient, 0),
		ManualEntryRequirements: make([]entities.PatientReadiness, 0),
	}

	records, err := s.sync.Extract(ctx)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordSyncPass(ctx, s.metrics, "import", 0, time.Since(start), err)
		report.Success = false
		report.Errors = append(report.Errors, err.Error())
		report.CompletedAt = time.Now().UTC()
		return report, err
	}

	known := normalizeKeys(existingByName)

	for _, rec := range records {
		patient, isNew := s.buildPatient(ctx, rec, known)
		report.Patients = append(report.Patients, patient)

		if err := s.persist(ctx, &patient, isNew); err != nil {
			logger.Error().Err(err).Str("patient", patient.Demographics.Name).Msg("failed to persist imported patient")
			report.Errors = append(report.Errors, fmt.Sprintf("persist %s: %v", patient.Demographics.Name, err))
		}
	}

	readiness := validation.ValidateForDocumentGeneration(report.Patients)
	report.ManualEntryRequirements = readiness.NotReady
	report.TotalEstimatedTimeSeconds = estimateManualEntry(readiness.NotReady)
	report.Success = len(report.Errors) == 0
	report.CompletedAt = time.Now().UTC()

	observability.RecordSyncPass(ctx, s.metrics, "import", len(report.Patients), time.Since(start), nil)

	if s.reports != nil {
		if err := s.reports.SetImportReport(ctx, report); err != nil {
			logger.Warn().Err(err).Msg("failed to cache import report")
		}
	}

	logger.Info().
		Int("patients", len(report.Patients)).
		Int("needing_manual_entry", len(report.ManualEntryRequirements)).
		Int("estimated_seconds", report.TotalEstimatedTimeSeconds).
		Msg("import pass completed")

	return report, nil
}

// LastImportReport returns the most recently cached import report.
func (s *ImportService) LastImportReport(ctx context.Context) (*entities.ImportReport, error) {
	if s.reports == nil {
		return nil, cache.ErrNoReport
	}
	return s.reports.GetImportReport(ctx)
}

func (s *ImportService) buildPatient(ctx context.Context, rec entities.ExternalPatientRecord, known map[string]entities.UnifiedPatient) (entities.UnifiedPatient, bool) {
	existing, found := known[normalizeName(rec.Name)]
	if !found {
		return mapping.Map(rec, nil), true
	}

	mapped := mapping.Map(rec, &existing)
	merged := merge.Merge(existing, mapped)
	observability.RecordFieldsPreserved(ctx, s.metrics, merge.PreservedFieldCount(existing))
	return merged, false
}

func (s *ImportService) persist(ctx context.Context, patient *entities.UnifiedPatient, isNew bool) error {
	if s.repo == nil {
		return nil
	}
	if isNew {
		return s.repo.Create(ctx, patient)
	}
	return s.repo.Update(ctx, patient)
}

func estimateManualEntry(notReady []entities.PatientReadiness) int {
	total := 0
	for _, r := range notReady {
		total += manualEntryBaseSeconds
		total += (len(r.Errors) + len(r.Warnings)) * manualEntryPerFieldSeconds
	}
	return total
}

func normalizeKeys(existingByName map[string]entities.UnifiedPatient) map[string]entities.UnifiedPatient {
	known := make(map[string]entities.UnifiedPatient, len(existingByName))
	for name, p := range existingByName {
		known[normalizeName(name)] = p
	}
	return known
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
