package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/marovet/roundsync/internal/domain/entities"
	"github.com/marovet/roundsync/internal/infrastructure/observability"
	"github.com/marovet/roundsync/internal/mapping"
	"github.com/marovet/roundsync/internal/merge"
)

// RecordSource abstracts the authenticated extraction pipeline. The
// production implementation drives a live browser session; tests substitute
// a fake.
type RecordSource interface {
	ExtractActivePatients(ctx context.Context, category string) ([]entities.ExternalPatientRecord, error)
}

// SyncService reconciles stored patients against fresh provider data. All
// extraction happens through a circuit breaker: when the provider UI is
// repeatedly failing (layout change, outage) there is no point re-driving a
// browser session every few seconds.
type SyncService struct {
	source   RecordSource
	category string
	breaker  *gobreaker.CircuitBreaker
	metrics  *observability.Metrics
}

// NewSyncService creates a new sync service.
func NewSyncService(source RecordSource, category string, metrics *observability.Metrics) *SyncService {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "provider-extraction",
		MaxRequests: 1,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &SyncService{
		source:   source,
		category: category,
		breaker:  breaker,
		metrics:  metrics,
	}
}

// SyncOne re-extracts the provider list and reconciles a single stored
// patient against it. When the patient's record cannot be found upstream
// (renamed or discharged there), the stored value is returned unchanged; a
// missing record must never null out local data.
func (s *SyncService) SyncOne(ctx context.Context, existing entities.UnifiedPatient) (entities.UnifiedPatient, error) {
	ctx, span := observability.StartSpan(ctx, "SyncService.SyncOne")
	defer span.End()

	start := time.Now()

	records, err := s.extract(ctx)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordSyncPass(ctx, s.metrics, "one", 0, time.Since(start), err)
		return existing, err
	}

	result := s.reconcile(ctx, existing, records)
	observability.RecordSyncPass(ctx, s.metrics, "one", 1, time.Since(start), nil)
	return result, nil
}

// SyncMany reconciles a batch of stored patients in one extraction pass.
// The batch always completes: an extraction failure keeps every prior
// record and is reported through the returned report's Errors.
func (s *SyncService) SyncMany(ctx context.Context, existing []entities.UnifiedPatient) *entities.SyncReport {
	ctx, span := observability.StartSpan(ctx, "SyncService.SyncMany")
	defer span.End()

	start := time.Now()
	report := &entities.SyncReport{
		Patients:    make([]entities.UnifiedPatient, 0, len(existing)),
		CompletedAt: time.Now().UTC(),
	}

	records, err := s.extract(ctx)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordSyncPass(ctx, s.metrics, "many", 0, time.Since(start), err)
		report.Patients = append(report.Patients, existing...)
		report.Errors = append(report.Errors, fmt.Sprintf("extraction failed, all %d patients kept unchanged: %v", len(existing), err))
		report.CompletedAt = time.Now().UTC()
		return report
	}

	for _, p := range existing {
		report.Patients = append(report.Patients, s.reconcile(ctx, p, records))
	}

	observability.RecordSyncPass(ctx, s.metrics, "many", len(existing), time.Since(start), nil)
	report.CompletedAt = time.Now().UTC()
	return report
}

// Extract runs one extraction pass through the circuit breaker. Exposed so
// the import service can share the breaker and session.
func (s *SyncService) Extract(ctx context.Context) ([]entities.ExternalPatientRecord, error) {
	return s.extract(ctx)
}

func (s *SyncService) extract(ctx context.Context) ([]entities.ExternalPatientRecord, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.source.ExtractActivePatients(ctx, s.category)
	})
	if err != nil {
		observability.RecordExtractionFailure(ctx, s.metrics, s.category)
		return nil, err
	}
	return result.([]entities.ExternalPatientRecord), nil
}

// reconcile maps the matching record and applies the merge policy. Identity
// resolution is an exact display-name match; no fuzzy matching.
func (s *SyncService) reconcile(ctx context.Context, existing entities.UnifiedPatient, records []entities.ExternalPatientRecord) entities.UnifiedPatient {
	rec, found := findByName(records, existing.Demographics.Name)
	if !found {
		observability.LoggerFromContext(ctx).Warn().
			Str("patient", existing.Demographics.Name).
			Msg("patient not present in provider list, keeping stored record")
		return existing
	}

	mapped := mapping.Map(rec, &existing)
	merged := merge.Merge(existing, mapped)
	observability.RecordFieldsPreserved(ctx, s.metrics, merge.PreservedFieldCount(existing))
	return merged
}

func findByName(records []entities.ExternalPatientRecord, name string) (entities.ExternalPatientRecord, bool) {
	want := strings.TrimSpace(name)
	if want == "" {
		return entities.ExternalPatientRecord{}, false
	}
	for _, rec := range records {
		if strings.EqualFold(strings.TrimSpace(rec.Name), want) {
			return rec, true
		}
	}
	return entities.ExternalPatientRecord{}, false
}
