package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marovet/roundsync/internal/domain/entities"
)

type fakeSource struct {
	records []entities.ExternalPatientRecord
	err     error
	calls   int
}

func (f *fakeSource) ExtractActivePatients(ctx context.Context, category string) ([]entities.ExternalPatientRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func rexRecord() entities.ExternalPatientRecord {
	return entities.ExternalPatientRecord{
		Name:     "Rex Jones",
		Species:  "Canine",
		Breed:    "Labrador",
		Age:      "5y 0m",
		Sex:      "MN",
		WeightKg: 23,
		Location: "100 - IP#1, T2",
		Status:   "Stable",
	}
}

func storedRex() entities.UnifiedPatient {
	return entities.UnifiedPatient{
		ID: "local-1",
		Demographics: entities.Demographics{
			Name: "Rex Jones", Species: "Canine", WeightKg: 22,
		},
		Rounding: entities.RoundingData{
			DiagnosticFindings: "MRI shows disc extrusion",
		},
		SOAPNotes: "S: BAR",
		CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestSyncOne_ReconcilesAgainstFreshRecord(t *testing.T) {
	source := &fakeSource{records: []entities.ExternalPatientRecord{rexRecord()}}
	svc := NewSyncService(source, "Neurology", nil)

	got, err := svc.SyncOne(context.Background(), storedRex())
	require.NoError(t, err)

	assert.Equal(t, "local-1", got.ID)
	assert.Equal(t, 23.0, got.Demographics.WeightKg)
	assert.Equal(t, "MRI shows disc extrusion", got.Rounding.DiagnosticFindings)
	assert.Equal(t, "S: BAR", got.SOAPNotes)
}

func TestSyncOne_MissingUpstreamKeepsStoredRecord(t *testing.T) {
	source := &fakeSource{records: []entities.ExternalPatientRecord{
		{Name: "Some Other Dog", Species: "Canine"},
	}}
	svc := NewSyncService(source, "Neurology", nil)

	existing := storedRex()
	got, err := svc.SyncOne(context.Background(), existing)

	require.NoError(t, err)
	assert.Equal(t, existing, got)
}

func TestSyncOne_ExtractionErrorKeepsStoredRecord(t *testing.T) {
	source := &fakeSource{err: errors.New("provider layout changed")}
	svc := NewSyncService(source, "Neurology", nil)

	existing := storedRex()
	got, err := svc.SyncOne(context.Background(), existing)

	require.Error(t, err)
	assert.Equal(t, existing, got)
}

func TestSyncOne_MatchIsCaseInsensitive(t *testing.T) {
	rec := rexRecord()
	rec.Name = "REX JONES"
	source := &fakeSource{records: []entities.ExternalPatientRecord{rec}}
	svc := NewSyncService(source, "Neurology", nil)

	got, err := svc.SyncOne(context.Background(), storedRex())
	require.NoError(t, err)
	assert.Equal(t, 23.0, got.Demographics.WeightKg)
}

func TestSyncMany_BatchCompletesOnExtractionFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("provider down")}
	svc := NewSyncService(source, "Neurology", nil)

	first := storedRex()
	second := storedRex()
	second.ID = "local-2"
	second.Demographics.Name = "Mia Smith"

	report := svc.SyncMany(context.Background(), []entities.UnifiedPatient{first, second})

	require.Len(t, report.Patients, 2)
	assert.Equal(t, first, report.Patients[0])
	assert.Equal(t, second, report.Patients[1])
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "extraction failed")
}

func TestSyncMany_SingleExtractionPassForWholeBatch(t *testing.T) {
	source := &fakeSource{records: []entities.ExternalPatientRecord{rexRecord()}}
	svc := NewSyncService(source, "Neurology", nil)

	second := storedRex()
	second.ID = "local-2"
	second.Demographics.Name = "Mia Smith"

	report := svc.SyncMany(context.Background(), []entities.UnifiedPatient{storedRex(), second})

	assert.Equal(t, 1, source.calls)
	require.Len(t, report.Patients, 2)
	assert.Equal(t, 23.0, report.Patients[0].Demographics.WeightKg)
	// Mia is not in the provider list; her stored record survives untouched.
	assert.Equal(t, second, report.Patients[1])
	assert.Empty(t, report.Errors)
}

func TestSync_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	source := &fakeSource{err: errors.New("provider down")}
	svc := NewSyncService(source, "Neurology", nil)

	for i := 0; i < 3; i++ {
		_, err := svc.SyncOne(context.Background(), storedRex())
		require.Error(t, err)
	}
	callsBefore := source.calls

	_, err := svc.SyncOne(context.Background(), storedRex())
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsBefore, source.calls)
}
