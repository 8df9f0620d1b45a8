package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marovet/roundsync/internal/domain/entities"
	"github.com/marovet/roundsync/internal/domain/repositories"
)

type fakeRepo struct {
	created   []*entities.UnifiedPatient
	updated   []*entities.UnifiedPatient
	createErr error
}

func (r *fakeRepo) Create(ctx context.Context, p *entities.UnifiedPatient) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, p)
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, p *entities.UnifiedPatient) error {
	r.updated = append(r.updated, p)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*entities.UnifiedPatient, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeRepo) GetByName(ctx context.Context, name string) (*entities.UnifiedPatient, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeRepo) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.UnifiedPatient, error) {
	return nil, errors.New("not implemented")
}

func importFixture(source RecordSource, repo repositories.PatientRepository) *ImportService {
	return NewImportService(NewSyncService(source, "Neurology", nil), repo, nil, nil)
}

func TestImport_NewPatientIsCreated(t *testing.T) {
	source := &fakeSource{records: []entities.ExternalPatientRecord{rexRecord()}}
	repo := &fakeRepo{}
	svc := importFixture(source, repo)

	report, err := svc.ImportActivePatients(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, report.Success)
	require.Len(t, report.Patients, 1)
	assert.Equal(t, "Rex Jones", report.Patients[0].Demographics.Name)
	assert.NotEmpty(t, report.Patients[0].ID)
	assert.Len(t, repo.created, 1)
	assert.Empty(t, repo.updated)
}

func TestImport_KnownPatientIsMergedAndUpdated(t *testing.T) {
	source := &fakeSource{records: []entities.ExternalPatientRecord{rexRecord()}}
	repo := &fakeRepo{}
	svc := importFixture(source, repo)

	existing := storedRex()
	report, err := svc.ImportActivePatients(context.Background(), map[string]entities.UnifiedPatient{
		"Rex Jones": existing,
	})
	require.NoError(t, err)

	require.Len(t, report.Patients, 1)
	assert.Equal(t, "local-1", report.Patients[0].ID)
	assert.Equal(t, "MRI shows disc extrusion", report.Patients[0].Rounding.DiagnosticFindings)
	assert.Equal(t, 23.0, report.Patients[0].Demographics.WeightKg)
	assert.Empty(t, repo.created)
	assert.Len(t, repo.updated, 1)
}

func TestImport_ManualEntryEstimate(t *testing.T) {
	// rexRecord yields no neurolocalization and no labs: two warnings.
	source := &fakeSource{records: []entities.ExternalPatientRecord{rexRecord()}}
	svc := importFixture(source, nil)

	report, err := svc.ImportActivePatients(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, report.ManualEntryRequirements, 1)
	assert.Len(t, report.ManualEntryRequirements[0].Warnings, 2)
	assert.Equal(t, 60+2*30, report.TotalEstimatedTimeSeconds)
}

func TestImport_PersistFailureDoesNotAbortBatch(t *testing.T) {
	source := &fakeSource{records: []entities.ExternalPatientRecord{
		rexRecord(),
		{Name: "Mia Smith", Species: "Feline", Status: "Stable"},
	}}
	repo := &fakeRepo{createErr: errors.New("connection reset")}
	svc := importFixture(source, repo)

	report, err := svc.ImportActivePatients(context.Background(), nil)
	require.NoError(t, err)

	assert.False(t, report.Success)
	assert.Len(t, report.Patients, 2)
	assert.Len(t, report.Errors, 2)
}

func TestImport_ExtractionFailureReportsAndReturnsError(t *testing.T) {
	source := &fakeSource{err: errors.New("provider down")}
	svc := importFixture(source, nil)

	report, err := svc.ImportActivePatients(context.Background(), nil)
	require.Error(t, err)

	assert.False(t, report.Success)
	assert.Empty(t, report.Patients)
	require.Len(t, report.Errors, 1)
}

func TestImport_NameMatchIgnoresCase(t *testing.T) {
	source := &fakeSource{records: []entities.ExternalPatientRecord{rexRecord()}}
	svc := importFixture(source, nil)

	report, err := svc.ImportActivePatients(context.Background(), map[string]entities.UnifiedPatient{
		"rex jones": storedRex(),
	})
	require.NoError(t, err)

	require.Len(t, report.Patients, 1)
	assert.Equal(t, "local-1", report.Patients[0].ID)
}
