package services

import (
	"context"

	"github.com/marovet/roundsync/internal/domain/entities"
	"github.com/marovet/roundsync/internal/domain/repositories"
)

// PatientService handles business logic for stored patients
type PatientService struct {
	repo repositories.PatientRepository
}

// NewPatientService creates a new patient service
func NewPatientService(repo repositories.PatientRepository) *PatientService {
	return &PatientService{repo: repo}
}

// GetByID retrieves a patient by local id
func (s *PatientService) GetByID(ctx context.Context, id string) (*entities.UnifiedPatient, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves patients with filters
func (s *PatientService) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.UnifiedPatient, error) {
	return s.repo.List(ctx, filter)
}

// Update replaces a stored patient with a reconciled value
func (s *PatientService) Update(ctx context.Context, patient *entities.UnifiedPatient) error {
	return s.repo.Update(ctx, patient)
}

// ActiveByName returns all non-discharged patients keyed by display name,
// the lookup shape the import pass matches scraped records against.
func (s *PatientService) ActiveByName(ctx context.Context) (map[string]entities.UnifiedPatient, error) {
	patients, err := s.repo.List(ctx, repositories.PatientFilter{})
	if err != nil {
		return nil, err
	}

	byName := make(map[string]entities.UnifiedPatient, len(patients))
	for _, p := range patients {
		if p.Status == entities.StatusDischarged {
			continue
		}
		byName[p.Demographics.Name] = *p
	}
	return byName, nil
}
