package repositories

import (
	"context"

	"github.com/marovet/roundsync/internal/domain/entities"
)

// PatientFilter narrows patient listing
type PatientFilter struct {
	Status entities.LifecycleStatus
	Limit  int
	Offset int
}

// PatientRepository defines the interface for unified-patient persistence.
// The sync pipeline goes through this boundary only; it never owns storage.
type PatientRepository interface {
	// Create creates a new patient
	Create(ctx context.Context, patient *entities.UnifiedPatient) error

	// GetByID retrieves a patient by local id
	GetByID(ctx context.Context, id string) (*entities.UnifiedPatient, error)

	// GetByName retrieves a patient by display name (exact match; the
	// pipeline performs no fuzzy identity resolution)
	GetByName(ctx context.Context, name string) (*entities.UnifiedPatient, error)

	// Update replaces a stored patient with a reconciled value
	Update(ctx context.Context, patient *entities.UnifiedPatient) error

	// List retrieves patients with filters
	List(ctx context.Context, filter PatientFilter) ([]*entities.UnifiedPatient, error)
}
