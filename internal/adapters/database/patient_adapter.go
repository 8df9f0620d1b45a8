package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/marovet/roundsync/internal/domain/entities"
	"github.com/marovet/roundsync/internal/domain/repositories"
	"github.com/marovet/roundsync/internal/infrastructure/clients/postgres"
	apperrors "github.com/marovet/roundsync/pkg/errors"
)

// PatientAdapter implements patient persistence in Postgres. Scalar
// demographics and stay fields live in columns; the rounding, MRI and
// sticker blocks are stored as jsonb since their shape follows the domain
// entity rather than any query need.
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter.
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

const patientColumns = `
	id, external_mrn, name, species, breed, age, sex, weight_kg,
	owner_name, owner_phone, microchip, status,
	location, location_class, admit_date, icu_criteria, triage,
	rounding, soap_notes, mri, sticker, created_at, updated_at
`

// Create inserts a new patient record.
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.UnifiedPatient) error {
	if patient == nil {
		return apperrors.NewInternalError("patient is nil", fmt.Errorf("patient is nil"))
	}

	record, err := patientRecord(patient)
	if err != nil {
		return err
	}
	record["id"] = patient.ID
	record["created_at"] = patient.CreatedAt

	query, args, err := a.db.Insert("patients").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build patient insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}

	return nil
}

// GetByID retrieves a patient by local id.
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.UnifiedPatient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE id = $1`, patientColumns)

	patient, err := a.scanPatient(a.client.DB().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}

	return patient, nil
}

// GetByName retrieves a patient by exact display name. When several rows
// share a name the most recently updated one wins.
func (a *PatientAdapter) GetByName(ctx context.Context, name string) (*entities.UnifiedPatient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE name = $1 ORDER BY updated_at DESC LIMIT 1`, patientColumns)

	patient, err := a.scanPatient(a.client.DB().QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient named %q not found", name))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient by name", err)
	}

	return patient, nil
}

// Update replaces a stored patient with a reconciled value.
func (a *PatientAdapter) Update(ctx context.Context, patient *entities.UnifiedPatient) error {
	if patient == nil {
		return apperrors.NewInternalError("patient is nil", fmt.Errorf("patient is nil"))
	}

	record, err := patientRecord(patient)
	if err != nil {
		return err
	}

	query, args, err := a.db.Update("patients").
		Set(record).
		Where(goqu.C("id").Eq(patient.ID)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build patient update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", patient.ID))
	}

	return nil
}

// List retrieves patients with filters.
func (a *PatientAdapter) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.UnifiedPatient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE 1=1`, patientColumns)

	args := []interface{}{}
	argCount := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, string(filter.Status))
		argCount++
	}

	query += " ORDER BY updated_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	defer rows.Close()

	patients := []*entities.UnifiedPatient{}
	for rows.Next() {
		patient, err := a.scanPatient(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient", err)
		}
		patients = append(patients, patient)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating patients", err)
	}

	return patients, nil
}

func patientRecord(patient *entities.UnifiedPatient) (goqu.Record, error) {
	roundingJSON, err := json.Marshal(patient.Rounding)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode rounding data", err)
	}

	var mriJSON, stickerJSON interface{}
	if patient.MRI != nil {
		data, err := json.Marshal(patient.MRI)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode mri data", err)
		}
		mriJSON = data
	}
	if patient.Sticker != nil {
		data, err := json.Marshal(patient.Sticker)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to encode sticker data", err)
		}
		stickerJSON = data
	}

	return goqu.Record{
		"external_mrn":   sql.NullString{String: patient.ExternalMRN, Valid: patient.ExternalMRN != ""},
		"name":           patient.Demographics.Name,
		"species":        patient.Demographics.Species,
		"breed":          patient.Demographics.Breed,
		"age":            patient.Demographics.Age,
		"sex":            patient.Demographics.Sex,
		"weight_kg":      patient.Demographics.WeightKg,
		"owner_name":     sql.NullString{String: patient.Demographics.OwnerName, Valid: patient.Demographics.OwnerName != ""},
		"owner_phone":    sql.NullString{String: patient.Demographics.OwnerPhone, Valid: patient.Demographics.OwnerPhone != ""},
		"microchip":      sql.NullString{String: patient.Demographics.Microchip, Valid: patient.Demographics.Microchip != ""},
		"status":         string(patient.Status),
		"location":       patient.CurrentStay.Location,
		"location_class": string(patient.CurrentStay.LocationClass),
		"admit_date":     sql.NullString{String: patient.CurrentStay.AdmitDate, Valid: patient.CurrentStay.AdmitDate != ""},
		"icu_criteria":   patient.CurrentStay.ICUCriteria,
		"triage":         string(patient.CurrentStay.Triage),
		"rounding":       roundingJSON,
		"soap_notes":     patient.SOAPNotes,
		"mri":            mriJSON,
		"sticker":        stickerJSON,
		"updated_at":     time.Now().UTC(),
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (a *PatientAdapter) scanPatient(row rowScanner) (*entities.UnifiedPatient, error) {
	patient := &entities.UnifiedPatient{}
	var (
		externalMRN, ownerName, ownerPhone, microchip, admitDate sql.NullString
		status, locationClass, triage                            string
		roundingJSON                                             []byte
		mriJSON, stickerJSON                                     []byte
	)

	err := row.Scan(
		&patient.ID,
		&externalMRN,
		&patient.Demographics.Name,
		&patient.Demographics.Species,
		&patient.Demographics.Breed,
		&patient.Demographics.Age,
		&patient.Demographics.Sex,
		&patient.Demographics.WeightKg,
		&ownerName,
		&ownerPhone,
		&microchip,
		&status,
		&patient.CurrentStay.Location,
		&locationClass,
		&admitDate,
		&patient.CurrentStay.ICUCriteria,
		&triage,
		&roundingJSON,
		&patient.SOAPNotes,
		&mriJSON,
		&stickerJSON,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	patient.ExternalMRN = externalMRN.String
	patient.Demographics.OwnerName = ownerName.String
	patient.Demographics.OwnerPhone = ownerPhone.String
	patient.Demographics.Microchip = microchip.String
	patient.Status = entities.LifecycleStatus(status)
	patient.CurrentStay.LocationClass = entities.LocationClass(locationClass)
	patient.CurrentStay.AdmitDate = admitDate.String
	patient.CurrentStay.Triage = entities.TriageCode(triage)

	if len(roundingJSON) > 0 {
		if err := json.Unmarshal(roundingJSON, &patient.Rounding); err != nil {
			return nil, fmt.Errorf("decode rounding data: %w", err)
		}
	}
	if len(mriJSON) > 0 {
		patient.MRI = &entities.MRIData{}
		if err := json.Unmarshal(mriJSON, patient.MRI); err != nil {
			return nil, fmt.Errorf("decode mri data: %w", err)
		}
	}
	if len(stickerJSON) > 0 {
		patient.Sticker = &entities.StickerData{}
		if err := json.Unmarshal(stickerJSON, patient.Sticker); err != nil {
			return nil, fmt.Errorf("decode sticker data: %w", err)
		}
	}

	return patient, nil
}
