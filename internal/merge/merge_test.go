package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marovet/roundsync/internal/domain/entities"
	"github.com/marovet/roundsync/internal/mapping"
)

func storedPatient() entities.UnifiedPatient {
	return entities.UnifiedPatient{
		ID:        "local-1",
		CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		Demographics: entities.Demographics{
			Name: "Rex Jones", Species: "Canine", Breed: "Labrador", WeightKg: 22.5,
		},
		CurrentStay: entities.CurrentStay{Location: "100 - IP#1", AdmitDate: "2026-08-01"},
		Rounding: entities.RoundingData{
			Signalment:         "5y 0m MN Canine, Labrador",
			Neurolocalization:  "T3-L3 myelopathy",
			DiagnosticFindings: "MRI shows disc extrusion",
			OvernightPlan:      "Recheck neuro exam q4h",
			Labs:               &entities.LabResults{Summary: "PCV 42%"},
		},
		SOAPNotes: "S: BAR, O: amb x4",
		MRI:       &entities.MRIData{Scheduled: true, ScanParameters: "T2 sag + trans"},
		Sticker:   &entities.StickerData{Requested: true, Count: 4},
	}
}

func freshRecord() entities.ExternalPatientRecord {
	return entities.ExternalPatientRecord{
		Name:    "Rex Jones",
		Species: "Canine",
		Breed:   "Labrador",
		Age:     "5y 1m",
		Sex:     "MN",
		WeightKg: 23,
		Location: "3 - ICU run 2",
		Status:   "Caution",
		Medications: []entities.MedicationEntry{
			{Name: "LRS", Dose: "10ml/kg/hr", Route: "IV", Frequency: "CRI"},
		},
	}
}

func TestMerge_AlwaysFreshFields(t *testing.T) {
	existing := storedPatient()
	mapped := mapping.Map(freshRecord(), &existing)

	merged := Merge(existing, mapped)

	assert.Equal(t, 23.0, merged.Demographics.WeightKg)
	assert.Equal(t, "3 - ICU run 2", merged.CurrentStay.Location)
	assert.Equal(t, entities.LocationICU, merged.CurrentStay.LocationClass)
	assert.Equal(t, entities.TriageOrange, merged.Rounding.Triage)
	assert.Equal(t, "Y", merged.Rounding.IVC)
	assert.Equal(t, "Y", merged.Rounding.CRI)
}

func TestMerge_SeedOnlyFieldsNeverRegress(t *testing.T) {
	existing := storedPatient()
	mapped := mapping.Map(freshRecord(), &existing)

	merged := Merge(existing, mapped)

	// The fresh scrape has no concept of these; existing values must win.
	assert.Equal(t, "T3-L3 myelopathy", merged.Rounding.Neurolocalization)
	assert.Equal(t, "MRI shows disc extrusion", merged.Rounding.DiagnosticFindings)
	assert.Equal(t, "Recheck neuro exam q4h", merged.Rounding.OvernightPlan)
	assert.Equal(t, "PCV 42%", merged.Rounding.Labs.Summary)
}

func TestMerge_SeedOnlyFieldsSeedWhenAbsent(t *testing.T) {
	existing := storedPatient()
	existing.Rounding.Neurolocalization = ""

	mapped := mapping.Map(freshRecord(), &existing)
	mapped.Rounding.Neurolocalization = "C1-C5 myelopathy"

	merged := Merge(existing, mapped)
	assert.Equal(t, "C1-C5 myelopathy", merged.Rounding.Neurolocalization)
}

func TestMerge_PreserveOnlyFields(t *testing.T) {
	existing := storedPatient()
	mapped := mapping.Map(freshRecord(), &existing)

	merged := Merge(existing, mapped)

	assert.Equal(t, existing.SOAPNotes, merged.SOAPNotes)
	assert.Equal(t, existing.MRI, merged.MRI)
	assert.Equal(t, existing.Sticker, merged.Sticker)
}

func TestMerge_Idempotent(t *testing.T) {
	existing := storedPatient()
	mapped := mapping.Map(freshRecord(), &existing)

	once := Merge(existing, mapped)
	twice := Merge(once, mapped)

	assert.Equal(t, once, twice)
}

func TestMerge_IdentityAnchoredToStored(t *testing.T) {
	existing := storedPatient()
	mapped := mapping.Map(freshRecord(), &existing)

	merged := Merge(existing, mapped)

	assert.Equal(t, "local-1", merged.ID)
	assert.Equal(t, existing.CreatedAt, merged.CreatedAt)
	assert.Equal(t, "2026-08-01", merged.CurrentStay.AdmitDate)
}

func TestMerge_FirstSeenPatient(t *testing.T) {
	// No stored record at all: everything comes from the fresh map.
	mapped := mapping.Map(freshRecord(), nil)

	merged := Merge(entities.UnifiedPatient{}, mapped)

	assert.Equal(t, mapped.ID, merged.ID)
	assert.Equal(t, "Rex Jones", merged.Demographics.Name)
	assert.Empty(t, merged.SOAPNotes)
}

func TestPreservedFieldCount(t *testing.T) {
	assert.Equal(t, 0, PreservedFieldCount(entities.UnifiedPatient{}))
	// storedPatient has neuroloc, diagnostics, overnight plan, SOAP, labs,
	// MRI and sticker populated.
	assert.Equal(t, 7, PreservedFieldCount(storedPatient()))
}
