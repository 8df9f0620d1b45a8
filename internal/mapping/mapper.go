package mapping

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marovet/roundsync/internal/domain/entities"
)

// Map is the pure transform from one scraped record to a unified patient.
// Total: it never fails, absent source data becomes empty values. The
// provider does not expose location class, triage, IV/CRI flags or
// therapeutics directly; they are inferred here and only here, so the rules
// stay unit-testable in one place.
//
// existing supplies identity and previously known demographic data. The
// caller resolves it by display name; Map performs no fuzzy matching.
func Map(rec entities.ExternalPatientRecord, existing *entities.UnifiedPatient) entities.UnifiedPatient {
	now := time.Now().UTC()

	p := entities.UnifiedPatient{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		p.ExternalMRN = existing.ExternalMRN
	}
	if rec.SourceID != "" {
		p.ExternalMRN = rec.SourceID
	}

	p.Demographics = mapDemographics(rec, existing)
	p.Status = inferLifecycleStatus(rec.Status)

	triage := inferTriage(rec.Status)
	locationClass := inferLocationClass(rec.Location)
	fluids := inferFluids(rec.Medications)
	ivc := "N"
	if fluids != "" {
		ivc = "Y"
	}
	cri := "N"
	if inferCRI(rec.Medications) {
		cri = "Y"
	}

	p.CurrentStay = entities.CurrentStay{
		Location:      rec.Location,
		LocationClass: locationClass,
		ICUCriteria:   locationClass == entities.LocationICU,
		Triage:        triage,
	}
	if existing != nil {
		p.CurrentStay.AdmitDate = existing.CurrentStay.AdmitDate
	}

	p.Rounding = entities.RoundingData{
		Signalment:   buildSignalment(p.Demographics),
		Location:     rec.Location,
		Triage:       triage,
		Problems:     strings.Join(rec.CriticalNotes, "\n"),
		Therapeutics: buildTherapeutics(rec),
		IVC:          ivc,
		Fluids:       fluids,
		CRI:          cri,
	}

	return p
}

// mapDemographics takes the scraped value for every field it is present for,
// and keeps the existing value otherwise: the provider commonly omits owner
// contact and microchip data, and the mapper must never regress identity data
// it merely failed to re-scrape.
func mapDemographics(rec entities.ExternalPatientRecord, existing *entities.UnifiedPatient) entities.Demographics {
	d := entities.Demographics{
		Name:     rec.Name,
		Species:  rec.Species,
		Breed:    rec.Breed,
		Age:      rec.Age,
		Sex:      rec.Sex,
		WeightKg: rec.WeightKg,
	}
	if existing == nil {
		return d
	}

	prev := existing.Demographics
	d.Name = coalesce(d.Name, prev.Name)
	d.Species = coalesce(d.Species, prev.Species)
	d.Breed = coalesce(d.Breed, prev.Breed)
	d.Age = coalesce(d.Age, prev.Age)
	d.Sex = coalesce(d.Sex, prev.Sex)
	if d.WeightKg == 0 {
		d.WeightKg = prev.WeightKg
	}

	// Never scraped from the provider, only carried forward.
	d.OwnerName = prev.OwnerName
	d.OwnerPhone = prev.OwnerPhone
	d.Microchip = prev.Microchip

	return d
}

func inferLocationClass(location string) entities.LocationClass {
	if strings.Contains(strings.ToLower(location), "icu") {
		return entities.LocationICU
	}
	return entities.LocationIP
}

// inferTriage maps the provider's status label onto a triage code. Yellow is
// the deliberate default: it means "unset, requires review", never "safe".
// The keyword-to-tier boundary is intentionally conservative.
func inferTriage(status string) entities.TriageCode {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "critical"):
		return entities.TriageRed
	case strings.Contains(s, "caution"), strings.Contains(s, "guarded"):
		return entities.TriageOrange
	case strings.Contains(s, "stable"), strings.Contains(s, "friendly"):
		return entities.TriageGreen
	default:
		return entities.TriageYellow
	}
}

func inferLifecycleStatus(status string) entities.LifecycleStatus {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "discharge"):
		return entities.StatusDischarged
	case strings.Contains(s, "surgery"):
		return entities.StatusSurgery
	case strings.Contains(s, "mri"):
		return entities.StatusMRI
	default:
		return entities.StatusActive
	}
}

var fluidVocabulary = []string{
	"lrs", "lactated ringer", "saline", "normosol", "plasmalyte", "plasma-lyte", "fluid",
}

// inferFluids returns the fluids text derived from the medication list, or ""
// when no fluid therapy is present. The IVC flag is derived from this value
// and only this value, so the two can never disagree.
func inferFluids(meds []entities.MedicationEntry) string {
	var lines []string
	for _, med := range meds {
		name := strings.ToLower(med.Name)
		for _, vocab := range fluidVocabulary {
			if strings.Contains(name, vocab) {
				lines = append(lines, strings.TrimSpace(med.Name+" "+med.Dose))
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

var infusionDrugs = []string{"fentanyl", "lidocaine", "ketamine"}

func inferCRI(meds []entities.MedicationEntry) bool {
	for _, med := range meds {
		name := strings.ToLower(med.Name)
		freq := strings.ToLower(med.Frequency)
		if strings.Contains(name, "cri") || strings.Contains(freq, "cri") {
			return true
		}
		if strings.Contains(name, "infusion") && !strings.Contains(name, "fluid") {
			for _, drug := range infusionDrugs {
				if strings.Contains(name, drug) {
					return true
				}
			}
		}
	}
	return false
}

var placeholderComponents = map[string]bool{
	"": true, "-": true, "--": true, "n/a": true, "na": true, "none": true,
}

// buildTherapeutics renders the medication list as one line per drug,
// dropping placeholder components. When the provider exposes no structured
// medications, the raw treatment-summary lines stand in.
func buildTherapeutics(rec entities.ExternalPatientRecord) string {
	if len(rec.Medications) == 0 {
		return strings.Join(rec.TreatmentSummaries, "\n")
	}

	lines := make([]string, 0, len(rec.Medications))
	for _, med := range rec.Medications {
		var parts []string
		for _, component := range []string{med.Name, med.Dose, med.Route, med.Frequency} {
			if !placeholderComponents[strings.ToLower(strings.TrimSpace(component))] {
				parts = append(parts, strings.TrimSpace(component))
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return strings.Join(lines, "\n")
}

func buildSignalment(d entities.Demographics) string {
	var parts []string
	for _, component := range []string{d.Age, d.Sex, d.Species} {
		if strings.TrimSpace(component) != "" {
			parts = append(parts, strings.TrimSpace(component))
		}
	}
	signalment := strings.Join(parts, " ")
	if d.Breed != "" {
		signalment = strings.TrimSpace(signalment + ", " + d.Breed)
	}
	if d.WeightKg > 0 {
		signalment = strings.TrimSpace(signalment + fmt.Sprintf(", %.4gkg", d.WeightKg))
	}
	return signalment
}

func coalesce(fresh, previous string) string {
	if strings.TrimSpace(fresh) != "" {
		return fresh
	}
	return previous
}
