package entities

import "strings"

// MedicationEntry is a single structured medication row recovered from the
// provider's treatment sheet. Any component may be empty or a placeholder;
// consumers must treat every field as optional.
type MedicationEntry struct {
	Name      string `json:"name"`
	Dose      string `json:"dose"`
	Route     string `json:"route"`
	Frequency string `json:"frequency"`
	Time      string `json:"time,omitempty"`
}

// ExternalPatientRecord is what one scrape pass recovers for one patient from
// the provider's rendered page text. It lives only within that pass: it is
// never persisted directly and is always run through the mapper first.
//
// Name is the only guaranteed field: a block that yields no name is dropped
// by the extractor rather than emitted with a placeholder identity.
type ExternalPatientRecord struct {
	SourceID string `json:"sourceId,omitempty"`
	Name     string `json:"name"`

	Species  string  `json:"species,omitempty"`
	Breed    string  `json:"breed,omitempty"`
	Age      string  `json:"age,omitempty"`
	Sex      string  `json:"sex,omitempty"`
	WeightKg float64 `json:"weightKg,omitempty"`

	Location string `json:"location,omitempty"`
	Status   string `json:"status,omitempty"`

	CriticalNotes      []string          `json:"criticalNotes,omitempty"`
	TreatmentSummaries []string          `json:"treatmentSummaries,omitempty"`
	Medications        []MedicationEntry `json:"medications,omitempty"`
}

// Slug returns a stable name-derived identifier for records the provider
// exposes no id for.
func (r *ExternalPatientRecord) Slug() string {
	if r.SourceID != "" {
		return r.SourceID
	}
	return strings.ToLower(strings.Join(strings.Fields(r.Name), "-"))
}
