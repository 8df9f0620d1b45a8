package entities

import "time"

// LifecycleStatus is the coarse stage a patient is in within the clinic
type LifecycleStatus string

const (
	StatusActive     LifecycleStatus = "active"
	StatusSurgery    LifecycleStatus = "surgery"
	StatusMRI        LifecycleStatus = "mri"
	StatusDischarged LifecycleStatus = "discharged"
)

// TriageCode is the rounding severity/priority label.
// Yellow is the unset default: it means "requires review", not "safe".
type TriageCode string

const (
	TriageGreen  TriageCode = "green"
	TriageYellow TriageCode = "yellow"
	TriageOrange TriageCode = "orange"
	TriageRed    TriageCode = "red"
)

// LocationClass partitions placements into ICU and general inpatient
type LocationClass string

const (
	LocationICU LocationClass = "ICU"
	LocationIP  LocationClass = "IP"
)

// Demographics holds identity and owner-contact data for a patient.
// Owner contact and microchip are commonly absent from the provider system,
// so the mapper never regresses a previously known value here.
type Demographics struct {
	Name       string  `json:"name" db:"name"`
	Species    string  `json:"species" db:"species"`
	Breed      string  `json:"breed" db:"breed"`
	Age        string  `json:"age" db:"age"`
	Sex        string  `json:"sex" db:"sex"`
	WeightKg   float64 `json:"weightKg" db:"weight_kg"`
	OwnerName  string  `json:"ownerName,omitempty" db:"owner_name"`
	OwnerPhone string  `json:"ownerPhone,omitempty" db:"owner_phone"`
	Microchip  string  `json:"microchip,omitempty" db:"microchip"`
}

// CurrentStay describes the patient's current placement in the clinic
type CurrentStay struct {
	Location      string        `json:"location" db:"location"`
	LocationClass LocationClass `json:"locationClass" db:"location_class"`
	AdmitDate     string        `json:"admitDate,omitempty" db:"admit_date"`
	ICUCriteria   bool          `json:"icuCriteria" db:"icu_criteria"`
	Triage        TriageCode    `json:"triage" db:"triage"`
}

// LabResults is the locally entered lab sub-object on rounding data
type LabResults struct {
	Summary     string `json:"summary"`
	CollectedAt string `json:"collectedAt,omitempty"`
}

// ImagingFindings is the locally entered imaging sub-object on rounding data
type ImagingFindings struct {
	Modality string `json:"modality,omitempty"`
	Findings string `json:"findings"`
}

// RoundingData is the per-patient rounding sheet. Some fields mirror the
// provider system (signalment, location, therapeutics); others only ever
// come from clinicians (neurolocalization, diagnostic findings, plans).
// The merge engine's tier rules encode that split.
type RoundingData struct {
	Signalment         string           `json:"signalment"`
	Location           string           `json:"location"`
	ICUCriteria        string           `json:"icuCriteria,omitempty"`
	Triage             TriageCode       `json:"triage"`
	Problems           string           `json:"problems,omitempty"`
	DiagnosticFindings string           `json:"diagnosticFindings,omitempty"`
	Therapeutics       string           `json:"therapeutics,omitempty"`
	IVC                string           `json:"ivc"`
	Fluids             string           `json:"fluids,omitempty"`
	CRI                string           `json:"cri"`
	OvernightPlan      string           `json:"overnightPlan,omitempty"`
	Concerns           string           `json:"concerns,omitempty"`
	Comments           string           `json:"comments,omitempty"`
	Neurolocalization  string           `json:"neurolocalization,omitempty"`
	Labs               *LabResults      `json:"labs,omitempty"`
	Imaging            *ImagingFindings `json:"imaging,omitempty"`
}

// MRIData holds locally entered scan parameters for a scheduled MRI
type MRIData struct {
	Scheduled      bool   `json:"scheduled"`
	ScanParameters string `json:"scanParameters,omitempty"`
	Sequences      string `json:"sequences,omitempty"`
	Anesthesia     string `json:"anesthesia,omitempty"`
}

// StickerData holds label-printing state for a patient
type StickerData struct {
	Requested bool   `json:"requested"`
	Count     int    `json:"count,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// UnifiedPatient is the persistent clinic-side patient entity. The sync
// pipeline only ever proposes a replacement value for one of these; it never
// mutates a stored record in place and never deletes one (discharge is
// inferred from the provider status label, not erasure).
type UnifiedPatient struct {
	ID          string `json:"id" db:"id"`
	ExternalMRN string `json:"externalMrn,omitempty" db:"external_mrn"`

	Demographics Demographics    `json:"demographics"`
	Status       LifecycleStatus `json:"status" db:"status"`
	CurrentStay  CurrentStay     `json:"currentStay"`
	Rounding     RoundingData    `json:"roundingData"`

	SOAPNotes string       `json:"soapNotes,omitempty"`
	MRI       *MRIData     `json:"mriData,omitempty"`
	Sticker   *StickerData `json:"stickerData,omitempty"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
