package entities

import "time"

// ReadinessIssue names a single field blocking or degrading document
// generation for a patient
type ReadinessIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PatientReadiness is the per-patient outcome of a readiness check
type PatientReadiness struct {
	PatientID string           `json:"patientId,omitempty"`
	Name      string           `json:"name"`
	Errors    []ReadinessIssue `json:"errors,omitempty"`
	Warnings  []ReadinessIssue `json:"warnings,omitempty"`
}

// ReadinessReport partitions a batch into patients ready for downstream
// document generation and patients missing data
type ReadinessReport struct {
	Ready    []UnifiedPatient   `json:"ready"`
	NotReady []PatientReadiness `json:"notReady"`
}

// ImportReport is the result of one whole-list import pass. Batch operations
// always complete; partial failure is reported through Errors, never by
// losing already-imported patients.
type ImportReport struct {
	Success                   bool               `json:"success"`
	Patients                  []UnifiedPatient   `json:"patients"`
	ManualEntryRequirements   []PatientReadiness `json:"manualEntryRequirements"`
	TotalEstimatedTimeSeconds int                `json:"totalEstimatedTimeSeconds"`
	Errors                    []string           `json:"errors,omitempty"`
	CompletedAt               time.Time          `json:"completedAt"`
}

// SyncReport is the result of a batch re-sync of stored patients
type SyncReport struct {
	Patients    []UnifiedPatient `json:"patients"`
	Errors      []string         `json:"errors,omitempty"`
	CompletedAt time.Time        `json:"completedAt"`
}
