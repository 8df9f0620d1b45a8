// Package validation partitions patients into ready/not-ready for
// downstream document generation, with field-level reasons.
package validation

import (
	"strings"

	"github.com/marovet/roundsync/internal/domain/entities"
)

// ValidateForDocumentGeneration checks each patient for the data the
// rounding-sheet and label generators need. A missing name is the only
// blocking error; everything else surfaces as a warning so one incomplete
// record never stalls the batch. Pure: the input slice is not mutated.
func ValidateForDocumentGeneration(patients []entities.UnifiedPatient) entities.ReadinessReport {
	report := entities.ReadinessReport{
		Ready:    make([]entities.UnifiedPatient, 0, len(patients)),
		NotReady: make([]entities.PatientReadiness, 0),
	}

	for _, p := range patients {
		readiness := assess(p)
		if len(readiness.Errors) == 0 && len(readiness.Warnings) == 0 {
			report.Ready = append(report.Ready, p)
			continue
		}
		report.NotReady = append(report.NotReady, readiness)
	}

	return report
}

func assess(p entities.UnifiedPatient) entities.PatientReadiness {
	r := entities.PatientReadiness{
		PatientID: p.ID,
		Name:      p.Demographics.Name,
	}

	if blank(p.Demographics.Name) {
		r.Errors = append(r.Errors, entities.ReadinessIssue{
			Field:   "name",
			Message: "patient has no name; cannot appear on generated documents",
		})
	}

	if blank(p.Rounding.Neurolocalization) {
		r.Warnings = append(r.Warnings, entities.ReadinessIssue{
			Field:   "neurolocalization",
			Message: "no neurolocalization recorded",
		})
	}

	if p.Rounding.Labs == nil || blank(p.Rounding.Labs.Summary) {
		r.Warnings = append(r.Warnings, entities.ReadinessIssue{
			Field:   "labs",
			Message: "no lab results recorded",
		})
	}

	if p.MRI != nil && p.MRI.Scheduled && blank(p.MRI.ScanParameters) {
		r.Warnings = append(r.Warnings, entities.ReadinessIssue{
			Field:   "mri.scanParameters",
			Message: "MRI is scheduled but scan parameters are missing",
		})
	}

	if p.Sticker != nil && p.Sticker.Requested && blank(p.Demographics.OwnerName) && blank(p.Demographics.OwnerPhone) {
		r.Warnings = append(r.Warnings, entities.ReadinessIssue{
			Field:   "owner",
			Message: "labels requested but no owner contact on file",
		})
	}

	return r
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
