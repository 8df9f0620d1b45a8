package merge

import (
	"strings"

	"github.com/marovet/roundsync/internal/domain/entities"
)

// Merge reconciles a freshly mapped patient against the stored one under the
// three-tier field policy:
//
//   - always-fresh: demographics, lifecycle status, stay, signalment,
//     location, problems, therapeutics, fluids/IVC/CRI, triage default —
//     these mirror current external state and go stale otherwise;
//   - seed-only: fields that require clinical judgment entered locally
//     (neurolocalization, diagnostic findings, plans, labs, imaging, MRI and
//     sticker sub-records) — a scraped value may fill a blank but never
//     replaces a non-empty one;
//   - preserve-only: data the external system has no concept of at all
//     (SOAP notes) — always kept from the stored record.
//
// Pure and deterministic: no clock, no I/O. Applying it twice with the same
// mapped value is a no-op.
func Merge(existing, mapped entities.UnifiedPatient) entities.UnifiedPatient {
	out := mapped

	// Identity is anchored to the stored record.
	if existing.ID != "" {
		out.ID = existing.ID
	}
	if !existing.CreatedAt.IsZero() {
		out.CreatedAt = existing.CreatedAt
	}
	out.ExternalMRN = seed(mapped.ExternalMRN, existing.ExternalMRN)
	out.CurrentStay.AdmitDate = seed(existing.CurrentStay.AdmitDate, mapped.CurrentStay.AdmitDate)

	// Seed-only rounding fields.
	out.Rounding.Neurolocalization = seed(existing.Rounding.Neurolocalization, mapped.Rounding.Neurolocalization)
	out.Rounding.DiagnosticFindings = seed(existing.Rounding.DiagnosticFindings, mapped.Rounding.DiagnosticFindings)
	out.Rounding.OvernightPlan = seed(existing.Rounding.OvernightPlan, mapped.Rounding.OvernightPlan)
	out.Rounding.Concerns = seed(existing.Rounding.Concerns, mapped.Rounding.Concerns)
	out.Rounding.Comments = seed(existing.Rounding.Comments, mapped.Rounding.Comments)
	out.Rounding.ICUCriteria = seed(existing.Rounding.ICUCriteria, mapped.Rounding.ICUCriteria)
	if existing.Rounding.Labs != nil {
		out.Rounding.Labs = existing.Rounding.Labs
	}
	if existing.Rounding.Imaging != nil {
		out.Rounding.Imaging = existing.Rounding.Imaging
	}
	if existing.MRI != nil {
		out.MRI = existing.MRI
	}
	if existing.Sticker != nil {
		out.Sticker = existing.Sticker
	}

	// Preserve-only.
	out.SOAPNotes = existing.SOAPNotes

	return out
}

// PreservedFieldCount reports how many locally entered fields the merge
// policy would keep over scraped values for this stored record. Used for
// metrics only; it has no effect on the merge itself.
func PreservedFieldCount(existing entities.UnifiedPatient) int {
	count := 0
	for _, field := range []string{
		existing.Rounding.Neurolocalization,
		existing.Rounding.DiagnosticFindings,
		existing.Rounding.OvernightPlan,
		existing.Rounding.Concerns,
		existing.Rounding.Comments,
		existing.SOAPNotes,
	} {
		if strings.TrimSpace(field) != "" {
			count++
		}
	}
	if existing.Rounding.Labs != nil {
		count++
	}
	if existing.Rounding.Imaging != nil {
		count++
	}
	if existing.MRI != nil {
		count++
	}
	if existing.Sticker != nil {
		count++
	}
	return count
}

// seed returns preferred unless it is blank, in which case fallback fills in
func seed(preferred, fallback string) string {
	if strings.TrimSpace(preferred) != "" {
		return preferred
	}
	return fallback
}
