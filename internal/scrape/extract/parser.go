package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/marovet/roundsync/internal/domain/entities"
)

// The provider renders its patient list as a visually structured but
// structurally unstable page. Parsing works on the rendered text, one small
// heuristic per field, each failing soft: a miss produces an empty value,
// never an error. Keeping every pattern in its own function lets each be
// swapped independently when the remote layout shifts.

var (
	// `"Rex" Jones` — quoted call name plus trailing family name
	quotedNameRe = regexp.MustCompile(`^"([^"]+)"\s*(.*)$`)

	// `Canine • Labrador` — species token plus trailing breed descriptor
	speciesRe = regexp.MustCompile(`(?i)\b(canine|feline|dog|cat|rabbit|lapine|avian|ferret|exotic)\b[\s•·|:,-]*(.*)$`)

	// `23kg | 5y 0m | MN` — one combined weight/age/sex pattern
	vitalsRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*kg\s*\|\s*([^|]+?)\s*\|\s*([A-Za-z]{1,3})\b`)

	// `100 - IP#1, T2` — numeric-prefixed free-text placement
	locationRe = regexp.MustCompile(`^(\d+\s*-\s*.+)$`)

	// `ALERT post-op pain` — keyword-anchored free-text note lines
	criticalNoteRe = regexp.MustCompile(`(?i)^(?:alert|warning|dnr|note)\b`)

	// `2 Monitoring +1` — repeating `<count> <category> [+detail]` summary
	treatmentSummaryRe = regexp.MustCompile(`^(\d+)\s+([A-Za-z][A-Za-z /-]*?)(?:\s*\+\s*\d+)?$`)

	// `LRS 10ml/kg/hr IV CRI 08:00` — structured medication rows, when the
	// provider renders any
	medicationRe = regexp.MustCompile(`(?i)^([A-Za-z][A-Za-z0-9 ()/-]*?)\s+(\d[\w./%-]*)\s+(IV|PO|IM|SQ|SC|PR|TOP|CRI)\b\s*(\S*)\s*(\d{1,2}:\d{2})?\s*$`)

	// Status labels the provider attaches to list rows
	statusRe = regexp.MustCompile(`(?i)^(critical|caution|stable|friendly|in surgery|surgery|mri|discharged)\b`)
)

// ParseRecords turns one captured page text into patient records. Blocks that
// yield no name are dropped entirely, never emitted with a synthetic
// identity. A block with zero treatments is still emitted: absence of
// treatment data is valid.
func ParseRecords(text string) []entities.ExternalPatientRecord {
	records := make([]entities.ExternalPatientRecord, 0)
	for _, block := range SegmentBlocks(text) {
		rec := parseBlock(block)
		if rec.Name == "" {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// SegmentBlocks splits captured text into candidate patient blocks. A block
// boundary is assumed wherever a quoted first-name token appears; blocks not
// containing a recognized species token are discarded as list chrome
// (headers, group labels, footers).
func SegmentBlocks(text string) [][]string {
	lines := strings.Split(text, "\n")

	starts := make([]int, 0)
	for i, line := range lines {
		if quotedNameRe.MatchString(strings.TrimSpace(line)) {
			starts = append(starts, i)
		}
	}

	blocks := make([][]string, 0, len(starts))
	for idx, start := range starts {
		end := len(lines)
		if idx+1 < len(starts) {
			end = starts[idx+1]
		}

		block := make([]string, 0, end-start)
		for _, line := range lines[start:end] {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				block = append(block, trimmed)
			}
		}

		if hasSpeciesToken(block) {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func hasSpeciesToken(block []string) bool {
	for _, line := range block {
		if speciesRe.MatchString(line) {
			return true
		}
	}
	return false
}

func parseBlock(block []string) entities.ExternalPatientRecord {
	rec := entities.ExternalPatientRecord{}

	rec.Name = parseName(block)
	rec.Species, rec.Breed = parseSpeciesBreed(block)
	rec.WeightKg, rec.Age, rec.Sex = parseVitals(block)
	rec.Location = parseLocation(block)
	rec.Status = parseStatus(block)
	rec.CriticalNotes = parseCriticalNotes(block)
	rec.TreatmentSummaries = parseTreatmentSummaries(block)
	rec.Medications = parseMedications(block)

	return rec
}

func parseName(block []string) string {
	for _, line := range block {
		if m := quotedNameRe.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(strings.TrimSpace(m[1]) + " " + strings.TrimSpace(m[2]))
		}
	}
	return ""
}

func parseSpeciesBreed(block []string) (string, string) {
	for _, line := range block {
		// The name line may quote a pet called "Cat"; skip it.
		if quotedNameRe.MatchString(line) {
			continue
		}
		if m := speciesRe.FindStringSubmatch(line); m != nil {
			breed := strings.Trim(strings.TrimSpace(m[2]), "•·|,- ")
			return capitalize(m[1]), breed
		}
	}
	return "", ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	return strings.ToUpper(s[:1]) + s[1:]
}

func parseVitals(block []string) (float64, string, string) {
	for _, line := range block {
		if m := vitalsRe.FindStringSubmatch(line); m != nil {
			weight, _ := strconv.ParseFloat(m[1], 64)
			return weight, strings.TrimSpace(m[2]), strings.ToUpper(m[3])
		}
	}
	return 0, "", ""
}

func parseLocation(block []string) string {
	for _, line := range block {
		if vitalsRe.MatchString(line) {
			continue
		}
		if m := locationRe.FindStringSubmatch(line); m != nil {
			loc := m[1]
			// Trailing chrome after a bullet delimiter is not placement.
			if cut := strings.IndexAny(loc, "•·"); cut >= 0 {
				loc = loc[:cut]
			}
			return strings.TrimSpace(loc)
		}
	}
	return ""
}

func parseStatus(block []string) string {
	for _, line := range block {
		if m := statusRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

func parseCriticalNotes(block []string) []string {
	var notes []string
	for _, line := range block {
		if criticalNoteRe.MatchString(line) {
			notes = append(notes, line)
		}
	}
	return notes
}

func parseTreatmentSummaries(block []string) []string {
	var summaries []string
	for _, line := range block {
		if treatmentSummaryRe.MatchString(line) {
			summaries = append(summaries, line)
		}
	}
	return summaries
}

func parseMedications(block []string) []entities.MedicationEntry {
	var meds []entities.MedicationEntry
	for _, line := range block {
		m := medicationRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		meds = append(meds, entities.MedicationEntry{
			Name:      strings.TrimSpace(m[1]),
			Dose:      strings.TrimSpace(m[2]),
			Route:     strings.ToUpper(m[3]),
			Frequency: strings.TrimSpace(m[4]),
			Time:      strings.TrimSpace(m[5]),
		})
	}
	return meds
}
