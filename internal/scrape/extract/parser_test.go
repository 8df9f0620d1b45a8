package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rexBlock = `"Rex" Jones
Canine • Labrador
23kg | 5y 0m | MN
100 - IP#1, T2
ALERT post-op pain
2 Monitoring +1`

func TestParseRecords_WellFormedBlock(t *testing.T) {
	records := ParseRecords(rexBlock)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Rex Jones", rec.Name)
	assert.Equal(t, "Canine", rec.Species)
	assert.Equal(t, "Labrador", rec.Breed)
	assert.Equal(t, 23.0, rec.WeightKg)
	assert.Equal(t, "5y 0m", rec.Age)
	assert.Equal(t, "MN", rec.Sex)
	assert.Equal(t, "100 - IP#1, T2", rec.Location)
	require.Len(t, rec.CriticalNotes, 1)
	assert.Contains(t, rec.CriticalNotes[0], "ALERT post-op pain")
	assert.Equal(t, []string{"2 Monitoring +1"}, rec.TreatmentSummaries)
}

func TestParseRecords_DiscardsMalformedFragments(t *testing.T) {
	// Two well-formed blocks surrounded by list chrome with no species
	// token: exactly two records, no empty names.
	text := `Whiteboard
Sorted by cage
"Rex" Jones
Canine • Labrador
23kg | 5y 0m | MN
"Misty" Alvarez
Feline • DSH
4.2kg | 9y 3m | FS
"Orphan" Fragment
no recognizable content here
Page 1 of 2`

	records := ParseRecords(text)
	require.Len(t, records, 2)
	assert.Equal(t, "Rex Jones", records[0].Name)
	assert.Equal(t, "Misty Alvarez", records[1].Name)
	for _, rec := range records {
		assert.NotEmpty(t, rec.Name)
	}
}

func TestParseRecords_EmptyTreatmentsStillEmitted(t *testing.T) {
	text := `"Biscuit" Tan
Feline • Maine Coon`

	records := ParseRecords(text)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].TreatmentSummaries)
	assert.Empty(t, records[0].Medications)
}

func TestParseRecords_Medications(t *testing.T) {
	text := `"Rex" Jones
Canine • Labrador
LRS 10ml/kg/hr IV CRI
Gabapentin 100mg PO q8h 08:00`

	records := ParseRecords(text)
	require.Len(t, records, 1)
	meds := records[0].Medications
	require.Len(t, meds, 2)

	assert.Equal(t, "LRS", meds[0].Name)
	assert.Equal(t, "10ml/kg/hr", meds[0].Dose)
	assert.Equal(t, "IV", meds[0].Route)
	assert.Equal(t, "CRI", meds[0].Frequency)

	assert.Equal(t, "Gabapentin", meds[1].Name)
	assert.Equal(t, "100mg", meds[1].Dose)
	assert.Equal(t, "PO", meds[1].Route)
	assert.Equal(t, "q8h", meds[1].Frequency)
	assert.Equal(t, "08:00", meds[1].Time)
}

func TestParseRecords_StatusLabel(t *testing.T) {
	text := `"Rex" Jones
Canine • Labrador
Critical`

	records := ParseRecords(text)
	require.Len(t, records, 1)
	assert.Equal(t, "Critical", records[0].Status)
}

func TestParseRecords_NoNameBlockDropped(t *testing.T) {
	// A species token without any quoted-name line never starts a block.
	text := `Canine • Labrador
23kg | 5y 0m | MN`

	assert.Empty(t, ParseRecords(text))
}

func TestSegmentBlocks_BoundariesAtQuotedNames(t *testing.T) {
	text := `"Rex" Jones
Canine • Labrador
"Misty" Alvarez
Feline • DSH`

	blocks := SegmentBlocks(text)
	require.Len(t, blocks, 2)
	assert.Equal(t, `"Rex" Jones`, blocks[0][0])
	assert.Equal(t, `"Misty" Alvarez`, blocks[1][0])
}

func TestSlugFallsBackToName(t *testing.T) {
	records := ParseRecords(rexBlock)
	require.Len(t, records, 1)
	assert.Equal(t, "rex-jones", records[0].Slug())
}
