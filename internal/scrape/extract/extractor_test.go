package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marovet/roundsync/pkg/config"
	apperrors "github.com/marovet/roundsync/pkg/errors"
)

const listText = `Whiteboard
Neurology
"Rex" Jones
Canine • Labrador
23kg | 5y 0m | MN
100 - IP#1, T2`

type fakePage struct {
	text      string
	clickable map[string]bool
	clicked   []string
	navigated []string
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakePage) Location(context.Context) (string, error) { return "", nil }

func (f *fakePage) WaitVisible(context.Context, string) error { return nil }

func (f *fakePage) Fill(context.Context, string, string) error { return nil }

func (f *fakePage) Click(context.Context, string) error { return nil }

func (f *fakePage) ClickByText(_ context.Context, labels []string) (bool, error) {
	for _, label := range labels {
		if f.clickable[label] {
			f.clicked = append(f.clicked, label)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePage) EnterPin(context.Context, string) (bool, error) { return false, nil }

func (f *fakePage) VisibleText(context.Context) (string, error) { return f.text, nil }

func (f *fakePage) Screenshot(context.Context) ([]byte, error) {
	return nil, errors.New("no screenshot in tests")
}

func testProviderConfig() *config.ProviderConfig {
	return &config.ProviderConfig{
		BaseURL:         "https://pms.test",
		PatientListPath: "/whiteboard",
		NavRetries:      2,
		NavTimeout:      200 * time.Millisecond,
	}
}

func TestExtractActivePatients(t *testing.T) {
	page := &fakePage{
		text:      listText,
		clickable: map[string]bool{"filter": true, "group by": true, "Neurology": true},
	}
	e := NewExtractor(page, testProviderConfig(), zerolog.Nop())

	records, err := e.ExtractActivePatients(context.Background(), "Neurology")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Rex Jones", records[0].Name)
	assert.Contains(t, page.navigated, "https://pms.test/whiteboard")
	assert.Contains(t, page.clicked, "Neurology")
}

func TestExtractActivePatients_CategoryAffordanceMissing(t *testing.T) {
	page := &fakePage{
		text:      listText,
		clickable: map[string]bool{"filter": true},
	}
	e := NewExtractor(page, testProviderConfig(), zerolog.Nop())

	_, err := e.ExtractActivePatients(context.Background(), "Neurology")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExtraction))
}

func TestExtractActivePatients_EmptyResult(t *testing.T) {
	page := &fakePage{
		text:      "Neurology\nNothing to see here",
		clickable: map[string]bool{"Neurology": true},
	}
	e := NewExtractor(page, testProviderConfig(), zerolog.Nop())

	_, err := e.ExtractActivePatients(context.Background(), "Neurology")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExtraction))
}
