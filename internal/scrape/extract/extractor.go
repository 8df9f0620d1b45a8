package extract

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/marovet/roundsync/internal/domain/entities"
	"github.com/marovet/roundsync/internal/infrastructure/browser"
	"github.com/marovet/roundsync/pkg/config"
	apperrors "github.com/marovet/roundsync/pkg/errors"
	"github.com/marovet/roundsync/pkg/retry"
)

const reloadPollInterval = 500 * time.Millisecond

var (
	filterPanelLabels  = []string{"filter", "filters", "view options"}
	groupingAxisLabels = []string{"group by", "category", "service", "department"}
)

// Extractor recovers patient records from a live session positioned on the
// provider's patient-list view. All navigation and capture steps run
// sequentially within the one session; parsing itself is pure (see parser.go).
type Extractor struct {
	page   browser.Page
	cfg    *config.ProviderConfig
	logger zerolog.Logger
}

// NewExtractor creates an extractor over the given page
func NewExtractor(page browser.Page, cfg *config.ProviderConfig, logger zerolog.Logger) *Extractor {
	return &Extractor{
		page:   page,
		cfg:    cfg,
		logger: logger.With().Str("component", "extractor").Logger(),
	}
}

// ExtractActivePatients applies the category filter, captures the rendered
// page text, and parses it into patient records. The filter is a hard
// precondition: records outside the category must never be returned. The only
// hard parse error is recovering zero blocks after a successful filter, which
// most often signals a remote layout change.
func (e *Extractor) ExtractActivePatients(ctx context.Context, category string) ([]entities.ExternalPatientRecord, error) {
	if err := e.page.Navigate(ctx, e.cfg.PatientListURL()); err != nil {
		return nil, apperrors.NewExtractionError("failed to reach patient list view", err)
	}

	if err := e.applyCategoryFilter(ctx, category); err != nil {
		return nil, apperrors.NewExtractionError("failed to apply category filter", err)
	}

	text, err := e.page.VisibleText(ctx)
	if err != nil {
		return nil, apperrors.NewExtractionError("failed to capture page text", err)
	}

	records := ParseRecords(text)
	if len(records) == 0 {
		if path := browser.SaveSnapshot(ctx, e.page, e.cfg.SnapshotDir, "empty-extraction", e.logger); path != "" {
			e.logger.Info().Str("snapshot", path).Msg("diagnostic snapshot captured")
		}
		return nil, apperrors.NewExtractionError("no patient blocks recovered, remote layout may have changed", nil)
	}

	e.logger.Info().Int("records", len(records)).Str("category", category).Msg("patient records extracted")
	return records, nil
}

// applyCategoryFilter drives the generic filter UI: open the panel, choose
// the grouping axis, choose the category value, then wait for the list to
// visibly reload. Affordances are searched by visible text, with the same
// bounded retry the login driver uses.
func (e *Extractor) applyCategoryFilter(ctx context.Context, category string) error {
	before, err := e.page.VisibleText(ctx)
	if err != nil {
		return err
	}

	err = retry.Do(ctx, retry.FixedConfig(e.cfg.NavRetries, reloadPollInterval), func() error {
		// The panel and axis affordances are optional: some provider skins
		// render the category chips inline without a panel.
		if _, err := e.page.ClickByText(ctx, filterPanelLabels); err != nil {
			return err
		}
		if _, err := e.page.ClickByText(ctx, groupingAxisLabels); err != nil {
			return err
		}

		clicked, err := e.page.ClickByText(ctx, []string{category})
		if err != nil {
			return err
		}
		if !clicked {
			return apperrors.NewExtractionError("category affordance not found: "+category, nil)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return e.waitForReload(ctx, before, category)
}

// waitForReload polls until the rendered text either changes or mentions the
// category, bounded by the navigation timeout. A list that was already
// filtered re-renders identically, so "contains the category" also counts.
func (e *Extractor) waitForReload(ctx context.Context, before, category string) error {
	deadline := time.Now().Add(e.cfg.NavTimeout)
	for time.Now().Before(deadline) {
		text, err := e.page.VisibleText(ctx)
		if err != nil {
			return err
		}
		if text != before || strings.Contains(strings.ToLower(text), strings.ToLower(category)) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reloadPollInterval):
		}
	}
	e.logger.Warn().Msg("list did not visibly reload after filter, proceeding with current view")
	return nil
}
