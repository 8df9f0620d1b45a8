// Package scrape glues the login driver and the record extractor into one
// record source: every extraction pass owns a whole browser session, from
// login to teardown.
package scrape

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/marovet/roundsync/internal/domain/entities"
	"github.com/marovet/roundsync/internal/infrastructure/browser"
	"github.com/marovet/roundsync/internal/scrape/auth"
	"github.com/marovet/roundsync/internal/scrape/extract"
	"github.com/marovet/roundsync/pkg/config"
	apperrors "github.com/marovet/roundsync/pkg/errors"
)

// ProviderSource extracts patient records from the provider system. Each
// call acquires its own session and releases it on every exit path, so calls
// never poison one another; callers that need to amortize the login cost
// batch their patients into one call instead.
type ProviderSource struct {
	cfg    *config.ProviderConfig
	logger zerolog.Logger
}

// NewProviderSource creates a provider-backed record source.
func NewProviderSource(cfg *config.ProviderConfig, logger zerolog.Logger) *ProviderSource {
	return &ProviderSource{
		cfg:    cfg,
		logger: logger.With().Str("component", "provider_source").Logger(),
	}
}

// ExtractActivePatients logs in, applies the category filter, and extracts
// the patient list in one scoped session.
func (s *ProviderSource) ExtractActivePatients(ctx context.Context, category string) ([]entities.ExternalPatientRecord, error) {
	session, err := browser.NewSession(ctx, s.cfg)
	if err != nil {
		return nil, apperrors.NewAuthError("failed to start browser session", err)
	}
	defer session.Close()

	driver := auth.NewDriver(session, s.cfg, s.logger)
	if err := driver.Login(ctx, s.cfg.Username, s.cfg.Password); err != nil {
		return nil, err
	}
	defer driver.Logout(ctx)

	extractor := extract.NewExtractor(session, s.cfg, s.logger)
	return extractor.ExtractActivePatients(ctx, category)
}
