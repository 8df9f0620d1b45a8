package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/marovet/roundsync/internal/infrastructure/browser"
	"github.com/marovet/roundsync/pkg/config"
	apperrors "github.com/marovet/roundsync/pkg/errors"
	"github.com/marovet/roundsync/pkg/retry"
)

const statePollInterval = 1500 * time.Millisecond

var usernameSelectors = []string{
	`input[type="email"]`,
	`input[name="username"]`,
	`input[name="email"]`,
	`input[type="text"]`,
}

var submitLabels = []string{"sign in", "log in", "login", "submit"}

// Driver walks the provider login state machine over one browser page.
// One driver owns one page; it must not be shared across concurrent logins.
type Driver struct {
	page   browser.Page
	cfg    *config.ProviderConfig
	logger zerolog.Logger
}

// NewDriver creates a login driver for the given page
func NewDriver(page browser.Page, cfg *config.ProviderConfig, logger zerolog.Logger) *Driver {
	return &Driver{
		page:   page,
		cfg:    cfg,
		logger: logger.With().Str("component", "auth_driver").Logger(),
	}
}

// Login submits credentials and drives the page through whatever interstitial
// states the provider raises until the dashboard is reached. No local format
// validation is performed on the credentials; the remote system is the source
// of truth. On failure a diagnostic snapshot is captured best-effort.
func (d *Driver) Login(ctx context.Context, identifier, secret string) error {
	if err := d.page.Navigate(ctx, d.cfg.LoginURL()); err != nil {
		return d.fail(ctx, "failed to reach login page", err)
	}

	if err := d.fillCredentials(ctx, identifier, secret); err != nil {
		return d.fail(ctx, "login form not found", err)
	}

	if clicked, err := d.page.ClickByText(ctx, submitLabels); err != nil {
		return d.fail(ctx, "failed to submit login form", err)
	} else if !clicked {
		// Some skins render a bare submit button with icon-only content.
		if err := d.page.Click(ctx, `button[type="submit"]`); err != nil {
			return d.fail(ctx, "no submit affordance found on login form", err)
		}
	}

	deadline := time.Now().Add(d.cfg.LoginTimeout)
	loginFormSightings := 0

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return d.fail(ctx, "login cancelled", err)
		}

		text, err := d.page.VisibleText(ctx)
		if err != nil {
			return d.fail(ctx, "failed to read page", err)
		}

		state := DetectState(text)
		d.logger.Debug().Stringer("state", state).Msg("login state observed")

		switch state {
		case StateDashboard:
			return nil

		case StateLoginForm:
			if HasCredentialError(text) {
				return d.fail(ctx, "credentials rejected by provider", nil)
			}
			// Allow a couple of polls for the submit to land before
			// concluding the form simply came back.
			loginFormSightings++
			if loginFormSightings >= 3 {
				return d.fail(ctx, "still on login form after submit", nil)
			}

		case StateEmailVerification, StatePinConfirm:
			if err := d.dismiss(ctx, state); err != nil {
				return d.fail(ctx, "failed to pass "+state.String()+" interstitial", err)
			}
		}

		select {
		case <-ctx.Done():
			return d.fail(ctx, "login cancelled", ctx.Err())
		case <-time.After(statePollInterval):
		}
	}

	return d.fail(ctx, "login state unresolved within timeout", nil)
}

// Logout clicks a sign-out affordance if one is visible. Best effort: the
// authoritative teardown is closing the browser session, which the owner of
// the session performs unconditionally.
func (d *Driver) Logout(ctx context.Context) {
	if _, err := d.page.ClickByText(ctx, []string{"log out", "sign out", "logout"}); err != nil {
		d.logger.Debug().Err(err).Msg("logout affordance click failed")
	}
}

func (d *Driver) fillCredentials(ctx context.Context, identifier, secret string) error {
	var lastErr error
	for _, sel := range usernameSelectors {
		if err := d.page.Fill(ctx, sel, identifier); err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return lastErr
	}
	return d.page.Fill(ctx, `input[type="password"]`, secret)
}

// dismiss executes the state's dismiss plan with the bounded
// navigation-retry fallback: affordance text is not contractually stable, so
// when nothing matches we navigate straight to the target list view instead.
func (d *Driver) dismiss(ctx context.Context, state State) error {
	action := PlanDismiss(state)
	if action.Kind == ActionNone {
		return nil
	}

	return retry.Do(ctx, retry.FixedConfig(d.cfg.NavRetries, statePollInterval), func() error {
		if action.Kind == ActionEnterPin {
			entered, err := d.page.EnterPin(ctx, d.cfg.PinCode)
			if err != nil {
				return err
			}
			if entered {
				if clicked, err := d.page.ClickByText(ctx, action.Labels); err != nil {
					return err
				} else if clicked {
					return nil
				}
			}
		} else {
			clicked, err := d.page.ClickByText(ctx, action.Labels)
			if err != nil {
				return err
			}
			if clicked {
				return nil
			}
		}

		d.logger.Warn().Stringer("state", state).Msg("no dismiss affordance found, navigating to list view directly")
		return d.page.Navigate(ctx, d.cfg.PatientListURL())
	})
}

func (d *Driver) fail(ctx context.Context, message string, cause error) error {
	if path := browser.SaveSnapshot(ctx, d.page, d.cfg.SnapshotDir, "login-failed", d.logger); path != "" {
		d.logger.Info().Str("snapshot", path).Msg("diagnostic snapshot captured")
	}
	return apperrors.NewAuthError(message, cause)
}
