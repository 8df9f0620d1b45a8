package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// SaveSnapshot captures a diagnostic snapshot (visible text plus screenshot)
// of the current view into dir. Best effort: every failure is logged and
// swallowed so that snapshotting never blocks returning the real error.
// Returns the path prefix of whatever was written, or "".
func SaveSnapshot(ctx context.Context, p Page, dir, label string, logger zerolog.Logger) string {
	if dir == "" {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("snapshot dir not writable")
		return ""
	}

	prefix := filepath.Join(dir, fmt.Sprintf("%s-%s", label, time.Now().Format("20060102-150405")))
	wrote := false

	if text, err := p.VisibleText(ctx); err != nil {
		logger.Warn().Err(err).Msg("snapshot: failed to capture page text")
	} else if err := os.WriteFile(prefix+".txt", []byte(text), 0o644); err != nil {
		logger.Warn().Err(err).Msg("snapshot: failed to write page text")
	} else {
		wrote = true
	}

	if png, err := p.Screenshot(ctx); err != nil {
		logger.Warn().Err(err).Msg("snapshot: failed to capture screenshot")
	} else if err := os.WriteFile(prefix+".png", png, 0o644); err != nil {
		logger.Warn().Err(err).Msg("snapshot: failed to write screenshot")
	} else {
		wrote = true
	}

	if !wrote {
		return ""
	}
	return prefix
}
