// Package cache keeps the most recent import and sync reports in Redis so
// the API can serve "what happened on the last pass" without re-running one.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marovet/roundsync/internal/domain/entities"
	redisclient "github.com/marovet/roundsync/internal/infrastructure/clients/redis"
)

const (
	importReportKey = "roundsync:report:import"
	syncReportKey   = "roundsync:report:sync"

	// Reports are only interesting for the working day.
	reportTTL = 24 * time.Hour
)

// ErrNoReport is returned when no report has been stored yet or the last
// one has expired.
var ErrNoReport = fmt.Errorf("no report available")

// ReportCache stores the latest pipeline reports.
type ReportCache struct {
	client *redisclient.Client
}

// NewReportCache creates a new report cache.
func NewReportCache(client *redisclient.Client) *ReportCache {
	return &ReportCache{client: client}
}

// SetImportReport stores the latest import report.
func (c *ReportCache) SetImportReport(ctx context.Context, report *entities.ImportReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode import report: %w", err)
	}
	if err := c.client.Client().Set(ctx, importReportKey, data, reportTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache import report: %w", err)
	}
	return nil
}

// GetImportReport retrieves the latest import report.
func (c *ReportCache) GetImportReport(ctx context.Context) (*entities.ImportReport, error) {
	data, err := c.client.Client().Get(ctx, importReportKey).Bytes()
	if err == redis.Nil {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read import report: %w", err)
	}

	report := &entities.ImportReport{}
	if err := json.Unmarshal(data, report); err != nil {
		return nil, fmt.Errorf("failed to decode import report: %w", err)
	}
	return report, nil
}

// SetSyncReport stores the latest sync report.
func (c *ReportCache) SetSyncReport(ctx context.Context, report *entities.SyncReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode sync report: %w", err)
	}
	if err := c.client.Client().Set(ctx, syncReportKey, data, reportTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache sync report: %w", err)
	}
	return nil
}

// GetSyncReport retrieves the latest sync report.
func (c *ReportCache) GetSyncReport(ctx context.Context) (*entities.SyncReport, error) {
	data, err := c.client.Client().Get(ctx, syncReportKey).Bytes()
	if err == redis.Nil {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync report: %w", err)
	}

	report := &entities.SyncReport{}
	if err := json.Unmarshal(data, report); err != nil {
		return nil, fmt.Errorf("failed to decode sync report: %w", err)
	}
	return report, nil
}
