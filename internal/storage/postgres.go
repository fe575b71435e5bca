// Package storage persists the campaign cache and threshold overrides in
// Postgres and keeps computed dashboard payloads in Redis.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ignite/mailchimp-insights/internal/domain"
)

// Store is the Postgres-backed campaign cache. Campaigns are keyed by
// (id, region) and stored as JSON alongside the columns the queries filter
// and sort on, so a schema change in the upstream payload never requires a
// migration.
type Store struct {
	db *sql.DB
}

// New creates a Store around an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the tables if they do not exist.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS campaigns (
			id         TEXT        NOT NULL,
			region     TEXT        NOT NULL,
			title      TEXT        NOT NULL DEFAULT '',
			send_time  TIMESTAMPTZ,
			data       JSONB       NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (id, region)
		)`)
	if err != nil {
		return fmt.Errorf("creating campaigns table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS thresholds (
			key        TEXT             PRIMARY KEY,
			value      DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMPTZ      NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("creating thresholds table: %w", err)
	}
	return nil
}

// UpsertCampaigns inserts or updates campaign records for a region in one
// transaction.
func (s *Store) UpsertCampaigns(ctx context.Context, region string, campaigns []domain.Campaign) error {
	if len(campaigns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO campaigns (id, region, title, send_time, data, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id, region) DO UPDATE SET
			title      = EXCLUDED.title,
			send_time  = EXCLUDED.send_time,
			data       = EXCLUDED.data,
			updated_at = now()`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range campaigns {
		c := campaigns[i]
		c.Region = region

		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal campaign %s: %w", c.ID, err)
		}

		var sentAt sql.NullTime
		if t := c.SentAt(); !t.IsZero() {
			sentAt = sql.NullTime{Time: t, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, c.ID, region, c.Title, sentAt, data); err != nil {
			return fmt.Errorf("upsert campaign %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// CampaignsByRegion returns cached campaigns for one region sent within
// the last N days, newest first.
func (s *Store) CampaignsByRegion(ctx context.Context, region string, days int) ([]domain.Campaign, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM campaigns
		WHERE region = $1 AND send_time >= $2
		ORDER BY send_time DESC`, region, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		var c domain.Campaign
		if err := json.Unmarshal(data, &c); err != nil {
			// A corrupt row should not take the region down
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CampaignsByRegions returns cached campaigns for every listed region.
// Regions with no cached rows map to an empty slice.
func (s *Store) CampaignsByRegions(ctx context.Context, regions []string, days int) (map[string][]domain.Campaign, error) {
	all := make(map[string][]domain.Campaign, len(regions))
	for _, region := range regions {
		campaigns, err := s.CampaignsByRegion(ctx, region, days)
		if err != nil {
			return nil, err
		}
		all[region] = campaigns
	}
	return all, nil
}

// RegionCacheStat describes the cache contents for one region.
type RegionCacheStat struct {
	Region    string    `json:"region"`
	Campaigns int64     `json:"campaigns"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CacheStats returns per-region cache counts and freshness.
func (s *Store) CacheStats(ctx context.Context) ([]RegionCacheStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT region, COUNT(*), MAX(updated_at)
		FROM campaigns
		GROUP BY region
		ORDER BY region`)
	if err != nil {
		return nil, fmt.Errorf("query cache stats: %w", err)
	}
	defer rows.Close()

	var stats []RegionCacheStat
	for rows.Next() {
		var st RegionCacheStat
		if err := rows.Scan(&st.Region, &st.Campaigns, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cache stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// ClearCampaigns deletes cached campaigns for one region, or for all
// regions when region is empty. Returns the number of deleted rows.
func (s *Store) ClearCampaigns(ctx context.Context, region string) (int64, error) {
	var res sql.Result
	var err error
	if region == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM campaigns`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM campaigns WHERE region = $1`, region)
	}
	if err != nil {
		return 0, fmt.Errorf("clear campaigns: %w", err)
	}
	return res.RowsAffected()
}

// LoadThresholds returns all persisted threshold overrides.
func (s *Store) LoadThresholds(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM thresholds`)
	if err != nil {
		return nil, fmt.Errorf("query thresholds: %w", err)
	}
	defer rows.Close()

	overrides := make(map[string]float64)
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan threshold: %w", err)
		}
		overrides[key] = value
	}
	return overrides, rows.Err()
}

// SaveThreshold persists one threshold override.
func (s *Store) SaveThreshold(ctx context.Context, key string, value float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO thresholds (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("save threshold %s: %w", key, err)
	}
	return nil
}

// DeleteThresholds removes all persisted overrides (reset to defaults).
func (s *Store) DeleteThresholds(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM thresholds`); err != nil {
		return fmt.Errorf("delete thresholds: %w", err)
	}
	return nil
}
