// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Connect opens a Postgres pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("connected to database")
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		restaurant_name TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		media_url TEXT NOT NULL DEFAULT '',
		caption TEXT,
		hashtags TEXT[] NOT NULL DEFAULT '{}',
		cadence TEXT NOT NULL DEFAULT '',
		target_audience TEXT NOT NULL DEFAULT '',
		platforms TEXT[] NOT NULL DEFAULT '{}',
		start_date TIMESTAMPTZ,
		end_date TIMESTAMPTZ,
		budget NUMERIC(12,2),
		selected BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_user_created ON campaigns(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_due ON campaigns(status, start_date) WHERE selected`,
	`CREATE TABLE IF NOT EXISTS media_assets (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size_bytes BIGINT NOT NULL,
		storage_path TEXT NOT NULL UNIQUE,
		public_url TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_media_assets_user_created ON media_assets(user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS campaign_dispatches (
		id UUID PRIMARY KEY,
		campaign_id UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		channel TEXT NOT NULL,
		recipient TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		subject TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		result TEXT NOT NULL DEFAULT '',
		last_error TEXT NOT NULL DEFAULT '',
		retry_count INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`DROP INDEX IF EXISTS idx_campaign_dispatches_one_pending`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_campaign_dispatches_one_active
		ON campaign_dispatches(campaign_id) WHERE status IN ('pending', 'sending')`,
	`CREATE TABLE IF NOT EXISTS campaign_metrics (
		campaign_id UUID PRIMARY KEY REFERENCES campaigns(id) ON DELETE CASCADE,
		likes BIGINT NOT NULL DEFAULT 0,
		comments BIGINT NOT NULL DEFAULT 0,
		views BIGINT NOT NULL DEFAULT 0,
		shares BIGINT NOT NULL DEFAULT 0,
		impressions BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	log.Info().Int("statements", len(migrations)).Msg("database migrations completed")
	return nil
}
