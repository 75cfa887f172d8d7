package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
)

type MetricsRepositoryInterface interface {
	Upsert(ctx context.Context, m *model.CampaignMetrics) error
	Get(ctx context.Context, campaignID string) (*model.CampaignMetrics, error)
}

type MetricsRepository struct {
	DB *sql.DB
}

func (r *MetricsRepository) Upsert(ctx context.Context, m *model.CampaignMetrics) error {
	query := `
        INSERT INTO campaign_metrics (campaign_id, likes, comments, views, shares, impressions, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (campaign_id) DO UPDATE SET
            likes = EXCLUDED.likes,
            comments = EXCLUDED.comments,
            views = EXCLUDED.views,
            shares = EXCLUDED.shares,
            impressions = EXCLUDED.impressions,
            updated_at = NOW()
        RETURNING updated_at
    `
	err := r.DB.QueryRowContext(ctx, query, m.CampaignID, m.Likes, m.Comments, m.Views, m.Shares, m.Impressions).Scan(&m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert metrics: %w", err)
	}
	return nil
}

// Get returns the campaign's metrics. A campaign nothing was reported for
// yet has zero metrics.
func (r *MetricsRepository) Get(ctx context.Context, campaignID string) (*model.CampaignMetrics, error) {
	m := model.CampaignMetrics{CampaignID: campaignID}
	query := `SELECT likes, comments, views, shares, impressions, updated_at FROM campaign_metrics WHERE campaign_id=$1`
	err := r.DB.QueryRowContext(ctx, query, campaignID).Scan(&m.Likes, &m.Comments, &m.Views, &m.Shares, &m.Impressions, &m.UpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get metrics: %w", err)
	}
	return &m, nil
}

var _ MetricsRepositoryInterface = (*MetricsRepository)(nil)
