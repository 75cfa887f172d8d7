package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	Update(ctx context.Context, c *model.Campaign) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, userID, id string) error

	// Queries
	ListCampaigns(ctx context.Context, userID string, offset, limit int, status, platform string) ([]*model.Campaign, int, error)
	ListInRange(ctx context.Context, userID string, from, to time.Time) ([]*model.Campaign, error)
	ListDue(ctx context.Context, now time.Time) ([]*model.Campaign, error)
	CountByStatus(ctx context.Context, userID string) (map[string]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, user_id, restaurant_name, title, description, media_url, caption, hashtags,
	cadence, target_audience, platforms, start_date, end_date, budget, selected, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.UserID, &c.RestaurantName, &c.Title, &c.Description, &c.MediaURL, &c.Caption,
		pq.Array(&c.Hashtags), &c.Cadence, &c.TargetAudience, pq.Array(&c.Platforms),
		&c.StartDate, &c.EndDate, &c.Budget, &c.Selected, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCampaigns(rows *sql.Rows) ([]*model.Campaign, error) {
	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	c.Hashtags = nonNil(c.Hashtags)
	c.Platforms = nonNil(c.Platforms)
	query := `
        INSERT INTO campaigns (id, user_id, restaurant_name, title, description, media_url, caption, hashtags,
            cadence, target_audience, platforms, start_date, end_date, budget, selected, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
    `
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.UserID, c.RestaurantName, c.Title, c.Description, c.MediaURL, c.Caption, pq.Array(c.Hashtags),
		c.Cadence, c.TargetAudience, pq.Array(c.Platforms), c.StartDate, c.EndDate, c.Budget, c.Selected,
		c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// validID reports whether id can be compared against a UUID column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	if !validID(id) {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	c.UpdatedAt = time.Now().UTC()
	c.Hashtags = nonNil(c.Hashtags)
	c.Platforms = nonNil(c.Platforms)
	query := `
        UPDATE campaigns
        SET restaurant_name=$1, title=$2, description=$3, media_url=$4, caption=$5, hashtags=$6, cadence=$7,
            target_audience=$8, platforms=$9, start_date=$10, end_date=$11, budget=$12, selected=$13,
            status=$14, updated_at=$15
        WHERE id=$16
    `
	res, err := r.DB.ExecContext(ctx, query,
		c.RestaurantName, c.Title, c.Description, c.MediaURL, c.Caption, pq.Array(c.Hashtags), c.Cadence,
		c.TargetAudience, pq.Array(c.Platforms), c.StartDate, c.EndDate, c.Budget, c.Selected,
		c.Status, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	return requireAffected(res, c.ID)
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	return requireAffected(res, id)
}

func (r *CampaignRepository) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return appErrors.NewCampaignNotFound(id)
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	return requireAffected(res, id)
}

// pq encodes a nil slice as NULL; the array columns are NOT NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

// ====================== Queries ======================

func (r *CampaignRepository) ListCampaigns(ctx context.Context, userID string, offset, limit int, status, platform string) ([]*model.Campaign, int, error) {
	where := ` WHERE user_id=$1`
	args := []any{userID}
	argPos := 2

	if status != "" {
		where += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}
	if platform != "" {
		where += fmt.Sprintf(" AND $%d = ANY(platforms)", argPos)
		args = append(args, platform)
		argPos++
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns, err := scanCampaigns(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan campaigns: %w", err)
	}
	return campaigns, total, nil
}

// ListInRange returns campaigns whose [start_date, end_date] overlaps
// [from, to]. A missing end date means the campaign runs on its start date
// only.
func (r *CampaignRepository) ListInRange(ctx context.Context, userID string, from, to time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
        WHERE user_id=$1 AND start_date IS NOT NULL AND start_date <= $3
          AND COALESCE(end_date, start_date) >= $2
        ORDER BY start_date ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list campaigns in range: %w", err)
	}
	defer rows.Close()
	return scanCampaigns(rows)
}

// ListDue returns selected, scheduled campaigns whose start date has passed
// and whose end date has not.
func (r *CampaignRepository) ListDue(ctx context.Context, now time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
        WHERE selected AND status=$1 AND start_date <= $2 AND (end_date IS NULL OR end_date >= $2)
        ORDER BY start_date ASC`
	rows, err := r.DB.QueryContext(ctx, query, model.StatusScheduled, now)
	if err != nil {
		return nil, fmt.Errorf("list due campaigns: %w", err)
	}
	defer rows.Close()
	return scanCampaigns(rows)
}

func (r *CampaignRepository) CountByStatus(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM campaigns WHERE user_id=$1 GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("count campaigns by status: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{
		model.StatusDraft:     0,
		model.StatusScheduled: 0,
		model.StatusSending:   0,
		model.StatusPosted:    0,
		model.StatusFailed:    0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
