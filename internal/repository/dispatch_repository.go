package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
)

// DispatchRepositoryInterface defines the dispatch methods used by the
// campaign service and the worker.
type DispatchRepositoryInterface interface {
	CreatePending(ctx context.Context, d *model.Dispatch) (*model.Dispatch, bool, error)
	GetByID(ctx context.Context, id string) (*model.Dispatch, error)
	Claim(ctx context.Context, id string) (*model.Dispatch, bool, error)
	MarkSent(ctx context.Context, id, result string) error
	MarkFailed(ctx context.Context, id, lastError string, maxRetries int) (int, error)
	MarkExhausted(ctx context.Context, id string) error
	ListByCampaign(ctx context.Context, campaignID string) ([]*model.Dispatch, error)
	Stats(ctx context.Context, campaignID string) (model.DispatchStats, error)
}

type DispatchRepository struct {
	DB *sql.DB
}

const dispatchColumns = `id, campaign_id, channel, recipient, status, subject, body, result, last_error,
	retry_count, created_at, updated_at`

func scanDispatch(row rowScanner) (*model.Dispatch, error) {
	var d model.Dispatch
	err := row.Scan(
		&d.ID, &d.CampaignID, &d.Channel, &d.Recipient, &d.Status, &d.Subject, &d.Body,
		&d.Result, &d.LastError, &d.RetryCount, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreatePending inserts a pending dispatch. A campaign has at most one
// active (pending or sending) dispatch: when one already exists it is
// returned and created is false.
func (r *DispatchRepository) CreatePending(ctx context.Context, d *model.Dispatch) (*model.Dispatch, bool, error) {
	now := time.Now().UTC()
	d.Status = model.DispatchPending
	d.CreatedAt = now
	d.UpdatedAt = now

	query := `
        INSERT INTO campaign_dispatches (id, campaign_id, channel, recipient, status, subject, body, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (campaign_id) WHERE status IN ('pending', 'sending') DO NOTHING
        RETURNING id
    `
	var id string
	err := r.DB.QueryRowContext(ctx, query,
		d.ID, d.CampaignID, d.Channel, d.Recipient, d.Status, d.Subject, d.Body, d.CreatedAt, d.UpdatedAt,
	).Scan(&id)
	if err == nil {
		return d, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("insert dispatch: %w", err)
	}

	existing, err := scanDispatch(r.DB.QueryRowContext(ctx,
		`SELECT `+dispatchColumns+` FROM campaign_dispatches WHERE campaign_id=$1 AND status IN ('pending', 'sending')`, d.CampaignID))
	if err != nil {
		return nil, false, fmt.Errorf("load active dispatch: %w", err)
	}
	return existing, false, nil
}

func (r *DispatchRepository) GetByID(ctx context.Context, id string) (*model.Dispatch, error) {
	if !validID(id) {
		return nil, appErrors.NotFound("dispatch %s not found", id)
	}
	d, err := scanDispatch(r.DB.QueryRowContext(ctx,
		`SELECT `+dispatchColumns+` FROM campaign_dispatches WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("dispatch %s not found", id)
		}
		return nil, fmt.Errorf("get dispatch: %w", err)
	}
	return d, nil
}

// Claim moves a pending dispatch to sending. Only one caller can claim a
// dispatch; claimed is false when it does not exist or is not pending.
// TODO: return dispatches left in sending by a crashed worker to pending
// after a timeout.
func (r *DispatchRepository) Claim(ctx context.Context, id string) (*model.Dispatch, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}
	query := `UPDATE campaign_dispatches SET status='sending', updated_at=NOW()
        WHERE id=$1 AND status='pending' RETURNING ` + dispatchColumns
	d, err := scanDispatch(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("claim dispatch: %w", err)
	}
	return d, true, nil
}

// MarkSent completes a claimed dispatch.
func (r *DispatchRepository) MarkSent(ctx context.Context, id, result string) error {
	query := `UPDATE campaign_dispatches SET status='sent', result=$1, last_error='', updated_at=NOW()
        WHERE id=$2 AND status='sending'`
	res, err := r.DB.ExecContext(ctx, query, result, id)
	if err != nil {
		return fmt.Errorf("mark dispatch sent: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark dispatch sent: dispatch %s is not sending", id)
	}
	return nil
}

// MarkFailed records a failed attempt on a claimed dispatch and returns the
// new retry count. The dispatch goes back to pending for a redelivery, or to
// failed once maxRetries attempts have failed.
func (r *DispatchRepository) MarkFailed(ctx context.Context, id, lastError string, maxRetries int) (int, error) {
	query := `UPDATE campaign_dispatches SET last_error=$1, retry_count=retry_count+1,
            status=CASE WHEN retry_count+1 >= $3 THEN 'failed' ELSE 'pending' END, updated_at=NOW()
        WHERE id=$2 AND status='sending' RETURNING retry_count`
	var retries int
	if err := r.DB.QueryRowContext(ctx, query, lastError, id, maxRetries).Scan(&retries); err != nil {
		return 0, fmt.Errorf("mark dispatch failed: %w", err)
	}
	return retries, nil
}

// MarkExhausted moves a dispatch to the terminal failed status.
func (r *DispatchRepository) MarkExhausted(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE campaign_dispatches SET status='failed', updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("mark dispatch exhausted: %w", err)
	}
	return nil
}

func (r *DispatchRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*model.Dispatch, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+dispatchColumns+` FROM campaign_dispatches WHERE campaign_id=$1 ORDER BY created_at DESC`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	defer rows.Close()

	dispatches := []*model.Dispatch{}
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		dispatches = append(dispatches, d)
	}
	return dispatches, rows.Err()
}

func (r *DispatchRepository) Stats(ctx context.Context, campaignID string) (model.DispatchStats, error) {
	query := `SELECT status, COUNT(*) FROM campaign_dispatches WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return model.DispatchStats{}, fmt.Errorf("dispatch stats: %w", err)
	}
	defer rows.Close()

	var stats model.DispatchStats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return model.DispatchStats{}, err
		}
		switch status {
		case model.DispatchPending, model.DispatchSending:
			stats.Pending += count
		case model.DispatchSent:
			stats.Sent = count
		case model.DispatchFailed:
			stats.Failed = count
		}
		stats.Total += count
	}
	return stats, rows.Err()
}

var _ DispatchRepositoryInterface = (*DispatchRepository)(nil)
