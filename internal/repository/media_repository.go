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

// MediaRepositoryInterface defines methods used by the media service.
type MediaRepositoryInterface interface {
	Create(ctx context.Context, m *model.MediaAsset) error
	GetByID(ctx context.Context, userID, id string) (*model.MediaAsset, error)
	ListByUser(ctx context.Context, userID string) ([]*model.MediaAsset, error)
	Delete(ctx context.Context, userID, id string) error
}

// MediaRepository is the concrete implementation
type MediaRepository struct {
	DB *sql.DB
}

const mediaColumns = `id, user_id, file_name, content_type, size_bytes, storage_path, public_url, created_at`

func scanMedia(row rowScanner) (*model.MediaAsset, error) {
	var m model.MediaAsset
	if err := row.Scan(&m.ID, &m.UserID, &m.FileName, &m.ContentType, &m.SizeBytes, &m.StoragePath, &m.PublicURL, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MediaRepository) Create(ctx context.Context, m *model.MediaAsset) error {
	m.CreatedAt = time.Now().UTC()
	query := `
        INSERT INTO media_assets (id, user_id, file_name, content_type, size_bytes, storage_path, public_url, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.DB.ExecContext(ctx, query, m.ID, m.UserID, m.FileName, m.ContentType, m.SizeBytes, m.StoragePath, m.PublicURL, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

// GetByID fetches a media asset owned by userID
func (r *MediaRepository) GetByID(ctx context.Context, userID, id string) (*model.MediaAsset, error) {
	if !validID(id) {
		return nil, appErrors.NotFound("media %s not found", id)
	}
	m, err := scanMedia(r.DB.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media_assets WHERE id=$1 AND user_id=$2`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("media %s not found", id)
		}
		return nil, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

// ListByUser fetches the user's media library, newest first
func (r *MediaRepository) ListByUser(ctx context.Context, userID string) ([]*model.MediaAsset, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+mediaColumns+` FROM media_assets WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	assets := []*model.MediaAsset{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, m)
	}
	return assets, rows.Err()
}

func (r *MediaRepository) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return appErrors.NotFound("media %s not found", id)
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM media_assets WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NotFound("media %s not found", id)
	}
	return nil
}

var _ MediaRepositoryInterface = (*MediaRepository)(nil)
