package service

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/repository"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/storage"
)

// MediaService manages the user's uploaded media library.
type MediaService struct {
	MediaRepo repository.MediaRepositoryInterface
	Store     storage.ObjectStore
	MaxBytes  int64
}

type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func allowedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/")
}

func (s *MediaService) Upload(ctx context.Context, userID string, up Upload) (*model.MediaAsset, error) {
	if !allowedContentType(up.ContentType) {
		return nil, appErrors.Validation("content type %q is not allowed; upload an image or video", up.ContentType)
	}
	if up.Size <= 0 {
		return nil, appErrors.Validation("file is empty")
	}
	if s.MaxBytes > 0 && up.Size > s.MaxBytes {
		return nil, appErrors.Validation("file exceeds the %d byte limit", s.MaxBytes)
	}

	id := uuid.New()
	key := storage.ObjectKey(userID, id, up.FileName)
	url, err := s.Store.Put(ctx, key, up.ContentType, up.Body, up.Size)
	if err != nil {
		return nil, appErrors.External("failed to store upload", err)
	}

	asset := &model.MediaAsset{
		ID:          id.String(),
		UserID:      userID,
		FileName:    storage.SanitizeFileName(up.FileName),
		ContentType: up.ContentType,
		SizeBytes:   up.Size,
		StoragePath: key,
		PublicURL:   url,
	}
	if err := s.MediaRepo.Create(ctx, asset); err != nil {
		if delErr := s.Store.Delete(ctx, key); delErr != nil {
			zerolog.Ctx(ctx).Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned upload")
		}
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("media_id", asset.ID).Int64("size", asset.SizeBytes).Msg("media uploaded")
	return asset, nil
}

func (s *MediaService) List(ctx context.Context, userID string) ([]*model.MediaAsset, error) {
	return s.MediaRepo.ListByUser(ctx, userID)
}

func (s *MediaService) Delete(ctx context.Context, userID, id string) error {
	asset, err := s.MediaRepo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, asset.StoragePath); err != nil {
		return appErrors.External("failed to delete stored file", err)
	}
	return s.MediaRepo.Delete(ctx, userID, id)
}
