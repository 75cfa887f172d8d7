package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	supastorage "github.com/supabase-community/storage-go"
)

// SupabaseStore stores objects in a public Supabase Storage bucket.
type SupabaseStore struct {
	endpoint   string
	serviceKey string
	bucket     string
}

// NewSupabaseStore talks to the storage API of the project at projectURL.
func NewSupabaseStore(projectURL, serviceKey, bucket string) *SupabaseStore {
	return &SupabaseStore{
		endpoint:   strings.TrimRight(projectURL, "/") + "/storage/v1",
		serviceKey: serviceKey,
		bucket:     bucket,
	}
}

// client returns a fresh storage client. Upload options are kept as headers
// on the client's transport and must not leak into other requests.
func (s *SupabaseStore) client() *supastorage.Client {
	return supastorage.NewClient(s.endpoint, s.serviceKey, map[string]string{"apikey": s.serviceKey})
}

// PublicURL is the unauthenticated URL of key in the bucket.
func (s *SupabaseStore) PublicURL(key string) string {
	return s.client().GetPublicUrl(s.bucket, key).SignedURL
}

// Put uploads r under key. The storage client does not take a context.
func (s *SupabaseStore) Put(_ context.Context, key, contentType string, r io.Reader, _ int64) (string, error) {
	upsert := false
	_, err := s.client().UploadFile(s.bucket, key, r, supastorage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

func (s *SupabaseStore) Delete(_ context.Context, key string) error {
	if _, err := s.client().RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
