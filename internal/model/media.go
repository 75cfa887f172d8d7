// internal/model/media.go
package model

import "time"

// MediaAsset is a file a user uploaded to the media library.
type MediaAsset struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	StoragePath string    `db:"storage_path" json:"storage_path"`
	PublicURL   string    `db:"public_url" json:"public_url"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
