// Package storage puts uploaded media into an object store and returns a
// public URL for it.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFileName strips directories and replaces characters that are not
// safe in an object key.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "upload"
	}
	return name
}

// ObjectKey returns the key an upload is stored under.
func ObjectKey(userID string, id uuid.UUID, fileName string) string {
	return fmt.Sprintf("campaigns/%s/%s-%s", userID, id, SanitizeFileName(fileName))
}
