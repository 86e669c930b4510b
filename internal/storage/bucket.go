// Package storage stores uploaded files in named buckets and derives their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"parcel-courier/internal/models"
)

// Bucket is one named object store.
type Bucket interface {
	// Upload writes body under key and returns the stored object's path.
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// PublicURL returns the URL under which the object at path can be downloaded.
	PublicURL(path string) string
}

var whitespace = regexp.MustCompile(`\s+`)

// ObjectKey builds the key an uploaded file is stored under:
// the upload time in unix milliseconds, a dash, then the file name with runs of
// whitespace replaced by "_".
func ObjectKey(filename string, now time.Time) string {
	name := whitespace.ReplaceAllString(strings.TrimSpace(filename), "_")
	return fmt.Sprintf("%d-%s", now.UnixMilli(), name)
}

// Put uploads f to b and returns its public URL. Every failure wraps models.ErrUploadFailed.
func Put(ctx context.Context, b Bucket, f models.Upload, now time.Time) (string, error) {
	path, err := b.Upload(ctx, ObjectKey(f.Filename, now), f.Body, f.ContentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	return b.PublicURL(path), nil
}
