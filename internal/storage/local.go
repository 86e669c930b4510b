package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const defaultLocalDir = "_uploads"

// LocalBucket stores objects under <baseDir>/<name>/ on the local file system.
// The router serves baseDir under publicBase.
type LocalBucket struct {
	baseDir    string
	name       string
	publicBase string
}

// NewLocalBucket creates a bucket rooted at baseDir. An empty baseDir defaults to "_uploads".
func NewLocalBucket(baseDir, name, publicBase string) *LocalBucket {
	if baseDir == "" {
		baseDir = defaultLocalDir
	}
	return &LocalBucket{baseDir: baseDir, name: name, publicBase: strings.TrimRight(publicBase, "/")}
}

func (b *LocalBucket) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("storage.LocalBucket: invalid key %q", key)
	}

	dir := filepath.Join(b.baseDir, b.name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage.LocalBucket create dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage.LocalBucket open: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", fmt.Errorf("storage.LocalBucket write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage.LocalBucket close: %w", err)
	}
	return key, nil
}

func (b *LocalBucket) PublicURL(p string) string {
	return b.publicBase + "/" + path.Join(b.name, p)
}
