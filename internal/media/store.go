package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists artifact bytes and returns a URL they are served from
type Store interface {
	Put(ctx context.Context, kind string, mime string, data []byte) (string, error)
}

// DiskStore writes artifacts under Dir and serves them below URLPrefix.
type DiskStore struct {
	Dir       string
	URLPrefix string
}

// NewDiskStore creates the directory if needed.
func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &DiskStore{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Put writes data to <Dir>/<kind>-<uuid>.<ext> and returns its URL.
func (s *DiskStore) Put(ctx context.Context, kind string, mime string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s.%s", kind, uuid.NewString(), Extension(mime))
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return path.Join(s.URLPrefix, name), nil
}
