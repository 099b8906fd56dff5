package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes objects under a root directory, mirroring key paths as
// subdirectories.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore builds a store rooted at dir. The directory is created if
// missing.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{root: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *DiskStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", &AssetError{Key: key, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &AssetError{Key: key, Err: err}
	}
	return s.baseURL + "/" + key, nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.Remove(path); err != nil {
		return &AssetError{Key: key, Err: err}
	}
	return nil
}
