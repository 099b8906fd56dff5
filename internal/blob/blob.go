// Package blob stores uploaded event artwork. Keys are namespaced under
// events/ and carry an upload timestamp so repeated uploads of the same
// filename never collide.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var errObjectMissing = errors.New("object not found")

// Store is the artwork backend. Put returns the public URL for the stored
// object.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// AssetError wraps a storage failure with the key it concerned.
type AssetError struct {
	Key string
	Err error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset %s: %v", e.Key, e.Err)
}

func (e *AssetError) Unwrap() error { return e.Err }

// ObjectKey builds the storage key for an uploaded file. The filename is
// lowercased and every run of characters outside [a-z0-9._-] collapses to a
// single underscore.
func ObjectKey(filename string, now time.Time) string {
	return fmt.Sprintf("events/%d_%s", now.UnixMilli(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "upload"
	}

	var b strings.Builder
	b.Grow(len(name))
	pending := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
