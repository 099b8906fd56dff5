package blob

import (
	"context"
	"strings"
	"sync"
)

type object struct {
	contentType string
	data        []byte
}

// MemoryStore keeps objects in process memory. It backs local development and
// tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]object
}

// NewMemoryStore builds an empty store. baseURL prefixes returned URLs, for
// example "/assets".
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string]object),
	}
}

func (s *MemoryStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = object{contentType: contentType, data: buf}
	return s.baseURL + "/" + key, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return &AssetError{Key: key, Err: errObjectMissing}
	}
	delete(s.objects, key)
	return nil
}

// Object returns a stored object's bytes and content type for tests.
func (s *MemoryStore) Object(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}

// Len reports the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
