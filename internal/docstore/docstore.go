// Package docstore defines the contract the application holds against the
// hosted document database: field-equality queries, single-field ordering,
// document reads and writes, and snapshot subscriptions. Adapters live in
// subpackages; nothing here depends on any backend's consistency model beyond
// "eventually reflects the latest accepted write".
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a document id does not exist in a collection.
var ErrNotFound = errors.New("document not found")

// Document is one stored record plus its collection-scoped key.
type Document struct {
	ID     string
	Fields map[string]any
}

// Query restricts and orders a collection listing. Eq matches exact field
// values; OrderBy names a single field.
type Query struct {
	Eq         map[string]any
	OrderBy    string
	Descending bool
}

// SnapshotFunc receives a full replacement view of a queried document set
// every time the underlying collection changes, or the subscription error
// that ended the feed.
type SnapshotFunc func(docs []Document, err error)

// CancelFunc tears down a subscription. Safe to call more than once.
type CancelFunc func()

// Store is the document service surface the application consumes.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	// Set writes a document at a known id. With merge, incoming fields are
	// merged into the existing document instead of replacing it.
	Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	// Update merges fields into an existing document; ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// Add stores a new document under a server-assigned id.
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	// Subscribe delivers an initial snapshot and then one snapshot per
	// underlying change, in delivery order. At most one snapshot callback
	// runs at a time per subscription.
	Subscribe(ctx context.Context, collection string, q Query, fn SnapshotFunc) (CancelFunc, error)
}

// serverTimestamp is the sentinel type behind ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp marks a field to be replaced with the adapter's write time.
var ServerTimestamp = serverTimestamp{}

// ResolveTimestamps returns a copy of fields with every ServerTimestamp
// sentinel replaced by now. Adapters call this on every write.
func ResolveTimestamps(fields map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case serverTimestamp:
			out[k] = now.UTC()
		case map[string]any:
			out[k] = ResolveTimestamps(val, now)
		default:
			out[k] = v
		}
	}
	return out
}

// RemoteError wraps a backend failure so callers can distinguish service
// trouble from data trouble.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("docstore %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Remote wraps err as a RemoteError unless it already carries application
// meaning (ErrNotFound passes through).
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}

// Matches reports whether a document satisfies the query's equality filters.
func Matches(doc Document, q Query) bool {
	for field, want := range q.Eq {
		if !valuesEqual(doc.Fields[field], want) {
			return false
		}
	}
	return true
}

// Order sorts documents by the query's OrderBy field. Values compare as
// times, then numbers, then strings; documents missing the field sort first.
// The sort is stable so equal keys keep their prior relative order.
func Order(docs []Document, q Query) {
	if q.OrderBy == "" {
		return
	}
	stableSort(docs, func(a, b Document) bool {
		less := compareValues(a.Fields[q.OrderBy], b.Fields[q.OrderBy]) < 0
		if q.Descending {
			return compareValues(b.Fields[q.OrderBy], a.Fields[q.OrderBy]) < 0
		}
		return less
	})
}

func stableSort(docs []Document, less func(a, b Document) bool) {
	// Insertion sort keeps this dependency-free and stable; collections here
	// are small (tens of documents).
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0 && less(docs[j], docs[j-1]); j-- {
			docs[j], docs[j-1] = docs[j-1], docs[j]
		}
	}
}

func compareValues(a, b any) int {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(asString(a), asString(b))
}

func valuesEqual(a, b any) bool {
	if ab, ok := a.(bool); ok {
		bb, ok2 := b.(bool)
		return ok2 && ab == bb
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return compareValues(a, b) == 0
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
