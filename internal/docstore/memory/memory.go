// Package memory is an in-process docstore.Store used for tests and for
// running the site without a hosted backend.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/digitalboostplus/dtxent/internal/docstore"
)

type subscriber struct {
	id         int
	collection string
	query      docstore.Query
	fn         docstore.SnapshotFunc
}

// Store keeps collections of documents in maps and fans out a fresh snapshot
// to every matching subscriber after each mutation.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	inserted    map[string]map[string]int // collection -> id -> insertion seq
	nextSeq     int
	subs        map[int]*subscriber
	nextSub     int
	now         func() time.Time
}

// Option tweaks a Store; used to pin the clock in tests.
type Option func(*Store)

// WithClock overrides the write-timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]map[string]map[string]any),
		inserted:    make(map[string]map[string]int),
		subs:        make(map[int]*subscriber),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(_ context.Context, collection, id string) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.collections[collection][id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, Fields: cloneFields(fields)}, nil
}

func (s *Store) Set(_ context.Context, collection, id string, fields map[string]any, merge bool) error {
	resolved := docstore.ResolveTimestamps(fields, s.now())

	s.mu.Lock()
	col := s.collection(collection)
	existing, ok := col[id]
	if merge && ok {
		merged := cloneFields(existing)
		for k, v := range resolved {
			merged[k] = v
		}
		col[id] = merged
	} else {
		col[id] = cloneFields(resolved)
	}
	if !ok {
		s.recordInsert(collection, id)
	}
	subs := s.matchingSubs(collection)
	s.mu.Unlock()

	s.notify(subs)
	return nil
}

func (s *Store) Update(_ context.Context, collection, id string, fields map[string]any) error {
	resolved := docstore.ResolveTimestamps(fields, s.now())

	s.mu.Lock()
	existing, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return docstore.ErrNotFound
	}
	merged := cloneFields(existing)
	for k, v := range resolved {
		merged[k] = v
	}
	s.collections[collection][id] = merged
	subs := s.matchingSubs(collection)
	s.mu.Unlock()

	s.notify(subs)
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.collections[collection], id)
	delete(s.inserted[collection], id)
	subs := s.matchingSubs(collection)
	s.mu.Unlock()

	s.notify(subs)
	return nil
}

func (s *Store) Add(_ context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	resolved := docstore.ResolveTimestamps(fields, s.now())

	s.mu.Lock()
	s.collection(collection)[id] = cloneFields(resolved)
	s.recordInsert(collection, id)
	subs := s.matchingSubs(collection)
	s.mu.Unlock()

	s.notify(subs)
	return id, nil
}

func (s *Store) List(_ context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	s.mu.Lock()
	docs := s.snapshotLocked(collection, q)
	s.mu.Unlock()
	return docs, nil
}

func (s *Store) Subscribe(_ context.Context, collection string, q docstore.Query, fn docstore.SnapshotFunc) (docstore.CancelFunc, error) {
	s.mu.Lock()
	s.nextSub++
	sub := &subscriber{id: s.nextSub, collection: collection, query: q, fn: fn}
	s.subs[sub.id] = sub
	initial := s.snapshotLocked(collection, q)
	s.mu.Unlock()

	fn(initial, nil)

	id := sub.id
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}, nil
}

// SubscriberCount reports live subscriptions; used by tests to prove the
// at-most-one-subscription contract.
func (s *Store) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) collection(name string) map[string]map[string]any {
	col, ok := s.collections[name]
	if !ok {
		col = make(map[string]map[string]any)
		s.collections[name] = col
	}
	return col
}

func (s *Store) recordInsert(collection, id string) {
	seqs, ok := s.inserted[collection]
	if !ok {
		seqs = make(map[string]int)
		s.inserted[collection] = seqs
	}
	s.nextSeq++
	seqs[id] = s.nextSeq
}

func (s *Store) snapshotLocked(collection string, q docstore.Query) []docstore.Document {
	var docs []docstore.Document
	for id, fields := range s.collections[collection] {
		doc := docstore.Document{ID: id, Fields: cloneFields(fields)}
		if docstore.Matches(doc, q) {
			docs = append(docs, doc)
		}
	}
	// Insertion order before the query order so ties stay deterministic.
	seqs := s.inserted[collection]
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0 && seqs[docs[j].ID] < seqs[docs[j-1].ID]; j-- {
			docs[j], docs[j-1] = docs[j-1], docs[j]
		}
	}
	docstore.Order(docs, q)
	return docs
}

type pendingNotify struct {
	sub  *subscriber
	docs []docstore.Document
}

func (s *Store) matchingSubs(collection string) []pendingNotify {
	var out []pendingNotify
	for _, sub := range s.subs {
		if sub.collection != collection {
			continue
		}
		out = append(out, pendingNotify{sub: sub, docs: s.snapshotLocked(collection, sub.query)})
	}
	return out
}

// notify runs outside the store lock so snapshot callbacks may call back into
// the store.
func (s *Store) notify(pending []pendingNotify) {
	for _, p := range pending {
		p.sub.fn(p.docs, nil)
	}
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneFields(nested)
			continue
		}
		if list, ok := v.([]any); ok {
			copied := make([]any, len(list))
			for i, item := range list {
				if m, ok := item.(map[string]any); ok {
					copied[i] = cloneFields(m)
				} else {
					copied[i] = item
				}
			}
			out[k] = copied
			continue
		}
		out[k] = v
	}
	return out
}
