// Package postgres backs the docstore contract with a jsonb documents table.
// Change notification rides LISTEN/NOTIFY: every write emits the collection
// name on a channel and subscribers re-run their query on each notification.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/digitalboostplus/dtxent/internal/docstore"
)

const notifyChannel = "docstore_changes"

// Store implements docstore.Store over Postgres. The sql.DB handle uses the
// pgx stdlib driver; the subscription listener dials its own connection via
// lib/pq, which owns the LISTEN protocol support.
type Store struct {
	db  *sql.DB
	dsn string
	log zerolog.Logger
}

// New wires a Store to an open database handle. dsn is only used for the
// notification listener.
func New(db *sql.DB, dsn string, log zerolog.Logger) *Store {
	return &Store{db: db, dsn: dsn, log: log}
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data
		FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, docstore.Remote("get", err)
	}

	fields, err := decodeFields(raw)
	if err != nil {
		return docstore.Document{}, docstore.Remote("get", err)
	}
	return docstore.Document{ID: id, Fields: fields}, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	raw, err := encodeFields(fields)
	if err != nil {
		return docstore.Remote("set", err)
	}

	assign := `EXCLUDED.data`
	if merge {
		assign = `documents.data || EXCLUDED.data`
	}
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (collection, id)
		DO UPDATE SET data = %s, updated_at = now()
	`, assign), collection, id, raw)
	if err != nil {
		return docstore.Remote("set", err)
	}
	return s.announce(ctx, collection)
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := encodeFields(fields)
	if err != nil {
		return docstore.Remote("update", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
	`, collection, id, raw)
	if err != nil {
		return docstore.Remote("update", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return docstore.Remote("update", err)
	}
	if rows == 0 {
		return docstore.ErrNotFound
	}
	return s.announce(ctx, collection)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return docstore.Remote("delete", err)
	}
	return s.announce(ctx, collection)
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	raw, err := encodeFields(fields)
	if err != nil {
		return "", docstore.Remote("add", err)
	}

	var id string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES ($1, gen_random_uuid()::text, $2::jsonb, now())
		RETURNING id
	`, collection, raw).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return "", docstore.Remote("add", fmt.Errorf("id collision: %w", err))
		}
		return "", docstore.Remote("add", err)
	}
	return id, s.announce(ctx, collection)
}

func (s *Store) List(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	query, args, err := buildListQuery(collection, q)
	if err != nil {
		return nil, docstore.Remote("list", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, docstore.Remote("list", err)
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, docstore.Remote("list", err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, docstore.Remote("list", err)
		}
		docs = append(docs, docstore.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, docstore.Remote("list", err)
	}
	return docs, nil
}

func (s *Store) Subscribe(ctx context.Context, collection string, q docstore.Query, fn docstore.SnapshotFunc) (docstore.CancelFunc, error) {
	listener := pq.NewListener(s.dsn, 500*time.Millisecond, 10*time.Second, nil)
	if err := listener.Listen(notifyChannel); err != nil {
		_ = listener.Close()
		return nil, docstore.Remote("subscribe", err)
	}

	initial, err := s.List(ctx, collection, q)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	fn(initial, nil)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case n, ok := <-listener.Notify:
				if !ok {
					fn(nil, docstore.Remote("subscribe", errors.New("listener closed")))
					return
				}
				// Reconnects show up as nil notifications; re-query to
				// cover anything missed while the connection was down.
				if n != nil && n.Extra != collection {
					continue
				}
				docs, err := s.List(ctx, collection, q)
				if err != nil {
					fn(nil, err)
					continue
				}
				fn(docs, nil)
			}
		}
	}()

	var once bool
	return func() {
		if once {
			return
		}
		once = true
		close(done)
		if err := listener.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing docstore listener")
		}
	}, nil
}

func (s *Store) announce(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		// The write itself landed; a lost notification only delays the next
		// snapshot until the following change.
		s.log.Warn().Err(err).Str("collection", collection).Msg("docstore notify failed")
	}
	return nil
}

func buildListQuery(collection string, q docstore.Query) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, data
		FROM documents
		WHERE collection = $1
	`)
	args := []any{collection}

	if len(q.Eq) > 0 {
		contains, err := encodeFields(q.Eq)
		if err != nil {
			return "", nil, err
		}
		args = append(args, contains)
		fmt.Fprintf(&sb, " AND data @> $%d::jsonb", len(args))
	}

	if q.OrderBy != "" {
		args = append(args, q.OrderBy)
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY data->>$%d %s, id ASC", len(args), dir)
	} else {
		sb.WriteString(" ORDER BY updated_at ASC, id ASC")
	}

	return sb.String(), args, nil
}

func encodeFields(fields map[string]any) ([]byte, error) {
	resolved := docstore.ResolveTimestamps(fields, time.Now())
	return json.Marshal(resolved)
}

func decodeFields(raw []byte) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return fields, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
