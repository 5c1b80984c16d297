// Package sqlite implements the document store on an embedded SQLite
// database. Documents are JSON text in a single table; live queries are
// served in-process, so one database file belongs to one server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/heartmarshall/interestingtome-backend/internal/config"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
)

// Store is a docstore.Store backed by SQLite.
type Store struct {
	log  *slog.Logger
	db   *sql.DB
	live *docstore.Broadcaster
}

var _ docstore.Store = (*Store)(nil)

// Open opens or creates the database described by cfg and ensures the
// schema exists.
func Open(ctx context.Context, log *slog.Logger, cfg config.SQLiteConfig) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	// One connection serializes writers, so read-modify-write updates
	// cannot interleave. It also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	log = log.With("store", "sqlite")
	log.InfoContext(ctx, "sqlite store opened", slog.String("path", cfg.Path))
	return &Store{log: log, db: db, live: docstore.NewBroadcaster(log)}, nil
}

func dsn(cfg config.SQLiteConfig) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	if cfg.Path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var (
		docID string
		raw   string
	)
	if err := s.db.QueryRowContext(ctx, getSQL, collection, id).Scan(&docID, &raw); err != nil {
		return docstore.Document{}, mapError(err, collection, id)
	}
	return decode(docID, raw)
}

func (s *Store) GetMany(ctx context.Context, collection string, ids []string) ([]docstore.Document, error) {
	if len(ids) == 0 {
		return []docstore.Document{}, nil
	}
	found, err := s.Query(ctx, docstore.NewQuery(collection).Where(docstore.In(docstore.FieldID, ids)))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]docstore.Document, len(found))
	for _, d := range found {
		byID[d.ID] = d
	}
	out := make([]docstore.Document, 0, len(found))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			out = append(out, d)
			delete(byID, id)
		}
	}
	return out, nil
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	query, args, err := selectSQL(q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, q.Collection, "")
	}
	defer rows.Close()

	docs := make([]docstore.Document, 0)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, mapError(err, q.Collection, "")
		}
		doc, err := decode(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, q.Collection, "")
	}
	return docs, nil
}

func (s *Store) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.exec(ctx, collection, id, insertSQL, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return s.exec(ctx, collection, id, upsertSQL, data)
}

func (s *Store) exec(ctx context.Context, collection, id, stmt string, data map[string]any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, stmt, collection, id, raw); err != nil {
		return mapError(err, collection, id)
	}
	s.live.Notify(collection)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.mutate(ctx, collection, id, func(data map[string]any) {
		for k, v := range docstore.EncodeFields(fields) {
			data[k] = v
		}
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx, deleteSQL, collection, id); err != nil {
		return mapError(err, collection, id)
	}
	s.live.Notify(collection)
	return nil
}

func (s *Store) ArrayAdd(ctx context.Context, collection, id, field string, value any) error {
	if !docstore.ValidField(field) {
		return fmt.Errorf("%s/%s: invalid array field %q", collection, id, field)
	}
	value = docstore.EncodeValue(value)
	return s.mutate(ctx, collection, id, func(data map[string]any) {
		arr := docstore.AsSlice(data[field])
		if slices.ContainsFunc(arr, func(el any) bool { return docstore.ValuesEqual(el, value) }) {
			return
		}
		data[field] = append(slices.Clone(arr), value)
	})
}

func (s *Store) ArrayRemove(ctx context.Context, collection, id, field string, value any) error {
	if !docstore.ValidField(field) {
		return fmt.Errorf("%s/%s: invalid array field %q", collection, id, field)
	}
	value = docstore.EncodeValue(value)
	return s.mutate(ctx, collection, id, func(data map[string]any) {
		arr := docstore.AsSlice(data[field])
		kept := make([]any, 0, len(arr))
		for _, el := range arr {
			if !docstore.ValuesEqual(el, value) {
				kept = append(kept, el)
			}
		}
		data[field] = kept
	})
}

// mutate rewrites one existing document inside a transaction.
func (s *Store) mutate(ctx context.Context, collection, id string, fn func(data map[string]any)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s/%s: begin: %w", collection, id, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		docID string
		raw   string
	)
	if err := tx.QueryRowContext(ctx, getSQL, collection, id).Scan(&docID, &raw); err != nil {
		return mapError(err, collection, id)
	}
	doc, err := decode(docID, raw)
	if err != nil {
		return err
	}

	fn(doc.Data)

	out, err := encode(doc.Data)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, replaceSQL, out, collection, id); err != nil {
		return mapError(err, collection, id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s/%s: commit: %w", collection, id, err)
	}
	s.live.Notify(collection)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query, onData docstore.DataFunc, onError docstore.ErrorFunc) (docstore.Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", q.Collection, err)
	}
	run := func(ctx context.Context) ([]docstore.Document, error) {
		return s.Query(ctx, q)
	}
	return s.live.Watch(ctx, q.Collection, run, onData, onError), nil
}

func (s *Store) SubscribeDoc(ctx context.Context, collection, id string, onData docstore.DocFunc, onError docstore.ErrorFunc) (docstore.Subscription, error) {
	get := func(ctx context.Context) (docstore.Document, error) {
		return s.Get(ctx, collection, id)
	}
	return s.live.WatchDoc(ctx, collection, id, get, onData, onError), nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, pingSQL); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close ends all live queries and closes the database.
func (s *Store) Close() error {
	s.live.Close()
	return s.db.Close()
}

func encode(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(docstore.EncodeFields(data))
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func decode(id, raw string) (docstore.Document, error) {
	data := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return docstore.Document{}, fmt.Errorf("decode document %s: %w", id, err)
		}
	}
	return docstore.Document{ID: id, Data: data}, nil
}
