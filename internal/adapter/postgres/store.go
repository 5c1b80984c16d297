// Package postgres implements the document store on PostgreSQL. Every
// collection lives in a single JSONB table; live queries re-run when the
// table's trigger announces a change through LISTEN/NOTIFY.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/interestingtome-backend/internal/config"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
)

// Store is a docstore.Store backed by PostgreSQL.
type Store struct {
	log  *slog.Logger
	db   Querier
	pool *pgxpool.Pool
	live *docstore.Broadcaster

	ownsPool    bool
	listenRetry time.Duration
}

var _ docstore.Store = (*Store)(nil)

// Open connects to the database described by cfg. The returned store owns
// the pool and closes it on Close.
func Open(ctx context.Context, log *slog.Logger, cfg config.DatabaseConfig) (*Store, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := New(log, pool)
	s.ownsPool = true
	if cfg.ListenRetry > 0 {
		s.listenRetry = cfg.ListenRetry
	}
	return s, nil
}

// New creates a store over an existing pool. Call Listen to receive changes
// made by other processes.
func New(log *slog.Logger, pool *pgxpool.Pool) *Store {
	s := newStore(log, pool)
	s.pool = pool
	return s
}

func newStore(log *slog.Logger, db Querier) *Store {
	log = log.With("store", "postgres")
	return &Store{
		log:         log,
		db:          db,
		live:        docstore.NewBroadcaster(log),
		listenRetry: 2 * time.Second,
	}
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var (
		docID string
		raw   []byte
	)
	if err := s.db.QueryRow(ctx, getSQL, collection, id).Scan(&docID, &raw); err != nil {
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
	sql, args, err := selectSQL(q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, q.Collection, "")
	}
	defer rows.Close()

	docs := make([]docstore.Document, 0)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
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
	raw, err := encode(data)
	if err != nil {
		return "", err
	}
	if _, err := s.db.Exec(ctx, insertSQL, collection, id, raw); err != nil {
		return "", mapError(err, collection, id)
	}
	s.live.Notify(collection)
	return id, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, upsertSQL, collection, id, raw); err != nil {
		return mapError(err, collection, id)
	}
	s.live.Notify(collection)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := encode(fields)
	if err != nil {
		return err
	}
	return s.execOne(ctx, collection, id, mergeSQL, collection, id, raw)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Exec(ctx, deleteSQL, collection, id); err != nil {
		return mapError(err, collection, id)
	}
	s.live.Notify(collection)
	return nil
}

func (s *Store) ArrayAdd(ctx context.Context, collection, id, field string, value any) error {
	return s.arrayOp(ctx, arrayAddSQL, collection, id, field, value)
}

func (s *Store) ArrayRemove(ctx context.Context, collection, id, field string, value any) error {
	return s.arrayOp(ctx, arrayRemoveSQL, collection, id, field, value)
}

func (s *Store) arrayOp(ctx context.Context, build func(field string) string, collection, id, field string, value any) error {
	if !docstore.ValidField(field) {
		return fmt.Errorf("%s/%s: invalid array field %q", collection, id, field)
	}
	arg, err := jsonArg(value)
	if err != nil {
		return err
	}
	return s.execOne(ctx, collection, id, build(field), collection, id, arg)
}

// execOne runs a statement that must touch exactly the addressed document.
func (s *Store) execOne(ctx context.Context, collection, id, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err, collection, id)
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, collection, id)
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
	if _, err := s.db.Exec(ctx, pingSQL); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close ends all live queries, and closes the pool when the store opened it.
func (s *Store) Close() error {
	s.live.Close()
	if s.ownsPool && s.pool != nil {
		s.pool.Close()
	}
	return nil
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

func decode(id string, raw []byte) (docstore.Document, error) {
	data := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return docstore.Document{}, fmt.Errorf("decode document %s: %w", id, err)
		}
	}
	return docstore.Document{ID: id, Data: data}, nil
}
