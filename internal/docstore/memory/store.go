// Package memory is an in-process docstore backend. It backs local
// development and tests, and can emulate a backend that rejects queries
// lacking a composite index.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
)

var errClosed = errors.New("memory store closed")

// Index declares a composite index: equality filter fields plus the ordering field.
type Index struct {
	Collection string
	Fields     []string
}

// Option configures a Store.
type Option func(*Store)

// WithIndexes turns on index enforcement. Ordered queries that filter on a
// different field than they order by fail with docstore.ErrMissingIndex
// unless a matching Index is declared.
func WithIndexes(indexes ...Index) Option {
	return func(s *Store) {
		s.enforceIndexes = true
		s.indexes = append(s.indexes, indexes...)
	}
}

// WithLogger sets the logger used for diagnostics of live queries.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// Store keeps documents in maps guarded by a single RWMutex.
type Store struct {
	log *slog.Logger

	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	closed      bool

	enforceIndexes bool
	indexes        []Index

	live *docstore.Broadcaster
}

var _ docstore.Store = (*Store)(nil)

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		log:         slog.Default(),
		collections: make(map[string]map[string]map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.live = docstore.NewBroadcaster(s.log.With("store", "memory"))
	return s
}

func (s *Store) Get(_ context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return docstore.Document{}, errClosed
	}
	data, ok := s.collections[collection][id]
	if !ok {
		return docstore.Document{}, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}
	return docstore.Document{ID: id, Data: docstore.CloneData(data)}, nil
}

func (s *Store) GetMany(_ context.Context, collection string, ids []string) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	out := make([]docstore.Document, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if data, ok := s.collections[collection][id]; ok {
			out = append(out, docstore.Document{ID: id, Data: docstore.CloneData(data)})
		}
	}
	return out, nil
}

func (s *Store) Query(_ context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	if err := s.checkIndex(q); err != nil {
		return nil, err
	}
	return s.run(q)
}

func (s *Store) run(q docstore.Query) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	coll := s.collections[q.Collection]
	docs := make([]docstore.Document, 0, len(coll))
	for id, data := range coll {
		docs = append(docs, docstore.Document{ID: id, Data: data})
	}
	docs = q.Apply(docs)
	for i := range docs {
		docs[i].Data = docstore.CloneData(docs[i].Data)
	}
	return docs, nil
}

func (s *Store) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Set(_ context.Context, collection, id string, data map[string]any) error {
	return s.write(collection, func(coll map[string]map[string]any) error {
		coll[id] = docstore.CloneData(data)
		return nil
	})
}

func (s *Store) Update(_ context.Context, collection, id string, fields map[string]any) error {
	return s.write(collection, func(coll map[string]map[string]any) error {
		data, ok := coll[id]
		if !ok {
			return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
		}
		for k, v := range docstore.CloneData(fields) {
			data[k] = v
		}
		return nil
	})
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	return s.write(collection, func(coll map[string]map[string]any) error {
		delete(coll, id)
		return nil
	})
}

func (s *Store) ArrayAdd(_ context.Context, collection, id, field string, value any) error {
	return s.write(collection, func(coll map[string]map[string]any) error {
		data, ok := coll[id]
		if !ok {
			return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
		}
		arr := docstore.AsSlice(data[field])
		for _, el := range arr {
			if docstore.ValuesEqual(el, value) {
				return nil
			}
		}
		added := docstore.CloneData(map[string]any{field: value})[field]
		data[field] = append(slices.Clone(arr), added)
		return nil
	})
}

func (s *Store) ArrayRemove(_ context.Context, collection, id, field string, value any) error {
	return s.write(collection, func(coll map[string]map[string]any) error {
		data, ok := coll[id]
		if !ok {
			return fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
		}
		arr := docstore.AsSlice(data[field])
		kept := make([]any, 0, len(arr))
		for _, el := range arr {
			if !docstore.ValuesEqual(el, value) {
				kept = append(kept, el)
			}
		}
		data[field] = kept
		return nil
	})
}

// write applies fn to a collection under the write lock and notifies live
// queries once the lock is released.
func (s *Store) write(collection string, fn func(coll map[string]map[string]any) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed
	}
	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]map[string]any)
		s.collections[collection] = coll
	}
	err := fn(coll)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.live.Notify(collection)
	return nil
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query, onData docstore.DataFunc, onError docstore.ErrorFunc) (docstore.Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", q.Collection, err)
	}
	// Index errors surface through onError, the way a push backend reports them.
	indexErr := s.checkIndex(q)
	run := func(context.Context) ([]docstore.Document, error) {
		if indexErr != nil {
			return nil, indexErr
		}
		return s.run(q)
	}
	return s.live.Watch(ctx, q.Collection, run, onData, onError), nil
}

func (s *Store) SubscribeDoc(ctx context.Context, collection, id string, onData docstore.DocFunc, onError docstore.ErrorFunc) (docstore.Subscription, error) {
	get := func(ctx context.Context) (docstore.Document, error) {
		return s.Get(ctx, collection, id)
	}
	return s.live.WatchDoc(ctx, collection, id, get, onData, onError), nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}
	return nil
}

// Close ends all live queries. Later operations fail.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.live.Close()
	return nil
}

// checkIndex emulates composite index requirements: an ordered query whose
// filters touch any field other than the single ordering field needs an
// Index covering exactly those fields.
func (s *Store) checkIndex(q docstore.Query) error {
	if !s.enforceIndexes || len(q.OrderBy) == 0 {
		return nil
	}

	fields := make([]string, 0, len(q.Filters)+len(q.OrderBy))
	for _, f := range q.Filters {
		fields = append(fields, f.Field)
	}
	for _, o := range q.OrderBy {
		fields = append(fields, o.Field)
	}
	slices.Sort(fields)
	fields = slices.Compact(fields)

	if len(fields) == 1 {
		return nil
	}

	for _, idx := range s.indexes {
		if idx.Collection != q.Collection {
			continue
		}
		want := slices.Clone(idx.Fields)
		slices.Sort(want)
		if slices.Equal(slices.Compact(want), fields) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s on %v", docstore.ErrMissingIndex, q.Collection, fields)
}
