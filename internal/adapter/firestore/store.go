// Package firestore implements the document store on Cloud Firestore.
// Collections and documents map one to one; live queries use Firestore
// snapshot listeners.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/heartmarshall/interestingtome-backend/internal/config"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
)

// maxIn is the most values Firestore accepts in one "in" filter.
const maxIn = 30

// Store is a docstore.Store backed by Cloud Firestore.
type Store struct {
	log    *slog.Logger
	client *firestore.Client
}

var _ docstore.Store = (*Store)(nil)

// Open creates a Firestore client for cfg. FIRESTORE_EMULATOR_HOST, when
// set, is honored by the client library.
func Open(ctx context.Context, log *slog.Logger, cfg config.FirestoreConfig) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.DatabaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	log = log.With("store", "firestore")
	log.InfoContext(ctx, "firestore store opened",
		slog.String("project_id", cfg.ProjectID),
		slog.String("database_id", cfg.DatabaseID),
	)
	return &Store{log: log, client: client}, nil
}

func (s *Store) doc(collection, id string) *firestore.DocumentRef {
	return s.client.Collection(collection).Doc(id)
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	snap, err := s.doc(collection, id).Get(ctx)
	if err != nil {
		return docstore.Document{}, mapError(err, collection, id)
	}
	return fromSnapshot(snap), nil
}

func (s *Store) GetMany(ctx context.Context, collection string, ids []string) ([]docstore.Document, error) {
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, s.doc(collection, id))
	}
	if len(refs) == 0 {
		return []docstore.Document{}, nil
	}

	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, mapError(err, collection, "")
	}
	out := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		if snap.Exists() {
			out = append(out, fromSnapshot(snap))
		}
	}
	return out, nil
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	fq, ok, err := s.compile(q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	if !ok {
		return []docstore.Document{}, nil
	}

	it := fq.Documents(ctx)
	defer it.Stop()

	docs := make([]docstore.Document, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapError(err, q.Collection, "")
		}
		docs = append(docs, fromSnapshot(snap))
	}
	return docs, nil
}

func (s *Store) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref := s.client.Collection(collection).NewDoc()
	if _, err := ref.Create(ctx, nonNil(data)); err != nil {
		return "", mapError(err, collection, ref.ID)
	}
	return ref.ID, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := s.doc(collection, id).Set(ctx, nonNil(data)); err != nil {
		return mapError(err, collection, id)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		_, err := s.Get(ctx, collection, id)
		return err
	}
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	return s.update(ctx, collection, id, updates)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.doc(collection, id).Delete(ctx); err != nil {
		return mapError(err, collection, id)
	}
	return nil
}

func (s *Store) ArrayAdd(ctx context.Context, collection, id, field string, value any) error {
	return s.update(ctx, collection, id, []firestore.Update{
		{Path: field, Value: firestore.ArrayUnion(value)},
	})
}

func (s *Store) ArrayRemove(ctx context.Context, collection, id, field string, value any) error {
	return s.update(ctx, collection, id, []firestore.Update{
		{Path: field, Value: firestore.ArrayRemove(value)},
	})
}

// update fails with NotFound when the document does not exist.
func (s *Store) update(ctx context.Context, collection, id string, updates []firestore.Update) error {
	if _, err := s.doc(collection, id).Update(ctx, updates); err != nil {
		return mapError(err, collection, id)
	}
	return nil
}

// Ping reads a document that need not exist.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.doc("_health", "ping").Get(ctx)
	if err != nil && !errors.Is(mapError(err, "_health", "ping"), docstore.ErrNotFound) {
		return fmt.Errorf("ping firestore: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
