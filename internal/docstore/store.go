// Package docstore defines the document database contract used by the
// repositories: keyed documents grouped in collections, equality and
// array-membership queries, partial updates, atomic set operations on
// array fields, and live query subscriptions.
//
// Backends live in internal/docstore/memory and internal/adapter/{postgres,sqlite,firestore}.
package docstore

import (
	"context"
	"errors"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = domain.ErrNotFound

	// ErrMissingIndex is returned when the backend cannot serve a query
	// shape, typically a filter combined with ordering on another field.
	ErrMissingIndex = errors.New("query requires an index")
)

// Document is a stored document: its ID and its top-level fields.
type Document struct {
	ID   string
	Data map[string]any
}

// DataFunc receives the full result set of a live query each time it changes.
type DataFunc func(docs []Document)

// DocFunc receives a single document each time it changes. exists is false
// when the document was deleted or never created.
type DocFunc func(doc Document, exists bool)

// ErrorFunc receives a terminal subscription error. No data is delivered after it.
type ErrorFunc func(err error)

// Subscription is a live query. Close stops delivery and never blocks on a
// callback that is already running.
type Subscription interface {
	Close()
}

// Store is a document database.
type Store interface {
	// Get returns a document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// GetMany returns the documents that exist among ids, in the order of ids.
	GetMany(ctx context.Context, collection string, ids []string) ([]Document, error)
	// Query runs a one-shot query.
	Query(ctx context.Context, q Query) ([]Document, error)

	// Create inserts a document under a generated ID and returns the ID.
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	// Set creates or fully replaces the document with the given ID.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges fields into an existing document, or returns ErrNotFound.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// ArrayAdd appends value to an array field unless already present.
	ArrayAdd(ctx context.Context, collection, id, field string, value any) error
	// ArrayRemove removes every occurrence of value from an array field.
	ArrayRemove(ctx context.Context, collection, id, field string, value any) error

	// Subscribe opens a live query. onData is called with the initial result
	// and after every change; callbacks for one subscription never overlap.
	Subscribe(ctx context.Context, q Query, onData DataFunc, onError ErrorFunc) (Subscription, error)
	// SubscribeDoc opens a live subscription to a single document.
	SubscribeDoc(ctx context.Context, collection, id string, onData DocFunc, onError ErrorFunc) (Subscription, error)

	Ping(ctx context.Context) error
	Close() error
}

// IsMissingIndex reports whether err is a query-capability error.
func IsMissingIndex(err error) bool {
	return errors.Is(err, ErrMissingIndex)
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Close() { f() }
