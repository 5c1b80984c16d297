package docstoretest

import (
	"context"
	"sync"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
)

// Store wraps a docstore.Store and lets tests replace individual methods.
// Methods without an override delegate to Base; Base may be nil only if
// every method the test calls is overridden.
type Store struct {
	Base docstore.Store

	GetFunc          func(ctx context.Context, collection, id string) (docstore.Document, error)
	GetManyFunc      func(ctx context.Context, collection string, ids []string) ([]docstore.Document, error)
	QueryFunc        func(ctx context.Context, q docstore.Query) ([]docstore.Document, error)
	CreateFunc       func(ctx context.Context, collection string, data map[string]any) (string, error)
	SetFunc          func(ctx context.Context, collection, id string, data map[string]any) error
	UpdateFunc       func(ctx context.Context, collection, id string, fields map[string]any) error
	DeleteFunc       func(ctx context.Context, collection, id string) error
	ArrayAddFunc     func(ctx context.Context, collection, id, field string, value any) error
	ArrayRemoveFunc  func(ctx context.Context, collection, id, field string, value any) error
	SubscribeFunc    func(ctx context.Context, q docstore.Query, onData docstore.DataFunc, onError docstore.ErrorFunc) (docstore.Subscription, error)
	SubscribeDocFunc func(ctx context.Context, collection, id string, onData docstore.DocFunc, onError docstore.ErrorFunc) (docstore.Subscription, error)

	mu    sync.Mutex
	calls []Call
}

// Call records one store invocation.
type Call struct {
	Method     string
	Collection string
	ID         string
	Query      docstore.Query
}

var _ docstore.Store = (*Store)(nil)

func (s *Store) record(c Call) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

// Calls returns every recorded invocation in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the recorded invocations of method.
func (s *Store) CallsTo(method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.record(Call{Method: "Get", Collection: collection, ID: id})
	if s.GetFunc != nil {
		return s.GetFunc(ctx, collection, id)
	}
	return s.Base.Get(ctx, collection, id)
}

func (s *Store) GetMany(ctx context.Context, collection string, ids []string) ([]docstore.Document, error) {
	s.record(Call{Method: "GetMany", Collection: collection})
	if s.GetManyFunc != nil {
		return s.GetManyFunc(ctx, collection, ids)
	}
	return s.Base.GetMany(ctx, collection, ids)
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	s.record(Call{Method: "Query", Collection: q.Collection, Query: q})
	if s.QueryFunc != nil {
		return s.QueryFunc(ctx, q)
	}
	return s.Base.Query(ctx, q)
}

func (s *Store) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	s.record(Call{Method: "Create", Collection: collection})
	if s.CreateFunc != nil {
		return s.CreateFunc(ctx, collection, data)
	}
	return s.Base.Create(ctx, collection, data)
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any) error {
	s.record(Call{Method: "Set", Collection: collection, ID: id})
	if s.SetFunc != nil {
		return s.SetFunc(ctx, collection, id, data)
	}
	return s.Base.Set(ctx, collection, id, data)
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	s.record(Call{Method: "Update", Collection: collection, ID: id})
	if s.UpdateFunc != nil {
		return s.UpdateFunc(ctx, collection, id, fields)
	}
	return s.Base.Update(ctx, collection, id, fields)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.record(Call{Method: "Delete", Collection: collection, ID: id})
	if s.DeleteFunc != nil {
		return s.DeleteFunc(ctx, collection, id)
	}
	return s.Base.Delete(ctx, collection, id)
}

func (s *Store) ArrayAdd(ctx context.Context, collection, id, field string, value any) error {
	s.record(Call{Method: "ArrayAdd", Collection: collection, ID: id})
	if s.ArrayAddFunc != nil {
		return s.ArrayAddFunc(ctx, collection, id, field, value)
	}
	return s.Base.ArrayAdd(ctx, collection, id, field, value)
}

func (s *Store) ArrayRemove(ctx context.Context, collection, id, field string, value any) error {
	s.record(Call{Method: "ArrayRemove", Collection: collection, ID: id})
	if s.ArrayRemoveFunc != nil {
		return s.ArrayRemoveFunc(ctx, collection, id, field, value)
	}
	return s.Base.ArrayRemove(ctx, collection, id, field, value)
}

func (s *Store) Subscribe(ctx context.Context, q docstore.Query, onData docstore.DataFunc, onError docstore.ErrorFunc) (docstore.Subscription, error) {
	s.record(Call{Method: "Subscribe", Collection: q.Collection, Query: q})
	if s.SubscribeFunc != nil {
		return s.SubscribeFunc(ctx, q, onData, onError)
	}
	return s.Base.Subscribe(ctx, q, onData, onError)
}

func (s *Store) SubscribeDoc(ctx context.Context, collection, id string, onData docstore.DocFunc, onError docstore.ErrorFunc) (docstore.Subscription, error) {
	s.record(Call{Method: "SubscribeDoc", Collection: collection, ID: id})
	if s.SubscribeDocFunc != nil {
		return s.SubscribeDocFunc(ctx, collection, id, onData, onError)
	}
	return s.Base.SubscribeDoc(ctx, collection, id, onData, onError)
}

func (s *Store) Ping(ctx context.Context) error {
	if s.Base == nil {
		return nil
	}
	return s.Base.Ping(ctx)
}

func (s *Store) Close() error {
	if s.Base == nil {
		return nil
	}
	return s.Base.Close()
}
