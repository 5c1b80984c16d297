package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore/docstoretest"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

func TestStore_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	defer s.Close()

	id, err := s.Create(ctx, "topics", map[string]any{"name": "Go", "userId": "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(ctx, "topics", id)
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Data["name"])

	require.NoError(t, s.Update(ctx, "topics", id, map[string]any{"name": "Rust"}))
	got, err = s.Get(ctx, "topics", id)
	require.NoError(t, err)
	assert.Equal(t, "Rust", got.Data["name"])
	assert.Equal(t, "u1", got.Data["userId"], "update must merge, not replace")

	require.NoError(t, s.Delete(ctx, "topics", id))
	_, err = s.Get(ctx, "topics", id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again is not an error.
	assert.NoError(t, s.Delete(ctx, "topics", id))
}

func TestStore_UpdateMissing(t *testing.T) {
	t.Parallel()

	s := New()
	err := s.Update(context.Background(), "topics", "nope", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_ReturnedDataIsIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	input := map[string]any{"tags": []any{"a"}}
	require.NoError(t, s.Set(ctx, "c", "1", input))

	input["tags"].([]any)[0] = "mutated"
	got, err := s.Get(ctx, "c", "1")
	require.NoError(t, err)
	got.Data["tags"].([]any)[0] = "mutated-too"

	again, err := s.Get(ctx, "c", "1")
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, again.Data["tags"])
}

func TestStore_GetMany(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "users", "a", map[string]any{"displayName": "A"}))
	require.NoError(t, s.Set(ctx, "users", "b", map[string]any{"displayName": "B"}))

	docs, err := s.GetMany(ctx, "users", []string{"b", "missing", "a", "b"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
}

func TestStore_ArrayOps(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "users", "u1", map[string]any{"bookmarkedTopics": []string{}}))

	require.NoError(t, s.ArrayAdd(ctx, "users", "u1", "bookmarkedTopics", "t1"))
	require.NoError(t, s.ArrayAdd(ctx, "users", "u1", "bookmarkedTopics", "t1"))
	require.NoError(t, s.ArrayAdd(ctx, "users", "u1", "bookmarkedTopics", "t2"))

	got, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, docstore.Strings(got.Data, "bookmarkedTopics"))

	require.NoError(t, s.ArrayRemove(ctx, "users", "u1", "bookmarkedTopics", "t1"))
	got, err = s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, docstore.Strings(got.Data, "bookmarkedTopics"))

	// Field absent entirely.
	require.NoError(t, s.ArrayAdd(ctx, "users", "u1", "likes", "x"))
	got, err = s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, docstore.Strings(got.Data, "likes"))

	assert.ErrorIs(t, s.ArrayAdd(ctx, "users", "ghost", "likes", "x"), docstore.ErrNotFound)
}

func TestStore_ConcurrentArrayAdd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "users", "u1", map[string]any{}))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.ArrayAdd(ctx, "users", "u1", "bookmarkedTopics", string(rune('a'+i%26)))
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Len(t, docstore.Strings(got.Data, "bookmarkedTopics"), 26)
}

func TestStore_QueryOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.Set(ctx, "topics", id, map[string]any{
			"userId":    "u1",
			"createdAt": base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, s.Set(ctx, "topics", "foreign", map[string]any{"userId": "u2", "createdAt": base}))

	docs, err := s.Query(ctx, docstore.NewQuery("topics").
		Where(docstore.Eq("userId", "u1")).
		Order("createdAt", docstore.Desc))
	require.NoError(t, err)

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestStore_IndexEnforcement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ordered := docstore.NewQuery("topics").
		Where(docstore.Eq("userId", "u1")).
		Order("createdAt", docstore.Desc)

	strict := New(WithIndexes())
	_, err := strict.Query(ctx, ordered)
	assert.ErrorIs(t, err, docstore.ErrMissingIndex)

	// Same-field filter and order needs no composite index.
	_, err = strict.Query(ctx, docstore.NewQuery("topics").
		Where(docstore.Eq("createdAt", "x")).
		Order("createdAt", docstore.Asc))
	assert.NoError(t, err)

	// Unordered queries never need one.
	_, err = strict.Query(ctx, docstore.NewQuery("topics").Where(docstore.Eq("userId", "u1")))
	assert.NoError(t, err)

	indexed := New(WithIndexes(Index{Collection: "topics", Fields: []string{"userId", "createdAt"}}))
	_, err = indexed.Query(ctx, ordered)
	assert.NoError(t, err)
}

func TestStore_SubscribeDeliversChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	defer s.Close()

	var (
		mu   sync.Mutex
		last []docstore.Document
		n    int
	)
	sub, err := s.Subscribe(ctx, docstore.NewQuery("topics").Where(docstore.Eq("userId", "u1")),
		func(docs []docstore.Document) {
			mu.Lock()
			last, n = docs, n+1
			mu.Unlock()
		},
		func(err error) { t.Errorf("unexpected error: %v", err) },
	)
	require.NoError(t, err)
	defer sub.Close()

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(last)
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return n >= 1
	}, time.Second, 5*time.Millisecond)

	_, err = s.Create(ctx, "topics", map[string]any{"userId": "u1"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return count() == 1 }, time.Second, 5*time.Millisecond)

	_, err = s.Create(ctx, "topics", map[string]any{"userId": "u2"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "topics", map[string]any{"userId": "u1"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestStore_SubscribeMissingIndexGoesToOnError(t *testing.T) {
	t.Parallel()

	s := New(WithIndexes())
	defer s.Close()

	errCh := make(chan error, 1)
	sub, err := s.Subscribe(context.Background(),
		docstore.NewQuery("topics").Where(docstore.Eq("userId", "u1")).Order("createdAt", docstore.Desc),
		func([]docstore.Document) { t.Error("no data expected") },
		func(err error) { errCh <- err },
	)
	require.NoError(t, err)
	defer sub.Close()

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, docstore.ErrMissingIndex), "got %v", err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for index error")
	}
}

func TestStore_SubscribeDoc(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	defer s.Close()

	type event struct {
		exists bool
		name   string
	}
	events := make(chan event, 8)
	sub, err := s.SubscribeDoc(ctx, "users", "u1", func(d docstore.Document, exists bool) {
		events <- event{exists: exists, name: docstore.String(d.Data, "displayName")}
	}, nil)
	require.NoError(t, err)
	defer sub.Close()

	next := func() event {
		select {
		case e := <-events:
			return e
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for document event")
			return event{}
		}
	}

	assert.Equal(t, event{exists: false}, next())

	require.NoError(t, s.Set(ctx, "users", "u1", map[string]any{"displayName": "Ada"}))
	assert.Equal(t, event{exists: true, name: "Ada"}, next())

	// Writes to other documents of the collection are not redelivered.
	require.NoError(t, s.Set(ctx, "users", "u2", map[string]any{"displayName": "Bob"}))
	require.NoError(t, s.Update(ctx, "users", "u1", map[string]any{"displayName": "Ada L."}))
	assert.Equal(t, event{exists: true, name: "Ada L."}, next())
}

func TestStore_ClosedStoreFails(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.Close())

	assert.Error(t, s.Ping(context.Background()))
	_, err := s.Create(context.Background(), "topics", map[string]any{})
	assert.Error(t, err)
}

func TestStore_Conformance(t *testing.T) {
	docstoretest.RunConformance(t, func(t *testing.T) docstore.Store {
		s := New()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
