package docstoretest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
)

// RunConformance checks the behavior every docstore.Store backend shares.
// open is called once per subtest. Collections are unique per subtest, so
// backends may share state across calls.
func RunConformance(t *testing.T, open func(t *testing.T) docstore.Store) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, s docstore.Store, coll string)
	}{
		{"CRUD", conformCRUD},
		{"UpdateMissing", conformUpdateMissing},
		{"GetManyOrder", conformGetManyOrder},
		{"QueryFilters", conformQueryFilters},
		{"QueryOrderAndLimit", conformQueryOrder},
		{"ArrayOps", conformArrayOps},
		{"ConcurrentArrayAdd", conformConcurrentArrayAdd},
		{"TimesRoundTrip", conformTimes},
		{"Subscribe", conformSubscribe},
		{"SubscribeDoc", conformSubscribeDoc},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := open(t)
			tc.fn(t, s, "c_"+uuid.NewString()[:8])
		})
	}
}

const conformWait = 5 * time.Second

func conformCRUD(t *testing.T, s docstore.Store, coll string) {
	ctx := context.Background()

	id, err := s.Create(ctx, coll, map[string]any{"name": "Go", "userId": "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.Get(ctx, coll, id)
	require.NoError(t, err)
	assert.Equal(t, "Go", docstore.String(doc.Data, "name"))

	require.NoError(t, s.Update(ctx, coll, id, map[string]any{"name": "Rust", "archived": true}))
	doc, err = s.Get(ctx, coll, id)
	require.NoError(t, err)
	assert.Equal(t, "Rust", docstore.String(doc.Data, "name"))
	assert.Equal(t, "u1", docstore.String(doc.Data, "userId"), "update merges")
	assert.True(t, docstore.Bool(doc.Data, "archived"))

	require.NoError(t, s.Set(ctx, coll, id, map[string]any{"name": "Zig"}))
	doc, err = s.Get(ctx, coll, id)
	require.NoError(t, err)
	assert.NotContains(t, doc.Data, "userId", "set replaces")

	require.NoError(t, s.Delete(ctx, coll, id))
	_, err = s.Get(ctx, coll, id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.NoError(t, s.Delete(ctx, coll, id), "deleting twice is fine")
}

func conformUpdateMissing(t *testing.T, s docstore.Store, coll string) {
	ctx := context.Background()
	assert.ErrorIs(t, s.Update(ctx, coll, "nope", map[string]any{"a": 1}), docstore.ErrNotFound)
	assert.ErrorIs(t, s.ArrayAdd(ctx, coll, "nope", "tags", "x"), docstore.ErrNotFound)
	assert.ErrorIs(t, s.ArrayRemove(ctx, coll, "nope", "tags", "x"), docstore.ErrNotFound)
}

func conformGetManyOrder(t *testing.T, s docstore.Store, coll string) {
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, coll, id, map[string]any{"n": id}))
	}

	docs, err := s.GetMany(ctx, coll, []string{"c", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
}

func conformQueryFilters(t *testing.T, s docstore.Store, coll string) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, coll, "n1", map[string]any{"authorId": "u1", "topicIds": []any{"t1", "t2"}}))
	require.NoError(t, s.Set(ctx, coll, "n2", map[string]any{"authorId": "u2", "topicIds": []any{"t2"}}))
	require.NoError(t, s.Set(ctx, coll, "n3", map[string]any{"authorId": "u3"}))

	docs, err := s.Query(ctx, docstore.NewQuery(coll).Where(docstore.Eq("authorId", "u1")))
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, ids(docs))

	docs, err = s.Query(ctx, docstore.NewQuery(coll).Where(docstore.ArrayContains("topicIds", "t2")))
	require.NoError(t, err)
	assert.Equal(t, []string{"n1", "n2"}, ids(docs))

	docs, err = s.Query(ctx, docstore.NewQuery(coll).Where(docstore.In("authorId", []string{"u2", "u3"})))
	require.NoError(t, err)
	assert.Equal(t, []string{"n2", "n3"}, ids(docs))

	docs, err = s.Query(ctx, docstore.NewQuery(coll).Where(docstore.In("authorId", []string{})))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func conformQueryOrder(t *testing.T, s docstore.Store, coll string) {
	ctx := context.Background()
	base := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.Set(ctx, coll, id, map[string]any{"createdAt": base.Add(time.Duration(i) * time.Hour)}))
	}

	docs, err := s.Query(ctx, docstore.NewQuery(coll).Order("createdAt", docstore.Desc))
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "old"}, ids(docs))

	docs, err = s.Query(ctx, docstore.NewQuery(coll).Order("createdAt", docstore.Asc).WithLimit(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "mid"}, ids(docs))
}

func conformArrayOps(t *testing.T, s docstore.Store, coll string) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, coll, "u1", map[string]any{"name": "Ada"}))

	require.NoError(t, s.ArrayAdd(ctx, coll, "u1", "bookmarks", "t1"))
	require.NoError(t, s.ArrayAdd(ctx, coll, "u1", "bookmarks", "t2"))
	require.NoError(t, s.ArrayAdd(ctx, coll, "u1", "bookmarks", "t1"))

	doc, err := s.Get(ctx, coll, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, docstore.Strings(doc.Data, "bookmarks"))

	require.NoError(t, s.ArrayRemove(ctx, coll, "u1", "bookmarks", "t1"))
	require.NoError(t, s.ArrayRemove(ctx, coll, "u1", "bookmarks", "absent"))
	doc, err = s.Get(ctx, coll, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, docstore.Strings(doc.Data, "bookmarks"))
	assert.Equal(t, "Ada", docstore.String(doc.Data, "name"))
}

func conformConcurrentArrayAdd(t *testing.T, s docstore.Store, coll string) {
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, coll, "n1", map[string]any{}))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.ArrayAdd(ctx, coll, "n1", "likes", "u1"))
		}()
	}
	wg.Wait()

	doc, err := s.Get(ctx, coll, "n1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, docstore.Strings(doc.Data, "likes"))
}

func conformTimes(t *testing.T, s docstore.Store, coll string) {
	ctx := context.Background()
	at := time.Date(2026, 5, 10, 8, 30, 15, 123456789, time.UTC)
	require.NoError(t, s.Set(ctx, coll, "d", map[string]any{"createdAt": at}))

	doc, err := s.Get(ctx, coll, "d")
	require.NoError(t, err)
	assert.True(t, docstore.Time(doc.Data, "createdAt").Equal(at))
}

func conformSubscribe(t *testing.T, s docstore.Store, coll string) {
	ctx := context.Background()
	got := make(chan []docstore.Document, 16)
	sub, err := s.Subscribe(ctx, docstore.NewQuery(coll).Where(docstore.Eq("userId", "u1")),
		func(docs []docstore.Document) { got <- docs },
		func(err error) { t.Errorf("unexpected subscription error: %v", err) },
	)
	require.NoError(t, err)
	defer sub.Close()

	assert.Empty(t, receive(t, got))

	_, err = s.Create(ctx, coll, map[string]any{"userId": "u1"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		select {
		case docs := <-got:
			return len(docs) == 1
		default:
			return false
		}
	}, conformWait, 10*time.Millisecond)
}

func conformSubscribeDoc(t *testing.T, s docstore.Store, coll string) {
	ctx := context.Background()
	type event struct {
		doc    docstore.Document
		exists bool
	}
	got := make(chan event, 16)
	sub, err := s.SubscribeDoc(ctx, coll, "p1",
		func(doc docstore.Document, exists bool) { got <- event{doc, exists} },
		func(err error) { t.Errorf("unexpected subscription error: %v", err) },
	)
	require.NoError(t, err)
	defer sub.Close()

	select {
	case ev := <-got:
		assert.False(t, ev.exists)
	case <-time.After(conformWait):
		t.Fatal("no initial delivery")
	}

	require.NoError(t, s.Set(ctx, coll, "p1", map[string]any{"displayName": "Ada"}))
	require.Eventually(t, func() bool {
		select {
		case ev := <-got:
			return ev.exists && docstore.String(ev.doc.Data, "displayName") == "Ada"
		default:
			return false
		}
	}, conformWait, 10*time.Millisecond)
}

func receive(t *testing.T, ch <-chan []docstore.Document) []docstore.Document {
	t.Helper()
	select {
	case docs := <-ch:
		return docs
	case <-time.After(conformWait):
		t.Fatal("no delivery")
		return nil
	}
}

func ids(docs []docstore.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
