package postgres_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/postgres"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore/docstoretest"
)

func openStore(t *testing.T) *postgres.Store {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	s := postgres.New(slog.Default(), pool)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Conformance(t *testing.T) {
	docstoretest.RunConformance(t, func(t *testing.T) docstore.Store {
		return openStore(t)
	})
}

// A write made through one store reaches the live queries of another via
// LISTEN/NOTIFY.
func TestStore_ListenRelaysForeignWrites(t *testing.T) {
	reader := openStore(t)
	writer := openStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- reader.Listen(ctx) }()

	coll := testhelper.Collection("listen")
	got := make(chan int, 16)
	sub, err := reader.Subscribe(ctx, docstore.NewQuery(coll),
		func(docs []docstore.Document) { got <- len(docs) },
		func(err error) { t.Errorf("unexpected subscription error: %v", err) },
	)
	require.NoError(t, err)
	defer sub.Close()

	require.Eventually(t, func() bool {
		if _, err := writer.Create(context.Background(), coll, map[string]any{"name": "Go"}); err != nil {
			return false
		}
		for {
			select {
			case n := <-got:
				if n > 0 {
					return true
				}
			case <-time.After(200 * time.Millisecond):
				return false
			}
		}
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

func TestStore_UpdateTouchesUpdatedAt(t *testing.T) {
	s := openStore(t)
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	coll := testhelper.Collection("touch")

	id := testhelper.SeedDocument(t, pool, coll, map[string]any{"name": "Go"})
	var before time.Time
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT updated_at FROM documents WHERE collection = $1 AND id = $2`, coll, id).Scan(&before))

	require.NoError(t, s.Update(ctx, coll, id, map[string]any{"name": "Rust"}))

	var after time.Time
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT updated_at FROM documents WHERE collection = $1 AND id = $2`, coll, id).Scan(&after))
	assert.False(t, after.Before(before))
}
