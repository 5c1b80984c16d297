package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/interestingtome-backend/internal/config"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore/docstoretest"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), slog.Default(), config.SQLiteConfig{
		Path:        ":memory:",
		BusyTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Conformance(t *testing.T) {
	docstoretest.RunConformance(t, func(t *testing.T) docstore.Store {
		return openTestStore(t)
	})
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	cfg := config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "docs.db"), BusyTimeout: time.Second}

	s, err := Open(ctx, slog.Default(), cfg)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "topics", "t1", map[string]any{"name": "Go"}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, slog.Default(), cfg)
	require.NoError(t, err)
	defer s.Close()

	doc, err := s.Get(ctx, "topics", "t1")
	require.NoError(t, err)
	assert.Equal(t, "Go", docstore.String(doc.Data, "name"))
}

func TestStore_CreateConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.exec(ctx, "topics", "t1", insertSQL, map[string]any{}))
	err := s.exec(ctx, "topics", "t1", insertSQL, map[string]any{})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestStore_BooleanFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "topics", "a", map[string]any{"archived": true}))
	require.NoError(t, s.Set(ctx, "topics", "b", map[string]any{"archived": false}))

	docs, err := s.Query(ctx, docstore.NewQuery("topics").Where(docstore.Eq("archived", true)))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].ID)
}

func TestStore_InvalidArrayField(t *testing.T) {
	s := openTestStore(t)
	err := s.ArrayAdd(context.Background(), "users", "u1", "bad field", "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestSelectSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    docstore.Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "owner ordered",
			query:    docstore.NewQuery("topics").Where(docstore.Eq("userId", "u1")).Order("createdAt", docstore.Desc),
			wantSQL:  "SELECT id, data FROM documents WHERE collection = ? AND json_extract(data, '$.userId') = ? ORDER BY json_extract(data, '$.createdAt') DESC, id ASC",
			wantArgs: []any{"topics", "u1"},
		},
		{
			name:     "array contains",
			query:    docstore.NewQuery("users").Where(docstore.ArrayContains("bookmarkedTopics", "t1")),
			wantSQL:  "SELECT id, data FROM documents WHERE collection = ? AND EXISTS (SELECT 1 FROM json_each(documents.data, '$.bookmarkedTopics') e WHERE e.value = ?) ORDER BY id ASC",
			wantArgs: []any{"users", "t1"},
		},
		{
			name:     "ids with limit",
			query:    docstore.NewQuery("topics").Where(docstore.In(docstore.FieldID, []string{"a", "b"})).WithLimit(5),
			wantSQL:  "SELECT id, data FROM documents WHERE collection = ? AND id IN (?,?) ORDER BY id ASC LIMIT 5",
			wantArgs: []any{"topics", "a", "b"},
		},
		{
			name:     "boolean",
			query:    docstore.NewQuery("topics").Where(docstore.Eq("archived", false)),
			wantSQL:  "SELECT id, data FROM documents WHERE collection = ? AND json_extract(data, '$.archived') = ? ORDER BY id ASC",
			wantArgs: []any{"topics", 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sql, args, err := selectSQL(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, mapError(nil, "topics", "t1"))

	err := mapError(context.Canceled, "topics", "t1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, domain.ErrNotFound))

	assert.EqualError(t, mapError(errors.New("disk I/O error"), "topics", ""), "topics: disk I/O error")
}
