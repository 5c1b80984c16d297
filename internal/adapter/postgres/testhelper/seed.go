package testhelper

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UniqueSuffix returns a short unique string for generating non-conflicting test data.
func UniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedDocument inserts a raw document and returns its id. Collections get a
// unique suffix so parallel tests do not see each other's rows.
func SeedDocument(t *testing.T, pool *pgxpool.Pool, collection string, data map[string]any) string {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("SeedDocument: marshal: %v", err)
	}

	id := uuid.NewString()
	_, err = pool.Exec(context.Background(),
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, string(raw),
	)
	if err != nil {
		t.Fatalf("SeedDocument: insert into %s: %v", collection, err)
	}
	return id
}

// Collection returns a collection name unique to this test run.
func Collection(base string) string {
	return base + "_" + UniqueSuffix()
}
