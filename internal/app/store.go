package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/firestore"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/postgres"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/sqlite"
	"github.com/heartmarshall/interestingtome-backend/internal/config"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore/memory"
)

// changeListener is implemented by stores that learn about changes made by
// other processes and must be driven by a background loop.
type changeListener interface {
	Listen(ctx context.Context) error
}

// OpenStore opens the document store selected by cfg.Store.Driver.
func OpenStore(ctx context.Context, log *slog.Logger, cfg *config.Config) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		opts := []memory.Option{memory.WithLogger(log)}
		if cfg.Sync.RequireIndexes {
			opts = append(opts, memory.WithIndexes())
		}
		return memory.New(opts...), nil
	case config.DriverPostgres:
		return postgres.Open(ctx, log, cfg.Database)
	case config.DriverSQLite:
		return sqlite.Open(ctx, log, cfg.SQLite)
	case config.DriverFirestore:
		return firestore.Open(ctx, log, cfg.Firestore)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
