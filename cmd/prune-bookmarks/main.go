// Command prune-bookmarks removes bookmarked and legacy archived topic IDs
// that point at deleted topics. It is intended to be invoked by an external
// cron job, not as an in-process goroutine.
//
// Flags:
//
//	--dry-run  report dangling IDs without removing them
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/profile"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/topic"
	"github.com/heartmarshall/interestingtome-backend/internal/app"
	"github.com/heartmarshall/interestingtome-backend/internal/config"
	"github.com/heartmarshall/interestingtome-backend/internal/service/topics"
)

func main() {
	dryRunFlag := flag.Bool("dry-run", false, "report dangling IDs without removing them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := app.OpenStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	res, err := topics.PruneBookmarks(ctx, logger, profile.New(store), topic.New(store), *dryRunFlag)
	if err != nil {
		logger.Error("prune bookmarks failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("prune bookmarks completed",
		slog.Int("profiles", res.Profiles),
		slog.Int("removed", res.Removed),
		slog.Int("failed", res.Failed),
		slog.Bool("dry_run", *dryRunFlag),
	)
	if res.Failed > 0 {
		os.Exit(1)
	}
}
