package topics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/profile"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

type pruneProfileRepo interface {
	ListAll(ctx context.Context) ([]domain.UserProfile, error)
	ArrayRemove(ctx context.Context, id string, field profile.ArrayField, value string) error
}

type pruneTopicRepo interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Topic, error)
}

// PruneResult summarizes a PruneBookmarks run.
type PruneResult struct {
	Profiles int // profiles scanned
	Removed  int // dangling IDs removed
	Failed   int // removals that failed
}

// PruneBookmarks removes bookmark and legacy archive IDs that point at
// topics which no longer exist. Removal uses the atomic set primitive, so
// it is safe to run while users are toggling bookmarks. With dryRun set
// nothing is written. A failed removal is logged and counted; the run goes on.
func PruneBookmarks(
	ctx context.Context,
	log *slog.Logger,
	profiles pruneProfileRepo,
	topics pruneTopicRepo,
	dryRun bool,
) (PruneResult, error) {
	var res PruneResult

	all, err := profiles.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list profiles: %w", err)
	}
	res.Profiles = len(all)

	for _, p := range all {
		sets := []struct {
			field profile.ArrayField
			ids   []string
		}{
			{profile.Bookmarks, p.BookmarkedTopics},
			{profile.LegacyArchived, p.LegacyArchivedTopics},
		}
		for _, set := range sets {
			if len(set.ids) == 0 {
				continue
			}
			dangling, err := missingTopics(ctx, topics, set.ids)
			if err != nil {
				return res, fmt.Errorf("resolve topics of %s: %w", p.ID, err)
			}
			for _, id := range dangling {
				if dryRun {
					res.Removed++
					continue
				}
				if err := profiles.ArrayRemove(ctx, p.ID, set.field, id); err != nil {
					res.Failed++
					log.ErrorContext(ctx, "remove dangling topic id",
						slog.String("user_id", p.ID),
						slog.String("field", string(set.field)),
						slog.String("topic_id", id),
						slog.String("error", err.Error()),
					)
					continue
				}
				res.Removed++
			}
		}
	}

	return res, nil
}

// missingTopics returns the ids that do not resolve to a topic.
func missingTopics(ctx context.Context, topics pruneTopicRepo, ids []string) ([]string, error) {
	ids = dedupe(ids)
	found := make(map[string]bool, len(ids))
	for start := 0; start < len(ids); start += maxBatch {
		end := min(start+maxBatch, len(ids))
		ts, err := topics.GetByIDs(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for _, t := range ts {
			found[t.ID] = true
		}
	}

	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
