package topics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// maxBatch caps the number of IDs sent in one store round trip.
const maxBatch = 100

type topicLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Topic, error)
}

type profileLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error)
}

// BookmarkResolver joins bookmarked topic IDs with their topics and the
// owners' display names. Lookups are batched: one round trip for the
// topics and one for the distinct owners.
type BookmarkResolver struct {
	log      *slog.Logger
	topics   topicLookup
	profiles profileLookup
	wait     time.Duration
}

// NewBookmarkResolver creates a resolver. wait is how long lookups are
// collected before a batch is sent.
func NewBookmarkResolver(log *slog.Logger, topics topicLookup, profiles profileLookup, wait time.Duration) *BookmarkResolver {
	return &BookmarkResolver{log: log, topics: topics, profiles: profiles, wait: wait}
}

// Resolve keeps the order of ids. Topics that no longer exist are skipped
// and owners that no longer exist are shown as domain.UnknownOwnerName.
// A failed topic lookup fails the whole resolution; a failed owner lookup
// only degrades the names.
func (r *BookmarkResolver) Resolve(ctx context.Context, ids []string) ([]domain.BookmarkedTopic, error) {
	ids = dedupe(ids)

	topicLoader := newLoader(r.wait, newTopicsBatchFn(r.topics))
	topicThunks := make([]dataloader.Thunk[*domain.Topic], len(ids))
	for i, id := range ids {
		topicThunks[i] = topicLoader.Load(ctx, id)
	}

	found := make([]domain.Topic, 0, len(ids))
	for i, thunk := range topicThunks {
		t, err := thunk()
		if err != nil {
			return nil, fmt.Errorf("load bookmarked topic %s: %w", ids[i], err)
		}
		if t == nil {
			continue
		}
		found = append(found, *t)
	}
	if skipped := len(ids) - len(found); skipped > 0 {
		r.log.DebugContext(ctx, "skipped dangling bookmarks", slog.Int("count", skipped))
	}

	ownerLoader := newLoader(r.wait, newOwnerNamesBatchFn(r.profiles))
	ownerThunks := make(map[string]dataloader.Thunk[string], len(found))
	for _, t := range found {
		if _, ok := ownerThunks[t.OwnerID]; !ok {
			ownerThunks[t.OwnerID] = ownerLoader.Load(ctx, t.OwnerID)
		}
	}

	names := make(map[string]string, len(ownerThunks))
	for ownerID, thunk := range ownerThunks {
		name, err := thunk()
		if err != nil {
			r.log.WarnContext(ctx, "load bookmark owner",
				slog.String("owner_id", ownerID),
				slog.String("error", err.Error()),
			)
			name = domain.UnknownOwnerName
		}
		names[ownerID] = name
	}

	out := make([]domain.BookmarkedTopic, len(found))
	for i, t := range found {
		out[i] = domain.BookmarkedTopic{Topic: t, OwnerName: names[t.OwnerID]}
	}
	return out, nil
}

func newTopicsBatchFn(repo topicLookup) dataloader.BatchFunc[string, *domain.Topic] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[*domain.Topic] {
		topics, err := repo.GetByIDs(ctx, keys)
		if err != nil {
			return errorResults[*domain.Topic](len(keys), err)
		}

		byID := make(map[string]*domain.Topic, len(topics))
		for i := range topics {
			byID[topics[i].ID] = &topics[i]
		}

		return mapResults(keys, byID, func() *domain.Topic { return nil })
	}
}

func newOwnerNamesBatchFn(repo profileLookup) dataloader.BatchFunc[string, string] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[string] {
		profiles, err := repo.GetByIDs(ctx, keys)
		if err != nil {
			return errorResults[string](len(keys), err)
		}

		names := make(map[string]string, len(profiles))
		for _, p := range profiles {
			if p.DisplayName != "" {
				names[p.ID] = p.DisplayName
			}
		}

		return mapResults(keys, names, func() string { return domain.UnknownOwnerName })
	}
}

func newLoader[V any](wait time.Duration, batchFn dataloader.BatchFunc[string, V]) *dataloader.Loader[string, V] {
	return dataloader.NewBatchedLoader(
		batchFn,
		dataloader.WithWait[string, V](wait),
		dataloader.WithBatchCapacity[string, V](maxBatch),
	)
}

func errorResults[V any](n int, err error) []*dataloader.Result[V] {
	results := make([]*dataloader.Result[V], n)
	for i := range results {
		results[i] = &dataloader.Result[V]{Error: err}
	}
	return results
}

// mapResults maps found values back to key order, using defaultFn for missing keys.
func mapResults[V any](keys []string, found map[string]V, defaultFn func() V) []*dataloader.Result[V] {
	results := make([]*dataloader.Result[V], len(keys))
	for i, key := range keys {
		if v, ok := found[key]; ok {
			results[i] = &dataloader.Result[V]{Data: v}
		} else {
			results[i] = &dataloader.Result[V]{Data: defaultFn()}
		}
	}
	return results
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
