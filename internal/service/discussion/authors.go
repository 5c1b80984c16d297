package discussion

import (
	"context"
	"log/slog"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// maxBatch caps the number of IDs sent in one store round trip.
const maxBatch = 100

// author is the part of a profile shown next to comments and notes.
type author struct {
	Name string
	Pic  string
}

var unknownAuthor = author{Name: domain.UnknownOwnerName}

// loadAuthors looks up the distinct ids in batches. A failed lookup is
// logged and every affected author shows as unknown.
func (s *Service) loadAuthors(ctx context.Context, ids []string) map[string]author {
	loader := dataloader.NewBatchedLoader(
		s.authorsBatchFn(),
		dataloader.WithWait[string, author](s.wait),
		dataloader.WithBatchCapacity[string, author](maxBatch),
	)

	thunks := make(map[string]dataloader.Thunk[author], len(ids))
	for _, id := range ids {
		if _, ok := thunks[id]; ok || id == "" {
			continue
		}
		thunks[id] = loader.Load(ctx, id)
	}

	out := make(map[string]author, len(thunks))
	for id, thunk := range thunks {
		a, err := thunk()
		if err != nil {
			s.log.WarnContext(ctx, "load author",
				slog.String("user_id", id),
				slog.String("error", err.Error()),
			)
			a = unknownAuthor
		}
		out[id] = a
	}
	return out
}

func (s *Service) authorsBatchFn() dataloader.BatchFunc[string, author] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[author] {
		results := make([]*dataloader.Result[author], len(keys))

		profiles, err := s.profiles.GetByIDs(ctx, keys)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[author]{Error: err}
			}
			return results
		}

		found := make(map[string]author, len(profiles))
		for _, p := range profiles {
			if p.DisplayName != "" {
				found[p.ID] = author{Name: p.DisplayName, Pic: p.ProfilePic}
			}
		}
		for i, key := range keys {
			a, ok := found[key]
			if !ok {
				a = unknownAuthor
			}
			results[i] = &dataloader.Result[author]{Data: a}
		}
		return results
	}
}

func lookup(authors map[string]author, id string) author {
	if a, ok := authors[id]; ok {
		return a
	}
	return unknownAuthor
}
