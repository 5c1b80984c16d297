package discussion

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// PinnedNote is a pinned note joined with its author's display name.
type PinnedNote struct {
	domain.Note
	AuthorName string
}

// Page is everything shown on a topic page, as seen by one viewer.
type Page struct {
	Topic     domain.Topic
	OwnerName string

	// IsOwner and Bookmarked are false for anonymous viewers.
	IsOwner       bool
	Bookmarked    bool
	BookmarkCount int

	// PinnedNotes keeps pin order and skips notes that no longer exist.
	PinnedNotes []PinnedNote
	Comments    []domain.AuthoredComment
}

// GetPage loads a topic page. Bookmark holders, pinned notes and comments
// are read concurrently; author names are resolved in one batch.
func (s *Service) GetPage(ctx context.Context, topicID string) (*Page, error) {
	if err := requireID("topic_id", topicID); err != nil {
		return nil, err
	}
	viewer, _ := ctxutil.UserIDFromCtx(ctx)

	t, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}

	var (
		holders  []domain.UserProfile
		pinned   []domain.Note
		comments []domain.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if holders, err = s.profiles.ListByBookmark(gctx, topicID); err != nil {
			return fmt.Errorf("count bookmarks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if pinned, err = s.notes.GetByIDs(gctx, t.PinnedNoteIDs); err != nil {
			return fmt.Errorf("get pinned notes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if comments, err = s.comments.ListByTopic(gctx, topicID); err != nil {
			return fmt.Errorf("list comments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, 1+len(pinned)+len(comments))
	ids = append(ids, t.OwnerID)
	for _, n := range pinned {
		ids = append(ids, n.AuthorID)
	}
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	authors := s.loadAuthors(ctx, ids)

	page := &Page{
		Topic:         *t,
		OwnerName:     lookup(authors, t.OwnerID).Name,
		IsOwner:       t.IsOwnedBy(viewer),
		BookmarkCount: len(holders),
		PinnedNotes:   make([]PinnedNote, len(pinned)),
		Comments:      withAuthors(comments, authors),
	}
	for _, p := range holders {
		if viewer != "" && p.ID == viewer {
			page.Bookmarked = true
			break
		}
	}
	for i, n := range pinned {
		page.PinnedNotes[i] = PinnedNote{Note: n, AuthorName: lookup(authors, n.AuthorID).Name}
	}
	return page, nil
}

// BookmarkCount returns how many users have topicID in their bookmark set.
func (s *Service) BookmarkCount(ctx context.Context, topicID string) (int, error) {
	if err := requireID("topic_id", topicID); err != nil {
		return 0, err
	}
	if _, err := s.topics.GetByID(ctx, topicID); err != nil {
		return 0, fmt.Errorf("get topic: %w", err)
	}
	holders, err := s.profiles.ListByBookmark(ctx, topicID)
	if err != nil {
		return 0, fmt.Errorf("count bookmarks: %w", err)
	}
	return len(holders), nil
}
