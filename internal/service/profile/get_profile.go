package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/topic"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// GetMe returns the authenticated user's profile.
func (s *Service) GetMe(ctx context.Context) (*domain.UserProfile, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// GetPublic returns the profile page of the user with the given display
// name: the profile, its non-archived topics newest first, its resolved
// bookmarks and its notes. Anonymous viewers are allowed.
func (s *Service) GetPublic(ctx context.Context, displayName string) (*domain.PublicProfile, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, domain.NewValidationError("display_name", "required")
	}

	p, err := s.profiles.GetByDisplayName(ctx, displayName)
	if err != nil {
		return nil, fmt.Errorf("get profile by name: %w", err)
	}

	owned, err := s.listTopics(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	active, _ := domain.PartitionTopics(owned)

	bookmarks, err := s.bookmarks.Resolve(ctx, p.BookmarkedTopics)
	if err != nil {
		return nil, fmt.Errorf("resolve bookmarks: %w", err)
	}

	notes, err := s.notes.ListByAuthor(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	viewer, _ := ctxutil.UserIDFromCtx(ctx)
	return &domain.PublicProfile{
		Profile:      *p,
		Topics:       active,
		Bookmarks:    bookmarks,
		Notes:        notes,
		IsOwnProfile: viewer == p.ID,
	}, nil
}

// listTopics falls back to an unordered query sorted in memory when the
// backend has no index for the ordered one.
func (s *Service) listTopics(ctx context.Context, ownerID string) ([]domain.Topic, error) {
	owned, err := s.topics.ListByOwner(ctx, ownerID, true)
	if err == nil {
		return owned, nil
	}
	if !errors.Is(err, docstore.ErrMissingIndex) {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	s.log.WarnContext(ctx, "ordered topic query needs an index, sorting in memory",
		slog.String("owner_id", ownerID),
	)
	owned, err = s.topics.ListByOwner(ctx, ownerID, false)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	topic.SortNewestFirst(owned)
	return owned, nil
}
