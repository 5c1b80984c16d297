// Package profile serves public profile pages and edits of the
// authenticated user's own profile.
package profile

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

type profileRepo interface {
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
	GetByDisplayName(ctx context.Context, name string) (*domain.UserProfile, error)
	Update(ctx context.Context, id string, upd domain.ProfileUpdate) error
}

type topicRepo interface {
	ListByOwner(ctx context.Context, ownerID string, ordered bool) ([]domain.Topic, error)
}

type noteRepo interface {
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Note, error)
}

type bookmarkResolver interface {
	Resolve(ctx context.Context, ids []string) ([]domain.BookmarkedTopic, error)
}

// Service provides profile operations.
type Service struct {
	profiles  profileRepo
	topics    topicRepo
	notes     noteRepo
	bookmarks bookmarkResolver
	log       *slog.Logger
}

// NewService creates a new profile service.
func NewService(
	log *slog.Logger,
	profiles profileRepo,
	topics topicRepo,
	notes noteRepo,
	bookmarks bookmarkResolver,
) *Service {
	return &Service{
		profiles:  profiles,
		topics:    topics,
		notes:     notes,
		bookmarks: bookmarks,
		log:       log.With("service", "profile"),
	}
}
