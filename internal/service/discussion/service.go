// Package discussion serves the page of a single topic: its pinned notes,
// the comments left on it and how many users bookmarked it.
package discussion

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

type topicRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Topic, error)
	AddPin(ctx context.Context, topicID, noteID string) error
	RemovePin(ctx context.Context, topicID, noteID string) error
}

type noteRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Note, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Note, error)
}

type commentRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByTopic(ctx context.Context, topicID string) ([]domain.Comment, error)
	Create(ctx context.Context, c domain.Comment) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
}

type profileRepo interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error)
	ListByBookmark(ctx context.Context, topicID string) ([]domain.UserProfile, error)
}

// DefaultAuthorWait is the batching window used for author lookups.
const DefaultAuthorWait = 2 * time.Millisecond

// Service provides topic page operations. Reads accept anonymous callers;
// writes need an identity in the context.
type Service struct {
	topics   topicRepo
	notes    noteRepo
	comments commentRepo
	profiles profileRepo
	log      *slog.Logger
	now      func() time.Time
	wait     time.Duration
}

// NewService creates a discussion service. wait is how long author lookups
// are collected before a batch is sent.
func NewService(
	log *slog.Logger,
	topics topicRepo,
	notes noteRepo,
	comments commentRepo,
	profiles profileRepo,
	wait time.Duration,
) *Service {
	return &Service{
		topics:   topics,
		notes:    notes,
		comments: comments,
		profiles: profiles,
		log:      log.With("service", "discussion"),
		now:      time.Now,
		wait:     wait,
	}
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidationError(field, "required")
	}
	return nil
}
