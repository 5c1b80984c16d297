// Package notes implements short notes filed under topics: posting,
// replies, likes and topic membership.
package notes

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

type noteRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Note, error)
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Note, error)
	ListByTopic(ctx context.Context, topicID string) ([]domain.Note, error)
	Create(ctx context.Context, n domain.Note) (*domain.Note, error)
	Delete(ctx context.Context, id string) error
	AddReply(ctx context.Context, noteID string, reply domain.Reply) error
	AddLike(ctx context.Context, noteID, userID string) error
	RemoveLike(ctx context.Context, noteID, userID string) error
	AddTopic(ctx context.Context, noteID, topicID string) error
	RemoveTopic(ctx context.Context, noteID, topicID string) error
}

type topicRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Topic, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Topic, error)
}

// MaxTopicsPerNote bounds how many topics one note can be filed under.
const MaxTopicsPerNote = 20

// Service provides note operations for the authenticated user.
type Service struct {
	notes  noteRepo
	topics topicRepo
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a new notes service.
func NewService(log *slog.Logger, notes noteRepo, topics topicRepo) *Service {
	return &Service{
		notes:  notes,
		topics: topics,
		log:    log.With("service", "notes"),
		now:    time.Now,
	}
}
