package notes

import (
	"context"
	"fmt"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// ListMine returns the authenticated user's notes, newest first.
func (s *Service) ListMine(ctx context.Context) ([]domain.Note, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	notes, err := s.notes.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// ListByTopic returns the notes filed under a topic, newest first.
func (s *Service) ListByTopic(ctx context.Context, topicID string) ([]domain.Note, error) {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := requireID("topic_id", topicID); err != nil {
		return nil, err
	}

	if _, err := s.topics.GetByID(ctx, topicID); err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}

	notes, err := s.notes.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list notes by topic: %w", err)
	}
	return notes, nil
}
