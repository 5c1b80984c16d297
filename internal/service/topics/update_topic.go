package topics

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// MaxContentLength bounds the free-text body of a topic, in characters.
const MaxContentLength = 10000

// RenameTopic changes the name of a topic owned by the session user.
func (s *Synchronizer) RenameTopic(ctx context.Context, topicID, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return s.fail(ctx, "rename_topic", err)
	}
	return s.updateOwned(ctx, "rename_topic", topicID, domain.TopicUpdate{Name: &name})
}

// UpdateContent replaces the body of a topic owned by the session user.
func (s *Synchronizer) UpdateContent(ctx context.Context, topicID, content string) error {
	if utf8.RuneCountInString(content) > MaxContentLength {
		return s.fail(ctx, "update_content", domain.NewValidationError("content", "must be at most 10000 characters"))
	}
	return s.updateOwned(ctx, "update_content", topicID, domain.TopicUpdate{Content: &content})
}

func (s *Synchronizer) updateOwned(ctx context.Context, op, topicID string, upd domain.TopicUpdate) error {
	userID, _, err := s.currentUser()
	if err != nil {
		return s.fail(ctx, op, err)
	}
	if err := requireID(topicID); err != nil {
		return s.fail(ctx, op, err)
	}
	attrs := []slog.Attr{slog.String("user_id", userID), slog.String("topic_id", topicID)}

	t, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		return s.fail(ctx, op, fmt.Errorf("get topic: %w", err), attrs...)
	}
	if !t.IsOwnedBy(userID) {
		return s.fail(ctx, op, domain.ErrForbidden, attrs...)
	}

	upd.UpdatedAt = domain.NextUpdatedAt(t.UpdatedAt, s.now().UTC())
	if err := s.topics.Update(ctx, topicID, upd); err != nil {
		return s.fail(ctx, op, fmt.Errorf("update topic: %w", err), attrs...)
	}

	s.log.InfoContext(ctx, "topic updated",
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("topic_id", topicID),
	)
	return nil
}
