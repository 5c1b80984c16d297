package discussion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// PinNote pins a note to the top of a topic page. Only the topic owner may
// pin, and only notes filed under the topic. Pinning twice is a no-op.
func (s *Service) PinNote(ctx context.Context, topicID, noteID string) error {
	userID, err := s.ownTopic(ctx, topicID, noteID)
	if err != nil {
		return err
	}

	n, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return fmt.Errorf("get note: %w", err)
	}
	if !n.InTopic(topicID) {
		return domain.NewValidationError("note_id", "not filed under this topic")
	}

	if err := s.topics.AddPin(ctx, topicID, noteID); err != nil {
		return fmt.Errorf("pin note: %w", err)
	}

	s.log.InfoContext(ctx, "note pinned",
		slog.String("user_id", userID),
		slog.String("topic_id", topicID),
		slog.String("note_id", noteID),
	)
	return nil
}

// UnpinNote removes a pin. The note itself need not exist any more.
func (s *Service) UnpinNote(ctx context.Context, topicID, noteID string) error {
	userID, err := s.ownTopic(ctx, topicID, noteID)
	if err != nil {
		return err
	}

	if err := s.topics.RemovePin(ctx, topicID, noteID); err != nil {
		return fmt.Errorf("unpin note: %w", err)
	}

	s.log.InfoContext(ctx, "note unpinned",
		slog.String("user_id", userID),
		slog.String("topic_id", topicID),
		slog.String("note_id", noteID),
	)
	return nil
}

// ownTopic checks the IDs and that the caller owns topicID.
func (s *Service) ownTopic(ctx context.Context, topicID, noteID string) (string, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	if err := requireID("topic_id", topicID); err != nil {
		return "", err
	}
	if err := requireID("note_id", noteID); err != nil {
		return "", err
	}

	t, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		return "", fmt.Errorf("get topic: %w", err)
	}
	if !t.IsOwnedBy(userID) {
		return "", domain.ErrForbidden
	}
	return userID, nil
}
