package notes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// ToggleNoteTopic files a note under a topic, or removes it from the topic
// when it is already there. It returns whether the note is in the topic
// afterwards. Only the note's author may change its topics.
func (s *Service) ToggleNoteTopic(ctx context.Context, noteID, topicID string) (bool, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return false, domain.ErrUnauthorized
	}
	if err := requireID("note_id", noteID); err != nil {
		return false, err
	}
	if err := requireID("topic_id", topicID); err != nil {
		return false, err
	}

	note, err := s.authored(ctx, userID, noteID)
	if err != nil {
		return false, err
	}

	if note.InTopic(topicID) {
		if err := s.notes.RemoveTopic(ctx, noteID, topicID); err != nil {
			return false, fmt.Errorf("remove note topic: %w", err)
		}
		s.log.InfoContext(ctx, "note removed from topic",
			slog.String("note_id", noteID),
			slog.String("topic_id", topicID),
		)
		return false, nil
	}

	if len(note.TopicIDs) >= MaxTopicsPerNote {
		return false, domain.NewValidationError("topic_ids", "too many topics (max 20)")
	}
	if _, err := s.topics.GetByID(ctx, topicID); err != nil {
		return false, fmt.Errorf("get topic: %w", err)
	}
	if err := s.notes.AddTopic(ctx, noteID, topicID); err != nil {
		return false, fmt.Errorf("add note topic: %w", err)
	}

	s.log.InfoContext(ctx, "note added to topic",
		slog.String("note_id", noteID),
		slog.String("topic_id", topicID),
	)
	return true, nil
}
