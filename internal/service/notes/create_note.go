package notes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// CreateNote posts a note by the authenticated user, filed under every
// topic in input.TopicIDs. All topics must exist.
func (s *Service) CreateNote(ctx context.Context, input CreateNoteInput) (*domain.Note, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	topicIDs := uniqueIDs(input.TopicIDs)
	if len(topicIDs) > 0 {
		found, err := s.topics.GetByIDs(ctx, topicIDs)
		if err != nil {
			return nil, fmt.Errorf("get topics: %w", err)
		}
		if len(found) != len(topicIDs) {
			return nil, fmt.Errorf("topic: %w", domain.ErrNotFound)
		}
	}

	note, err := s.notes.Create(ctx, domain.Note{
		Content:   strings.TrimSpace(input.Content),
		AuthorID:  userID,
		TopicIDs:  topicIDs,
		Likes:     []string{},
		Replies:   []domain.Reply{},
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	s.log.InfoContext(ctx, "note created",
		slog.String("user_id", userID),
		slog.String("note_id", note.ID),
		slog.Int("topics", len(topicIDs)),
	)

	return note, nil
}
