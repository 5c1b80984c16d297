package notes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// AddReply appends a reply by the authenticated user to any note.
func (s *Service) AddReply(ctx context.Context, input ReplyInput) (*domain.Reply, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.notes.GetByID(ctx, input.NoteID); err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}

	reply := domain.Reply{
		Content:   strings.TrimSpace(input.Content),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.notes.AddReply(ctx, input.NoteID, reply); err != nil {
		return nil, fmt.Errorf("add reply: %w", err)
	}

	s.log.InfoContext(ctx, "reply added",
		slog.String("user_id", userID),
		slog.String("note_id", input.NoteID),
	)
	return &reply, nil
}
