package notes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// DeleteNote removes a note. Only its author may delete it.
func (s *Service) DeleteNote(ctx context.Context, noteID string) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if err := requireID("note_id", noteID); err != nil {
		return err
	}

	if _, err := s.authored(ctx, userID, noteID); err != nil {
		return err
	}

	if err := s.notes.Delete(ctx, noteID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	s.log.InfoContext(ctx, "note deleted",
		slog.String("user_id", userID),
		slog.String("note_id", noteID),
	)
	return nil
}

// authored loads a note and checks that userID wrote it.
func (s *Service) authored(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if note.AuthorID != userID {
		return nil, domain.ErrForbidden
	}
	return note, nil
}
