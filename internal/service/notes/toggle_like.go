package notes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// ToggleLike likes or unlikes a note for the authenticated user and
// returns whether the note is liked afterwards. Membership is read from
// the stored note, then changed with an atomic array operation.
func (s *Service) ToggleLike(ctx context.Context, noteID string) (bool, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return false, domain.ErrUnauthorized
	}
	if err := requireID("note_id", noteID); err != nil {
		return false, err
	}

	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return false, fmt.Errorf("get note: %w", err)
	}

	liked := !note.LikedBy(userID)
	if liked {
		err = s.notes.AddLike(ctx, noteID, userID)
	} else {
		err = s.notes.RemoveLike(ctx, noteID, userID)
	}
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}

	s.log.InfoContext(ctx, "note like toggled",
		slog.String("user_id", userID),
		slog.String("note_id", noteID),
		slog.Bool("liked", liked),
	)
	return liked, nil
}
