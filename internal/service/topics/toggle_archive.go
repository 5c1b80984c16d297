package topics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// ToggleArchive flips the archived flag of a topic owned by the session
// user and returns the new value. The current value is read from the store
// rather than from the view, so concurrent changes by other clients are
// respected.
func (s *Synchronizer) ToggleArchive(ctx context.Context, topicID string) (bool, error) {
	userID, _, err := s.currentUser()
	if err != nil {
		return false, s.fail(ctx, "toggle_archive", err)
	}
	if err := requireID(topicID); err != nil {
		return false, s.fail(ctx, "toggle_archive", err)
	}
	attrs := []slog.Attr{slog.String("user_id", userID), slog.String("topic_id", topicID)}

	t, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		return false, s.fail(ctx, "toggle_archive", fmt.Errorf("get topic: %w", err), attrs...)
	}
	if !t.IsOwnedBy(userID) {
		return false, s.fail(ctx, "toggle_archive", domain.ErrForbidden, attrs...)
	}

	archived := !t.Archived
	err = s.topics.Update(ctx, topicID, domain.TopicUpdate{
		Archived:  &archived,
		UpdatedAt: domain.NextUpdatedAt(t.UpdatedAt, s.now().UTC()),
	})
	if err != nil {
		return false, s.fail(ctx, "toggle_archive", fmt.Errorf("update topic: %w", err), attrs...)
	}

	s.log.InfoContext(ctx, "topic archive toggled",
		slog.String("user_id", userID),
		slog.String("topic_id", topicID),
		slog.Bool("archived", archived),
	)
	return archived, nil
}
