package topics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/profile"
)

// ToggleBookmark adds topicID to the session user's bookmarks if absent,
// otherwise removes it, and returns whether it is now bookmarked.
// Membership comes from a fresh profile read and the change is applied
// with an atomic set operation, never by rewriting the whole set.
func (s *Synchronizer) ToggleBookmark(ctx context.Context, topicID string) (bool, error) {
	userID, _, err := s.currentUser()
	if err != nil {
		return false, s.fail(ctx, "toggle_bookmark", err)
	}
	if err := requireID(topicID); err != nil {
		return false, s.fail(ctx, "toggle_bookmark", err)
	}
	attrs := []slog.Attr{slog.String("user_id", userID), slog.String("topic_id", topicID)}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return false, s.fail(ctx, "toggle_bookmark", fmt.Errorf("get profile: %w", err), attrs...)
	}

	if p.HasBookmark(topicID) {
		if err := s.profiles.ArrayRemove(ctx, userID, profile.Bookmarks, topicID); err != nil {
			return false, s.fail(ctx, "toggle_bookmark", fmt.Errorf("remove bookmark: %w", err), attrs...)
		}
		s.log.InfoContext(ctx, "bookmark removed", slog.String("user_id", userID), slog.String("topic_id", topicID))
		return false, nil
	}

	if _, err := s.topics.GetByID(ctx, topicID); err != nil {
		return false, s.fail(ctx, "toggle_bookmark", fmt.Errorf("get topic: %w", err), attrs...)
	}
	if err := s.profiles.ArrayAdd(ctx, userID, profile.Bookmarks, topicID); err != nil {
		return false, s.fail(ctx, "toggle_bookmark", fmt.Errorf("add bookmark: %w", err), attrs...)
	}
	s.log.InfoContext(ctx, "bookmark added", slog.String("user_id", userID), slog.String("topic_id", topicID))
	return true, nil
}
