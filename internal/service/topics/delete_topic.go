package topics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/profile"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// DeleteTopic deletes a topic owned by the session user. Notes filed under
// the topic and comments on it are deleted first, then the topic, then
// references to it in bookmark sets. Without cross-document transactions
// this order can at worst leave a topic without its notes or comments,
// never those without their topic.
func (s *Synchronizer) DeleteTopic(ctx context.Context, topicID string) error {
	userID, prof, err := s.currentUser()
	if err != nil {
		return s.fail(ctx, "delete_topic", err)
	}
	if err := requireID(topicID); err != nil {
		return s.fail(ctx, "delete_topic", err)
	}
	attrs := []slog.Attr{slog.String("user_id", userID), slog.String("topic_id", topicID)}

	t, err := s.topics.GetByID(ctx, topicID)
	if err != nil {
		return s.fail(ctx, "delete_topic", fmt.Errorf("get topic: %w", err), attrs...)
	}
	if !t.IsOwnedBy(userID) {
		return s.fail(ctx, "delete_topic", domain.ErrForbidden, attrs...)
	}

	notes, err := s.notes.DeleteByTopic(ctx, topicID)
	if err != nil {
		return s.fail(ctx, "delete_topic", fmt.Errorf("delete notes: %w", err), attrs...)
	}

	comments, err := s.comments.DeleteByTopic(ctx, topicID)
	if err != nil {
		return s.fail(ctx, "delete_topic", fmt.Errorf("delete comments: %w", err), attrs...)
	}

	if err := s.topics.Delete(ctx, topicID); err != nil {
		return s.fail(ctx, "delete_topic", fmt.Errorf("delete topic: %w", err), attrs...)
	}

	// The topic is gone; cleanup below is best effort. Readers skip
	// dangling bookmark IDs.
	s.cleanupOwnerRefs(ctx, userID, prof, topicID)
	others := s.cleanupBookmarks(ctx, userID, topicID)

	s.log.InfoContext(ctx, "topic deleted",
		slog.String("user_id", userID),
		slog.String("topic_id", topicID),
		slog.String("name", t.Name),
		slog.Int("notes_deleted", notes),
		slog.Int("comments_deleted", comments),
		slog.Int("bookmarks_removed", others),
	)
	return nil
}

func (s *Synchronizer) cleanupOwnerRefs(ctx context.Context, userID string, prof *domain.UserProfile, topicID string) {
	if err := s.profiles.ArrayRemove(ctx, userID, profile.Bookmarks, topicID); err != nil {
		s.log.WarnContext(ctx, "remove own bookmark",
			slog.String("user_id", userID),
			slog.String("topic_id", topicID),
			slog.String("error", err.Error()),
		)
	}

	if prof == nil {
		return
	}
	for _, id := range prof.LegacyArchivedTopics {
		if id != topicID {
			continue
		}
		if err := s.profiles.ArrayRemove(ctx, userID, profile.LegacyArchived, topicID); err != nil {
			s.log.WarnContext(ctx, "remove legacy archive marker",
				slog.String("user_id", userID),
				slog.String("topic_id", topicID),
				slog.String("error", err.Error()),
			)
		}
		return
	}
}

// cleanupBookmarks removes topicID from other users' bookmark sets and
// returns how many were updated.
func (s *Synchronizer) cleanupBookmarks(ctx context.Context, userID, topicID string) int {
	holders, err := s.profiles.ListByBookmark(ctx, topicID)
	if err != nil {
		s.log.WarnContext(ctx, "find bookmark holders",
			slog.String("topic_id", topicID),
			slog.String("error", err.Error()),
		)
		return 0
	}

	removed := 0
	for _, p := range holders {
		if p.ID == userID {
			continue
		}
		if err := s.profiles.ArrayRemove(ctx, p.ID, profile.Bookmarks, topicID); err != nil {
			s.log.WarnContext(ctx, "remove bookmark",
				slog.String("user_id", p.ID),
				slog.String("topic_id", topicID),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
	}
	return removed
}
