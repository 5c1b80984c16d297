package discussion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// ListComments returns the comments on a topic, oldest first, with their
// authors' current names.
func (s *Service) ListComments(ctx context.Context, topicID string) ([]domain.AuthoredComment, error) {
	if err := requireID("topic_id", topicID); err != nil {
		return nil, err
	}
	if _, err := s.topics.GetByID(ctx, topicID); err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}

	comments, err := s.comments.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.AuthorID
	}
	return withAuthors(comments, s.loadAuthors(ctx, ids)), nil
}

// AddComment posts a comment on a topic as the caller. Any signed-in user
// may comment, including on archived topics.
func (s *Service) AddComment(ctx context.Context, topicID, content string) (*domain.AuthoredComment, error) {
	identity, ok := ctxutil.IdentityFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if err := requireID("topic_id", topicID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if fe := domain.ValidateCommentText(content); fe != nil {
		return nil, domain.NewValidationErrors([]domain.FieldError{*fe})
	}

	if _, err := s.topics.GetByID(ctx, topicID); err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}

	c, err := s.comments.Create(ctx, domain.Comment{
		TopicID:   topicID,
		AuthorID:  identity.UserID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	a := lookup(s.loadAuthors(ctx, []string{identity.UserID}), identity.UserID)
	if a == unknownAuthor && identity.Name != "" {
		a.Name = identity.Name
	}

	s.log.InfoContext(ctx, "comment added",
		slog.String("user_id", identity.UserID),
		slog.String("topic_id", topicID),
		slog.String("comment_id", c.ID),
	)
	return &domain.AuthoredComment{Comment: *c, AuthorName: a.Name, AuthorPic: a.Pic}, nil
}

// DeleteComment removes a comment. Its author and the topic owner may
// delete it; once the topic is gone only the author can.
func (s *Service) DeleteComment(ctx context.Context, commentID string) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if err := requireID("comment_id", commentID); err != nil {
		return err
	}

	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}
	if c.AuthorID != userID {
		t, err := s.topics.GetByID(ctx, c.TopicID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get topic: %w", err)
		}
		if t == nil || !t.IsOwnedBy(userID) {
			return domain.ErrForbidden
		}
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	s.log.InfoContext(ctx, "comment deleted",
		slog.String("user_id", userID),
		slog.String("topic_id", c.TopicID),
		slog.String("comment_id", commentID),
	)
	return nil
}

func withAuthors(comments []domain.Comment, authors map[string]author) []domain.AuthoredComment {
	out := make([]domain.AuthoredComment, len(comments))
	for i, c := range comments {
		a := lookup(authors, c.AuthorID)
		out[i] = domain.AuthoredComment{Comment: c, AuthorName: a.Name, AuthorPic: a.Pic}
	}
	return out
}
