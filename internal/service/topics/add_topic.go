package topics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// AddTopic creates an active topic owned by the session user. The name is
// trimmed and must not be blank.
func (s *Synchronizer) AddTopic(ctx context.Context, name string) (*domain.Topic, error) {
	userID, _, err := s.currentUser()
	if err != nil {
		return nil, s.fail(ctx, "add_topic", err)
	}

	name, err = normalizeName(name)
	if err != nil {
		return nil, s.fail(ctx, "add_topic", err, slog.String("user_id", userID))
	}

	now := s.now().UTC()
	created, err := s.topics.Create(ctx, domain.Topic{
		Name:      name,
		OwnerID:   userID,
		Archived:  false,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, s.fail(ctx, "add_topic", fmt.Errorf("create topic: %w", err), slog.String("user_id", userID))
	}

	s.log.InfoContext(ctx, "topic created",
		slog.String("user_id", userID),
		slog.String("topic_id", created.ID),
		slog.String("name", created.Name),
	)
	return created, nil
}
