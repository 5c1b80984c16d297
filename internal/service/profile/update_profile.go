package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// Update edits the authenticated user's display attributes and returns the
// stored profile. Display names are unique because they address public
// profile pages.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*domain.UserProfile, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	upd := input.toUpdate()

	if upd.DisplayName != nil {
		other, err := s.profiles.GetByDisplayName(ctx, *upd.DisplayName)
		switch {
		case err == nil && other.ID != userID:
			return nil, domain.NewValidationError("display_name", "already taken")
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("check display name: %w", err)
		}
	}

	if err := s.profiles.Update(ctx, userID, upd); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	s.log.InfoContext(ctx, "profile updated", slog.String("user_id", userID))
	return p, nil
}
