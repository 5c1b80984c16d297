package topics

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// normalizeName trims a topic name and checks its length.
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("name", "required")
	}
	if utf8.RuneCountInString(name) > domain.MaxTopicNameLength {
		return "", domain.NewValidationError("name", "must be at most 100 characters")
	}
	return name, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidationError("topic_id", "required")
	}
	return nil
}

// isCallerError reports errors caused by the request rather than the store.
func isCallerError(err error) bool {
	return errors.Is(err, domain.ErrNotReady) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrNotFound)
}
