package notes

import (
	"strings"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// CreateNoteInput holds the parameters for posting a note.
type CreateNoteInput struct {
	Content  string
	TopicIDs []string
}

// Validate checks all fields and collects all errors.
func (i CreateNoteInput) Validate() error {
	var errs []domain.FieldError

	if fe := domain.ValidateNoteText("content", strings.TrimSpace(i.Content)); fe != nil {
		errs = append(errs, *fe)
	}
	if len(i.TopicIDs) > MaxTopicsPerNote {
		errs = append(errs, domain.FieldError{Field: "topic_ids", Message: "too many topics (max 20)"})
	}
	for _, id := range i.TopicIDs {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, domain.FieldError{Field: "topic_ids", Message: "must not contain empty ids"})
			break
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ReplyInput holds the parameters for replying to a note.
type ReplyInput struct {
	NoteID  string
	Content string
}

// Validate checks all fields and collects all errors.
func (i ReplyInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.NoteID) == "" {
		errs = append(errs, domain.FieldError{Field: "note_id", Message: "required"})
	}
	if fe := domain.ValidateNoteText("content", strings.TrimSpace(i.Content)); fe != nil {
		errs = append(errs, *fe)
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidationError(field, "required")
	}
	return nil
}

// uniqueIDs drops duplicates and keeps first occurrences in order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
