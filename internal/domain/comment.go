package domain

import (
	"time"
	"unicode/utf8"
)

// MaxCommentLength is the maximum length of a topic comment, in characters.
const MaxCommentLength = 1000

// Comment is a message left on a topic page. Unlike notes, comments
// belong to exactly one topic and go away with it.
type Comment struct {
	ID        string
	TopicID   string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// AuthoredComment is a comment joined with its author's current profile.
// It is derived on read and never persisted.
type AuthoredComment struct {
	Comment
	AuthorName string
	AuthorPic  string
}

// ValidateCommentText checks a trimmed comment body.
func ValidateCommentText(text string) *FieldError {
	if text == "" {
		return &FieldError{Field: "content", Message: "required"}
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return &FieldError{Field: "content", Message: "must be at most 1000 characters"}
	}
	return nil
}
