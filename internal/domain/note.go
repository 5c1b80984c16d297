package domain

import (
	"slices"
	"time"
	"unicode/utf8"
)

// MaxNoteLength is the maximum length of notes and replies, in characters.
const MaxNoteLength = 280

// Note is a short post that may belong to several topics.
type Note struct {
	ID        string
	Content   string
	AuthorID  string
	TopicIDs  []string
	Likes     []string
	Replies   []Reply
	CreatedAt time.Time
}

// Reply is a comment attached to a note.
type Reply struct {
	Content   string
	UserID    string
	CreatedAt time.Time
}

// LikedBy reports whether userID has liked the note.
func (n Note) LikedBy(userID string) bool {
	return slices.Contains(n.Likes, userID)
}

// InTopic reports whether the note is filed under topicID.
func (n Note) InTopic(topicID string) bool {
	return slices.Contains(n.TopicIDs, topicID)
}

// ValidateNoteText checks a trimmed note or reply body.
func ValidateNoteText(field, text string) *FieldError {
	if text == "" {
		return &FieldError{Field: field, Message: "required"}
	}
	if utf8.RuneCountInString(text) > MaxNoteLength {
		return &FieldError{Field: field, Message: "must be at most 280 characters"}
	}
	return nil
}
