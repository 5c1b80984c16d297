package domain

import (
	"slices"
	"strings"
	"time"
)

// MaxTopicNameLength bounds topic names in runes.
const MaxTopicNameLength = 100

// UnknownOwnerName is shown for bookmarked topics whose owner profile is gone.
const UnknownOwnerName = "Unknown"

// minUpdatedAtStep is the smallest step between two successive updatedAt values.
const minUpdatedAtStep = time.Microsecond

// Topic is a named collection of notes owned by a single user.
type Topic struct {
	ID        string
	Name      string
	OwnerID   string
	Archived  bool
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time

	// PinnedNoteIDs lists notes the owner pinned to the top of the topic
	// page, in pin order. IDs of deleted notes may linger.
	PinnedNoteIDs []string
}

// DisplayName returns the topic name, or a stable placeholder derived from
// the ID when the stored name is empty.
func (t Topic) DisplayName() string {
	if strings.TrimSpace(t.Name) != "" {
		return t.Name
	}
	return DefaultTopicName(t.ID)
}

// IsOwnedBy reports whether userID created the topic.
func (t Topic) IsOwnedBy(userID string) bool {
	return userID != "" && t.OwnerID == userID
}

// IsPinned reports whether noteID is pinned to the topic.
func (t Topic) IsPinned(noteID string) bool {
	return slices.Contains(t.PinnedNoteIDs, noteID)
}

// DefaultTopicName is the placeholder used for topics stored without a name.
func DefaultTopicName(id string) string {
	short := id
	if len(short) > 5 {
		short = short[:5]
	}
	return "Topic " + short
}

// TopicUpdate is a partial change to a topic. Nil fields are left untouched.
// UpdatedAt is always written.
type TopicUpdate struct {
	Name      *string
	Content   *string
	Archived  *bool
	UpdatedAt time.Time
}

// NextUpdatedAt returns a modification timestamp strictly after prev.
// Clock skew or coarse clocks never make updatedAt go backwards or repeat.
func NextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(minUpdatedAtStep)
}

// BookmarkedTopic is a bookmarked topic joined with its owner's current
// display name. It is derived on read and never persisted.
type BookmarkedTopic struct {
	Topic
	OwnerName string
}

// PartitionTopics splits owned topics into active and archived, keeping
// the input order within each group.
func PartitionTopics(topics []Topic) (active, archived []Topic) {
	active = make([]Topic, 0, len(topics))
	archived = make([]Topic, 0)
	for _, t := range topics {
		if t.Archived {
			archived = append(archived, t)
		} else {
			active = append(active, t)
		}
	}
	return active, archived
}
