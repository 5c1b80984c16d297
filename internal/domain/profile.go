package domain

import (
	"slices"
	"strings"
)

// DefaultBackgroundColor is assigned to newly created profiles.
const DefaultBackgroundColor = "#f8f8f8"

// defaultDisplayName is used when the identity carries neither a name nor an e-mail.
const defaultDisplayName = "User"

// UserProfile is the per-user document. Its ID equals the authenticated user ID.
type UserProfile struct {
	ID               string
	DisplayName      string
	Email            string
	Bio              string
	ProfilePic       string
	BannerImage      string
	BackgroundColor  string
	BookmarkedTopics []string

	// LegacyArchivedTopics holds archive markers written by older clients
	// that kept archive state on the profile. It is never used to partition
	// topics and is cleaned up when one of the referenced topics is deleted.
	LegacyArchivedTopics []string
}

// HasBookmark reports whether topicID is in the bookmark set.
func (p UserProfile) HasBookmark(topicID string) bool {
	return slices.Contains(p.BookmarkedTopics, topicID)
}

// NewProfile builds the profile created on first authentication.
func NewProfile(id Identity) UserProfile {
	return UserProfile{
		ID:               id.UserID,
		DisplayName:      defaultDisplayNameFor(id),
		Email:            id.Email,
		ProfilePic:       id.PictureURL,
		BackgroundColor:  DefaultBackgroundColor,
		BookmarkedTopics: []string{},
	}
}

func defaultDisplayNameFor(id Identity) string {
	if name := strings.TrimSpace(id.Name); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(id.Email, "@"); local != "" {
		return local
	}
	return defaultDisplayName
}

// ProfileUpdate is a partial change to the display attributes of a profile.
type ProfileUpdate struct {
	DisplayName     *string
	Bio             *string
	ProfilePic      *string
	BannerImage     *string
	BackgroundColor *string
}

// IsEmpty reports whether the update changes nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.DisplayName == nil && u.Bio == nil && u.ProfilePic == nil &&
		u.BannerImage == nil && u.BackgroundColor == nil
}

// PublicProfile is what other users see of a profile.
// Topics holds only non-archived topics.
type PublicProfile struct {
	Profile      UserProfile
	Topics       []Topic
	Bookmarks    []BookmarkedTopic
	Notes        []Note
	IsOwnProfile bool
}
