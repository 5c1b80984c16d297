package rest

import (
	"time"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/internal/service/discussion"
	"github.com/heartmarshall/interestingtome-backend/internal/service/topics"
)

type topicResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	OwnerID       string    `json:"ownerId"`
	Archived      bool      `json:"archived"`
	Content       string    `json:"content"`
	PinnedNoteIDs []string  `json:"pinnedNoteIds"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type bookmarkedTopicResponse struct {
	topicResponse
	OwnerName string `json:"ownerName"`
}

type viewResponse struct {
	ActiveTopics     []topicResponse           `json:"activeTopics"`
	ArchivedTopics   []topicResponse           `json:"archivedTopics"`
	BookmarkedTopics []bookmarkedTopicResponse `json:"bookmarkedTopics"`
	Loading          bool                      `json:"loading"`
	Error            string                    `json:"error,omitempty"`
}

type replyResponse struct {
	Content   string    `json:"content"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type noteResponse struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	AuthorID  string          `json:"authorId"`
	TopicIDs  []string        `json:"topicIds"`
	LikeCount int             `json:"likeCount"`
	LikedByMe bool            `json:"likedByMe"`
	Replies   []replyResponse `json:"replies"`
	CreatedAt time.Time       `json:"createdAt"`
}

type commentResponse struct {
	ID         string    `json:"id"`
	TopicID    string    `json:"topicId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	AuthorPic  string    `json:"authorPic,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type pinnedNoteResponse struct {
	noteResponse
	AuthorName string `json:"authorName"`
}

type topicPageResponse struct {
	Topic         topicResponse        `json:"topic"`
	OwnerName     string               `json:"ownerName"`
	IsOwner       bool                 `json:"isOwner"`
	Bookmarked    bool                 `json:"bookmarked"`
	BookmarkCount int                  `json:"bookmarkCount"`
	PinnedNotes   []pinnedNoteResponse `json:"pinnedNotes"`
	Comments      []commentResponse    `json:"comments"`
}

type profileResponse struct {
	ID               string   `json:"id"`
	DisplayName      string   `json:"displayName"`
	Email            string   `json:"email,omitempty"`
	Bio              string   `json:"bio"`
	ProfilePic       string   `json:"profilePic"`
	BannerImage      string   `json:"bannerImage"`
	BackgroundColor  string   `json:"backgroundColor"`
	BookmarkedTopics []string `json:"bookmarkedTopics,omitempty"`
}

type publicProfileResponse struct {
	Profile      profileResponse           `json:"profile"`
	Topics       []topicResponse           `json:"topics"`
	Bookmarks    []bookmarkedTopicResponse `json:"bookmarks"`
	Notes        []noteResponse            `json:"notes"`
	IsOwnProfile bool                      `json:"isOwnProfile"`
}

func toTopicResponse(t domain.Topic) topicResponse {
	pinned := t.PinnedNoteIDs
	if pinned == nil {
		pinned = []string{}
	}
	return topicResponse{
		ID:            t.ID,
		Name:          t.DisplayName(),
		OwnerID:       t.OwnerID,
		Archived:      t.Archived,
		Content:       t.Content,
		PinnedNoteIDs: pinned,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func toTopicResponses(ts []domain.Topic) []topicResponse {
	out := make([]topicResponse, len(ts))
	for i, t := range ts {
		out[i] = toTopicResponse(t)
	}
	return out
}

func toBookmarkResponses(bs []domain.BookmarkedTopic) []bookmarkedTopicResponse {
	out := make([]bookmarkedTopicResponse, len(bs))
	for i, b := range bs {
		out[i] = bookmarkedTopicResponse{topicResponse: toTopicResponse(b.Topic), OwnerName: b.OwnerName}
	}
	return out
}

func toViewResponse(v topics.View) viewResponse {
	resp := viewResponse{
		ActiveTopics:     toTopicResponses(v.ActiveTopics),
		ArchivedTopics:   toTopicResponses(v.ArchivedTopics),
		BookmarkedTopics: toBookmarkResponses(v.BookmarkedTopics),
		Loading:          v.Loading,
	}
	if v.Err != nil {
		resp.Error = v.Err.Error()
	}
	return resp
}

// toNoteResponse reports likes as a count; viewerID decides LikedByMe.
func toNoteResponse(n domain.Note, viewerID string) noteResponse {
	replies := make([]replyResponse, len(n.Replies))
	for i, r := range n.Replies {
		replies[i] = replyResponse{Content: r.Content, UserID: r.UserID, CreatedAt: r.CreatedAt}
	}
	topicIDs := n.TopicIDs
	if topicIDs == nil {
		topicIDs = []string{}
	}
	return noteResponse{
		ID:        n.ID,
		Content:   n.Content,
		AuthorID:  n.AuthorID,
		TopicIDs:  topicIDs,
		LikeCount: len(n.Likes),
		LikedByMe: viewerID != "" && n.LikedBy(viewerID),
		Replies:   replies,
		CreatedAt: n.CreatedAt,
	}
}

func toNoteResponses(ns []domain.Note, viewerID string) []noteResponse {
	out := make([]noteResponse, len(ns))
	for i, n := range ns {
		out[i] = toNoteResponse(n, viewerID)
	}
	return out
}

// toProfileResponse includes the private fields only for the owner.
func toProfileResponse(p domain.UserProfile, private bool) profileResponse {
	resp := profileResponse{
		ID:              p.ID,
		DisplayName:     p.DisplayName,
		Bio:             p.Bio,
		ProfilePic:      p.ProfilePic,
		BannerImage:     p.BannerImage,
		BackgroundColor: p.BackgroundColor,
	}
	if private {
		resp.Email = p.Email
		resp.BookmarkedTopics = p.BookmarkedTopics
	}
	return resp
}

func toPublicProfileResponse(p domain.PublicProfile, viewerID string) publicProfileResponse {
	return publicProfileResponse{
		Profile:      toProfileResponse(p.Profile, false),
		Topics:       toTopicResponses(p.Topics),
		Bookmarks:    toBookmarkResponses(p.Bookmarks),
		Notes:        toNoteResponses(p.Notes, viewerID),
		IsOwnProfile: p.IsOwnProfile,
	}
}

func toCommentResponse(c domain.AuthoredComment) commentResponse {
	return commentResponse{
		ID:         c.ID,
		TopicID:    c.TopicID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		AuthorPic:  c.AuthorPic,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

func toCommentResponses(cs []domain.AuthoredComment) []commentResponse {
	out := make([]commentResponse, len(cs))
	for i, c := range cs {
		out[i] = toCommentResponse(c)
	}
	return out
}

func toTopicPageResponse(p discussion.Page, viewerID string) topicPageResponse {
	pinned := make([]pinnedNoteResponse, len(p.PinnedNotes))
	for i, n := range p.PinnedNotes {
		pinned[i] = pinnedNoteResponse{noteResponse: toNoteResponse(n.Note, viewerID), AuthorName: n.AuthorName}
	}
	return topicPageResponse{
		Topic:         toTopicResponse(p.Topic),
		OwnerName:     p.OwnerName,
		IsOwner:       p.IsOwner,
		Bookmarked:    p.Bookmarked,
		BookmarkCount: p.BookmarkCount,
		PinnedNotes:   pinned,
		Comments:      toCommentResponses(p.Comments),
	}
}
