package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/comment"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/note"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/profile"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/topic"
	"github.com/heartmarshall/interestingtome-backend/internal/auth"
	"github.com/heartmarshall/interestingtome-backend/internal/config"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore/memory"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/internal/service/discussion"
	"github.com/heartmarshall/interestingtome-backend/internal/service/notes"
	profilesvc "github.com/heartmarshall/interestingtome-backend/internal/service/profile"
	"github.com/heartmarshall/interestingtome-backend/internal/service/topics"
)

// apiServer is the full HTTP API over a memory store.
type apiServer struct {
	srv *httptest.Server
	jwt *auth.JWTManager
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.New(memory.WithLogger(log))
	topicRepo := topic.New(store)
	profileRepo := profile.New(store)
	noteRepo := note.New(store)
	commentRepo := comment.New(store)

	hub := topics.NewHub(log, topicRepo, profileRepo, noteRepo, commentRepo, time.Minute)
	resolver := topics.NewBookmarkResolver(log, topicRepo, profileRepo, topics.DefaultLoaderWait)
	notesService := notes.NewService(log, noteRepo, topicRepo)
	profileService := profilesvc.NewService(log, profileRepo, topicRepo, noteRepo, resolver)
	discussionService := discussion.NewService(log, topicRepo, noteRepo, commentRepo, profileRepo, discussion.DefaultAuthorWait)

	jwt := auth.NewJWTManager(config.AuthConfig{
		JWTSecret: "test-secret-that-is-at-least-32-characters",
		JWTIssuer: "test",
	})

	router := NewRouter(RouterDeps{
		Log:       log,
		CORS:      config.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET,POST", AllowedHeaders: "Authorization"},
		Validator: jwt,
		Health:     NewHealthHandler(store, config.DriverMemory, hub, "test"),
		Topics:     NewTopicsHandler(hub, notesService, 0, log),
		Notes:      NewNotesHandler(notesService, log),
		Profile:    NewProfileHandler(profileService, hub, log),
		Discussion: NewDiscussionHandler(discussionService, log),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
		_ = store.Close()
	})
	return &apiServer{srv: srv, jwt: jwt}
}

func (a *apiServer) token(t *testing.T, userID, name string) string {
	t.Helper()
	tok, err := a.jwt.Sign(domain.Identity{UserID: userID, Name: name}, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a request and decodes a JSON response into out when out is non-nil.
func (a *apiServer) do(t *testing.T, token, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, r)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *apiServer) view(t *testing.T, token string) viewResponse {
	t.Helper()
	var v viewResponse
	require.Equal(t, http.StatusOK, a.do(t, token, http.MethodGet, "/api/topics", nil, &v))
	return v
}

func TestAPI_RequiresIdentity(t *testing.T) {
	t.Parallel()
	a := newAPIServer(t)

	assert.Equal(t, http.StatusUnauthorized, a.do(t, "", http.MethodGet, "/api/topics", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, a.do(t, "garbage", http.MethodGet, "/api/topics", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, a.do(t, "", http.MethodPost, "/api/topics", createTopicRequest{Name: "x"}, nil))
	assert.Equal(t, http.StatusOK, a.do(t, "", http.MethodGet, "/live", nil, nil))
}

func TestAPI_TopicLifecycle(t *testing.T) {
	t.Parallel()
	a := newAPIServer(t)
	tok := a.token(t, "u1", "Ada")

	var created topicResponse
	require.Equal(t, http.StatusCreated,
		a.do(t, tok, http.MethodPost, "/api/topics", createTopicRequest{Name: "  Reading List "}, &created))
	assert.Equal(t, "Reading List", created.Name)
	assert.Equal(t, "u1", created.OwnerID)
	assert.False(t, created.Archived)

	require.Eventually(t, func() bool {
		v := a.view(t, tok)
		return len(v.ActiveTopics) == 1 && v.ActiveTopics[0].ID == created.ID
	}, 2*time.Second, 10*time.Millisecond)

	var arch archiveResponse
	require.Equal(t, http.StatusOK, a.do(t, tok, http.MethodPost, "/api/topics/"+created.ID+"/archive", nil, &arch))
	assert.True(t, arch.Archived)

	require.Eventually(t, func() bool {
		v := a.view(t, tok)
		return len(v.ActiveTopics) == 0 && len(v.ArchivedTopics) == 1
	}, 2*time.Second, 10*time.Millisecond)

	name := "Papers"
	require.Equal(t, http.StatusNoContent,
		a.do(t, tok, http.MethodPatch, "/api/topics/"+created.ID, updateTopicRequest{Name: &name}, nil))

	require.Eventually(t, func() bool {
		v := a.view(t, tok)
		return len(v.ArchivedTopics) == 1 && v.ArchivedTopics[0].Name == "Papers"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAPI_BlankTopicNameIsRejected(t *testing.T) {
	t.Parallel()
	a := newAPIServer(t)
	tok := a.token(t, "u1", "Ada")

	assert.Equal(t, http.StatusBadRequest,
		a.do(t, tok, http.MethodPost, "/api/topics", createTopicRequest{Name: "   "}, nil))
	assert.Equal(t, http.StatusBadRequest,
		a.do(t, tok, http.MethodPatch, "/api/topics/any", updateTopicRequest{}, nil))
}

func TestAPI_BookmarkOtherUsersTopic(t *testing.T) {
	t.Parallel()
	a := newAPIServer(t)
	tokA := a.token(t, "user-a", "A")
	tokB := a.token(t, "user-b", "B")

	var ml topicResponse
	require.Equal(t, http.StatusCreated,
		a.do(t, tokB, http.MethodPost, "/api/topics", createTopicRequest{Name: "ML Papers"}, &ml))

	var bm bookmarkResponse
	require.Equal(t, http.StatusOK, a.do(t, tokA, http.MethodPost, "/api/topics/"+ml.ID+"/bookmark", nil, &bm))
	assert.True(t, bm.Bookmarked)

	var v viewResponse
	require.Eventually(t, func() bool {
		v = a.view(t, tokA)
		return len(v.BookmarkedTopics) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, ml.ID, v.BookmarkedTopics[0].ID)
	assert.Equal(t, "ML Papers", v.BookmarkedTopics[0].Name)
	assert.Equal(t, "B", v.BookmarkedTopics[0].OwnerName)
	assert.Empty(t, v.ActiveTopics, "bookmarks are not owned topics")

	require.Equal(t, http.StatusOK, a.do(t, tokA, http.MethodPost, "/api/topics/"+ml.ID+"/bookmark", nil, &bm))
	assert.False(t, bm.Bookmarked)

	require.Eventually(t, func() bool {
		return len(a.view(t, tokA).BookmarkedTopics) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAPI_OnlyOwnerMayDeleteOrArchive(t *testing.T) {
	t.Parallel()
	a := newAPIServer(t)
	tokA := a.token(t, "user-a", "A")
	tokB := a.token(t, "user-b", "B")

	var tp topicResponse
	require.Equal(t, http.StatusCreated,
		a.do(t, tokB, http.MethodPost, "/api/topics", createTopicRequest{Name: "Mine"}, &tp))

	assert.Equal(t, http.StatusForbidden, a.do(t, tokA, http.MethodDelete, "/api/topics/"+tp.ID, nil, nil))
	assert.Equal(t, http.StatusForbidden, a.do(t, tokA, http.MethodPost, "/api/topics/"+tp.ID+"/archive", nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(t, tokA, http.MethodPost, "/api/topics/missing/archive", nil, nil))
}

func TestAPI_DeleteTopicCascadesToNotes(t *testing.T) {
	t.Parallel()
	a := newAPIServer(t)
	tok := a.token(t, "u1", "Ada")

	var tp topicResponse
	require.Equal(t, http.StatusCreated,
		a.do(t, tok, http.MethodPost, "/api/topics", createTopicRequest{Name: "Go"}, &tp))

	for _, content := range []string{"first", "second"} {
		require.Equal(t, http.StatusCreated, a.do(t, tok, http.MethodPost, "/api/notes",
			createNoteRequest{Content: content, TopicIDs: []string{tp.ID}}, nil))
	}

	var filed []noteResponse
	require.Equal(t, http.StatusOK, a.do(t, tok, http.MethodGet, "/api/topics/"+tp.ID+"/notes", nil, &filed))
	assert.Len(t, filed, 2)

	require.Equal(t, http.StatusNoContent, a.do(t, tok, http.MethodDelete, "/api/topics/"+tp.ID, nil, nil))

	assert.Equal(t, http.StatusNotFound, a.do(t, tok, http.MethodGet, "/api/topics/"+tp.ID+"/notes", nil, nil))

	var mine []noteResponse
	require.Equal(t, http.StatusOK, a.do(t, tok, http.MethodGet, "/api/notes", nil, &mine))
	assert.Empty(t, mine)
}

func TestAPI_TopicPage(t *testing.T) {
	t.Parallel()
	a := newAPIServer(t)
	owner := a.token(t, "owner", "Olive")
	fan := a.token(t, "fan", "Fay")

	// Profiles are created on first use.
	require.Equal(t, http.StatusOK, a.do(t, owner, http.MethodGet, "/api/me", nil, nil))
	require.Equal(t, http.StatusOK, a.do(t, fan, http.MethodGet, "/api/me", nil, nil))

	var tp topicResponse
	require.Equal(t, http.StatusCreated,
		a.do(t, owner, http.MethodPost, "/api/topics", createTopicRequest{Name: "Go"}, &tp))
	var n noteResponse
	require.Equal(t, http.StatusCreated, a.do(t, owner, http.MethodPost, "/api/notes",
		createNoteRequest{Content: "read this first", TopicIDs: []string{tp.ID}}, &n))

	assert.Equal(t, http.StatusForbidden,
		a.do(t, fan, http.MethodPost, "/api/topics/"+tp.ID+"/pins/"+n.ID, nil, nil))
	require.Equal(t, http.StatusNoContent,
		a.do(t, owner, http.MethodPost, "/api/topics/"+tp.ID+"/pins/"+n.ID, nil, nil))

	var c commentResponse
	require.Equal(t, http.StatusCreated,
		a.do(t, fan, http.MethodPost, "/api/topics/"+tp.ID+"/comments", commentRequest{Content: "love it"}, &c))
	assert.Equal(t, "Fay", c.AuthorName)
	assert.Equal(t, http.StatusBadRequest,
		a.do(t, fan, http.MethodPost, "/api/topics/"+tp.ID+"/comments", commentRequest{Content: " "}, nil))
	assert.Equal(t, http.StatusUnauthorized,
		a.do(t, "", http.MethodPost, "/api/topics/"+tp.ID+"/comments", commentRequest{Content: "hi"}, nil))

	require.Equal(t, http.StatusOK, a.do(t, fan, http.MethodPost, "/api/topics/"+tp.ID+"/bookmark", nil, nil))

	var count bookmarkCountResponse
	require.Equal(t, http.StatusOK, a.do(t, "", http.MethodGet, "/api/topics/"+tp.ID+"/bookmarks/count", nil, &count))
	assert.Equal(t, 1, count.Count)

	var page topicPageResponse
	require.Equal(t, http.StatusOK, a.do(t, fan, http.MethodGet, "/api/topics/"+tp.ID, nil, &page))
	assert.Equal(t, "Go", page.Topic.Name)
	assert.Equal(t, "Olive", page.OwnerName)
	assert.False(t, page.IsOwner)
	assert.True(t, page.Bookmarked)
	assert.Equal(t, 1, page.BookmarkCount)
	require.Len(t, page.PinnedNotes, 1)
	assert.Equal(t, n.ID, page.PinnedNotes[0].ID)
	assert.Equal(t, "Olive", page.PinnedNotes[0].AuthorName)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, "love it", page.Comments[0].Content)

	require.Equal(t, http.StatusNoContent,
		a.do(t, owner, http.MethodDelete, "/api/topics/"+tp.ID+"/pins/"+n.ID, nil, nil))
	require.Equal(t, http.StatusOK, a.do(t, owner, http.MethodGet, "/api/topics/"+tp.ID, nil, &page))
	assert.True(t, page.IsOwner)
	assert.Empty(t, page.PinnedNotes)

	assert.Equal(t, http.StatusNotFound, a.do(t, "", http.MethodGet, "/api/topics/missing", nil, nil))
}

func TestAPI_DeleteTopicCascadesToComments(t *testing.T) {
	t.Parallel()
	a := newAPIServer(t)
	owner := a.token(t, "owner", "Olive")
	fan := a.token(t, "fan", "Fay")

	var tp topicResponse
	require.Equal(t, http.StatusCreated,
		a.do(t, owner, http.MethodPost, "/api/topics", createTopicRequest{Name: "Go"}, &tp))
	var c commentResponse
	require.Equal(t, http.StatusCreated,
		a.do(t, fan, http.MethodPost, "/api/topics/"+tp.ID+"/comments", commentRequest{Content: "hi"}, &c))

	require.Equal(t, http.StatusNoContent, a.do(t, owner, http.MethodDelete, "/api/topics/"+tp.ID, nil, nil))

	assert.Equal(t, http.StatusNotFound, a.do(t, "", http.MethodGet, "/api/topics/"+tp.ID+"/comments", nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(t, fan, http.MethodDelete, "/api/comments/"+c.ID, nil, nil),
		"the comment went with its topic")
}

func TestAPI_ProfileCreatedOnFirstUse(t *testing.T) {
	t.Parallel()
	a := newAPIServer(t)
	tok := a.token(t, "u1", "Ada")

	var me profileResponse
	require.Equal(t, http.StatusOK, a.do(t, tok, http.MethodGet, "/api/me", nil, &me))
	assert.Equal(t, "u1", me.ID)
	assert.Equal(t, "Ada", me.DisplayName)
	assert.Equal(t, domain.DefaultBackgroundColor, me.BackgroundColor)

	bio := "reads a lot"
	require.Equal(t, http.StatusOK,
		a.do(t, tok, http.MethodPatch, "/api/me", updateProfileRequest{Bio: &bio}, &me))
	assert.Equal(t, bio, me.Bio)

	var pub publicProfileResponse
	require.Equal(t, http.StatusOK, a.do(t, "", http.MethodGet, "/api/users/Ada", nil, &pub))
	assert.Equal(t, "u1", pub.Profile.ID)
	assert.False(t, pub.IsOwnProfile)

	assert.Equal(t, http.StatusNotFound, a.do(t, "", http.MethodGet, "/api/users/nobody", nil, nil))
}
