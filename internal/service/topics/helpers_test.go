package topics

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/comment"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/note"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/profile"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/topic"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore/docstoretest"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore/memory"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/internal/service/session"
)

const waitFor = 2 * time.Second

var t0 = time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

// fixture wires a Synchronizer to real repositories over a memory store.
// The store is wrapped so tests can inject failures and inspect calls.
type fixture struct {
	mem      *memory.Store
	store    *docstoretest.Store
	topics   *topic.Repo
	profiles *profile.Repo
	notes    *note.Repo
	comments *comment.Repo
	provider *session.Provider
	sync     *Synchronizer
}

func newFixture(t *testing.T, memOpts []memory.Option, opts ...Option) *fixture {
	t.Helper()
	mem := memory.New(memOpts...)
	store := &docstoretest.Store{Base: mem}
	f := &fixture{
		mem:      mem,
		store:    store,
		topics:   topic.New(store),
		profiles: profile.New(store),
		notes:    note.New(store),
		comments: comment.New(store),
	}
	f.provider = session.NewProvider(slog.Default(), f.profiles)
	f.sync = New(slog.Default(), f.topics, f.profiles, f.notes, f.comments, opts...)
	f.sync.Attach(f.provider)
	t.Cleanup(func() {
		f.sync.Close()
		f.provider.Close()
		_ = mem.Close()
	})
	return f
}

// signIn authenticates userID and waits for the first complete view.
func (f *fixture) signIn(t *testing.T, userID, name string) View {
	t.Helper()
	require.NoError(t, f.provider.SignIn(context.Background(), domain.Identity{UserID: userID, Name: name}))
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	v, err := f.sync.WaitLoaded(ctx)
	require.NoError(t, err)
	return v
}

// eventually polls the view until cond holds and returns the matching view.
func (f *fixture) eventually(t *testing.T, cond func(View) bool, msg string) View {
	t.Helper()
	var last View
	require.Eventually(t, func() bool {
		last = f.sync.Snapshot()
		return cond(last)
	}, waitFor, 5*time.Millisecond, msg)
	return last
}

// seedTopic writes a topic document directly, bypassing the synchronizer.
func (f *fixture) seedTopic(t *testing.T, id, owner, name string, archived bool, created time.Time) {
	t.Helper()
	require.NoError(t, f.mem.Set(context.Background(), topic.Collection, id, map[string]any{
		topic.FieldName:      name,
		topic.FieldOwner:     owner,
		topic.FieldArchived:  archived,
		topic.FieldCreatedAt: created,
		topic.FieldUpdatedAt: created,
	}))
}

func (f *fixture) seedProfile(t *testing.T, id, name string, bookmarks ...string) {
	t.Helper()
	p := domain.NewProfile(domain.Identity{UserID: id, Name: name})
	if bookmarks != nil {
		p.BookmarkedTopics = bookmarks
	}
	require.NoError(t, f.profiles.Create(context.Background(), p))
}

func (f *fixture) seedNote(t *testing.T, author string, topicIDs ...string) string {
	t.Helper()
	n, err := f.notes.Create(context.Background(), domain.Note{
		Content:   "note",
		AuthorID:  author,
		TopicIDs:  topicIDs,
		CreatedAt: t0,
	})
	require.NoError(t, err)
	return n.ID
}

func (f *fixture) seedComment(t *testing.T, author, topicID string) string {
	t.Helper()
	c, err := f.comments.Create(context.Background(), domain.Comment{
		TopicID:   topicID,
		AuthorID:  author,
		Content:   "comment",
		CreatedAt: t0,
	})
	require.NoError(t, err)
	return c.ID
}

func topicIDs(ts []domain.Topic) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func bookmarkIDs(bs []domain.BookmarkedTopic) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

func findTopic(ts []domain.Topic, name string) (domain.Topic, bool) {
	for _, t := range ts {
		if t.Name == name {
			return t, true
		}
	}
	return domain.Topic{}, false
}

// readyState builds a signed-in session state without a provider.
func readyState(userID string, bookmarks ...string) session.State {
	id := domain.Identity{UserID: userID}
	p := domain.NewProfile(id)
	if bookmarks != nil {
		p.BookmarkedTopics = bookmarks
	}
	return session.State{Identity: &id, Profile: &p, Ready: true}
}

// ownerOf extracts the owner filter value from an ownership query.
func ownerOf(q docstore.Query) string {
	for _, f := range q.Filters {
		if f.Field == topic.FieldOwner {
			s, _ := f.Value.(string)
			return s
		}
	}
	return ""
}
