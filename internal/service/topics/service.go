// Package topics keeps the topic views of one signed-in user in sync with
// the document store: owned topics split into active and archived, and
// bookmarked topics resolved with their owners' names. All topic and
// bookmark mutations go through the Synchronizer.
package topics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/profile"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/internal/service/session"
)

type topicRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Topic, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Topic, error)
	SubscribeByOwner(ctx context.Context, ownerID string, ordered bool, onData func([]domain.Topic), onError func(error)) (docstore.Subscription, error)
	Create(ctx context.Context, t domain.Topic) (*domain.Topic, error)
	Update(ctx context.Context, id string, upd domain.TopicUpdate) error
	Delete(ctx context.Context, id string) error
}

type profileRepo interface {
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error)
	ArrayAdd(ctx context.Context, id string, field profile.ArrayField, value string) error
	ArrayRemove(ctx context.Context, id string, field profile.ArrayField, value string) error
	ListByBookmark(ctx context.Context, topicID string) ([]domain.UserProfile, error)
}

type noteRepo interface {
	DeleteByTopic(ctx context.Context, topicID string) (int, error)
}

type commentRepo interface {
	DeleteByTopic(ctx context.Context, topicID string) (int, error)
}

type sessionSource interface {
	Watch(fn func(session.State)) (cancel func())
}

// queryMode selects how the ownership subscription is ordered.
type queryMode int

const (
	// modeIndexed asks the store to order by creation time.
	modeIndexed queryMode = iota
	// modeSimple subscribes unordered and sorts in memory. Once entered it is never left.
	modeSimple
)

func (m queryMode) String() string {
	if m == modeSimple {
		return "simple"
	}
	return "indexed"
}

const (
	// DefaultLoaderWait is the batching window used for bookmark lookups.
	DefaultLoaderWait     = 2 * time.Millisecond
	defaultResolveTimeout = 10 * time.Second
)

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithClock replaces time.Now for timestamps written by mutations.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// WithLoaderWait sets how long bookmark lookups are collected before a batch is sent.
func WithLoaderWait(d time.Duration) Option {
	return func(s *Synchronizer) { s.resolver.wait = d }
}

// WithResolveTimeout bounds a single bookmark resolution.
func WithResolveTimeout(d time.Duration) Option {
	return func(s *Synchronizer) { s.resolveTimeout = d }
}

// Synchronizer owns the derived topic views of the current session user.
// It is inert until the session has both an identity and a profile.
type Synchronizer struct {
	log      *slog.Logger
	topics   topicRepo
	profiles profileRepo
	notes    noteRepo
	comments commentRepo
	resolver *BookmarkResolver

	now            func() time.Time
	resolveTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	// notifyMu serializes publishing so watchers see views in order.
	notifyMu sync.Mutex

	mu      sync.Mutex
	closed  bool
	session session.State
	userID  string
	detach  func()

	// gen changes whenever the ownership subscription is replaced.
	// Callbacks carrying an older generation are ignored.
	gen         uint64
	sub         docstore.Subscription
	mode        queryMode
	owned       []domain.Topic
	ownedLoaded bool

	bookmarkGen     uint64
	bookmarkKey     string
	bookmarkKeySet  bool
	bookmarks       []domain.BookmarkedTopic
	bookmarksLoaded bool

	// Each error is cleared only by a later success of its own source.
	topicsErr    error
	bookmarksErr error

	watchers map[int]func(View)
	nextID   int
	changed  chan struct{}
}

// New creates a Synchronizer. Call Attach or SetSession to give it a user.
func New(
	log *slog.Logger,
	topics topicRepo,
	profiles profileRepo,
	notes noteRepo,
	comments commentRepo,
	opts ...Option,
) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		log:      log.With("service", "topics"),
		topics:   topics,
		profiles: profiles,
		notes:    notes,
		comments: comments,
		now:      time.Now,

		resolveTimeout: defaultResolveTimeout,

		ctx:      ctx,
		cancel:   cancel,
		watchers: make(map[int]func(View)),
		changed:  make(chan struct{}),
	}
	s.resolver = NewBookmarkResolver(s.log, topics, profiles, DefaultLoaderWait)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// currentUser returns the session user and profile, or domain.ErrNotReady.
func (s *Synchronizer) currentUser() (string, *domain.UserProfile, error) {
	s.mu.Lock()
	st := s.session
	closed := s.closed
	s.mu.Unlock()

	if closed || !st.HasProfile() {
		return "", nil, domain.ErrNotReady
	}
	return st.UserID(), st.Profile, nil
}

// fail logs a failed mutation and returns err unchanged.
func (s *Synchronizer) fail(ctx context.Context, op string, err error, attrs ...slog.Attr) error {
	level := slog.LevelError
	switch {
	case isCallerError(err):
		level = slog.LevelWarn
	case ctx.Err() != nil:
		level = slog.LevelInfo
	}
	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("op", op), slog.String("error", err.Error()))
	for _, a := range attrs {
		args = append(args, a)
	}
	s.log.Log(ctx, level, "topic mutation failed", args...)
	return err
}
