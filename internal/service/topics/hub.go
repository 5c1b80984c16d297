package topics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/internal/service/session"
)

// ErrHubClosed is returned by Acquire after Close.
var ErrHubClosed = errors.New("topics hub closed")

// hubProfileRepo is what a Hub needs from profiles: the synchronizer's
// operations plus what the session provider uses.
type hubProfileRepo interface {
	profileRepo
	Create(ctx context.Context, p domain.UserProfile) error
	Subscribe(ctx context.Context, id string, onData func(*domain.UserProfile), onError func(error)) (docstore.Subscription, error)
}

// Hub shares one Synchronizer per user among concurrent requests. Entries
// nobody holds are closed after the idle timeout by Run.
type Hub struct {
	base     *slog.Logger
	log      *slog.Logger
	topics   topicRepo
	profiles hubProfileRepo
	notes    noteRepo
	comments commentRepo
	idle     time.Duration
	opts     []Option

	mu      sync.Mutex
	closed  bool
	entries map[string]*hubEntry
	now     func() time.Time
}

type hubEntry struct {
	provider *session.Provider
	sync     *Synchronizer
	refs     int
	lastUsed time.Time

	ready chan struct{}
	err   error
}

// Handle is a reference to a shared Synchronizer. Release it when done.
type Handle struct {
	*Synchronizer

	once    sync.Once
	release func()
}

// Release gives the reference back to the hub. It is safe to call twice.
func (h *Handle) Release() {
	h.once.Do(h.release)
}

// NewHub creates a Hub. Synchronizers it creates get opts.
func NewHub(
	log *slog.Logger,
	topics topicRepo,
	profiles hubProfileRepo,
	notes noteRepo,
	comments commentRepo,
	idle time.Duration,
	opts ...Option,
) *Hub {
	return &Hub{
		base:     log,
		log:      log.With("service", "topics_hub"),
		topics:   topics,
		profiles: profiles,
		notes:    notes,
		comments: comments,
		idle:     idle,
		opts:     opts,
		entries:  make(map[string]*hubEntry),
		now:      time.Now,
	}
}

// Acquire returns the synchronizer of identity, signing it in on first
// use. The call waits until the session is established.
func (h *Hub) Acquire(ctx context.Context, identity domain.Identity) (*Handle, error) {
	if identity.IsZero() {
		return nil, domain.ErrUnauthorized
	}
	userID := identity.UserID

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	e, ok := h.entries[userID]
	if ok {
		e.refs++
		h.mu.Unlock()
		return h.await(ctx, userID, e)
	}

	e = &hubEntry{refs: 1, ready: make(chan struct{})}
	h.entries[userID] = e
	h.mu.Unlock()

	// The session outlives the request that started it.
	signCtx := context.WithoutCancel(ctx)
	e.provider = session.NewProvider(h.base, h.profiles)
	e.sync = New(h.base, h.topics, h.profiles, h.notes, h.comments, h.opts...)
	e.sync.Attach(e.provider)
	if err := e.provider.SignIn(signCtx, identity); err != nil {
		e.err = err
		h.mu.Lock()
		if h.entries[userID] == e {
			delete(h.entries, userID)
		}
		h.mu.Unlock()
		e.sync.Close()
		e.provider.Close()
		close(e.ready)
		return nil, err
	}
	close(e.ready)
	if h.isClosed() {
		// Close waited for this sign-in and closes the synchronizer.
		return nil, ErrHubClosed
	}
	h.log.InfoContext(ctx, "session opened", slog.String("user_id", userID))

	return h.handle(userID, e), nil
}

func (h *Hub) await(ctx context.Context, userID string, e *hubEntry) (*Handle, error) {
	select {
	case <-e.ready:
	case <-ctx.Done():
		h.release(userID, e)
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	if h.isClosed() {
		return nil, ErrHubClosed
	}
	return h.handle(userID, e), nil
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Hub) handle(userID string, e *hubEntry) *Handle {
	return &Handle{
		Synchronizer: e.sync,
		release:      func() { h.release(userID, e) },
	}
}

func (h *Hub) release(userID string, e *hubEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e.refs--
	e.lastUsed = h.now()
}

// Run closes idle synchronizers until ctx is done, then closes the hub.
func (h *Hub) Run(ctx context.Context) error {
	interval := h.idle / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Close()
			return nil
		case <-ticker.C:
			if n := h.Sweep(); n > 0 {
				h.log.Debug("closed idle sessions", slog.Int("count", n))
			}
		}
	}
}

// Sweep closes every unreferenced synchronizer idle for longer than the
// idle timeout and returns how many were closed.
func (h *Hub) Sweep() int {
	h.mu.Lock()
	now := h.now()
	var idle []*hubEntry
	for userID, e := range h.entries {
		select {
		case <-e.ready:
		default:
			continue
		}
		if e.refs <= 0 && now.Sub(e.lastUsed) >= h.idle {
			delete(h.entries, userID)
			idle = append(idle, e)
		}
	}
	h.mu.Unlock()

	for _, e := range idle {
		e.sync.Close()
		e.provider.Close()
	}
	return len(idle)
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Close closes every synchronizer. Later Acquire calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	entries := h.entries
	h.entries = make(map[string]*hubEntry)
	h.mu.Unlock()

	for _, e := range entries {
		<-e.ready
		if e.err == nil {
			e.sync.Close()
			e.provider.Close()
		}
	}
}
