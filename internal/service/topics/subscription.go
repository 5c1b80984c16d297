package topics

import (
	"context"
	"log/slog"
	"strings"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/topic"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/internal/service/session"
)

// Attach follows src until Close. Only one source can be attached.
func (s *Synchronizer) Attach(src sessionSource) {
	cancel := src.Watch(s.SetSession)

	s.mu.Lock()
	old := s.detach
	s.detach = cancel
	closed := s.closed
	s.mu.Unlock()

	if old != nil {
		old()
	}
	if closed {
		cancel()
	}
}

// SetSession switches the synchronizer to the user of st. A user change
// drops all derived state and replaces the ownership subscription. A
// change of the bookmark set starts a new bookmark resolution.
func (s *Synchronizer) SetSession(st session.State) {
	userID := ""
	if st.HasProfile() {
		userID = st.UserID()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.session = st

	var (
		oldSub    docstore.Subscription
		subscribe bool
		gen       uint64
	)
	if userID != s.userID {
		s.gen++
		s.bookmarkGen++
		oldSub, s.sub = s.sub, nil
		s.userID = userID
		s.owned = nil
		s.ownedLoaded = false
		s.bookmarks = nil
		s.bookmarksLoaded = false
		s.bookmarkKey, s.bookmarkKeySet = "", false
		s.topicsErr, s.bookmarksErr = nil, nil
		subscribe = userID != ""
		gen = s.gen
	}

	var resolve func()
	if userID != "" {
		resolve = s.bookmarksChangedLocked(userID, st.Profile.BookmarkedTopics)
	}
	s.mu.Unlock()

	if oldSub != nil {
		oldSub.Close()
	}
	if subscribe {
		s.log.Info("following topics", slog.String("user_id", userID))
		s.subscribe(gen)
	}
	if resolve != nil {
		go resolve()
	}
	s.publish()
}

// subscribe opens the ownership subscription for generation gen in the
// current query mode. The store is called without holding mu.
func (s *Synchronizer) subscribe(gen uint64) {
	s.mu.Lock()
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		return
	}
	userID, ordered := s.userID, s.mode == modeIndexed
	s.mu.Unlock()

	sub, err := s.topics.SubscribeByOwner(s.ctx, userID, ordered,
		func(ts []domain.Topic) { s.onTopics(gen, ts) },
		func(err error) { s.onTopicsError(gen, err) },
	)
	if err != nil {
		s.onTopicsError(gen, err)
		return
	}

	s.mu.Lock()
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		sub.Close()
		return
	}
	s.sub = sub
	s.mu.Unlock()
}

func (s *Synchronizer) onTopics(gen uint64, ts []domain.Topic) {
	s.mu.Lock()
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		return
	}
	if s.mode == modeSimple {
		topic.SortNewestFirst(ts)
	}
	s.owned = ts
	s.ownedLoaded = true
	s.topicsErr = nil
	s.mu.Unlock()

	s.publish()
}

// onTopicsError handles a terminal subscription error. A missing index
// moves the synchronizer to simple mode for good and re-subscribes.
func (s *Synchronizer) onTopicsError(gen uint64, err error) {
	s.mu.Lock()
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		return
	}

	if docstore.IsMissingIndex(err) && s.mode == modeIndexed {
		s.mode = modeSimple
		s.gen++
		next := s.gen
		old := s.sub
		s.sub = nil
		userID := s.userID
		s.mu.Unlock()

		s.log.Warn("ordered topic query unavailable, sorting in memory",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		if old != nil {
			old.Close()
		}
		s.subscribe(next)
		return
	}

	s.sub = nil
	s.ownedLoaded = true
	s.topicsErr = err
	userID := s.userID
	s.mu.Unlock()

	s.log.Error("topic subscription failed",
		slog.String("user_id", userID),
		slog.String("mode", s.Mode()),
		slog.String("error", err.Error()),
	)
	s.publish()
}

// bookmarksChangedLocked records the bookmark set and returns the
// resolution to run when it differs from the last one seen. An empty set
// resolves immediately. Must be called with mu held.
func (s *Synchronizer) bookmarksChangedLocked(userID string, ids []string) func() {
	key := strings.Join(ids, "\x00")
	if s.bookmarkKeySet && key == s.bookmarkKey {
		return nil
	}
	s.bookmarkKey, s.bookmarkKeySet = key, true
	s.bookmarkGen++
	bgen := s.bookmarkGen

	if len(ids) == 0 {
		s.bookmarks = []domain.BookmarkedTopic{}
		s.bookmarksLoaded = true
		s.bookmarksErr = nil
		return nil
	}
	ids = append([]string(nil), ids...)
	return func() { s.resolveBookmarks(bgen, userID, ids) }
}

func (s *Synchronizer) resolveBookmarks(bgen uint64, userID string, ids []string) {
	ctx, cancel := context.WithTimeout(s.ctx, s.resolveTimeout)
	defer cancel()

	resolved, err := s.resolver.Resolve(ctx, ids)

	s.mu.Lock()
	if s.closed || s.bookmarkGen != bgen {
		s.mu.Unlock()
		return
	}
	s.bookmarksLoaded = true
	if err != nil {
		s.bookmarksErr = err
	} else {
		s.bookmarks = resolved
		s.bookmarksErr = nil
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error("resolve bookmarks",
			slog.String("user_id", userID),
			slog.Int("count", len(ids)),
			slog.String("error", err.Error()),
		)
	}
	s.publish()
}

// Mode reports the current query mode: "indexed" or "simple".
func (s *Synchronizer) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode.String()
}

// Close stops all subscriptions and detaches from the session source.
// Views are no longer published and mutations fail with domain.ErrNotReady.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	s.bookmarkGen++
	sub, detach := s.sub, s.detach
	s.sub, s.detach = nil, nil
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	if detach != nil {
		detach()
	}
	if sub != nil {
		sub.Close()
	}
	s.cancel()
}
