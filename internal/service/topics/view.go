package topics

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// View is what the presentation layer reads. Slices are never nil and are
// owned by the receiver.
type View struct {
	ActiveTopics     []domain.Topic
	ArchivedTopics   []domain.Topic
	BookmarkedTopics []domain.BookmarkedTopic
	// Loading is true until the first results for the current user are in.
	Loading bool
	// Err joins the live query failure and the bookmark resolution
	// failure that are still unresolved. Bookmarks keep their last good
	// value while a resolution failure is reported.
	Err error
}

// Snapshot returns the current view.
func (s *Synchronizer) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Watch calls fn with the current view and then after every change until
// cancel is called. fn must not call Close.
func (s *Synchronizer) Watch(fn func(View)) (cancel func()) {
	s.notifyMu.Lock()
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	v := s.viewLocked()
	s.mu.Unlock()
	fn(v)
	s.notifyMu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// WaitLoaded blocks until the view stops loading or ctx is done.
func (s *Synchronizer) WaitLoaded(ctx context.Context) (View, error) {
	for {
		s.mu.Lock()
		v, ch, closed := s.viewLocked(), s.changed, s.closed
		s.mu.Unlock()

		if !v.Loading {
			return v, nil
		}
		if closed {
			return v, errors.New("synchronizer closed")
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-ch:
		}
	}
}

// publish delivers the current view to every watcher.
func (s *Synchronizer) publish() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	v := s.viewLocked()
	ws := make([]func(View), 0, len(s.watchers))
	for _, id := range slices.Sorted(maps.Keys(s.watchers)) {
		ws = append(ws, s.watchers[id])
	}
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	for _, fn := range ws {
		fn(v)
	}
}

// viewLocked must be called with mu held.
func (s *Synchronizer) viewLocked() View {
	if s.userID == "" {
		return View{
			ActiveTopics:     []domain.Topic{},
			ArchivedTopics:   []domain.Topic{},
			BookmarkedTopics: []domain.BookmarkedTopic{},
			Loading:          !s.session.Ready || s.session.Identity != nil,
		}
	}
	active, archived := domain.PartitionTopics(s.owned)
	bookmarks := slices.Clone(s.bookmarks)
	if bookmarks == nil {
		bookmarks = []domain.BookmarkedTopic{}
	}
	return View{
		ActiveTopics:     active,
		ArchivedTopics:   archived,
		BookmarkedTopics: bookmarks,
		Loading:          !s.ownedLoaded || !s.bookmarksLoaded,
		Err:              errors.Join(s.topicsErr, s.bookmarksErr),
	}
}
