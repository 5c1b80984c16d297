package profile

import (
	"context"
	"sync"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// profileRepoMock
// ---------------------------------------------------------------------------

var _ profileRepo = &profileRepoMock{}

type profileRepoMock struct {
	GetByIDFunc          func(ctx context.Context, id string) (*domain.UserProfile, error)
	GetByDisplayNameFunc func(ctx context.Context, name string) (*domain.UserProfile, error)
	UpdateFunc           func(ctx context.Context, id string, upd domain.ProfileUpdate) error

	mu    sync.Mutex
	calls struct {
		Update []domain.ProfileUpdate
	}
}

func (m *profileRepoMock) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	if m.GetByIDFunc == nil {
		panic("profileRepoMock.GetByIDFunc: method is nil but profileRepo.GetByID was just called")
	}
	return m.GetByIDFunc(ctx, id)
}

func (m *profileRepoMock) GetByDisplayName(ctx context.Context, name string) (*domain.UserProfile, error) {
	if m.GetByDisplayNameFunc == nil {
		panic("profileRepoMock.GetByDisplayNameFunc: method is nil but profileRepo.GetByDisplayName was just called")
	}
	return m.GetByDisplayNameFunc(ctx, name)
}

func (m *profileRepoMock) Update(ctx context.Context, id string, upd domain.ProfileUpdate) error {
	m.mu.Lock()
	m.calls.Update = append(m.calls.Update, upd)
	m.mu.Unlock()
	if m.UpdateFunc == nil {
		panic("profileRepoMock.UpdateFunc: method is nil but profileRepo.Update was just called")
	}
	return m.UpdateFunc(ctx, id, upd)
}

func (m *profileRepoMock) UpdateCalls() []domain.ProfileUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.Update
}

// ---------------------------------------------------------------------------
// topicRepoMock
// ---------------------------------------------------------------------------

var _ topicRepo = &topicRepoMock{}

type topicRepoMock struct {
	ListByOwnerFunc func(ctx context.Context, ownerID string, ordered bool) ([]domain.Topic, error)

	mu    sync.Mutex
	calls struct {
		ListByOwner []bool
	}
}

func (m *topicRepoMock) ListByOwner(ctx context.Context, ownerID string, ordered bool) ([]domain.Topic, error) {
	m.mu.Lock()
	m.calls.ListByOwner = append(m.calls.ListByOwner, ordered)
	m.mu.Unlock()
	if m.ListByOwnerFunc == nil {
		panic("topicRepoMock.ListByOwnerFunc: method is nil but topicRepo.ListByOwner was just called")
	}
	return m.ListByOwnerFunc(ctx, ownerID, ordered)
}

// ListByOwnerCalls returns the ordered flag of every call.
func (m *topicRepoMock) ListByOwnerCalls() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.ListByOwner
}

// ---------------------------------------------------------------------------
// noteRepoMock
// ---------------------------------------------------------------------------

var _ noteRepo = &noteRepoMock{}

type noteRepoMock struct {
	ListByAuthorFunc func(ctx context.Context, authorID string) ([]domain.Note, error)
}

func (m *noteRepoMock) ListByAuthor(ctx context.Context, authorID string) ([]domain.Note, error) {
	if m.ListByAuthorFunc == nil {
		panic("noteRepoMock.ListByAuthorFunc: method is nil but noteRepo.ListByAuthor was just called")
	}
	return m.ListByAuthorFunc(ctx, authorID)
}

// ---------------------------------------------------------------------------
// bookmarkResolverMock
// ---------------------------------------------------------------------------

var _ bookmarkResolver = &bookmarkResolverMock{}

type bookmarkResolverMock struct {
	ResolveFunc func(ctx context.Context, ids []string) ([]domain.BookmarkedTopic, error)
}

func (m *bookmarkResolverMock) Resolve(ctx context.Context, ids []string) ([]domain.BookmarkedTopic, error) {
	if m.ResolveFunc == nil {
		panic("bookmarkResolverMock.ResolveFunc: method is nil but bookmarkResolver.Resolve was just called")
	}
	return m.ResolveFunc(ctx, ids)
}
