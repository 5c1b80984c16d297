package notes

import (
	"context"
	"sync"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// noteRepoMock
// ---------------------------------------------------------------------------

var _ noteRepo = &noteRepoMock{}

type noteRepoMock struct {
	GetByIDFunc      func(ctx context.Context, id string) (*domain.Note, error)
	ListByAuthorFunc func(ctx context.Context, authorID string) ([]domain.Note, error)
	ListByTopicFunc  func(ctx context.Context, topicID string) ([]domain.Note, error)
	CreateFunc       func(ctx context.Context, n domain.Note) (*domain.Note, error)
	DeleteFunc       func(ctx context.Context, id string) error
	AddReplyFunc     func(ctx context.Context, noteID string, reply domain.Reply) error
	AddLikeFunc      func(ctx context.Context, noteID, userID string) error
	RemoveLikeFunc   func(ctx context.Context, noteID, userID string) error
	AddTopicFunc     func(ctx context.Context, noteID, topicID string) error
	RemoveTopicFunc  func(ctx context.Context, noteID, topicID string) error

	mu    sync.Mutex
	calls struct {
		Create      []domain.Note
		Delete      []string
		AddReply    []domain.Reply
		AddLike     []string
		RemoveLike  []string
		AddTopic    []string
		RemoveTopic []string
	}
}

func (m *noteRepoMock) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	if m.GetByIDFunc == nil {
		panic("noteRepoMock.GetByIDFunc: method is nil but noteRepo.GetByID was just called")
	}
	return m.GetByIDFunc(ctx, id)
}

func (m *noteRepoMock) ListByAuthor(ctx context.Context, authorID string) ([]domain.Note, error) {
	if m.ListByAuthorFunc == nil {
		panic("noteRepoMock.ListByAuthorFunc: method is nil but noteRepo.ListByAuthor was just called")
	}
	return m.ListByAuthorFunc(ctx, authorID)
}

func (m *noteRepoMock) ListByTopic(ctx context.Context, topicID string) ([]domain.Note, error) {
	if m.ListByTopicFunc == nil {
		panic("noteRepoMock.ListByTopicFunc: method is nil but noteRepo.ListByTopic was just called")
	}
	return m.ListByTopicFunc(ctx, topicID)
}

func (m *noteRepoMock) Create(ctx context.Context, n domain.Note) (*domain.Note, error) {
	m.mu.Lock()
	m.calls.Create = append(m.calls.Create, n)
	m.mu.Unlock()
	if m.CreateFunc == nil {
		panic("noteRepoMock.CreateFunc: method is nil but noteRepo.Create was just called")
	}
	return m.CreateFunc(ctx, n)
}

func (m *noteRepoMock) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	m.calls.Delete = append(m.calls.Delete, id)
	m.mu.Unlock()
	if m.DeleteFunc == nil {
		panic("noteRepoMock.DeleteFunc: method is nil but noteRepo.Delete was just called")
	}
	return m.DeleteFunc(ctx, id)
}

func (m *noteRepoMock) AddReply(ctx context.Context, noteID string, reply domain.Reply) error {
	m.mu.Lock()
	m.calls.AddReply = append(m.calls.AddReply, reply)
	m.mu.Unlock()
	if m.AddReplyFunc == nil {
		panic("noteRepoMock.AddReplyFunc: method is nil but noteRepo.AddReply was just called")
	}
	return m.AddReplyFunc(ctx, noteID, reply)
}

func (m *noteRepoMock) AddLike(ctx context.Context, noteID, userID string) error {
	m.mu.Lock()
	m.calls.AddLike = append(m.calls.AddLike, userID)
	m.mu.Unlock()
	if m.AddLikeFunc == nil {
		panic("noteRepoMock.AddLikeFunc: method is nil but noteRepo.AddLike was just called")
	}
	return m.AddLikeFunc(ctx, noteID, userID)
}

func (m *noteRepoMock) RemoveLike(ctx context.Context, noteID, userID string) error {
	m.mu.Lock()
	m.calls.RemoveLike = append(m.calls.RemoveLike, userID)
	m.mu.Unlock()
	if m.RemoveLikeFunc == nil {
		panic("noteRepoMock.RemoveLikeFunc: method is nil but noteRepo.RemoveLike was just called")
	}
	return m.RemoveLikeFunc(ctx, noteID, userID)
}

func (m *noteRepoMock) AddTopic(ctx context.Context, noteID, topicID string) error {
	m.mu.Lock()
	m.calls.AddTopic = append(m.calls.AddTopic, topicID)
	m.mu.Unlock()
	if m.AddTopicFunc == nil {
		panic("noteRepoMock.AddTopicFunc: method is nil but noteRepo.AddTopic was just called")
	}
	return m.AddTopicFunc(ctx, noteID, topicID)
}

func (m *noteRepoMock) RemoveTopic(ctx context.Context, noteID, topicID string) error {
	m.mu.Lock()
	m.calls.RemoveTopic = append(m.calls.RemoveTopic, topicID)
	m.mu.Unlock()
	if m.RemoveTopicFunc == nil {
		panic("noteRepoMock.RemoveTopicFunc: method is nil but noteRepo.RemoveTopic was just called")
	}
	return m.RemoveTopicFunc(ctx, noteID, topicID)
}

func (m *noteRepoMock) CreateCalls() []domain.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.Create
}

func (m *noteRepoMock) DeleteCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.Delete
}

func (m *noteRepoMock) AddReplyCalls() []domain.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.AddReply
}

func (m *noteRepoMock) AddLikeCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.AddLike
}

func (m *noteRepoMock) RemoveLikeCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.RemoveLike
}

func (m *noteRepoMock) AddTopicCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.AddTopic
}

func (m *noteRepoMock) RemoveTopicCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.RemoveTopic
}

// ---------------------------------------------------------------------------
// topicRepoMock
// ---------------------------------------------------------------------------

var _ topicRepo = &topicRepoMock{}

type topicRepoMock struct {
	GetByIDFunc  func(ctx context.Context, id string) (*domain.Topic, error)
	GetByIDsFunc func(ctx context.Context, ids []string) ([]domain.Topic, error)

	mu    sync.Mutex
	calls struct {
		GetByIDs [][]string
	}
}

func (m *topicRepoMock) GetByID(ctx context.Context, id string) (*domain.Topic, error) {
	if m.GetByIDFunc == nil {
		panic("topicRepoMock.GetByIDFunc: method is nil but topicRepo.GetByID was just called")
	}
	return m.GetByIDFunc(ctx, id)
}

func (m *topicRepoMock) GetByIDs(ctx context.Context, ids []string) ([]domain.Topic, error) {
	m.mu.Lock()
	m.calls.GetByIDs = append(m.calls.GetByIDs, ids)
	m.mu.Unlock()
	if m.GetByIDsFunc == nil {
		panic("topicRepoMock.GetByIDsFunc: method is nil but topicRepo.GetByIDs was just called")
	}
	return m.GetByIDsFunc(ctx, ids)
}

func (m *topicRepoMock) GetByIDsCalls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.GetByIDs
}
