// Package topic maps topic documents to domain.Topic.
package topic

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// Collection holds topic documents.
const Collection = "topics"

// Document field names.
const (
	FieldName      = "name"
	FieldOwner     = "userId"
	FieldArchived  = "archived"
	FieldContent   = "content"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldPinned    = "pinnedNoteIds"
)

// Repo provides typed access to the topics collection.
type Repo struct {
	store docstore.Store
}

// New creates a topic repository over store.
func New(store docstore.Store) *Repo {
	return &Repo{store: store}
}

// GetByID returns a topic or an error wrapping domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Topic, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return nil, fmt.Errorf("get topic %s: %w", id, err)
	}
	t := fromDocument(doc)
	return &t, nil
}

// GetByIDs returns the existing topics among ids in the order of ids.
// Missing IDs are skipped.
func (r *Repo) GetByIDs(ctx context.Context, ids []string) ([]domain.Topic, error) {
	if len(ids) == 0 {
		return []domain.Topic{}, nil
	}
	docs, err := r.store.GetMany(ctx, Collection, ids)
	if err != nil {
		return nil, fmt.Errorf("get topics: %w", err)
	}
	return fromDocuments(docs), nil
}

// ListByOwner returns every topic created by ownerID. With ordered set the
// store sorts by creation time, newest first.
func (r *Repo) ListByOwner(ctx context.Context, ownerID string, ordered bool) ([]domain.Topic, error) {
	docs, err := r.store.Query(ctx, ownerQuery(ownerID, ordered))
	if err != nil {
		return nil, fmt.Errorf("list topics of %s: %w", ownerID, err)
	}
	return fromDocuments(docs), nil
}

// SubscribeByOwner opens a live query over the topics of ownerID.
func (r *Repo) SubscribeByOwner(
	ctx context.Context,
	ownerID string,
	ordered bool,
	onData func([]domain.Topic),
	onError func(error),
) (docstore.Subscription, error) {
	sub, err := r.store.Subscribe(ctx, ownerQuery(ownerID, ordered),
		func(docs []docstore.Document) { onData(fromDocuments(docs)) },
		onError,
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe topics of %s: %w", ownerID, err)
	}
	return sub, nil
}

// Create stores a new topic and returns it with its generated ID.
func (r *Repo) Create(ctx context.Context, t domain.Topic) (*domain.Topic, error) {
	id, err := r.store.Create(ctx, Collection, toFields(t))
	if err != nil {
		return nil, fmt.Errorf("create topic: %w", err)
	}
	t.ID = id
	return &t, nil
}

// Update applies a partial change. Fields left nil are not written.
func (r *Repo) Update(ctx context.Context, id string, upd domain.TopicUpdate) error {
	fields := map[string]any{FieldUpdatedAt: upd.UpdatedAt.UTC()}
	if upd.Name != nil {
		fields[FieldName] = *upd.Name
	}
	if upd.Content != nil {
		fields[FieldContent] = *upd.Content
	}
	if upd.Archived != nil {
		fields[FieldArchived] = *upd.Archived
	}
	if err := r.store.Update(ctx, Collection, id, fields); err != nil {
		return fmt.Errorf("update topic %s: %w", id, err)
	}
	return nil
}

// AddPin appends noteID to the pinned notes. Pinning twice is a no-op.
func (r *Repo) AddPin(ctx context.Context, topicID, noteID string) error {
	if err := r.store.ArrayAdd(ctx, Collection, topicID, FieldPinned, noteID); err != nil {
		return fmt.Errorf("pin note %s to topic %s: %w", noteID, topicID, err)
	}
	return nil
}

// RemovePin drops noteID from the pinned notes.
func (r *Repo) RemovePin(ctx context.Context, topicID, noteID string) error {
	if err := r.store.ArrayRemove(ctx, Collection, topicID, FieldPinned, noteID); err != nil {
		return fmt.Errorf("unpin note %s from topic %s: %w", noteID, topicID, err)
	}
	return nil
}

// Delete removes a topic.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("delete topic %s: %w", id, err)
	}
	return nil
}

func ownerQuery(ownerID string, ordered bool) docstore.Query {
	q := docstore.NewQuery(Collection).Where(docstore.Eq(FieldOwner, ownerID))
	if ordered {
		q = q.Order(FieldCreatedAt, docstore.Desc)
	}
	return q
}

func toFields(t domain.Topic) map[string]any {
	pinned := t.PinnedNoteIDs
	if pinned == nil {
		pinned = []string{}
	}
	return map[string]any{
		FieldName:      t.Name,
		FieldOwner:     t.OwnerID,
		FieldArchived:  t.Archived,
		FieldContent:   t.Content,
		FieldCreatedAt: t.CreatedAt.UTC(),
		FieldUpdatedAt: t.UpdatedAt.UTC(),
		FieldPinned:    pinned,
	}
}

func fromDocument(doc docstore.Document) domain.Topic {
	t := domain.Topic{
		ID:        doc.ID,
		Name:      docstore.String(doc.Data, FieldName),
		OwnerID:   docstore.String(doc.Data, FieldOwner),
		Archived:  docstore.Bool(doc.Data, FieldArchived),
		Content:   docstore.String(doc.Data, FieldContent),
		CreatedAt: docstore.Time(doc.Data, FieldCreatedAt),
		UpdatedAt: docstore.Time(doc.Data, FieldUpdatedAt),

		PinnedNoteIDs: docstore.Strings(doc.Data, FieldPinned),
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if t.Name == "" {
		t.Name = domain.DefaultTopicName(t.ID)
	}
	return t
}

func fromDocuments(docs []docstore.Document) []domain.Topic {
	out := make([]domain.Topic, len(docs))
	for i, d := range docs {
		out[i] = fromDocument(d)
	}
	return out
}

// SortNewestFirst orders topics by creation time, newest first, with ID as
// a tie-breaker. It reproduces the store-side ordering for unordered queries.
func SortNewestFirst(topics []domain.Topic) {
	slices.SortStableFunc(topics, func(a, b domain.Topic) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
