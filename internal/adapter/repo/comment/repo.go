// Package comment maps topic comment documents to domain.Comment.
package comment

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// Collection holds one document per comment. Comments point at their
// topic; topics keep no list of comments.
const Collection = "comments"

// Document field names.
const (
	FieldTopic     = "topicId"
	FieldAuthor    = "userId"
	FieldContent   = "content"
	FieldCreatedAt = "createdAt"
)

// Repo provides typed access to the comments collection.
type Repo struct {
	store docstore.Store
}

// New creates a comment repository over store.
func New(store docstore.Store) *Repo {
	return &Repo{store: store}
}

// GetByID returns a comment or an error wrapping domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	c := fromDocument(doc)
	return &c, nil
}

// ListByTopic returns the comments on topicID, oldest first.
func (r *Repo) ListByTopic(ctx context.Context, topicID string) ([]domain.Comment, error) {
	q := byTopic(topicID)
	docs, err := r.store.Query(ctx, q.Order(FieldCreatedAt, docstore.Asc))
	if docstore.IsMissingIndex(err) {
		docs, err = r.store.Query(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("list comments of topic %s: %w", topicID, err)
	}
	comments := make([]domain.Comment, len(docs))
	for i, d := range docs {
		comments[i] = fromDocument(d)
	}
	sortOldestFirst(comments)
	return comments, nil
}

// Create stores a new comment and returns it with its generated ID.
func (r *Repo) Create(ctx context.Context, c domain.Comment) (*domain.Comment, error) {
	id, err := r.store.Create(ctx, Collection, map[string]any{
		FieldTopic:     c.TopicID,
		FieldAuthor:    c.AuthorID,
		FieldContent:   c.Content,
		FieldCreatedAt: c.CreatedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	c.ID = id
	return &c, nil
}

// Delete removes a comment.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	return nil
}

// DeleteByTopic removes every comment on topicID and reports how many
// were removed. It stops at the first failed delete.
func (r *Repo) DeleteByTopic(ctx context.Context, topicID string) (int, error) {
	docs, err := r.store.Query(ctx, byTopic(topicID))
	if err != nil {
		return 0, fmt.Errorf("find comments of topic %s: %w", topicID, err)
	}
	for i, d := range docs {
		if err := r.store.Delete(ctx, Collection, d.ID); err != nil {
			return i, fmt.Errorf("delete comment %s of topic %s: %w", d.ID, topicID, err)
		}
	}
	return len(docs), nil
}

func byTopic(topicID string) docstore.Query {
	return docstore.NewQuery(Collection).Where(docstore.Eq(FieldTopic, topicID))
}

func fromDocument(doc docstore.Document) domain.Comment {
	return domain.Comment{
		ID:        doc.ID,
		TopicID:   docstore.String(doc.Data, FieldTopic),
		AuthorID:  docstore.String(doc.Data, FieldAuthor),
		Content:   docstore.String(doc.Data, FieldContent),
		CreatedAt: docstore.Time(doc.Data, FieldCreatedAt),
	}
}

func sortOldestFirst(comments []domain.Comment) {
	slices.SortStableFunc(comments, func(a, b domain.Comment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
