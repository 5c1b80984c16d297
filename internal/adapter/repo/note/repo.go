// Package note maps note documents to domain.Note.
package note

import (
	"context"
	"fmt"
	"slices"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// Collection holds note documents.
const Collection = "notes"

// Document field names.
const (
	FieldContent   = "content"
	FieldAuthor    = "authorId"
	FieldTopicIDs  = "topicIds"
	FieldLikes     = "likes"
	FieldReplies   = "replies"
	FieldTimestamp = "timestamp"

	replyContent   = "content"
	replyUser      = "userId"
	replyTimestamp = "timestamp"
)

// Repo provides typed access to the notes collection.
type Repo struct {
	store docstore.Store
}

// New creates a note repository over store.
func New(store docstore.Store) *Repo {
	return &Repo{store: store}
}

// GetByID returns a note or an error wrapping domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return nil, fmt.Errorf("get note %s: %w", id, err)
	}
	n := fromDocument(doc)
	return &n, nil
}

// GetByIDs returns the existing notes among ids in the order of ids.
// Missing IDs are skipped.
func (r *Repo) GetByIDs(ctx context.Context, ids []string) ([]domain.Note, error) {
	if len(ids) == 0 {
		return []domain.Note{}, nil
	}
	docs, err := r.store.GetMany(ctx, Collection, ids)
	if err != nil {
		return nil, fmt.Errorf("get notes: %w", err)
	}
	return fromDocuments(docs), nil
}

// ListByAuthor returns the notes of authorID, newest first. Backends that
// cannot order a filtered query are handled by sorting in memory.
func (r *Repo) ListByAuthor(ctx context.Context, authorID string) ([]domain.Note, error) {
	q := docstore.NewQuery(Collection).Where(docstore.Eq(FieldAuthor, authorID))
	docs, err := r.store.Query(ctx, q.Order(FieldTimestamp, docstore.Desc))
	if docstore.IsMissingIndex(err) {
		docs, err = r.store.Query(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("list notes of %s: %w", authorID, err)
	}
	notes := fromDocuments(docs)
	sortNewestFirst(notes)
	return notes, nil
}

// ListByTopic returns the notes filed under topicID, newest first.
func (r *Repo) ListByTopic(ctx context.Context, topicID string) ([]domain.Note, error) {
	docs, err := r.store.Query(ctx, byTopic(topicID))
	if err != nil {
		return nil, fmt.Errorf("list notes of topic %s: %w", topicID, err)
	}
	notes := fromDocuments(docs)
	sortNewestFirst(notes)
	return notes, nil
}

// Create stores a new note and returns it with its generated ID.
func (r *Repo) Create(ctx context.Context, n domain.Note) (*domain.Note, error) {
	id, err := r.store.Create(ctx, Collection, toFields(n))
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	n.ID = id
	return &n, nil
}

// Delete removes a note.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	return nil
}

// DeleteByTopic removes every note filed under topicID and reports how many
// were removed. It stops at the first failed delete.
func (r *Repo) DeleteByTopic(ctx context.Context, topicID string) (int, error) {
	docs, err := r.store.Query(ctx, byTopic(topicID))
	if err != nil {
		return 0, fmt.Errorf("find notes of topic %s: %w", topicID, err)
	}
	for i, d := range docs {
		if err := r.store.Delete(ctx, Collection, d.ID); err != nil {
			return i, fmt.Errorf("delete note %s of topic %s: %w", d.ID, topicID, err)
		}
	}
	return len(docs), nil
}

// AddReply appends a reply to a note.
func (r *Repo) AddReply(ctx context.Context, noteID string, reply domain.Reply) error {
	value := map[string]any{
		replyContent:   reply.Content,
		replyUser:      reply.UserID,
		replyTimestamp: reply.CreatedAt.UTC(),
	}
	if err := r.store.ArrayAdd(ctx, Collection, noteID, FieldReplies, value); err != nil {
		return fmt.Errorf("reply to note %s: %w", noteID, err)
	}
	return nil
}

// AddLike records that userID likes the note.
func (r *Repo) AddLike(ctx context.Context, noteID, userID string) error {
	return r.arrayOp(ctx, r.store.ArrayAdd, noteID, FieldLikes, userID)
}

// RemoveLike withdraws the like of userID.
func (r *Repo) RemoveLike(ctx context.Context, noteID, userID string) error {
	return r.arrayOp(ctx, r.store.ArrayRemove, noteID, FieldLikes, userID)
}

// AddTopic files the note under topicID.
func (r *Repo) AddTopic(ctx context.Context, noteID, topicID string) error {
	return r.arrayOp(ctx, r.store.ArrayAdd, noteID, FieldTopicIDs, topicID)
}

// RemoveTopic removes the note from topicID.
func (r *Repo) RemoveTopic(ctx context.Context, noteID, topicID string) error {
	return r.arrayOp(ctx, r.store.ArrayRemove, noteID, FieldTopicIDs, topicID)
}

type arrayFunc func(ctx context.Context, collection, id, field string, value any) error

func (r *Repo) arrayOp(ctx context.Context, op arrayFunc, noteID, field, value string) error {
	if err := op(ctx, Collection, noteID, field, value); err != nil {
		return fmt.Errorf("update %s of note %s: %w", field, noteID, err)
	}
	return nil
}

func byTopic(topicID string) docstore.Query {
	return docstore.NewQuery(Collection).Where(docstore.ArrayContains(FieldTopicIDs, topicID))
}

func toFields(n domain.Note) map[string]any {
	replies := make([]any, len(n.Replies))
	for i, rp := range n.Replies {
		replies[i] = map[string]any{
			replyContent:   rp.Content,
			replyUser:      rp.UserID,
			replyTimestamp: rp.CreatedAt.UTC(),
		}
	}
	return map[string]any{
		FieldContent:   n.Content,
		FieldAuthor:    n.AuthorID,
		FieldTopicIDs:  nonNil(n.TopicIDs),
		FieldLikes:     nonNil(n.Likes),
		FieldReplies:   replies,
		FieldTimestamp: n.CreatedAt.UTC(),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func fromDocument(doc docstore.Document) domain.Note {
	n := domain.Note{
		ID:        doc.ID,
		Content:   docstore.String(doc.Data, FieldContent),
		AuthorID:  docstore.String(doc.Data, FieldAuthor),
		TopicIDs:  docstore.Strings(doc.Data, FieldTopicIDs),
		Likes:     docstore.Strings(doc.Data, FieldLikes),
		CreatedAt: docstore.Time(doc.Data, FieldTimestamp),
	}
	raw := docstore.Maps(doc.Data, FieldReplies)
	n.Replies = make([]domain.Reply, len(raw))
	for i, m := range raw {
		n.Replies[i] = domain.Reply{
			Content:   docstore.String(m, replyContent),
			UserID:    docstore.String(m, replyUser),
			CreatedAt: docstore.Time(m, replyTimestamp),
		}
	}
	return n
}

func fromDocuments(docs []docstore.Document) []domain.Note {
	out := make([]domain.Note, len(docs))
	for i, d := range docs {
		out[i] = fromDocument(d)
	}
	return out
}

func sortNewestFirst(notes []domain.Note) {
	slices.SortStableFunc(notes, func(a, b domain.Note) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
