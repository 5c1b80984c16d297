// Package profile maps user profile documents to domain.UserProfile.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// Collection holds one profile document per user, keyed by user ID.
const Collection = "users"

// Document field names.
const (
	FieldDisplayName     = "displayName"
	FieldEmail           = "email"
	FieldBio             = "bio"
	FieldProfilePic      = "profilePic"
	FieldBannerImage     = "bannerImage"
	FieldBackgroundColor = "backgroundColor"
)

// ArrayField names a set-valued profile field.
type ArrayField string

const (
	// Bookmarks is the set of bookmarked topic IDs.
	Bookmarks ArrayField = "bookmarkedTopics"
	// LegacyArchived is the profile-side archive set written by older clients.
	LegacyArchived ArrayField = "archivedTopics"
)

// Repo provides typed access to the users collection.
type Repo struct {
	store docstore.Store
}

// New creates a profile repository over store.
func New(store docstore.Store) *Repo {
	return &Repo{store: store}
}

// GetByID returns a profile or an error wrapping domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	p := fromDocument(doc)
	return &p, nil
}

// GetByIDs returns the existing profiles among ids. Missing IDs are skipped.
func (r *Repo) GetByIDs(ctx context.Context, ids []string) ([]domain.UserProfile, error) {
	if len(ids) == 0 {
		return []domain.UserProfile{}, nil
	}
	docs, err := r.store.GetMany(ctx, Collection, ids)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	return fromDocuments(docs), nil
}

// GetByDisplayName returns the first profile with the given display name.
func (r *Repo) GetByDisplayName(ctx context.Context, name string) (*domain.UserProfile, error) {
	docs, err := r.store.Query(ctx, docstore.NewQuery(Collection).
		Where(docstore.Eq(FieldDisplayName, name)).
		WithLimit(1))
	if err != nil {
		return nil, fmt.Errorf("find profile %q: %w", name, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("find profile %q: %w", name, domain.ErrNotFound)
	}
	p := fromDocument(docs[0])
	return &p, nil
}

// ListByBookmark returns every profile whose bookmark set contains topicID.
func (r *Repo) ListByBookmark(ctx context.Context, topicID string) ([]domain.UserProfile, error) {
	docs, err := r.store.Query(ctx, docstore.NewQuery(Collection).
		Where(docstore.ArrayContains(string(Bookmarks), topicID)))
	if err != nil {
		return nil, fmt.Errorf("list profiles bookmarking %s: %w", topicID, err)
	}
	return fromDocuments(docs), nil
}

// ListAll returns every profile.
func (r *Repo) ListAll(ctx context.Context) ([]domain.UserProfile, error) {
	docs, err := r.store.Query(ctx, docstore.NewQuery(Collection))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return fromDocuments(docs), nil
}

// Create writes a new profile document under p.ID.
func (r *Repo) Create(ctx context.Context, p domain.UserProfile) error {
	if p.ID == "" {
		return fmt.Errorf("create profile: %w", domain.NewValidationError("id", "required"))
	}
	if err := r.store.Set(ctx, Collection, p.ID, toFields(p)); err != nil {
		return fmt.Errorf("create profile %s: %w", p.ID, err)
	}
	return nil
}

// Update applies a partial change to display attributes.
func (r *Repo) Update(ctx context.Context, id string, upd domain.ProfileUpdate) error {
	fields := make(map[string]any)
	set := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	set(FieldDisplayName, upd.DisplayName)
	set(FieldBio, upd.Bio)
	set(FieldProfilePic, upd.ProfilePic)
	set(FieldBannerImage, upd.BannerImage)
	set(FieldBackgroundColor, upd.BackgroundColor)
	if len(fields) == 0 {
		return nil
	}
	if err := r.store.Update(ctx, Collection, id, fields); err != nil {
		return fmt.Errorf("update profile %s: %w", id, err)
	}
	return nil
}

// ArrayAdd atomically adds value to a set-valued field.
func (r *Repo) ArrayAdd(ctx context.Context, id string, field ArrayField, value string) error {
	if err := r.store.ArrayAdd(ctx, Collection, id, string(field), value); err != nil {
		return fmt.Errorf("add %s to %s of %s: %w", value, field, id, err)
	}
	return nil
}

// ArrayRemove atomically removes value from a set-valued field.
func (r *Repo) ArrayRemove(ctx context.Context, id string, field ArrayField, value string) error {
	if err := r.store.ArrayRemove(ctx, Collection, id, string(field), value); err != nil {
		return fmt.Errorf("remove %s from %s of %s: %w", value, field, id, err)
	}
	return nil
}

// Subscribe keeps onData informed of the profile document. A nil profile
// means the document does not exist.
func (r *Repo) Subscribe(
	ctx context.Context,
	id string,
	onData func(*domain.UserProfile),
	onError func(error),
) (docstore.Subscription, error) {
	sub, err := r.store.SubscribeDoc(ctx, Collection, id,
		func(doc docstore.Document, exists bool) {
			if !exists {
				onData(nil)
				return
			}
			p := fromDocument(doc)
			onData(&p)
		},
		onError,
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe profile %s: %w", id, err)
	}
	return sub, nil
}

// IsNotFound reports whether err means the profile does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func toFields(p domain.UserProfile) map[string]any {
	bookmarks := p.BookmarkedTopics
	if bookmarks == nil {
		bookmarks = []string{}
	}
	fields := map[string]any{
		FieldDisplayName:     p.DisplayName,
		FieldEmail:           p.Email,
		FieldBio:             p.Bio,
		FieldProfilePic:      p.ProfilePic,
		FieldBannerImage:     p.BannerImage,
		FieldBackgroundColor: p.BackgroundColor,
		string(Bookmarks):    bookmarks,
	}
	if len(p.LegacyArchivedTopics) > 0 {
		fields[string(LegacyArchived)] = p.LegacyArchivedTopics
	}
	return fields
}

func fromDocument(doc docstore.Document) domain.UserProfile {
	return domain.UserProfile{
		ID:                   doc.ID,
		DisplayName:          docstore.String(doc.Data, FieldDisplayName),
		Email:                docstore.String(doc.Data, FieldEmail),
		Bio:                  docstore.String(doc.Data, FieldBio),
		ProfilePic:           docstore.String(doc.Data, FieldProfilePic),
		BannerImage:          docstore.String(doc.Data, FieldBannerImage),
		BackgroundColor:      docstore.String(doc.Data, FieldBackgroundColor),
		BookmarkedTopics:     docstore.Strings(doc.Data, string(Bookmarks)),
		LegacyArchivedTopics: docstore.Strings(doc.Data, string(LegacyArchived)),
	}
}

func fromDocuments(docs []docstore.Document) []domain.UserProfile {
	out := make([]domain.UserProfile, len(docs))
	for i, d := range docs {
		out[i] = fromDocument(d)
	}
	return out
}
