package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

var t0 = time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func userCtx(userID string) context.Context {
	return ctxutil.WithIdentity(context.Background(), domain.Identity{UserID: userID})
}

// ada is the profile used by the GetPublic tests.
func ada() *domain.UserProfile {
	return &domain.UserProfile{ID: "ada", DisplayName: "Ada", BookmarkedTopics: []string{"b1", "b2"}}
}

type publicDeps struct {
	profiles  *profileRepoMock
	topics    *topicRepoMock
	notes     *noteRepoMock
	bookmarks *bookmarkResolverMock
}

func newPublicDeps() *publicDeps {
	return &publicDeps{
		profiles: &profileRepoMock{
			GetByDisplayNameFunc: func(ctx context.Context, name string) (*domain.UserProfile, error) {
				if name != "Ada" {
					return nil, domain.ErrNotFound
				}
				return ada(), nil
			},
		},
		topics: &topicRepoMock{
			ListByOwnerFunc: func(ctx context.Context, ownerID string, ordered bool) ([]domain.Topic, error) {
				return []domain.Topic{
					{ID: "t2", OwnerID: ownerID, Name: "Newer", CreatedAt: t0.Add(time.Hour)},
					{ID: "t1", OwnerID: ownerID, Name: "Archived", Archived: true, CreatedAt: t0},
				}, nil
			},
		},
		notes: &noteRepoMock{
			ListByAuthorFunc: func(ctx context.Context, authorID string) ([]domain.Note, error) {
				return []domain.Note{{ID: "n1", AuthorID: authorID}}, nil
			},
		},
		bookmarks: &bookmarkResolverMock{
			ResolveFunc: func(ctx context.Context, ids []string) ([]domain.BookmarkedTopic, error) {
				out := make([]domain.BookmarkedTopic, len(ids))
				for i, id := range ids {
					out[i] = domain.BookmarkedTopic{Topic: domain.Topic{ID: id}, OwnerName: "Bob"}
				}
				return out, nil
			},
		},
	}
}

func (d *publicDeps) service() *Service {
	return NewService(slog.Default(), d.profiles, d.topics, d.notes, d.bookmarks)
}

// ---------------------------------------------------------------------------
// GetPublic
// ---------------------------------------------------------------------------

func TestGetPublic_Success(t *testing.T) {
	t.Parallel()

	d := newPublicDeps()
	got, err := d.service().GetPublic(userCtx("bob"), " Ada ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Profile.ID != "ada" {
		t.Errorf("profile: got %q, want ada", got.Profile.ID)
	}
	if len(got.Topics) != 1 || got.Topics[0].ID != "t2" {
		t.Errorf("topics: got %+v, want only the non-archived t2", got.Topics)
	}
	if len(got.Bookmarks) != 2 || got.Bookmarks[0].ID != "b1" || got.Bookmarks[1].ID != "b2" {
		t.Errorf("bookmarks: got %+v", got.Bookmarks)
	}
	if len(got.Notes) != 1 {
		t.Errorf("notes: got %d, want 1", len(got.Notes))
	}
	if got.IsOwnProfile {
		t.Error("bob viewing ada should not be own profile")
	}
	if calls := d.topics.ListByOwnerCalls(); len(calls) != 1 || !calls[0] {
		t.Errorf("ListByOwner calls: got %v, want one ordered call", calls)
	}
}

func TestGetPublic_IsOwnProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  context.Context
		want bool
	}{
		{"owner", userCtx("ada"), true},
		{"other user", userCtx("bob"), false},
		{"anonymous", context.Background(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := newPublicDeps().service().GetPublic(tt.ctx, "Ada")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsOwnProfile != tt.want {
				t.Errorf("IsOwnProfile: got %v, want %v", got.IsOwnProfile, tt.want)
			}
		})
	}
}

func TestGetPublic_MissingIndexFallsBack(t *testing.T) {
	t.Parallel()

	d := newPublicDeps()
	d.topics.ListByOwnerFunc = func(ctx context.Context, ownerID string, ordered bool) ([]domain.Topic, error) {
		if ordered {
			return nil, fmt.Errorf("query topics: %w", docstore.ErrMissingIndex)
		}
		return []domain.Topic{
			{ID: "old", OwnerID: ownerID, CreatedAt: t0},
			{ID: "new", OwnerID: ownerID, CreatedAt: t0.Add(time.Hour)},
		}, nil
	}

	got, err := d.service().GetPublic(context.Background(), "Ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Topics) != 2 || got.Topics[0].ID != "new" || got.Topics[1].ID != "old" {
		t.Errorf("topics: got %+v, want newest first", got.Topics)
	}
	if calls := d.topics.ListByOwnerCalls(); len(calls) != 2 || calls[1] {
		t.Errorf("ListByOwner calls: got %v, want ordered then unordered", calls)
	}
}

func TestGetPublic_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("store down")

	tests := []struct {
		name    string
		display string
		mutate  func(d *publicDeps)
		wantErr error
	}{
		{"blank name", "  ", nil, domain.ErrValidation},
		{"unknown user", "Nobody", nil, domain.ErrNotFound},
		{"topics fail", "Ada", func(d *publicDeps) {
			d.topics.ListByOwnerFunc = func(ctx context.Context, ownerID string, ordered bool) ([]domain.Topic, error) {
				return nil, boom
			}
		}, boom},
		{"bookmarks fail", "Ada", func(d *publicDeps) {
			d.bookmarks.ResolveFunc = func(ctx context.Context, ids []string) ([]domain.BookmarkedTopic, error) {
				return nil, boom
			}
		}, boom},
		{"notes fail", "Ada", func(d *publicDeps) {
			d.notes.ListByAuthorFunc = func(ctx context.Context, authorID string) ([]domain.Note, error) {
				return nil, boom
			}
		}, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := newPublicDeps()
			if tt.mutate != nil {
				tt.mutate(d)
			}
			_, err := d.service().GetPublic(context.Background(), tt.display)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// GetMe
// ---------------------------------------------------------------------------

func TestGetMe(t *testing.T) {
	t.Parallel()

	d := newPublicDeps()
	d.profiles.GetByIDFunc = func(ctx context.Context, id string) (*domain.UserProfile, error) {
		return &domain.UserProfile{ID: id}, nil
	}
	svc := d.service()

	got, err := svc.GetMe(userCtx("ada"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "ada" {
		t.Errorf("ID: got %q, want ada", got.ID)
	}

	if _, err := svc.GetMe(context.Background()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("anonymous: got %v, want ErrUnauthorized", err)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func newUpdateService(t *testing.T, profiles *profileRepoMock) *Service {
	t.Helper()
	return NewService(slog.Default(), profiles, &topicRepoMock{}, &noteRepoMock{}, &bookmarkResolverMock{})
}

func TestUpdate_Success(t *testing.T) {
	t.Parallel()

	profiles := &profileRepoMock{
		GetByDisplayNameFunc: func(ctx context.Context, name string) (*domain.UserProfile, error) {
			return nil, domain.ErrNotFound
		},
		UpdateFunc: func(ctx context.Context, id string, upd domain.ProfileUpdate) error { return nil },
		GetByIDFunc: func(ctx context.Context, id string) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: id, DisplayName: "Ada L"}, nil
		},
	}
	svc := newUpdateService(t, profiles)

	got, err := svc.Update(userCtx("ada"), UpdateInput{
		DisplayName:     ptr("  Ada L "),
		Bio:             ptr(""),
		ProfilePic:      ptr("https://example.com/a.png"),
		BackgroundColor: ptr("#AABBCC"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DisplayName != "Ada L" {
		t.Errorf("display name: got %q", got.DisplayName)
	}

	calls := profiles.UpdateCalls()
	if len(calls) != 1 {
		t.Fatalf("Update calls: got %d, want 1", len(calls))
	}
	upd := calls[0]
	if upd.DisplayName == nil || *upd.DisplayName != "Ada L" {
		t.Errorf("display name should be trimmed, got %v", upd.DisplayName)
	}
	if upd.Bio == nil || *upd.Bio != "" {
		t.Errorf("bio should be cleared, got %v", upd.Bio)
	}
	if upd.BannerImage != nil {
		t.Errorf("banner image should be untouched, got %v", *upd.BannerImage)
	}
}

func TestUpdate_KeepOwnDisplayName(t *testing.T) {
	t.Parallel()

	profiles := &profileRepoMock{
		GetByDisplayNameFunc: func(ctx context.Context, name string) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: "ada", DisplayName: name}, nil
		},
		UpdateFunc: func(ctx context.Context, id string, upd domain.ProfileUpdate) error { return nil },
		GetByIDFunc: func(ctx context.Context, id string) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: id}, nil
		},
	}

	if _, err := newUpdateService(t, profiles).Update(userCtx("ada"), UpdateInput{DisplayName: ptr("Ada")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdate_DisplayNameTaken(t *testing.T) {
	t.Parallel()

	profiles := &profileRepoMock{
		GetByDisplayNameFunc: func(ctx context.Context, name string) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: "someone-else", DisplayName: name}, nil
		},
	}

	_, err := newUpdateService(t, profiles).Update(userCtx("ada"), UpdateInput{DisplayName: ptr("Bob")})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Errors[0].Field != "display_name" {
		t.Fatalf("expected display_name ValidationError, got %v", err)
	}
	if len(profiles.UpdateCalls()) != 0 {
		t.Error("Update should not be called")
	}
}

func TestUpdate_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input UpdateInput
		field string
	}{
		{"empty input", UpdateInput{}, "input"},
		{"blank display name", UpdateInput{DisplayName: ptr("  ")}, "display_name"},
		{"long display name", UpdateInput{DisplayName: ptr(strings.Repeat("a", 51))}, "display_name"},
		{"slash in display name", UpdateInput{DisplayName: ptr("a/b")}, "display_name"},
		{"long bio", UpdateInput{Bio: ptr(strings.Repeat("b", 501))}, "bio"},
		{"relative picture", UpdateInput{ProfilePic: ptr("/a.png")}, "profile_pic"},
		{"ftp banner", UpdateInput{BannerImage: ptr("ftp://example.com/b.png")}, "banner_image"},
		{"bad color", UpdateInput{BackgroundColor: ptr("red")}, "background_color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := newUpdateService(t, &profileRepoMock{}).Update(userCtx("ada"), tt.input)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Errors[0].Field != tt.field {
				t.Errorf("field: got %q, want %q", ve.Errors[0].Field, tt.field)
			}
		})
	}
}

func TestUpdate_ClearImage(t *testing.T) {
	t.Parallel()

	if err := (UpdateInput{ProfilePic: ptr("")}).Validate(); err != nil {
		t.Fatalf("empty URL clears the image: %v", err)
	}
}

func TestUpdate_Unauthorized(t *testing.T) {
	t.Parallel()

	_, err := newUpdateService(t, &profileRepoMock{}).Update(context.Background(), UpdateInput{Bio: ptr("x")})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
