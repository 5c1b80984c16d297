package profile

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

const (
	MaxDisplayNameLength = 50
	MaxBioLength         = 500
	MaxURLLength         = 2048
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// UpdateInput holds the editable display attributes. Nil fields are left
// unchanged. An empty Bio clears it.
type UpdateInput struct {
	DisplayName     *string
	Bio             *string
	ProfilePic      *string
	BannerImage     *string
	BackgroundColor *string
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate() error {
	var errs []domain.FieldError

	if i.DisplayName == nil && i.Bio == nil && i.ProfilePic == nil &&
		i.BannerImage == nil && i.BackgroundColor == nil {
		errs = append(errs, domain.FieldError{Field: "input", Message: "at least one field must be provided"})
	}

	if i.DisplayName != nil {
		name := strings.TrimSpace(*i.DisplayName)
		switch {
		case name == "":
			errs = append(errs, domain.FieldError{Field: "display_name", Message: "required"})
		case utf8.RuneCountInString(name) > MaxDisplayNameLength:
			errs = append(errs, domain.FieldError{Field: "display_name", Message: "max 50 characters"})
		case strings.ContainsAny(name, "/?#"):
			errs = append(errs, domain.FieldError{Field: "display_name", Message: "must not contain / ? or #"})
		}
	}

	if i.Bio != nil && utf8.RuneCountInString(strings.TrimSpace(*i.Bio)) > MaxBioLength {
		errs = append(errs, domain.FieldError{Field: "bio", Message: "max 500 characters"})
	}

	if fe := validateImageURL("profile_pic", i.ProfilePic); fe != nil {
		errs = append(errs, *fe)
	}
	if fe := validateImageURL("banner_image", i.BannerImage); fe != nil {
		errs = append(errs, *fe)
	}

	if i.BackgroundColor != nil && !colorPattern.MatchString(*i.BackgroundColor) {
		errs = append(errs, domain.FieldError{Field: "background_color", Message: "must be a #rrggbb color"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// validateImageURL accepts nil, an empty string (clears the image) or an
// absolute http(s) URL.
func validateImageURL(field string, v *string) *domain.FieldError {
	if v == nil {
		return nil
	}
	raw := strings.TrimSpace(*v)
	if raw == "" {
		return nil
	}
	if len(raw) > MaxURLLength {
		return &domain.FieldError{Field: field, Message: "too long"}
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &domain.FieldError{Field: field, Message: "must be an http(s) URL"}
	}
	return nil
}

// toUpdate trims the provided fields.
func (i UpdateInput) toUpdate() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		DisplayName:     trimmed(i.DisplayName),
		Bio:             trimmed(i.Bio),
		ProfilePic:      trimmed(i.ProfilePic),
		BannerImage:     trimmed(i.BannerImage),
		BackgroundColor: i.BackgroundColor,
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
