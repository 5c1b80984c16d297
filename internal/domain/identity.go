package domain

// Identity is the authenticated principal supplied by the identity provider.
type Identity struct {
	UserID     string
	Email      string
	Name       string
	PictureURL string
}

// IsZero reports whether the identity carries no user.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}
