package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/internal/service/profile"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

type profileService interface {
	GetMe(ctx context.Context) (*domain.UserProfile, error)
	GetPublic(ctx context.Context, displayName string) (*domain.PublicProfile, error)
	Update(ctx context.Context, input profile.UpdateInput) (*domain.UserProfile, error)
}

// ProfileHandler serves the caller's own profile and public profile pages.
type ProfileHandler struct {
	svc profileService
	// hub signs the caller in, which creates the profile on first use.
	hub topicsHub
	log *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(svc profileService, hub topicsHub, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, hub: hub, log: logger.With("handler", "profile")}
}

type updateProfileRequest struct {
	DisplayName     *string `json:"displayName"`
	Bio             *string `json:"bio"`
	ProfilePic      *string `json:"profilePic"`
	BannerImage     *string `json:"bannerImage"`
	BackgroundColor *string `json:"backgroundColor"`
}

func (h *ProfileHandler) ensureSession(w http.ResponseWriter, r *http.Request) bool {
	identity, ok := ctxutil.IdentityFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	hd, err := h.hub.Acquire(r.Context(), identity)
	if err != nil {
		handleError(w, r, h.log, err)
		return false
	}
	hd.Release()
	return true
}

// Me handles GET /me.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w, r) {
		return
	}
	p, err := h.svc.GetMe(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(*p, true))
}

// UpdateMe handles PATCH /me.
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.ensureSession(w, r) {
		return
	}

	p, err := h.svc.Update(r.Context(), profile.UpdateInput{
		DisplayName:     req.DisplayName,
		Bio:             req.Bio,
		ProfilePic:      req.ProfilePic,
		BannerImage:     req.BannerImage,
		BackgroundColor: req.BackgroundColor,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(*p, true))
}

// Public handles GET /users/{name}. Anonymous callers are allowed.
func (h *ProfileHandler) Public(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPublic(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	viewer, _ := ctxutil.UserIDFromCtx(r.Context())
	writeJSON(w, http.StatusOK, toPublicProfileResponse(*p, viewer))
}
