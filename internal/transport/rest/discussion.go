package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/internal/service/discussion"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

type discussionService interface {
	GetPage(ctx context.Context, topicID string) (*discussion.Page, error)
	BookmarkCount(ctx context.Context, topicID string) (int, error)
	ListComments(ctx context.Context, topicID string) ([]domain.AuthoredComment, error)
	AddComment(ctx context.Context, topicID, content string) (*domain.AuthoredComment, error)
	DeleteComment(ctx context.Context, commentID string) error
	PinNote(ctx context.Context, topicID, noteID string) error
	UnpinNote(ctx context.Context, topicID, noteID string) error
}

// DiscussionHandler serves topic pages: comments, pins and bookmark counts.
type DiscussionHandler struct {
	svc discussionService
	log *slog.Logger
}

// NewDiscussionHandler creates a DiscussionHandler.
func NewDiscussionHandler(svc discussionService, logger *slog.Logger) *DiscussionHandler {
	return &DiscussionHandler{svc: svc, log: logger.With("handler", "discussion")}
}

type commentRequest struct {
	Content string `json:"content"`
}

type bookmarkCountResponse struct {
	Count int `json:"count"`
}

// Page handles GET /topics/{id}.
func (h *DiscussionHandler) Page(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	viewer, _ := ctxutil.UserIDFromCtx(r.Context())
	writeJSON(w, http.StatusOK, toTopicPageResponse(*p, viewer))
}

// BookmarkCount handles GET /topics/{id}/bookmarks/count.
func (h *DiscussionHandler) BookmarkCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.BookmarkCount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmarkCountResponse{Count: n})
}

// Comments handles GET /topics/{id}/comments.
func (h *DiscussionHandler) Comments(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponses(cs))
}

// AddComment handles POST /topics/{id}/comments.
func (h *DiscussionHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.AddComment(r.Context(), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(*c))
}

// DeleteComment handles DELETE /comments/{id}.
func (h *DiscussionHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteComment(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pin handles POST /topics/{id}/pins/{noteId}.
func (h *DiscussionHandler) Pin(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.PinNote(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "noteId")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unpin handles DELETE /topics/{id}/pins/{noteId}.
func (h *DiscussionHandler) Unpin(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.UnpinNote(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "noteId")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
