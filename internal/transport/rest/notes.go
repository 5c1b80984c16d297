package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/internal/service/notes"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

type notesService interface {
	CreateNote(ctx context.Context, input notes.CreateNoteInput) (*domain.Note, error)
	DeleteNote(ctx context.Context, noteID string) error
	ListMine(ctx context.Context) ([]domain.Note, error)
	AddReply(ctx context.Context, input notes.ReplyInput) (*domain.Reply, error)
	ToggleLike(ctx context.Context, noteID string) (bool, error)
	ToggleNoteTopic(ctx context.Context, noteID, topicID string) (bool, error)
}

// NotesHandler serves note endpoints.
type NotesHandler struct {
	svc notesService
	log *slog.Logger
}

// NewNotesHandler creates a NotesHandler.
func NewNotesHandler(svc notesService, logger *slog.Logger) *NotesHandler {
	return &NotesHandler{svc: svc, log: logger.With("handler", "notes")}
}

type createNoteRequest struct {
	Content  string   `json:"content"`
	TopicIDs []string `json:"topicIds"`
}

type replyRequest struct {
	Content string `json:"content"`
}

type likeResponse struct {
	Liked bool `json:"liked"`
}

type noteTopicResponse struct {
	Filed bool `json:"filed"`
}

// ListMine handles GET /notes.
func (h *NotesHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ns, err := h.svc.ListMine(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	viewer, _ := ctxutil.UserIDFromCtx(r.Context())
	writeJSON(w, http.StatusOK, toNoteResponses(ns, viewer))
}

// Create handles POST /notes.
func (h *NotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	n, err := h.svc.CreateNote(r.Context(), notes.CreateNoteInput{Content: req.Content, TopicIDs: req.TopicIDs})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	viewer, _ := ctxutil.UserIDFromCtx(r.Context())
	writeJSON(w, http.StatusCreated, toNoteResponse(*n, viewer))
}

// Delete handles DELETE /notes/{id}.
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNote(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reply handles POST /notes/{id}/replies.
func (h *NotesHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.svc.AddReply(r.Context(), notes.ReplyInput{NoteID: chi.URLParam(r, "id"), Content: req.Content})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, replyResponse{
		Content:   reply.Content,
		UserID:    reply.UserID,
		CreatedAt: reply.CreatedAt,
	})
}

// ToggleLike handles POST /notes/{id}/like.
func (h *NotesHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	liked, err := h.svc.ToggleLike(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Liked: liked})
}

// ToggleTopic handles POST /notes/{id}/topics/{topicId}.
func (h *NotesHandler) ToggleTopic(w http.ResponseWriter, r *http.Request) {
	filed, err := h.svc.ToggleNoteTopic(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "topicId"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, noteTopicResponse{Filed: filed})
}
