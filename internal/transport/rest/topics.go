package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/interestingtome-backend/internal/domain"
	"github.com/heartmarshall/interestingtome-backend/internal/service/topics"
	"github.com/heartmarshall/interestingtome-backend/pkg/ctxutil"
)

// loadTimeout bounds how long GET /topics waits for the first view.
const loadTimeout = 10 * time.Second

// topicsHub hands out the caller's shared synchronizer.
type topicsHub interface {
	Acquire(ctx context.Context, identity domain.Identity) (*topics.Handle, error)
}

type topicNotesLister interface {
	ListByTopic(ctx context.Context, topicID string) ([]domain.Note, error)
}

// TopicsHandler serves the topic views and topic mutations of the caller.
type TopicsHandler struct {
	hub       topicsHub
	notes     topicNotesLister
	heartbeat time.Duration
	log       *slog.Logger
}

// NewTopicsHandler creates a TopicsHandler. heartbeat is the keep-alive
// interval of the event stream; zero disables it.
func NewTopicsHandler(hub topicsHub, notes topicNotesLister, heartbeat time.Duration, logger *slog.Logger) *TopicsHandler {
	return &TopicsHandler{hub: hub, notes: notes, heartbeat: heartbeat, log: logger.With("handler", "topics")}
}

type createTopicRequest struct {
	Name string `json:"name"`
}

type updateTopicRequest struct {
	Name    *string `json:"name"`
	Content *string `json:"content"`
}

type archiveResponse struct {
	Archived bool `json:"archived"`
}

type bookmarkResponse struct {
	Bookmarked bool `json:"bookmarked"`
}

// acquire writes the error response itself and returns nil on failure.
func (h *TopicsHandler) acquire(w http.ResponseWriter, r *http.Request) *topics.Handle {
	identity, ok := ctxutil.IdentityFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil
	}
	hd, err := h.hub.Acquire(r.Context(), identity)
	if err != nil {
		handleError(w, r, h.log, err)
		return nil
	}
	return hd
}

// List handles GET /topics. It waits for the first complete view.
func (h *TopicsHandler) List(w http.ResponseWriter, r *http.Request) {
	hd := h.acquire(w, r)
	if hd == nil {
		return
	}
	defer hd.Release()

	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	v, err := hd.WaitLoaded(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewResponse(v))
}

// Events handles GET /topics/events. It streams every view change as a
// server-sent "view" event until the client disconnects.
func (h *TopicsHandler) Events(w http.ResponseWriter, r *http.Request) {
	hd := h.acquire(w, r)
	if hd == nil {
		return
	}
	defer hd.Release()

	rc := http.NewResponseController(w)
	// The server write timeout would cut the stream.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.WarnContext(r.Context(), "clear write deadline", slog.String("error", err.Error()))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Only the latest view matters; a slow client skips intermediate ones.
	latest := make(chan topics.View, 1)
	cancel := hd.Watch(func(v topics.View) {
		select {
		case <-latest:
		default:
		}
		latest <- v
	})
	defer cancel()

	var tick <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case v := <-latest:
			data, err := json.Marshal(toViewResponse(v))
			if err != nil {
				h.log.ErrorContext(r.Context(), "encode view", slog.String("error", err.Error()))
				return
			}
			if _, err := fmt.Fprintf(w, "event: view\ndata: %s\n\n", data); err != nil {
				return
			}
		case <-tick:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// Create handles POST /topics.
func (h *TopicsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	hd := h.acquire(w, r)
	if hd == nil {
		return
	}
	defer hd.Release()

	t, err := hd.AddTopic(r.Context(), req.Name)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTopicResponse(*t))
}

// Update handles PATCH /topics/{id}. Name and content are applied
// independently; a rename failure leaves the content untouched.
func (h *TopicsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateTopicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil && req.Content == nil {
		handleError(w, r, h.log, domain.NewValidationError("input", "at least one field must be provided"))
		return
	}
	hd := h.acquire(w, r)
	if hd == nil {
		return
	}
	defer hd.Release()

	id := chi.URLParam(r, "id")
	if req.Name != nil {
		if err := hd.RenameTopic(r.Context(), id, *req.Name); err != nil {
			handleError(w, r, h.log, err)
			return
		}
	}
	if req.Content != nil {
		if err := hd.UpdateContent(r.Context(), id, *req.Content); err != nil {
			handleError(w, r, h.log, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /topics/{id}.
func (h *TopicsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	hd := h.acquire(w, r)
	if hd == nil {
		return
	}
	defer hd.Release()

	if err := hd.DeleteTopic(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleArchive handles POST /topics/{id}/archive.
func (h *TopicsHandler) ToggleArchive(w http.ResponseWriter, r *http.Request) {
	hd := h.acquire(w, r)
	if hd == nil {
		return
	}
	defer hd.Release()

	archived, err := hd.ToggleArchive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, archiveResponse{Archived: archived})
}

// ToggleBookmark handles POST /topics/{id}/bookmark.
func (h *TopicsHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	hd := h.acquire(w, r)
	if hd == nil {
		return
	}
	defer hd.Release()

	bookmarked, err := hd.ToggleBookmark(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmarkResponse{Bookmarked: bookmarked})
}

// Notes handles GET /topics/{id}/notes.
func (h *TopicsHandler) Notes(w http.ResponseWriter, r *http.Request) {
	ns, err := h.notes.ListByTopic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	viewer, _ := ctxutil.UserIDFromCtx(r.Context())
	writeJSON(w, http.StatusOK, toNoteResponses(ns, viewer))
}
