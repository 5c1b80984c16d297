package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/heartmarshall/interestingtome-backend/internal/config"
	"github.com/heartmarshall/interestingtome-backend/internal/transport/middleware"
)

// RouterDeps are the handlers and middleware the HTTP API is built from.
type RouterDeps struct {
	Log       *slog.Logger
	CORS      config.CORSConfig
	Validator middleware.TokenValidator
	Limiter   *middleware.RateLimiter
	// WriteLimit is the per-client budget of mutating requests per minute.
	WriteLimit int

	Health     *HealthHandler
	Topics     *TopicsHandler
	Notes      *NotesHandler
	Profile    *ProfileHandler
	Discussion *DiscussionHandler
}

// NewRouter builds the HTTP API. Every route accepts anonymous requests;
// handlers that need an identity answer 401 themselves.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(d.Log),
		middleware.Recovery(d.Log),
		middleware.CORS(d.CORS),
		middleware.Auth(d.Validator),
	))
	r.Use(chimw.StripSlashes)

	r.Get("/live", d.Health.Live)
	r.Get("/ready", d.Health.Ready)
	r.Get("/health", d.Health.Health)

	var limit middleware.Middleware
	if d.Limiter != nil {
		limit = d.Limiter.Limit(d.WriteLimit)
	}

	r.Route("/api", func(r chi.Router) {
		// Compression buffers output, so the event stream stays outside it.
		r.Get("/topics/events", d.Topics.Events)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5, "application/json"))

			r.Get("/topics", d.Topics.List)
			r.Get("/topics/{id}", d.Discussion.Page)
			r.Get("/topics/{id}/notes", d.Topics.Notes)
			r.Get("/topics/{id}/comments", d.Discussion.Comments)
			r.Get("/topics/{id}/bookmarks/count", d.Discussion.BookmarkCount)
			r.Get("/notes", d.Notes.ListMine)
			r.Get("/me", d.Profile.Me)
			r.Get("/users/{name}", d.Profile.Public)

			r.Group(func(r chi.Router) {
				if limit != nil {
					r.Use(limit)
				}
				r.Post("/topics", d.Topics.Create)
				r.Patch("/topics/{id}", d.Topics.Update)
				r.Delete("/topics/{id}", d.Topics.Delete)
				r.Post("/topics/{id}/archive", d.Topics.ToggleArchive)
				r.Post("/topics/{id}/bookmark", d.Topics.ToggleBookmark)
				r.Post("/topics/{id}/comments", d.Discussion.AddComment)
				r.Delete("/comments/{id}", d.Discussion.DeleteComment)
				r.Post("/topics/{id}/pins/{noteId}", d.Discussion.Pin)
				r.Delete("/topics/{id}/pins/{noteId}", d.Discussion.Unpin)

				r.Post("/notes", d.Notes.Create)
				r.Delete("/notes/{id}", d.Notes.Delete)
				r.Post("/notes/{id}/replies", d.Notes.Reply)
				r.Post("/notes/{id}/like", d.Notes.ToggleLike)
				r.Post("/notes/{id}/topics/{topicId}", d.Notes.ToggleTopic)

				r.Patch("/me", d.Profile.UpdateMe)
			})
		})
	})

	return r
}
