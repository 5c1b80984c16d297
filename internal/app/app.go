package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/comment"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/note"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/profile"
	"github.com/heartmarshall/interestingtome-backend/internal/adapter/repo/topic"
	"github.com/heartmarshall/interestingtome-backend/internal/auth"
	"github.com/heartmarshall/interestingtome-backend/internal/config"
	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/service/discussion"
	"github.com/heartmarshall/interestingtome-backend/internal/service/notes"
	profilesvc "github.com/heartmarshall/interestingtome-backend/internal/service/profile"
	"github.com/heartmarshall/interestingtome-backend/internal/service/topics"
	"github.com/heartmarshall/interestingtome-backend/internal/transport/middleware"
	"github.com/heartmarshall/interestingtome-backend/internal/transport/rest"
)

// rateLimitSweep is how often idle rate-limit buckets are dropped.
const rateLimitSweep = 5 * time.Minute

// Run is the application entry point. It loads configuration, opens the
// document store, wires the services and serves HTTP until ctx is done.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("store", cfg.Store.Driver),
	)

	store, err := OpenStore(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close store", slog.String("error", err.Error()))
		}
	}()

	return serve(ctx, logger, cfg, store)
}

func serve(ctx context.Context, logger *slog.Logger, cfg *config.Config, store docstore.Store) error {
	topicRepo := topic.New(store)
	profileRepo := profile.New(store)
	noteRepo := note.New(store)
	commentRepo := comment.New(store)

	hub := topics.NewHub(logger, topicRepo, profileRepo, noteRepo, commentRepo, cfg.Sync.IdleTimeout,
		topics.WithLoaderWait(cfg.Sync.LoaderWait),
		topics.WithResolveTimeout(cfg.Sync.ResolveTimeout),
	)
	resolver := topics.NewBookmarkResolver(logger, topicRepo, profileRepo, cfg.Sync.LoaderWait)

	notesService := notes.NewService(logger, noteRepo, topicRepo)
	profileService := profilesvc.NewService(logger, profileRepo, topicRepo, noteRepo, resolver)
	discussionService := discussion.NewService(logger, topicRepo, noteRepo, commentRepo, profileRepo, cfg.Sync.LoaderWait)

	limiter := middleware.NewRateLimiter(rateLimitSweep)
	defer limiter.Stop()

	router := rest.NewRouter(rest.RouterDeps{
		Log:        logger,
		CORS:       cfg.CORS,
		Validator:  auth.NewJWTManager(cfg.Auth),
		Limiter:    limiter,
		WriteLimit: cfg.Server.WriteRateLimit,

		Health:     rest.NewHealthHandler(store, cfg.Store.Driver, hub, BuildVersion()),
		Topics:     rest.NewTopicsHandler(hub, notesService, cfg.Server.EventsHeartbeat, logger),
		Notes:      rest.NewNotesHandler(notesService, logger),
		Profile:    rest.NewProfileHandler(profileService, hub, logger),
		Discussion: rest.NewDiscussionHandler(discussionService, logger),
	})

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		return hub.Run(gctx)
	})

	if l, ok := store.(changeListener); ok {
		g.Go(func() error {
			return l.Listen(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
