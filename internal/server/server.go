package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"soundsmith/internal/audio"
	"soundsmith/internal/repositories"
	"soundsmith/internal/services"
	"soundsmith/internal/shared"
	"soundsmith/internal/tasks"
	"soundsmith/internal/web"
)

// shutdownTimeout bounds how long Shutdown waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Server is the studio's HTTP face. It owns the repositories and delegates
// generation to the engine; handlers stay thin and push all queue semantics
// down into tasks.
type Server struct {
	config      *shared.Config
	logger      *log.Logger
	engine      *tasks.Engine
	generator   services.Generator
	store       *audio.Store
	songs       *repositories.SongRepository
	playlists   *repositories.PlaylistRepository
	jobs        *repositories.JobRepository
	users       *repositories.UserRepository
	preferences *repositories.PreferencesRepository
	references  *repositories.ReferenceRepository
	spa         http.Handler
	httpServer  *http.Server
}

// Opts carries the server's collaborators. DB, Engine, Generator, and Store
// are required; Logger falls back to stderr.
type Opts struct {
	Config    *shared.Config
	DB        *sql.DB
	Engine    *tasks.Engine
	Generator services.Generator
	Store     *audio.Store
	Logger    *log.Logger
}

// New builds a server and wires its routes.
func New(opts Opts) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	s := &Server{
		config:      opts.Config,
		logger:      opts.Logger,
		engine:      opts.Engine,
		generator:   opts.Generator,
		store:       opts.Store,
		songs:       repositories.NewSongRepository(opts.DB),
		playlists:   repositories.NewPlaylistRepository(opts.DB),
		jobs:        repositories.NewJobRepository(opts.DB),
		users:       repositories.NewUserRepository(opts.DB),
		preferences: repositories.NewPreferencesRepository(opts.DB),
		references:  repositories.NewReferenceRepository(opts.DB),
		spa:         web.Handler(opts.Config.Server.WebDir),
	}

	s.httpServer = &http.Server{
		Addr:    opts.Config.Server.Addr(),
		Handler: s.Routes(),
	}

	return s
}

// Run starts listening and blocks until the server is shut down.
func (s *Server) Run() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// requestLogger logs one line per request after it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).Round(time.Microsecond),
		)
	})
}
