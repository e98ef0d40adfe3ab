package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the full route tree: the JSON API under /api and the SPA
// catch-all under /.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		// API misses are JSON 404s, never the SPA shell.
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			respondError(w, http.StatusNotFound, "not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		})

		r.Route("/generate", func(r chi.Router) {
			r.Post("/", s.handleGenerateSubmit)
			r.Get("/", s.handleGenerateQueue)
			r.Get("/{id}", s.handleGenerateStatus)
			r.Get("/{id}/result", s.handleGenerateResult)
			r.Post("/{id}/cancel", s.handleGenerateCancel)
		})

		r.Route("/songs", func(r chi.Router) {
			r.Get("/", s.handleSongList)
			r.Post("/", s.handleSongCreate)
			r.Get("/{id}", s.handleSongGet)
			r.Patch("/{id}", s.handleSongUpdate)
			r.Delete("/{id}", s.handleSongDelete)
			r.Get("/{id}/audio", s.handleSongAudio)
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", s.handlePlaylistList)
			r.Post("/", s.handlePlaylistCreate)
			r.Get("/{id}", s.handlePlaylistGet)
			r.Put("/{id}", s.handlePlaylistUpdate)
			r.Delete("/{id}", s.handlePlaylistDelete)
			r.Post("/{id}/songs", s.handlePlaylistAddSong)
			r.Delete("/{id}/songs/{songID}", s.handlePlaylistRemoveSong)
		})

		r.Route("/references", func(r chi.Router) {
			r.Get("/", s.handleReferenceList)
			r.Post("/", s.handleReferenceUpload)
			r.Get("/{id}/audio", s.handleReferenceAudio)
			r.Delete("/{id}", s.handleReferenceDelete)
		})

		r.Get("/preferences", s.handlePreferencesGet)
		r.Put("/preferences", s.handlePreferencesPut)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleAuthLogin)
			r.Get("/me", s.handleAuthMe)
			r.Post("/logout", s.handleAuthLogout)
		})

		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
	})

	r.Handle("/*", s.spa)

	return r
}
