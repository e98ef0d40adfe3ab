package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"soundsmith/internal/models"
	"soundsmith/internal/shared"
)

type playlistResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SongCount   int       `json:"song_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type playlistDetailResponse struct {
	playlistResponse
	Songs []songResponse `json:"songs"`
}

func playlistView(p *models.Playlist) playlistResponse {
	return playlistResponse{
		ID:          p.ID(),
		Name:        p.Name(),
		Description: p.Description(),
		SongCount:   p.SongCount(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

func (s *Server) handlePlaylistList(w http.ResponseWriter, _ *http.Request) {
	playlists, err := s.playlists.List(nil)
	if err != nil {
		s.fail(w, err)
		return
	}

	views := make([]playlistResponse, len(playlists))
	for i, p := range playlists {
		views[i] = playlistView(p)
	}

	respond(w, http.StatusOK, map[string]any{"playlists": views})
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handlePlaylistCreate(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		s.fail(w, fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput))
		return
	}

	playlist := models.NewPlaylist(0, req.Name, req.Description)
	if err := s.playlists.Create(playlist); err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusCreated, playlistView(playlist))
}

func (s *Server) handlePlaylistGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	playlist, err := s.playlists.Get(id)
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id))
		return
	}

	songs, err := s.playlists.Songs(id)
	if err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, playlistDetailResponse{
		playlistResponse: playlistView(playlist),
		Songs:            songViews(songs),
	})
}

func (s *Server) handlePlaylistUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	playlist, err := s.playlists.Get(id)
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id))
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		s.fail(w, fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput))
		return
	}

	playlist.SetName(req.Name)
	playlist.SetDescription(req.Description)

	if err := s.playlists.Update(playlist); err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, playlistView(playlist))
}

func (s *Server) handlePlaylistDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.playlists.Get(id); err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id))
		return
	}

	if err := s.playlists.Delete(id); err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusNoContent, nil)
}

type playlistAddRequest struct {
	SongID string `json:"song_id"`
}

func (s *Server) handlePlaylistAddSong(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.playlists.Get(id); err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id))
		return
	}

	var req playlistAddRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	if _, err := s.songs.Get(req.SongID); err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrSongNotFound, req.SongID))
		return
	}

	if err := s.playlists.AddSong(id, req.SongID); err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusCreated, map[string]string{
		"playlist_id": id,
		"song_id":     req.SongID,
	})
}

func (s *Server) handlePlaylistRemoveSong(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	songID := chi.URLParam(r, "songID")

	if _, err := s.playlists.Get(id); err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id))
		return
	}

	if err := s.playlists.RemoveSong(id, songID); err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusNoContent, nil)
}
