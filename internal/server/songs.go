package server

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"soundsmith/internal/audio"
	"soundsmith/internal/models"
	"soundsmith/internal/shared"
)

type songResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist,omitempty"`
	Album           string    `json:"album,omitempty"`
	Tags            string    `json:"tags,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	FilePath        string    `json:"file_path"`
	Format          string    `json:"format,omitempty"`
	SampleRate      int       `json:"sample_rate,omitempty"`
	Channels        int       `json:"channels,omitempty"`
	SizeBytes       int64     `json:"size_bytes"`
	Source          string    `json:"source"`
	JobID           string    `json:"job_id,omitempty"`
	Prompt          string    `json:"prompt,omitempty"`
	Lyrics          string    `json:"lyrics,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func songView(song *models.Song) songResponse {
	return songResponse{
		ID:              song.ID(),
		Title:           song.Title(),
		Artist:          song.Artist(),
		Album:           song.Album(),
		Tags:            song.Tags(),
		DurationSeconds: song.DurationSeconds(),
		FilePath:        song.FilePath(),
		Format:          song.Format(),
		SampleRate:      song.SampleRate(),
		Channels:        song.Channels(),
		SizeBytes:       song.SizeBytes(),
		Source:          song.Source(),
		JobID:           song.JobID(),
		Prompt:          song.Prompt(),
		Lyrics:          song.Lyrics(),
		CreatedAt:       song.CreatedAt(),
		UpdatedAt:       song.UpdatedAt(),
	}
}

func songViews(songs []*models.Song) []songResponse {
	views := make([]songResponse, len(songs))
	for i, song := range songs {
		views[i] = songView(song)
	}
	return views
}

// streamAudio serves a stored file. The rel path comes from a database row; a
// missing file means the catalog and the disk have diverged.
func (s *Server) streamAudio(w http.ResponseWriter, r *http.Request, rel string) {
	f, err := s.store.Open(rel)
	if err != nil {
		s.fail(w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.fail(w, err)
		return
	}

	// ServeContent handles range requests, which the player uses for seeking.
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) handleSongList(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{
		"search": r.URL.Query().Get("search"),
		"source": r.URL.Query().Get("source"),
	}

	songs, err := s.songs.List(criteria)
	if err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{"songs": songViews(songs)})
}

type songCreateRequest struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Tags     string `json:"tags"`
	FilePath string `json:"file_path"`
	Prompt   string `json:"prompt"`
	Lyrics   string `json:"lyrics"`
}

// handleSongCreate registers an existing library file as a song. The file
// must already live under the library root; uploads go through /api/references
// or the imports directory instead.
func (s *Server) handleSongCreate(w http.ResponseWriter, r *http.Request) {
	var req songCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	if req.FilePath == "" {
		s.fail(w, fmt.Errorf("%w: file_path is required", shared.ErrInvalidInput))
		return
	}

	abs, err := s.store.Abs(req.FilePath)
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}
	stat, err := os.Stat(abs)
	if err != nil {
		s.fail(w, fmt.Errorf("%w: no audio at %s", shared.ErrInvalidInput, req.FilePath))
		return
	}

	if _, err := s.songs.GetByPath(req.FilePath); err == nil {
		s.fail(w, fmt.Errorf("%w: %s is already cataloged", shared.ErrInvalidInput, req.FilePath))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		base := path.Base(req.FilePath)
		title = strings.TrimSuffix(base, path.Ext(base))
	}

	song := models.NewSong(0, title, req.FilePath)
	song.SetArtist(req.Artist)
	song.SetAlbum(req.Album)
	song.SetTags(req.Tags)
	song.SetPrompt(req.Prompt)
	song.SetLyrics(req.Lyrics)
	song.SetSizeBytes(stat.Size())
	song.SetFormat(strings.TrimPrefix(strings.ToLower(path.Ext(req.FilePath)), "."))

	// Opaque or unreadable formats still catalog, just without stream metadata.
	if info, err := audio.Probe(abs); err == nil {
		song.SetDurationSeconds(info.DurationSeconds)
		song.SetSampleRate(info.SampleRate)
		song.SetChannels(info.Channels)
	}

	if err := s.songs.Create(song); err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusCreated, songView(song))
}

func (s *Server) handleSongGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	song, err := s.songs.Get(id)
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id))
		return
	}

	respond(w, http.StatusOK, songView(song))
}

type songPatchRequest struct {
	Title  *string `json:"title"`
	Artist *string `json:"artist"`
	Album  *string `json:"album"`
	Tags   *string `json:"tags"`
	Prompt *string `json:"prompt"`
	Lyrics *string `json:"lyrics"`
}

func (s *Server) handleSongUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	song, err := s.songs.Get(id)
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id))
		return
	}

	var patch songPatchRequest
	if err := decodeJSON(r, &patch); err != nil {
		s.fail(w, err)
		return
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			s.fail(w, fmt.Errorf("%w: title cannot be empty", shared.ErrInvalidInput))
			return
		}
		song.SetTitle(*patch.Title)
	}
	if patch.Artist != nil {
		song.SetArtist(*patch.Artist)
	}
	if patch.Album != nil {
		song.SetAlbum(*patch.Album)
	}
	if patch.Tags != nil {
		song.SetTags(*patch.Tags)
	}
	if patch.Prompt != nil {
		song.SetPrompt(*patch.Prompt)
	}
	if patch.Lyrics != nil {
		song.SetLyrics(*patch.Lyrics)
	}

	if err := s.songs.Update(song); err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, songView(song))
}

// handleSongDelete removes the catalog row. The audio file stays on disk; a
// later scan re-imports it unless the file is removed too.
func (s *Server) handleSongDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.songs.Get(id); err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id))
		return
	}

	if err := s.songs.Delete(id); err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleSongAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	song, err := s.songs.Get(id)
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id))
		return
	}

	s.streamAudio(w, r, song.FilePath())
}
