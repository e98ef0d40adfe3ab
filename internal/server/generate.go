package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"soundsmith/internal/models"
	"soundsmith/internal/presets"
	"soundsmith/internal/shared"
	"soundsmith/internal/tasks"
)

// recentJobLimit caps the job history returned with the queue view.
const recentJobLimit = 20

type submitRequest struct {
	Model           string  `json:"model"`
	Prompt          string  `json:"prompt"`
	Lyrics          string  `json:"lyrics"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration_seconds"`
	Preset          string  `json:"preset"`
	Seed            int64   `json:"seed"`
	Steps           int     `json:"steps"`
	Guidance        float64 `json:"guidance"`
	ReferenceID     string  `json:"reference_id"`
}

type jobResponse struct {
	ID              string     `json:"id"`
	Model           string     `json:"model"`
	Title           string     `json:"title,omitempty"`
	Prompt          string     `json:"prompt,omitempty"`
	Lyrics          string     `json:"lyrics,omitempty"`
	DurationSeconds float64    `json:"duration_seconds"`
	Preset          string     `json:"preset,omitempty"`
	Seed            int64      `json:"seed,omitempty"`
	Steps           int        `json:"steps,omitempty"`
	Guidance        float64    `json:"guidance,omitempty"`
	ReferenceID     string     `json:"reference_id,omitempty"`
	Status          string     `json:"status"`
	ProgressStep    int        `json:"progress_step"`
	ProgressTotal   int        `json:"progress_total"`
	ProgressMessage string     `json:"progress_message,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	ResultSongID    string     `json:"result_song_id,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func jobView(j *models.GenerationJob) jobResponse {
	return jobResponse{
		ID:              j.ID(),
		Model:           j.Model(),
		Title:           j.Title(),
		Prompt:          j.Prompt(),
		Lyrics:          j.Lyrics(),
		DurationSeconds: j.DurationSeconds(),
		Preset:          j.Preset(),
		Seed:            j.Seed(),
		Steps:           j.Steps(),
		Guidance:        j.Guidance(),
		ReferenceID:     j.ReferenceID(),
		Status:          j.Status(),
		ProgressStep:    j.ProgressStep(),
		ProgressTotal:   j.ProgressTotal(),
		ProgressMessage: j.ProgressMessage(),
		ErrorMessage:    j.ErrorMessage(),
		ResultSongID:    j.ResultSongID(),
		StartedAt:       j.StartedAt(),
		CompletedAt:     j.CompletedAt(),
		CreatedAt:       j.CreatedAt(),
	}
}

func jobViews(jobs []*models.GenerationJob) []jobResponse {
	views := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		views[i] = jobView(j)
	}
	return views
}

func (s *Server) handleGenerateSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	if req.Preset != "" {
		preset, err := presets.Get(req.Preset)
		if err != nil {
			s.fail(w, err)
			return
		}
		// The preset fills whatever the request left at zero.
		if req.DurationSeconds == 0 {
			req.DurationSeconds = preset.DurationSeconds
		}
		if req.Steps == 0 {
			req.Steps = preset.Steps
		}
		if req.Guidance == 0 {
			req.Guidance = preset.Guidance
		}
	}

	user, err := s.users.EnsureDefault()
	if err != nil {
		s.fail(w, err)
		return
	}

	job, err := s.engine.Submit(tasks.SubmitParams{
		UserID:          user.ID(),
		Model:           req.Model,
		Prompt:          req.Prompt,
		Lyrics:          req.Lyrics,
		Title:           req.Title,
		DurationSeconds: req.DurationSeconds,
		Preset:          req.Preset,
		Seed:            req.Seed,
		Steps:           req.Steps,
		Guidance:        req.Guidance,
		ReferenceID:     req.ReferenceID,
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]string{"job_id": job.ID()})
}

func (s *Server) handleGenerateQueue(w http.ResponseWriter, _ *http.Request) {
	jobs, err := s.jobs.List(map[string]any{"limit": recentJobLimit})
	if err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"queue": s.engine.Snapshot(),
		"jobs":  jobViews(jobs),
	})
}

func (s *Server) handleGenerateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := s.jobs.Get(id)
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id))
		return
	}

	respond(w, http.StatusOK, jobView(job))
}

// handleGenerateResult streams the finished audio for a completed job. Until
// the job completes the result does not exist, which the client sees as 404.
func (s *Server) handleGenerateResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := s.jobs.Get(id)
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id))
		return
	}

	if job.Status() != models.JobStatusCompleted || job.AudioPath() == "" {
		s.fail(w, fmt.Errorf("%w: job %s is %s", shared.ErrResultNotReady, id, job.Status()))
		return
	}

	s.streamAudio(w, r, job.AudioPath())
}

func (s *Server) handleGenerateCancel(w http.ResponseWriter, r *http.Request) {
	job, err := s.engine.Cancel(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, jobView(job))
}
