// Typed views over the soundsmith HTTP API, layered on the raw APIClient
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// JobSummary mirrors the job JSON served by the generation endpoints.
type JobSummary struct {
	ID              string     `json:"id"`
	Model           string     `json:"model"`
	Title           string     `json:"title"`
	Prompt          string     `json:"prompt"`
	Lyrics          string     `json:"lyrics"`
	DurationSeconds float64    `json:"duration_seconds"`
	Preset          string     `json:"preset"`
	Seed            int64      `json:"seed"`
	Steps           int        `json:"steps"`
	Guidance        float64    `json:"guidance"`
	ReferenceID     string     `json:"reference_id"`
	Status          string     `json:"status"`
	ProgressStep    int        `json:"progress_step"`
	ProgressTotal   int        `json:"progress_total"`
	ProgressMessage string     `json:"progress_message"`
	ErrorMessage    string     `json:"error_message"`
	ResultSongID    string     `json:"result_song_id"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

// QueueStatus is the queue at one instant: the rendering job's ID and the
// IDs waiting behind it, oldest first.
type QueueStatus struct {
	Current string   `json:"current"`
	Queued  []string `json:"queued"`
}

// QueueSummary is the full generation view: the live queue plus recent jobs,
// newest first.
type QueueSummary struct {
	Queue QueueStatus  `json:"queue"`
	Jobs  []JobSummary `json:"jobs"`
}

// SongSummary mirrors the song JSON served by the library endpoints.
type SongSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	Album           string    `json:"album"`
	Tags            string    `json:"tags"`
	DurationSeconds float64   `json:"duration_seconds"`
	FilePath        string    `json:"file_path"`
	Format          string    `json:"format"`
	SizeBytes       int64     `json:"size_bytes"`
	Source          string    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}

// GeneratorStatus describes the sidecar as the server last saw it.
type GeneratorStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// HealthStatus mirrors the health endpoint.
type HealthStatus struct {
	Status    string          `json:"status"`
	Generator GeneratorStatus `json:"generator"`
}

// SubmitOptions carries a generation request to the server. Zero-valued
// fields are omitted from the body so server-side preset resolution fills
// them.
type SubmitOptions struct {
	Model           string  `json:"model,omitempty"`
	Prompt          string  `json:"prompt"`
	Lyrics          string  `json:"lyrics,omitempty"`
	Title           string  `json:"title,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Preset          string  `json:"preset,omitempty"`
	Seed            int64   `json:"seed,omitempty"`
	Steps           int     `json:"steps,omitempty"`
	Guidance        float64 `json:"guidance,omitempty"`
	ReferenceID     string  `json:"reference_id,omitempty"`
}

// apiError turns a non-2xx response into an error carrying the server's
// error envelope, falling back to the bare status code.
func apiError(resp *APIResponse) error {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := resp.Decode(&envelope); err == nil && envelope.Error != "" {
		return fmt.Errorf("server: %s (status %d)", envelope.Error, resp.StatusCode)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}

// GetHealth fetches the server health, including generator reachability.
func (a *APIClient) GetHealth(ctx context.Context) (*HealthStatus, error) {
	resp, err := a.Get(ctx, "/api/health")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var health HealthStatus
	if err := resp.Decode(&health); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetQueue fetches the generation queue along with recent jobs.
func (a *APIClient) GetQueue(ctx context.Context) (*QueueSummary, error) {
	resp, err := a.Get(ctx, "/api/generate")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var summary QueueSummary
	if err := resp.Decode(&summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetJob fetches a single job by ID.
func (a *APIClient) GetJob(ctx context.Context, id string) (*JobSummary, error) {
	resp, err := a.Get(ctx, "/api/generate/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var job JobSummary
	if err := resp.Decode(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// SubmitJob enqueues a generation request and returns the new job's ID.
func (a *APIClient) SubmitJob(ctx context.Context, opts SubmitOptions) (string, error) {
	data, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := a.Post(ctx, "/api/generate", data)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var result struct {
		JobID string `json:"job_id"`
	}
	if err := resp.Decode(&result); err != nil {
		return "", err
	}
	return result.JobID, nil
}

// CancelJob cancels a pending or running job and returns its final state.
func (a *APIClient) CancelJob(ctx context.Context, id string) (*JobSummary, error) {
	resp, err := a.Post(ctx, "/api/generate/"+url.PathEscape(id)+"/cancel", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var job JobSummary
	if err := resp.Decode(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetSongs fetches the song catalog, optionally filtered by a substring
// search over title, artist, album, and tags.
func (a *APIClient) GetSongs(ctx context.Context, search string) ([]SongSummary, error) {
	path := "/api/songs"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}

	resp, err := a.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var result struct {
		Songs []SongSummary `json:"songs"`
	}
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return result.Songs, nil
}
