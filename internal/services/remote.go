// Inference sidecar [Generator] implementation.
//
// Communicates with the model server running next to the studio (default
// port 8001). The sidecar wraps the language-model planner and the diffusion
// renderer; this client only moves JSON and audio bytes.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"soundsmith/internal/shared"
)

const defaultGeneratorURL string = "http://127.0.0.1:8001"

// Sidecar task statuses. Everything before completed is a working stage and
// shows up verbatim in Progress.Stage.
const (
	taskCompleted = "completed"
	taskFailed    = "failed"
	taskCanceled  = "canceled"
)

// taskStatus is the sidecar's GET /status/{id} payload.
type taskStatus struct {
	TaskID          string  `json:"task_id"`
	Status          string  `json:"status"`
	Step            int     `json:"step"`
	TotalSteps      int     `json:"total_steps"`
	Message         string  `json:"message"`
	Error           string  `json:"error,omitempty"`
	Seed            int64   `json:"seed,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	SampleRate      int     `json:"sample_rate,omitempty"`
}

// RemoteGenerator implements the Generator interface against the sidecar.
type RemoteGenerator struct {
	baseURL    string
	httpClient *http.Client
	poll       *rate.Limiter
}

// NewRemoteGenerator creates a sidecar client polling at the given interval.
func NewRemoteGenerator(baseURL string, pollInterval time.Duration) *RemoteGenerator {
	if baseURL == "" {
		baseURL = defaultGeneratorURL
	}
	if pollInterval <= 0 {
		pollInterval = 750 * time.Millisecond
	}

	return &RemoteGenerator{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		poll:       rate.NewLimiter(rate.Every(pollInterval), 1),
	}
}

// Name returns the backend name.
func (g *RemoteGenerator) Name() string {
	return "model sidecar"
}

func (g *RemoteGenerator) doRequest(ctx context.Context, method, endpoint string, payload, result any) error {
	apiURL := g.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrGeneratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("model server error (status %d): %s", resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("model server error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Generate submits the request and polls until the task settles.
//
// POST /generate returns a task id; GET /status/{id} is polled on the
// configured interval; GET /audio/{id} streams the finished file to a temp
// path. Canceling ctx sends POST /cancel/{id} so the sidecar stops after the
// step in flight.
func (g *RemoteGenerator) Generate(ctx context.Context, genReq GenerationRequest, progress func(Progress)) (*GenerationResult, error) {
	var created struct {
		TaskID string `json:"task_id"`
	}

	if err := g.doRequest(ctx, http.MethodPost, "/generate", genReq, &created); err != nil {
		return nil, err
	}
	if created.TaskID == "" {
		return nil, fmt.Errorf("model server returned no task id")
	}

	var last taskStatus
	for {
		if err := g.poll.Wait(ctx); err != nil {
			g.cancelTask(created.TaskID)
			return nil, fmt.Errorf("generation stopped: %w", ctx.Err())
		}

		var status taskStatus
		endpoint := fmt.Sprintf("/status/%s", created.TaskID)
		if err := g.doRequest(ctx, http.MethodGet, endpoint, nil, &status); err != nil {
			if ctx.Err() != nil {
				g.cancelTask(created.TaskID)
				return nil, fmt.Errorf("generation stopped: %w", ctx.Err())
			}
			return nil, err
		}

		if progress != nil && (status.Status != last.Status || status.Step != last.Step) {
			progress(Progress{
				Stage:   status.Status,
				Step:    status.Step,
				Total:   status.TotalSteps,
				Message: status.Message,
			})
		}
		last = status

		switch status.Status {
		case taskCompleted:
			audioPath, err := g.fetchAudio(ctx, created.TaskID)
			if err != nil {
				return nil, err
			}
			return &GenerationResult{
				AudioPath:       audioPath,
				DurationSeconds: status.DurationSeconds,
				SampleRate:      status.SampleRate,
				Seed:            status.Seed,
			}, nil
		case taskFailed:
			if status.Error != "" {
				return nil, fmt.Errorf("%w: %s", shared.ErrGenerationFailed, status.Error)
			}
			return nil, shared.ErrGenerationFailed
		case taskCanceled:
			return nil, fmt.Errorf("%w: canceled by model server", shared.ErrGenerationFailed)
		}
	}
}

// cancelTask tells the sidecar to stop after the current step. The calling
// context is already dead at this point, so the request gets its own.
func (g *RemoteGenerator) cancelTask(taskID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("/cancel/%s", taskID)
	if err := g.doRequest(ctx, http.MethodPost, endpoint, nil, nil); err != nil && !errors.Is(err, shared.ErrGeneratorUnavailable) {
		// The task may have settled on its own between the poll and the
		// cancel; nothing useful to do with the error here.
		return
	}
}

// fetchAudio streams the finished file to a temp path owned by the caller.
func (g *RemoteGenerator) fetchAudio(ctx context.Context, taskID string) (string, error) {
	audioURL := fmt.Sprintf("%s/audio/%s", g.baseURL, taskID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrGeneratorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch audio: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "soundsmith-*.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to download audio: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	return tmp.Name(), nil
}

// Models lists the checkpoints the sidecar can serve.
//
// Calls GET /models.
func (g *RemoteGenerator) Models(ctx context.Context) ([]ModelInfo, error) {
	var listing struct {
		Models []ModelInfo `json:"models"`
	}

	if err := g.doRequest(ctx, http.MethodGet, "/models", nil, &listing); err != nil {
		return nil, err
	}

	return listing.Models, nil
}

// Health reports whether the sidecar answers on /health.
func (g *RemoteGenerator) Health(ctx context.Context) error {
	return g.doRequest(ctx, http.MethodGet, "/health", nil, nil)
}
