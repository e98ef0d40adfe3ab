// package services defines interface Generator for music model backends
//
// The studio ships one implementation, the inference sidecar client.
package services

import (
	"context"
)

// Generator produces audio from text conditioning. Implementations front a
// model backend; the studio never sees model internals, only requests,
// progress reports, and finished files.
type Generator interface {
	// Generate runs one request to completion, invoking progress as the
	// backend reports planning and rendering steps. Canceling ctx asks the
	// backend to stop after the step in flight.
	Generate(ctx context.Context, req GenerationRequest, progress func(Progress)) (*GenerationResult, error)

	// Models lists the checkpoints the backend can serve.
	Models(ctx context.Context) ([]ModelInfo, error)

	// Health reports whether the backend is reachable and ready.
	Health(ctx context.Context) error

	// Name returns the backend name for logs and the health endpoint.
	Name() string
}

// GenerationRequest carries everything the model needs for one piece.
type GenerationRequest struct {
	Model           string  `json:"model"`
	Prompt          string  `json:"prompt"`
	Lyrics          string  `json:"lyrics,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Seed            int64   `json:"seed,omitempty"`
	Steps           int     `json:"steps,omitempty"`
	Guidance        float64 `json:"guidance,omitempty"`
	ReferencePath   string  `json:"reference_path,omitempty"` // conditioning audio on the shared filesystem
}

// Progress is one step report from the backend
type Progress struct {
	Stage   string
	Step    int
	Total   int
	Message string
}

// GenerationResult points at the finished audio and its stream parameters.
// AudioPath is a temporary file; the caller owns moving or deleting it.
type GenerationResult struct {
	AudioPath       string
	DurationSeconds float64
	SampleRate      int
	Seed            int64
}

// ModelInfo describes one checkpoint the backend serves
type ModelInfo struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	MaxDuration float64 `json:"max_duration_seconds,omitempty"`
	Loaded      bool    `json:"loaded"`
}
