package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	JobID   string // Owning job ID, empty for scans and downloads
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Queued Phase = iota
	Planning
	Rendering
	Encoding
	Cataloging
	Completed
	Failed
	Canceled
	Scanning
	Downloading
	Verifying
)

func (p Phase) String() string {
	switch p {
	case Queued:
		return "queued"
	case Planning:
		return "planning"
	case Rendering:
		return "rendering"
	case Encoding:
		return "encoding"
	case Cataloging:
		return "cataloging"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	case Scanning:
		return "scanning"
	case Downloading:
		return "downloading"
	case Verifying:
		return "verifying"
	default:
		return ""
	}
}

// Terminal reports whether the phase ends a job's update stream.
func (p Phase) Terminal() bool {
	return p == Completed || p == Failed || p == Canceled
}

// stagePhase maps a backend stage string onto a [Phase]. Unknown stages count
// as rendering, the longest part of any run.
func stagePhase(stage string) Phase {
	switch stage {
	case "queued", "pending":
		return Queued
	case "planning":
		return Planning
	case "rendering", "running", "diffusion":
		return Rendering
	case "encoding", "decoding":
		return Encoding
	default:
		return Rendering
	}
}

func queuedUpdate(jobID string, position int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Queued,
		JobID:   jobID,
		Message: fmt.Sprintf("Queued at position %d", position),
	}
}

func stageUpdate(jobID, stage string, step, total int, message string) ProgressUpdate {
	if message == "" {
		message = stage
	}
	return ProgressUpdate{
		Phase:   stagePhase(stage),
		JobID:   jobID,
		Step:    step,
		Total:   total,
		Message: message,
	}
}

func catalogingUpdate(jobID, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Cataloging,
		JobID:   jobID,
		Message: fmt.Sprintf("Adding %q to the library...", title),
	}
}

func completedUpdate(jobID, songID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Completed,
		JobID:   jobID,
		Message: "Generation complete",
		Data:    songID,
	}
}

func failedUpdate(jobID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		JobID:   jobID,
		Message: fmt.Sprintf("Generation failed: %v", err),
	}
}

func canceledUpdate(jobID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Canceled,
		JobID:   jobID,
		Message: "Generation canceled",
	}
}

func scanUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Scanning,
		Step:    step,
		Total:   total,
		Message: path,
	}
}

func downloadUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Downloading,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, name),
	}
}

func downloadDoneUpdate(step, total int, name string, bytes int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Downloading,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d bytes)", step, total, name, bytes),
	}
}

func downloadFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Downloading,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func verifyUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Verifying,
		Message: fmt.Sprintf("Verifying %s...", name),
	}
}
