package models

import (
	"fmt"
	"time"
)

// GenerationJob status values. Jobs move from pending to running when the
// worker picks them up, then settle in exactly one terminal status.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCanceled  = "canceled"
)

// Limits on caller-supplied generation parameters.
const (
	MaxJobDurationSeconds = 600
	MaxJobSteps           = 200
	MaxJobGuidance        = 30
)

// GenerationJob represents one queued request against the generation model.
//
// Parameters are captured at submit time. Progress fields are updated by the
// worker while the job runs; ResultSongID points at the cataloged library
// entry once the job completes.
type GenerationJob struct {
	id              string
	sequence        int
	userID          string
	model           string
	title           string
	prompt          string
	lyrics          string
	durationSeconds float64
	preset          string
	seed            int64
	steps           int
	guidance        float64
	referenceID     string
	status          string
	progressStep    int
	progressTotal   int
	progressMessage string
	errorMessage    string
	resultSongID    string
	audioPath       string
	startedAt       *time.Time
	completedAt     *time.Time
	createdAt       time.Time
	updatedAt       time.Time
	deletedAt       *time.Time
}

// NewGenerationJob creates a pending GenerationJob for the given user and prompt.
func NewGenerationJob(sequence int, userID, prompt string) *GenerationJob {
	now := time.Now()
	return &GenerationJob{
		sequence:  sequence,
		userID:    userID,
		prompt:    prompt,
		status:    JobStatusPending,
		createdAt: now,
		updatedAt: now,
	}
}

func (j *GenerationJob) ID() string { return j.id }
func (j *GenerationJob) Sequence() int { return j.sequence }
func (j *GenerationJob) UserID() string { return j.userID }
func (j *GenerationJob) Model() string { return j.model }
func (j *GenerationJob) Title() string { return j.title }
func (j *GenerationJob) Prompt() string { return j.prompt }
func (j *GenerationJob) Lyrics() string { return j.lyrics }
func (j *GenerationJob) DurationSeconds() float64 { return j.durationSeconds }
func (j *GenerationJob) Preset() string { return j.preset }
func (j *GenerationJob) Seed() int64 { return j.seed }
func (j *GenerationJob) Steps() int { return j.steps }
func (j *GenerationJob) Guidance() float64 { return j.guidance }
func (j *GenerationJob) ReferenceID() string { return j.referenceID }
func (j *GenerationJob) Status() string { return j.status }
func (j *GenerationJob) ProgressStep() int { return j.progressStep }
func (j *GenerationJob) ProgressTotal() int { return j.progressTotal }
func (j *GenerationJob) ProgressMessage() string { return j.progressMessage }
func (j *GenerationJob) ErrorMessage() string { return j.errorMessage }
func (j *GenerationJob) ResultSongID() string { return j.resultSongID }
func (j *GenerationJob) AudioPath() string { return j.audioPath }
func (j *GenerationJob) StartedAt() *time.Time { return j.startedAt }
func (j *GenerationJob) CompletedAt() *time.Time { return j.completedAt }
func (j *GenerationJob) CreatedAt() time.Time { return j.createdAt }
func (j *GenerationJob) UpdatedAt() time.Time { return j.updatedAt }
func (j *GenerationJob) DeletedAt() *time.Time { return j.deletedAt }

func (j *GenerationJob) SetID(id string) { j.id = id }
func (j *GenerationJob) SetModel(model string) { j.model = model }
func (j *GenerationJob) SetTitle(title string) { j.title = title }
func (j *GenerationJob) SetLyrics(lyrics string) { j.lyrics = lyrics }
func (j *GenerationJob) SetDurationSeconds(d float64) { j.durationSeconds = d }
func (j *GenerationJob) SetPreset(preset string) { j.preset = preset }
func (j *GenerationJob) SetSeed(seed int64) { j.seed = seed }
func (j *GenerationJob) SetSteps(steps int) { j.steps = steps }
func (j *GenerationJob) SetGuidance(guidance float64) { j.guidance = guidance }
func (j *GenerationJob) SetReferenceID(id string) { j.referenceID = id }
func (j *GenerationJob) SetStatus(status string) { j.status = status }
func (j *GenerationJob) SetProgress(step, total int, message string) {
	j.progressStep = step
	j.progressTotal = total
	j.progressMessage = message
}
func (j *GenerationJob) SetErrorMessage(msg string) { j.errorMessage = msg }
func (j *GenerationJob) SetResultSongID(id string) { j.resultSongID = id }
func (j *GenerationJob) SetAudioPath(path string) { j.audioPath = path }
func (j *GenerationJob) SetStartedAt(t *time.Time) { j.startedAt = t }
func (j *GenerationJob) SetCompletedAt(t *time.Time) { j.completedAt = t }
func (j *GenerationJob) SetCreatedAt(t time.Time) { j.createdAt = t }
func (j *GenerationJob) SetUpdatedAt(t time.Time) { j.updatedAt = t }
func (j *GenerationJob) SetDeletedAt(t *time.Time) { j.deletedAt = t }

// Terminal reports whether the job has settled and will not change status again.
func (j *GenerationJob) Terminal() bool {
	switch j.status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCanceled:
		return true
	}
	return false
}

// CanCancel reports whether a cancel request is meaningful for this job.
func (j *GenerationJob) CanCancel() bool {
	return j.status == JobStatusPending || j.status == JobStatusRunning
}

// Validate checks the job's parameters and status.
//
// A job needs a prompt or lyrics to condition the model, and numeric
// parameters must fall inside the supported ranges.
func (j *GenerationJob) Validate() error {
	if j.userID == "" {
		return fmt.Errorf("job user ID is required")
	}
	if j.prompt == "" && j.lyrics == "" {
		return fmt.Errorf("job requires a prompt or lyrics")
	}
	if j.durationSeconds < 0 || j.durationSeconds > MaxJobDurationSeconds {
		return fmt.Errorf("job duration out of range: %.1f", j.durationSeconds)
	}
	if j.steps < 0 || j.steps > MaxJobSteps {
		return fmt.Errorf("job steps out of range: %d", j.steps)
	}
	if j.guidance < 0 || j.guidance > MaxJobGuidance {
		return fmt.Errorf("job guidance out of range: %.2f", j.guidance)
	}
	switch j.status {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCanceled:
	default:
		return fmt.Errorf("invalid job status: %s", j.status)
	}
	return nil
}
