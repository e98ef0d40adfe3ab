package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"soundsmith/internal/audio"
	"soundsmith/internal/models"
	"soundsmith/internal/repositories"
	"soundsmith/internal/services"
	"soundsmith/internal/shared"
)

// DefaultQueueSize bounds how many jobs may wait behind the running one.
const DefaultQueueSize = 32

// SubmitParams carries everything a caller provides for one generation job.
// Zero-valued fields fall back to backend defaults.
type SubmitParams struct {
	UserID          string
	Model           string
	Prompt          string
	Lyrics          string
	Title           string
	DurationSeconds float64
	Preset          string
	Seed            int64
	Steps           int
	Guidance        float64
	ReferenceID     string
}

// QueueSnapshot describes the queue at one instant: the job being rendered
// and the IDs waiting behind it in FIFO order.
type QueueSnapshot struct {
	Current string   `json:"current,omitempty"`
	Queued  []string `json:"queued"`
}

// Engine is the generation job queue. Exactly one job runs at a time; the
// rest wait in FIFO order. Submissions never block the caller.
//
// Job rows in the database are the source of truth for status. The engine
// holds only transient state: the queue channel, the running job's cancel
// function, and progress subscribers.
type Engine struct {
	generator  services.Generator
	jobs       *repositories.JobRepository
	songs      *repositories.SongRepository
	references *repositories.ReferenceRepository
	store      *audio.Store
	logger     *log.Logger

	defaultModel string
	timeout      time.Duration
	queue        chan string
	startedAt    time.Time

	mu            sync.Mutex
	current       string
	cancelCurrent context.CancelFunc
	subscribers   map[int]chan ProgressUpdate
	nextSub       int
}

// EngineOpts contains dependencies for creating an Engine.
type EngineOpts struct {
	Generator    services.Generator
	Jobs         *repositories.JobRepository
	Songs        *repositories.SongRepository
	References   *repositories.ReferenceRepository
	Store        *audio.Store
	Logger       *log.Logger
	DefaultModel string
	QueueSize    int
	Timeout      time.Duration // Per-job deadline, 0 means no limit
}

// NewEngine creates an Engine with the provided dependencies.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	return &Engine{
		generator:    opts.Generator,
		jobs:         opts.Jobs,
		songs:        opts.Songs,
		references:   opts.References,
		store:        opts.Store,
		logger:       opts.Logger,
		defaultModel: opts.DefaultModel,
		timeout:      opts.Timeout,
		queue:        make(chan string, opts.QueueSize),
		startedAt:    time.Now(),
		subscribers:  make(map[int]chan ProgressUpdate),
	}
}

// Submit validates params, persists a pending job, and enqueues it.
//
// Returns the created job immediately; the caller polls its status. When the
// queue is full the job is not persisted and ErrQueueFull is returned.
func (e *Engine) Submit(params SubmitParams) (*models.GenerationJob, error) {
	if e.generator == nil {
		return nil, fmt.Errorf("%w: generator not initialized", shared.ErrServiceUnavailable)
	}

	if params.Model == "" {
		params.Model = e.defaultModel
	}

	if params.ReferenceID != "" {
		if _, err := e.references.Get(params.ReferenceID); err != nil {
			return nil, fmt.Errorf("%w: %s", shared.ErrReferenceNotFound, params.ReferenceID)
		}
	}

	job := models.NewGenerationJob(0, params.UserID, params.Prompt)
	job.SetModel(params.Model)
	job.SetLyrics(params.Lyrics)
	job.SetTitle(params.Title)
	job.SetDurationSeconds(params.DurationSeconds)
	job.SetPreset(params.Preset)
	job.SetSeed(params.Seed)
	job.SetSteps(params.Steps)
	job.SetGuidance(params.Guidance)
	job.SetReferenceID(params.ReferenceID)

	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	// Reserve queue capacity before persisting so a full queue leaves no row
	// behind. The ID goes into the channel after Create assigns it.
	if len(e.queue) >= cap(e.queue) {
		return nil, shared.ErrQueueFull
	}

	if err := e.jobs.Create(job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	select {
	case e.queue <- job.ID():
	default:
		// Raced with another submission for the last slot.
		job.SetStatus(models.JobStatusFailed)
		job.SetErrorMessage("queue full")
		if err := e.jobs.Update(job); err != nil {
			e.logger.Error("failed to mark overflow job", "job", job.ID(), "error", err)
		}
		return nil, shared.ErrQueueFull
	}

	e.sendProgress(queuedUpdate(job.ID(), len(e.queue)))
	e.logger.Info("job queued", "job", job.ID(), "model", job.Model())
	return job, nil
}

// Cancel requests that the job stop. Pending jobs settle immediately; the
// running job has its context canceled, which asks the backend to stop after
// the step in flight.
func (e *Engine) Cancel(id string) (*models.GenerationJob, error) {
	job, err := e.jobs.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}

	if !job.CanCancel() {
		return nil, fmt.Errorf("%w: job is %s", shared.ErrJobNotCancelable, job.Status())
	}

	e.mu.Lock()
	running := e.current == id && e.cancelCurrent != nil
	if running {
		e.cancelCurrent()
	}
	e.mu.Unlock()

	if running {
		// The worker settles the row once the backend stops.
		e.logger.Info("cancel requested for running job", "job", id)
		return job, nil
	}

	now := time.Now()
	job.SetStatus(models.JobStatusCanceled)
	job.SetCompletedAt(&now)
	if err := e.jobs.Update(job); err != nil {
		return nil, fmt.Errorf("failed to cancel job: %w", err)
	}

	e.sendProgress(canceledUpdate(id))
	e.logger.Info("pending job canceled", "job", id)
	return job, nil
}

// Snapshot returns the running job's ID and the queued IDs in order.
func (e *Engine) Snapshot() QueueSnapshot {
	e.mu.Lock()
	current := e.current
	e.mu.Unlock()

	snapshot := QueueSnapshot{Current: current, Queued: []string{}}

	// Draining the channel would disturb the worker, so queued IDs come from
	// the database. Rows list newest first; the queue runs oldest first.
	pending, err := e.jobs.ListByStatus(models.JobStatusPending)
	if err != nil {
		e.logger.Error("failed to list pending jobs", "error", err)
		return snapshot
	}

	for i := len(pending) - 1; i >= 0; i-- {
		snapshot.Queued = append(snapshot.Queued, pending[i].ID())
	}

	return snapshot
}

// Subscribe registers a progress listener and returns its channel with an
// unsubscribe function. Slow listeners miss updates rather than stall the
// worker.
func (e *Engine) Subscribe(buffer int) (<-chan ProgressUpdate, func()) {
	if buffer <= 0 {
		buffer = 50
	}

	ch := make(chan ProgressUpdate, buffer)

	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = ch
	e.mu.Unlock()

	unsubscribe := func() {
		e.mu.Lock()
		if sub, ok := e.subscribers[id]; ok {
			delete(e.subscribers, id)
			close(sub)
		}
		e.mu.Unlock()
	}

	return ch, unsubscribe
}

// sendProgress fans an update out to all subscribers without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(update ProgressUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ch := range e.subscribers {
		select {
		case ch <- update:
			// Sent successfully
		default:
			// Channel full, skip this update
		}
	}
}

// Run sweeps jobs a previous process left behind, then works the queue until
// ctx is canceled. Blocks; callers run it in a goroutine or errgroup.
//
// The sweep only touches jobs older than this engine, so submissions accepted
// before Run starts are safe.
func (e *Engine) Run(ctx context.Context) error {
	interrupted, err := e.jobs.MarkInterrupted(e.startedAt)
	if err != nil {
		return fmt.Errorf("failed to sweep interrupted jobs: %w", err)
	}
	if interrupted > 0 {
		e.logger.Warn("marked jobs interrupted by previous shutdown", "count", interrupted)
	}

	e.logger.Info("generation worker started", "backend", e.generator.Name(), "queue_size", cap(e.queue))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("generation worker stopped")
			return ctx.Err()
		case id := <-e.queue:
			e.process(ctx, id)
		}
	}
}

// process runs one job to a terminal status.
func (e *Engine) process(ctx context.Context, id string) {
	job, err := e.jobs.Get(id)
	if err != nil {
		e.logger.Error("queued job vanished", "job", id, "error", err)
		return
	}

	// Canceled while waiting in the channel.
	if job.Status() != models.JobStatusPending {
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	if e.timeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	e.mu.Lock()
	e.current = id
	e.cancelCurrent = cancel
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.current = ""
		e.cancelCurrent = nil
		e.mu.Unlock()
	}()

	started := time.Now()
	job.SetStatus(models.JobStatusRunning)
	job.SetStartedAt(&started)
	if err := e.jobs.Update(job); err != nil {
		e.logger.Error("failed to mark job running", "job", id, "error", err)
		return
	}

	e.logger.Info("job started", "job", id, "model", job.Model(), "prompt", truncate(job.Prompt(), 60))

	result, err := e.generator.Generate(jobCtx, e.buildRequest(job), func(p services.Progress) {
		job.SetProgress(p.Step, p.Total, p.Message)
		if updateErr := e.jobs.Update(job); updateErr != nil {
			e.logger.Debug("failed to mirror progress", "job", id, "error", updateErr)
		}
		e.sendProgress(stageUpdate(id, p.Stage, p.Step, p.Total, p.Message))
	})

	now := time.Now()
	job.SetCompletedAt(&now)

	switch {
	case err == nil:
		e.finish(job, result)
	case errors.Is(jobCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		timeoutErr := fmt.Errorf("%w after %s", shared.ErrTimeout, e.timeout)
		job.SetStatus(models.JobStatusFailed)
		job.SetErrorMessage(timeoutErr.Error())
		if updateErr := e.jobs.Update(job); updateErr != nil {
			e.logger.Error("failed to mark job failed", "job", id, "error", updateErr)
		}
		e.sendProgress(failedUpdate(id, timeoutErr))
		e.logger.Error("job timed out", "job", id, "timeout", e.timeout)
	case jobCtx.Err() != nil && ctx.Err() == nil:
		// Canceled via Cancel, not shutdown.
		job.SetStatus(models.JobStatusCanceled)
		if updateErr := e.jobs.Update(job); updateErr != nil {
			e.logger.Error("failed to mark job canceled", "job", id, "error", updateErr)
		}
		e.sendProgress(canceledUpdate(id))
		e.logger.Info("job canceled", "job", id)
	default:
		job.SetStatus(models.JobStatusFailed)
		job.SetErrorMessage(err.Error())
		if updateErr := e.jobs.Update(job); updateErr != nil {
			e.logger.Error("failed to mark job failed", "job", id, "error", updateErr)
		}
		e.sendProgress(failedUpdate(id, err))
		e.logger.Error("job failed", "job", id, "error", err)
	}
}

// buildRequest maps a job row onto the backend request, resolving the
// reference track to an absolute path on the shared filesystem.
func (e *Engine) buildRequest(job *models.GenerationJob) services.GenerationRequest {
	req := services.GenerationRequest{
		Model:           job.Model(),
		Prompt:          job.Prompt(),
		Lyrics:          job.Lyrics(),
		DurationSeconds: job.DurationSeconds(),
		Seed:            job.Seed(),
		Steps:           job.Steps(),
		Guidance:        job.Guidance(),
	}

	if job.ReferenceID() != "" {
		if ref, err := e.references.Get(job.ReferenceID()); err == nil {
			if abs, err := e.store.Abs(ref.Path()); err == nil {
				req.ReferencePath = abs
			}
		}
	}

	return req
}

// finish moves the rendered audio into the library, catalogs a song for it,
// and settles the job as completed.
func (e *Engine) finish(job *models.GenerationJob, result *services.GenerationResult) {
	title := songTitle(job)
	e.sendProgress(catalogingUpdate(job.ID(), title))

	rel, size, err := e.storeResult(job.ID(), result.AudioPath)
	if err != nil {
		job.SetStatus(models.JobStatusFailed)
		job.SetErrorMessage(fmt.Sprintf("failed to store audio: %v", err))
		if updateErr := e.jobs.Update(job); updateErr != nil {
			e.logger.Error("failed to mark job failed", "job", job.ID(), "error", updateErr)
		}
		e.sendProgress(failedUpdate(job.ID(), err))
		return
	}

	song := models.NewSong(0, title, rel)
	song.SetSource(models.SongSourceGenerated)
	song.SetJobID(job.ID())
	song.SetPrompt(job.Prompt())
	song.SetLyrics(job.Lyrics())
	song.SetDurationSeconds(result.DurationSeconds)
	song.SetSampleRate(result.SampleRate)
	song.SetSizeBytes(size)
	song.SetFormat("wav")

	if abs, err := e.store.Abs(rel); err == nil {
		if info, err := audio.Probe(abs); err == nil {
			song.SetDurationSeconds(info.DurationSeconds)
			song.SetSampleRate(info.SampleRate)
			song.SetChannels(info.Channels)
		}
	}

	if err := e.songs.Create(song); err != nil {
		job.SetStatus(models.JobStatusFailed)
		job.SetErrorMessage(fmt.Sprintf("failed to catalog song: %v", err))
		if updateErr := e.jobs.Update(job); updateErr != nil {
			e.logger.Error("failed to mark job failed", "job", job.ID(), "error", updateErr)
		}
		e.sendProgress(failedUpdate(job.ID(), err))
		return
	}

	job.SetStatus(models.JobStatusCompleted)
	job.SetResultSongID(song.ID())
	job.SetAudioPath(rel)
	if err := e.jobs.Update(job); err != nil {
		e.logger.Error("failed to mark job completed", "job", job.ID(), "error", err)
	}

	e.sendProgress(completedUpdate(job.ID(), song.ID()))
	e.logger.Info("job completed", "job", job.ID(), "song", song.ID(), "duration", song.DurationSeconds())
}

// storeResult moves the backend's temp file into the library's generated
// directory and cleans the temp file up.
func (e *Engine) storeResult(jobID, tempPath string) (string, int64, error) {
	src, err := os.Open(tempPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open rendered audio: %w", err)
	}

	rel, size, err := e.store.Save("generated", jobID+".wav", src)
	src.Close()

	if removeErr := os.Remove(tempPath); removeErr != nil {
		e.logger.Debug("failed to remove temp audio", "path", tempPath, "error", removeErr)
	}

	return rel, size, err
}

// songTitle derives a library title for a finished job.
func songTitle(job *models.GenerationJob) string {
	if job.Title() != "" {
		return job.Title()
	}

	prompt := strings.TrimSpace(job.Prompt())
	if prompt == "" {
		return fmt.Sprintf("Untitled %s", job.ID()[:8])
	}

	return truncate(prompt, 80)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
