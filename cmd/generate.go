package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"soundsmith/internal/models"
	"soundsmith/internal/services"
	"soundsmith/internal/shared"
)

// GenerateSubmit queues a generation job on the running server.
func (r *Runner) GenerateSubmit(ctx context.Context, cmd *cli.Command) error {
	opts := services.SubmitOptions{
		Prompt:          cmd.String("prompt"),
		Title:           cmd.String("title"),
		Lyrics:          cmd.String("lyrics"),
		Model:           cmd.String("model"),
		Preset:          cmd.String("preset"),
		DurationSeconds: float64(cmd.Int("duration")),
		Seed:            int64(cmd.Int("seed")),
		Steps:           cmd.Int("steps"),
		ReferenceID:     cmd.String("reference"),
	}

	if guidance := cmd.String("guidance"); guidance != "" {
		parsed, err := strconv.ParseFloat(guidance, 64)
		if err != nil {
			return fmt.Errorf("%w: --guidance must be a number, got %q", shared.ErrInvalidFlag, guidance)
		}
		opts.Guidance = parsed
	}

	jobID, err := r.api.SubmitJob(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.logger.Info("job submitted", "id", jobID)
	r.writePlain("✓ Job queued: %s\n", jobID)

	if !cmd.Bool("watch") {
		r.writePlain("Track it with 'soundsmith generate status %s'\n", jobID)
		return nil
	}

	return r.watchJob(ctx, jobID)
}

// GenerateStatus shows one job, optionally following it to completion.
func (r *Runner) GenerateStatus(ctx context.Context, cmd *cli.Command) error {
	jobID := cmd.StringArg("id")
	if jobID == "" {
		return fmt.Errorf("%w: job ID", shared.ErrMissingArgument)
	}

	if cmd.Bool("watch") {
		return r.watchJob(ctx, jobID)
	}

	job, err := r.api.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(job, cmd.Bool("pretty"))
	}

	r.writePlain("Job: %s\n", job.ID)
	r.writePlain("Status: %s\n", job.Status)
	r.writePlain("Model: %s\n", job.Model)
	r.writePlain("Prompt: %s\n", job.Prompt)
	if job.ProgressTotal > 0 {
		r.writePlain("Progress: %d/%d %s\n", job.ProgressStep, job.ProgressTotal, job.ProgressMessage)
	}
	if job.ErrorMessage != "" {
		r.writePlain("Error: %s\n", job.ErrorMessage)
	}
	if job.ResultSongID != "" {
		r.writePlain("Song: %s\n", job.ResultSongID)
	}

	return nil
}

// GenerateCancel asks the server to cancel a job.
func (r *Runner) GenerateCancel(ctx context.Context, cmd *cli.Command) error {
	jobID := cmd.StringArg("id")
	if jobID == "" {
		return fmt.Errorf("%w: job ID", shared.ErrMissingArgument)
	}

	job, err := r.api.CancelJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if job.Status == models.JobStatusRunning {
		r.writePlain("✓ Cancel requested; the worker stops after the current step\n")
	} else {
		r.writePlain("✓ Job %s %s\n", job.ID, job.Status)
	}

	return nil
}

// GenerateQueue shows the live queue and recent jobs.
func (r *Runner) GenerateQueue(ctx context.Context, cmd *cli.Command) error {
	summary, err := r.api.GetQueue(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, cmd.Bool("pretty"))
	}

	if health, err := r.api.GetHealth(ctx); err == nil {
		r.writePlain("Generator: %s (%s)\n", health.Generator.Name, health.Generator.Status)
	}

	if summary.Queue.Current == "" && len(summary.Queue.Queued) == 0 {
		r.writePlain("Queue is idle.\n")
	} else {
		current := summary.Queue.Current
		for _, job := range summary.Jobs {
			if job.ID == summary.Queue.Current {
				current = jobLine(job)
				break
			}
		}
		r.writePlain("Rendering %s, %d waiting\n", current, len(summary.Queue.Queued))
	}

	if len(summary.Jobs) > 0 {
		r.writePlain("\nRecent jobs:\n")
		for i, job := range summary.Jobs {
			r.writePlain("%d. [%s] %s\n", i+1, job.Status, jobLine(job))
		}
	}

	return nil
}

// watchJob polls a job until it reaches a terminal status, printing progress
// transitions as they happen.
func (r *Runner) watchJob(ctx context.Context, jobID string) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastStatus string
	var lastStep int

	for {
		job, err := r.api.GetJob(ctx, jobID)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		if job.Status != lastStatus || job.ProgressStep != lastStep {
			r.printJobProgress(job, lastStatus)
		}

		switch job.Status {
		case models.JobStatusCompleted:
			r.writePlainHeader("Generation Complete")
			r.writePlain("Song: %s\n", job.ResultSongID)
			r.writePlain("Play it at http://%s\n", r.config.Server.Addr())
			return nil
		case models.JobStatusFailed:
			return fmt.Errorf("%w: %s", shared.ErrGenerationFailed, job.ErrorMessage)
		case models.JobStatusCanceled:
			r.writePlain("✗ Job canceled\n")
			return nil
		}

		lastStatus = job.Status
		lastStep = job.ProgressStep

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) printJobProgress(job *services.JobSummary, lastStatus string) {
	switch job.Status {
	case models.JobStatusPending:
		r.writePlain("⏳ Waiting in queue...\n")
	case models.JobStatusRunning:
		if lastStatus != models.JobStatusRunning {
			r.writePlain("\n🎵 Rendering\n")
		}
		if job.ProgressTotal > 0 {
			r.writePlain("   [%d/%d] %s\n", job.ProgressStep, job.ProgressTotal, job.ProgressMessage)
		} else if job.ProgressMessage != "" {
			r.writePlain("   %s\n", job.ProgressMessage)
		}
	}
}

// jobLine names a job for list output, preferring title, then prompt, then ID.
func jobLine(job services.JobSummary) string {
	label := job.Title
	if label == "" {
		label = job.Prompt
	}
	if label == "" {
		label = job.ID
	}
	if job.Status == models.JobStatusRunning && job.ProgressTotal > 0 {
		return fmt.Sprintf("%s (%d/%d)", label, job.ProgressStep, job.ProgressTotal)
	}
	return label
}
