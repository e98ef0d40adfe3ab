package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"soundsmith/internal/models"
	"soundsmith/internal/shared"
)

// JobRepository implements [models.Repository] for [models.GenerationJob] tracking.
//
// Handles job CRUD operations with soft delete support and status-based queries.
// Rows double as queue state and history: the engine persists every transition.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository with the given database connection
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new generation job into the database with generated ID and sequence
func (r *JobRepository) Create(job *models.GenerationJob) error {
	sequence, err := NextSequence(r.db, "jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	job.SetID(id)

	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO jobs (
			id, sequence, user_id, model, title, prompt, lyrics, duration_seconds,
			preset, seed, steps, guidance, reference_id, status,
			progress_step, progress_total, progress_message, error_message,
			result_song_id, audio_path, started_at, completed_at,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		job.UserID(),
		job.Model(),
		job.Title(),
		job.Prompt(),
		job.Lyrics(),
		job.DurationSeconds(),
		job.Preset(),
		job.Seed(),
		job.Steps(),
		job.Guidance(),
		nullable(job.ReferenceID()),
		job.Status(),
		job.ProgressStep(),
		job.ProgressTotal(),
		nullable(job.ProgressMessage()),
		nullable(job.ErrorMessage()),
		nullable(job.ResultSongID()),
		nullable(job.AudioPath()),
		job.StartedAt(),
		job.CompletedAt(),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// Get retrieves a job by ID, excluding soft-deleted jobs
func (r *JobRepository) Get(id string) (*models.GenerationJob, error) {
	query := jobSelect + " WHERE id = ? AND deleted_at IS NULL"
	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing job in the database
func (r *JobRepository) Update(job *models.GenerationJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	job.SetUpdatedAt(now)

	query := `
		UPDATE jobs
		SET status = ?, progress_step = ?, progress_total = ?,
			progress_message = ?, error_message = ?, result_song_id = ?,
			audio_path = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		job.Status(),
		job.ProgressStep(),
		job.ProgressTotal(),
		nullable(job.ProgressMessage()),
		nullable(job.ErrorMessage()),
		nullable(job.ResultSongID()),
		nullable(job.AudioPath()),
		job.StartedAt(),
		job.CompletedAt(),
		now,
		job.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found or already deleted: %s", job.ID())
	}

	return nil
}

// Delete soft-deletes a job by ID
func (r *JobRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE jobs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all jobs matching the given criteria, excluding soft-deleted jobs.
//
// Supported criteria: "status", "user_id", and "limit". Jobs are returned
// newest first.
func (r *JobRepository) List(criteria map[string]any) ([]*models.GenerationJob, error) {
	query := jobSelect + " WHERE deleted_at IS NULL"

	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.GenerationJob
	for rows.Next() {
		job, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// ListByStatus retrieves jobs in the given status, newest first
func (r *JobRepository) ListByStatus(status string) ([]*models.GenerationJob, error) {
	return r.List(map[string]any{"status": status})
}

// MarkInterrupted fails pending and running jobs that a previous process left
// behind. Jobs created at or after the cutoff are spared: they belong to the
// current process, whose worker may simply not have reached them yet. Returns
// how many rows changed.
func (r *JobRepository) MarkInterrupted(before time.Time) (int, error) {
	rows, err := r.db.Query(
		jobSelect+" WHERE status IN (?, ?) AND deleted_at IS NULL",
		models.JobStatusPending, models.JobStatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to query interrupted jobs: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		job, err := r.scanRow(rows)
		if err != nil {
			return 0, err
		}
		if job.CreatedAt().Before(before) {
			stale = append(stale, job.ID())
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("row iteration error: %w", err)
	}

	now := time.Now()
	query := `
		UPDATE jobs
		SET status = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`

	for i, id := range stale {
		if _, err := r.db.Exec(query,
			models.JobStatusFailed,
			"interrupted by shutdown",
			now,
			now,
			id,
		); err != nil {
			return i, fmt.Errorf("failed to mark job %s interrupted: %w", id, err)
		}
	}

	return len(stale), nil
}

// CountByStatus returns job counts keyed by status, excluding soft-deleted jobs
func (r *JobRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(*) FROM jobs WHERE deleted_at IS NULL GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

const jobSelect = `
	SELECT
		id, sequence, user_id, model, title, prompt, lyrics, duration_seconds,
		preset, seed, steps, guidance, reference_id, status,
		progress_step, progress_total, progress_message, error_message,
		result_song_id, audio_path, started_at, completed_at,
		created_at, updated_at, deleted_at
	FROM jobs`

// scanOne scans a single [sql.Row] into a [models.GenerationJob]
func (r *JobRepository) scanOne(row *sql.Row) (*models.GenerationJob, error) {
	var c jobColumns

	err := row.Scan(c.dest()...)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	return c.build(), nil
}

// scanRow scans a row from [sql.Rows] into a [models.GenerationJob]
func (r *JobRepository) scanRow(rows *sql.Rows) (*models.GenerationJob, error) {
	var c jobColumns

	if err := rows.Scan(c.dest()...); err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	return c.build(), nil
}

// jobColumns holds scan targets for a jobs row
type jobColumns struct {
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
	referenceID     sql.NullString
	status          string
	progressStep    int
	progressTotal   int
	progressMessage sql.NullString
	errorMessage    sql.NullString
	resultSongID    sql.NullString
	audioPath       sql.NullString
	startedAt       sql.NullTime
	completedAt     sql.NullTime
	createdAt       time.Time
	updatedAt       time.Time
	deletedAt       sql.NullTime
}

func (c *jobColumns) dest() []any {
	return []any{
		&c.id, &c.sequence, &c.userID, &c.model, &c.title, &c.prompt, &c.lyrics,
		&c.durationSeconds, &c.preset, &c.seed, &c.steps, &c.guidance,
		&c.referenceID, &c.status, &c.progressStep, &c.progressTotal,
		&c.progressMessage, &c.errorMessage, &c.resultSongID, &c.audioPath,
		&c.startedAt, &c.completedAt, &c.createdAt, &c.updatedAt, &c.deletedAt,
	}
}

func (c *jobColumns) build() *models.GenerationJob {
	job := models.NewGenerationJob(c.sequence, c.userID, c.prompt)
	job.SetID(c.id)
	job.SetModel(c.model)
	job.SetTitle(c.title)
	job.SetLyrics(c.lyrics)
	job.SetDurationSeconds(c.durationSeconds)
	job.SetPreset(c.preset)
	job.SetSeed(c.seed)
	job.SetSteps(c.steps)
	job.SetGuidance(c.guidance)
	if c.referenceID.Valid {
		job.SetReferenceID(c.referenceID.String)
	}
	job.SetStatus(c.status)
	message := ""
	if c.progressMessage.Valid {
		message = c.progressMessage.String
	}
	job.SetProgress(c.progressStep, c.progressTotal, message)
	if c.errorMessage.Valid {
		job.SetErrorMessage(c.errorMessage.String)
	}
	if c.resultSongID.Valid {
		job.SetResultSongID(c.resultSongID.String)
	}
	if c.audioPath.Valid {
		job.SetAudioPath(c.audioPath.String)
	}
	if c.startedAt.Valid {
		job.SetStartedAt(&c.startedAt.Time)
	}
	if c.completedAt.Valid {
		job.SetCompletedAt(&c.completedAt.Time)
	}
	job.SetCreatedAt(c.createdAt)
	job.SetUpdatedAt(c.updatedAt)
	if c.deletedAt.Valid {
		job.SetDeletedAt(&c.deletedAt.Time)
	}

	return job
}
