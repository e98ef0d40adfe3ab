package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"soundsmith/internal/models"
	"soundsmith/internal/shared"
)

// SongRepository implements [models.Repository] for [models.Song] persistence.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new [SongRepository] with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Create inserts a new song into the database with generated ID and sequence
func (r *SongRepository) Create(song *models.Song) error {
	sequence, err := NextSequence(r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	song.SetID(id)

	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO songs (
			id, sequence, title, artist, album, tags, duration_seconds,
			file_path, format, sample_rate, channels, size_bytes, source,
			job_id, prompt, lyrics, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		song.Title(),
		song.Artist(),
		song.Album(),
		song.Tags(),
		song.DurationSeconds(),
		song.FilePath(),
		song.Format(),
		song.SampleRate(),
		song.Channels(),
		song.SizeBytes(),
		song.Source(),
		nullable(song.JobID()),
		nullable(song.Prompt()),
		nullable(song.Lyrics()),
		song.CreatedAt(),
		song.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	return nil
}

// Get retrieves a song by ID, excluding soft-deleted songs
func (r *SongRepository) Get(id string) (*models.Song, error) {
	query := songSelect + " WHERE id = ? AND deleted_at IS NULL"
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByPath retrieves a song by its library-relative file path.
//
// Used by the scanner to recognize files already cataloged.
func (r *SongRepository) GetByPath(path string) (*models.Song, error) {
	query := songSelect + " WHERE file_path = ? AND deleted_at IS NULL"
	return r.scanOne(r.db.QueryRow(query, path))
}

// Update modifies an existing song in the database
func (r *SongRepository) Update(song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	song.SetUpdatedAt(now)

	query := `
		UPDATE songs
		SET title = ?, artist = ?, album = ?, tags = ?, duration_seconds = ?,
			file_path = ?, format = ?, sample_rate = ?, channels = ?,
			size_bytes = ?, source = ?, job_id = ?, prompt = ?, lyrics = ?,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		song.Title(),
		song.Artist(),
		song.Album(),
		song.Tags(),
		song.DurationSeconds(),
		song.FilePath(),
		song.Format(),
		song.SampleRate(),
		song.Channels(),
		song.SizeBytes(),
		song.Source(),
		nullable(song.JobID()),
		nullable(song.Prompt()),
		nullable(song.Lyrics()),
		now,
		song.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("song not found or already deleted: %s", song.ID())
	}

	return nil
}

// Delete soft-deletes a song by ID
func (r *SongRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE songs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("song not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all songs matching the given criteria, excluding soft-deleted songs.
//
// Supported criteria: "source", "job_id", and "search" (case-insensitive
// substring over title, artist, album, and tags).
func (r *SongRepository) List(criteria map[string]any) ([]*models.Song, error) {
	query := songSelect + " WHERE deleted_at IS NULL"

	args := []any{}

	if source, ok := criteria["source"].(string); ok && source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}

	if jobID, ok := criteria["job_id"].(string); ok && jobID != "" {
		query += " AND job_id = ?"
		args = append(args, jobID)
	}

	if search, ok := criteria["search"].(string); ok && search != "" {
		query += " AND (title LIKE ? OR artist LIKE ? OR album LIKE ? OR tags LIKE ?)"
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		song, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// Search retrieves songs whose title, artist, album, or tags contain the substring.
func (r *SongRepository) Search(substring string) ([]*models.Song, error) {
	return r.List(map[string]any{"search": substring})
}

const songSelect = `
	SELECT
		id, sequence, title, artist, album, tags, duration_seconds,
		file_path, format, sample_rate, channels, size_bytes, source,
		job_id, prompt, lyrics, created_at, updated_at, deleted_at
	FROM songs`

// scanOne scans a single [sql.Row] into a [models.Song]
func (r *SongRepository) scanOne(row *sql.Row) (*models.Song, error) {
	var (
		id              string
		sequence        int
		title           string
		artist          string
		album           string
		tags            string
		durationSeconds float64
		filePath        string
		format          string
		sampleRate      int
		channels        int
		sizeBytes       int64
		source          string
		jobID           sql.NullString
		prompt          sql.NullString
		lyrics          sql.NullString
		createdAt       time.Time
		updatedAt       time.Time
		deletedAt       sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &title, &artist, &album, &tags, &durationSeconds,
		&filePath, &format, &sampleRate, &channels, &sizeBytes, &source,
		&jobID, &prompt, &lyrics, &createdAt, &updatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("song not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	return buildSong(
		id, sequence, title, artist, album, tags, durationSeconds,
		filePath, format, sampleRate, channels, sizeBytes, source,
		jobID, prompt, lyrics, createdAt, updatedAt, deletedAt,
	), nil
}

// scanRow scans a row from [sql.Rows] into a [models.Song]
func (r *SongRepository) scanRow(rows *sql.Rows) (*models.Song, error) {
	var (
		id              string
		sequence        int
		title           string
		artist          string
		album           string
		tags            string
		durationSeconds float64
		filePath        string
		format          string
		sampleRate      int
		channels        int
		sizeBytes       int64
		source          string
		jobID           sql.NullString
		prompt          sql.NullString
		lyrics          sql.NullString
		createdAt       time.Time
		updatedAt       time.Time
		deletedAt       sql.NullTime
	)

	err := rows.Scan(
		&id, &sequence, &title, &artist, &album, &tags, &durationSeconds,
		&filePath, &format, &sampleRate, &channels, &sizeBytes, &source,
		&jobID, &prompt, &lyrics, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	return buildSong(
		id, sequence, title, artist, album, tags, durationSeconds,
		filePath, format, sampleRate, channels, sizeBytes, source,
		jobID, prompt, lyrics, createdAt, updatedAt, deletedAt,
	), nil
}

// buildSong reassembles a [models.Song] from scanned columns
func buildSong(
	id string, sequence int, title, artist, album, tags string,
	durationSeconds float64, filePath, format string, sampleRate, channels int,
	sizeBytes int64, source string, jobID, prompt, lyrics sql.NullString,
	createdAt, updatedAt time.Time, deletedAt sql.NullTime,
) *models.Song {
	song := models.NewSong(sequence, title, filePath)
	song.SetID(id)
	song.SetArtist(artist)
	song.SetAlbum(album)
	song.SetTags(tags)
	song.SetDurationSeconds(durationSeconds)
	song.SetFormat(format)
	song.SetSampleRate(sampleRate)
	song.SetChannels(channels)
	song.SetSizeBytes(sizeBytes)
	song.SetSource(source)
	if jobID.Valid {
		song.SetJobID(jobID.String)
	}
	if prompt.Valid {
		song.SetPrompt(prompt.String)
	}
	if lyrics.Valid {
		song.SetLyrics(lyrics.String)
	}
	song.SetCreatedAt(createdAt)
	song.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		song.SetDeletedAt(&deletedAt.Time)
	}

	return song
}

// nullable converts empty strings to NULL for optional text columns
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
