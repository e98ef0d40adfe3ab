package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"soundsmith/internal/models"
	"soundsmith/internal/shared"
)

// PlaylistRepository implements [models.Repository] for [models.Playlist]
// persistence and manages the playlist_songs membership table.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new [PlaylistRepository] with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist into the database with generated ID and sequence
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	playlist.SetID(id)

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlists (id, sequence, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, playlist.Name(), playlist.Description(), playlist.CreatedAt(), playlist.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	query := playlistSelect + " WHERE p.id = ? AND p.deleted_at IS NULL"

	playlist, err := r.scanPlaylist(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}

	return playlist, nil
}

// Update modifies an existing playlist's name and description
func (r *PlaylistRepository) Update(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	playlist.SetUpdatedAt(now)

	query := `
		UPDATE playlists
		SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, playlist.Name(), playlist.Description(), now, playlist.ID())
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found or already deleted: %s", playlist.ID())
	}

	return nil
}

// Delete soft-deletes a playlist by ID. Membership rows are kept; they become
// invisible with the playlist.
func (r *PlaylistRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE playlists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all playlists matching the given criteria, excluding soft-deleted playlists.
//
// Supported criteria: "name" (exact) and "search" (substring over name and description).
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.Playlist, error) {
	query := playlistSelect + " WHERE p.deleted_at IS NULL"

	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND p.name = ?"
		args = append(args, name)
	}

	if search, ok := criteria["search"].(string); ok && search != "" {
		query += " AND (p.name LIKE ? OR p.description LIKE ?)"
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	query += " ORDER BY p.sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := r.scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// AddSong appends a song to the end of a playlist.
func (r *PlaylistRepository) AddSong(playlistID, songID string) error {
	if err := r.exists(playlistID); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRow("SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_songs WHERE playlist_id = ?", playlistID).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to determine position: %w", err)
	}

	_, err = tx.Exec(
		"INSERT INTO playlist_songs (playlist_id, song_id, position) VALUES (?, ?, ?)",
		playlistID, songID, next,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("%w: song already in playlist: %s", shared.ErrInvalidInput, songID)
		}
		return fmt.Errorf("failed to add song to playlist: %w", err)
	}

	if _, err := tx.Exec("UPDATE playlists SET updated_at = ? WHERE id = ?", time.Now(), playlistID); err != nil {
		return fmt.Errorf("failed to touch playlist: %w", err)
	}

	return tx.Commit()
}

// RemoveSong removes a song from a playlist and closes the position gap.
func (r *PlaylistRepository) RemoveSong(playlistID, songID string) error {
	if err := r.exists(playlistID); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var position int
	err = tx.QueryRow(
		"SELECT position FROM playlist_songs WHERE playlist_id = ? AND song_id = ?",
		playlistID, songID,
	).Scan(&position)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: song not in playlist: %s", shared.ErrSongNotFound, songID)
	}
	if err != nil {
		return fmt.Errorf("failed to query membership: %w", err)
	}

	if _, err := tx.Exec(
		"DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?",
		playlistID, songID,
	); err != nil {
		return fmt.Errorf("failed to remove song from playlist: %w", err)
	}

	if _, err := tx.Exec(
		"UPDATE playlist_songs SET position = position - 1 WHERE playlist_id = ? AND position > ?",
		playlistID, position,
	); err != nil {
		return fmt.Errorf("failed to renumber playlist: %w", err)
	}

	if _, err := tx.Exec("UPDATE playlists SET updated_at = ? WHERE id = ?", time.Now(), playlistID); err != nil {
		return fmt.Errorf("failed to touch playlist: %w", err)
	}

	return tx.Commit()
}

// Songs retrieves a playlist's songs ordered by position, excluding
// soft-deleted songs.
func (r *PlaylistRepository) Songs(playlistID string) ([]*models.Song, error) {
	if err := r.exists(playlistID); err != nil {
		return nil, err
	}

	query := `
		SELECT
			s.id, s.sequence, s.title, s.artist, s.album, s.tags, s.duration_seconds,
			s.file_path, s.format, s.sample_rate, s.channels, s.size_bytes, s.source,
			s.job_id, s.prompt, s.lyrics, s.created_at, s.updated_at, s.deleted_at
		FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = ? AND s.deleted_at IS NULL
		ORDER BY ps.position ASC
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist songs: %w", err)
	}
	defer rows.Close()

	songRepo := &SongRepository{db: r.db}

	var songs []*models.Song
	for rows.Next() {
		song, err := songRepo.scanRow(rows)
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

// exists checks that a playlist is present and not soft-deleted
func (r *PlaylistRepository) exists(id string) error {
	var one int
	err := r.db.QueryRow("SELECT 1 FROM playlists WHERE id = ? AND deleted_at IS NULL", id).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("playlist not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to query playlist: %w", err)
	}
	return nil
}

const playlistSelect = `
	SELECT
		p.id, p.sequence, p.name, p.description, p.created_at, p.updated_at, p.deleted_at,
		(
			SELECT COUNT(*)
			FROM playlist_songs ps
			JOIN songs s ON s.id = ps.song_id
			WHERE ps.playlist_id = p.id AND s.deleted_at IS NULL
		) AS song_count
	FROM playlists p`

// scanPlaylist scans a playlist row from either [sql.Row] or [sql.Rows]
func (r *PlaylistRepository) scanPlaylist(row interface{ Scan(...any) error }) (*models.Playlist, error) {
	var (
		id          string
		sequence    int
		name        string
		description string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
		songCount   int
	)

	if err := row.Scan(&id, &sequence, &name, &description, &createdAt, &updatedAt, &deletedAt, &songCount); err != nil {
		return nil, err
	}

	playlist := models.NewPlaylist(sequence, name, description)
	playlist.SetID(id)
	playlist.SetSongCount(songCount)
	playlist.SetCreatedAt(createdAt)
	playlist.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		playlist.SetDeletedAt(&deletedAt.Time)
	}

	return playlist, nil
}
