package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"soundsmith/internal/models"
	"soundsmith/internal/shared"
)

// ReferenceRepository implements [models.Repository] for [models.ReferenceTrack]
// persistence. The audio payloads themselves live on disk; rows here only
// carry bookkeeping for opaque files.
type ReferenceRepository struct {
	db *sql.DB
}

// NewReferenceRepository creates a new [ReferenceRepository] with the given database connection
func NewReferenceRepository(db *sql.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Create inserts a new reference track into the database with generated ID and sequence
func (r *ReferenceRepository) Create(ref *models.ReferenceTrack) error {
	sequence, err := NextSequence(r.db, "reference_tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	ref.SetID(id)

	if err := ref.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO reference_tracks (id, sequence, name, filename, path, size_bytes, content_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		ref.Name(),
		ref.Filename(),
		ref.Path(),
		ref.SizeBytes(),
		ref.ContentType(),
		ref.CreatedAt(),
		ref.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reference: %w", err)
	}

	return nil
}

// Get retrieves a reference track by ID, excluding soft-deleted rows
func (r *ReferenceRepository) Get(id string) (*models.ReferenceTrack, error) {
	query := `
		SELECT id, sequence, name, filename, path, size_bytes, content_type, created_at, updated_at, deleted_at
		FROM reference_tracks
		WHERE id = ? AND deleted_at IS NULL
	`

	var (
		refID       string
		sequence    int
		name        string
		filename    string
		path        string
		sizeBytes   int64
		contentType string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := r.db.QueryRow(query, id).Scan(&refID, &sequence, &name, &filename, &path, &sizeBytes, &contentType, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reference not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reference: %w", err)
	}

	ref := models.NewReferenceTrack(sequence, name, filename, path)
	ref.SetID(refID)
	ref.SetSizeBytes(sizeBytes)
	ref.SetContentType(contentType)
	ref.SetCreatedAt(createdAt)
	ref.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		ref.SetDeletedAt(&deletedAt.Time)
	}

	return ref, nil
}

// Update modifies an existing reference track's name
func (r *ReferenceRepository) Update(ref *models.ReferenceTrack) error {
	if err := ref.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	ref.SetUpdatedAt(now)

	query := `
		UPDATE reference_tracks
		SET name = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, ref.Name(), now, ref.ID())
	if err != nil {
		return fmt.Errorf("failed to update reference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("reference not found or already deleted: %s", ref.ID())
	}

	return nil
}

// Delete soft-deletes a reference track by ID
func (r *ReferenceRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE reference_tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete reference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("reference not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all reference tracks, excluding soft-deleted rows.
//
// Supported criteria: "search" (substring over name and filename).
func (r *ReferenceRepository) List(criteria map[string]any) ([]*models.ReferenceTrack, error) {
	query := `
		SELECT id, sequence, name, filename, path, size_bytes, content_type, created_at, updated_at, deleted_at
		FROM reference_tracks
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if search, ok := criteria["search"].(string); ok && search != "" {
		query += " AND (name LIKE ? OR filename LIKE ?)"
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query references: %w", err)
	}
	defer rows.Close()

	var refs []*models.ReferenceTrack
	for rows.Next() {
		var (
			refID       string
			sequence    int
			name        string
			filename    string
			path        string
			sizeBytes   int64
			contentType string
			createdAt   time.Time
			updatedAt   time.Time
			deletedAt   sql.NullTime
		)

		err := rows.Scan(&refID, &sequence, &name, &filename, &path, &sizeBytes, &contentType, &createdAt, &updatedAt, &deletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}

		ref := models.NewReferenceTrack(sequence, name, filename, path)
		ref.SetID(refID)
		ref.SetSizeBytes(sizeBytes)
		ref.SetContentType(contentType)
		ref.SetCreatedAt(createdAt)
		ref.SetUpdatedAt(updatedAt)
		if deletedAt.Valid {
			ref.SetDeletedAt(&deletedAt.Time)
		}

		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return refs, nil
}
