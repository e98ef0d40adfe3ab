package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"soundsmith/internal/models"
)

// PreferencesRepository stores one JSON preferences document per user.
//
// It intentionally does not implement [models.Repository]: preferences have no
// identity of their own and no soft-delete lifecycle.
type PreferencesRepository struct {
	db *sql.DB
}

// NewPreferencesRepository creates a new [PreferencesRepository] with the given database connection
func NewPreferencesRepository(db *sql.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get retrieves a user's preferences, falling back to defaults when the user
// has never saved any.
func (r *PreferencesRepository) Get(userID string) (*models.Preferences, error) {
	var document string
	err := r.db.QueryRow("SELECT document FROM preferences WHERE user_id = ?", userID).Scan(&document)
	if err == sql.ErrNoRows {
		return models.DefaultPreferences(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}

	prefs := models.DefaultPreferences()
	if err := json.Unmarshal([]byte(document), prefs); err != nil {
		return nil, fmt.Errorf("failed to parse preferences document: %w", err)
	}

	return prefs, nil
}

// Put validates and upserts a user's preferences document.
func (r *PreferencesRepository) Put(userID string, prefs *models.Preferences) error {
	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	document, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	query := `
		INSERT INTO preferences (user_id, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, userID, string(document), time.Now()); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	return nil
}
