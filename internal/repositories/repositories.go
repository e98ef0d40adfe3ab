// package repositories implements SQLite persistence for the studio catalog.
//
// Each repository implements models.Repository[T] for one entity, layering
// CRUD, soft deletes, and sequence assignment over database/sql.
package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence atomically claims the next sequence number for a table.
//
// Sequences give entities a stable, human-readable order (song #42, playlist
// #15) independent of UUIDs and timestamps. Each table owns a single-row
// <table>_sequence counter seeded by the migrations.
func NextSequence(db *sql.DB, table string) (int, error) {
	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to claim next %s sequence: %w", table, err)
	}

	return sequence, nil
}
