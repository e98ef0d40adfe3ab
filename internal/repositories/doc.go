// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [SongRepository] : Library entries with path lookups and substring search
//   - [PlaylistRepository] : Playlists plus the playlist_songs membership table
//   - [JobRepository] : Generation queue rows doubling as job history
//   - [ReferenceRepository] : Bookkeeping for uploaded conditioning audio
//   - [UserRepository] : The local account, created on first run
//   - [PreferencesRepository] : One JSON preferences document per user
//
// Sequence numbers provide stable, human-readable ordering (e.g., song #42, playlist #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
