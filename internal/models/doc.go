// Package models defines domain entities and persistence interfaces for the soundsmith studio service.
//
// All entities are database-backed models with full lifecycle management:
//   - [Song] : Library entries backed by audio files on disk
//   - [Playlist] : Ordered song collections
//   - [GenerationJob] : Queued generation requests tracking progress and results
//   - [ReferenceTrack] : Uploaded conditioning audio, stored as opaque files
//   - [User] : The local studio account (no credentials, single user by default)
//   - [Preferences] : Per-user UI and generation defaults, stored as one JSON document
//
// All persistent entities except Preferences implement the Model interface providing
// ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
