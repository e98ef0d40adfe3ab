package models

import (
	"fmt"
	"time"
)

// ReferenceTrack represents uploaded conditioning audio.
//
// The payload is opaque to the service: it is saved to disk as-is and handed
// to the generator sidecar without inspection. Path is relative to the
// reference storage directory.
type ReferenceTrack struct {
	id          string
	sequence    int
	name        string
	filename    string
	path        string
	sizeBytes   int64
	contentType string
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewReferenceTrack creates a ReferenceTrack for an uploaded file.
func NewReferenceTrack(sequence int, name, filename, path string) *ReferenceTrack {
	now := time.Now()
	return &ReferenceTrack{
		sequence:  sequence,
		name:      name,
		filename:  filename,
		path:      path,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *ReferenceTrack) ID() string { return r.id }
func (r *ReferenceTrack) Sequence() int { return r.sequence }
func (r *ReferenceTrack) Name() string { return r.name }
func (r *ReferenceTrack) Filename() string { return r.filename }
func (r *ReferenceTrack) Path() string { return r.path }
func (r *ReferenceTrack) SizeBytes() int64 { return r.sizeBytes }
func (r *ReferenceTrack) ContentType() string { return r.contentType }
func (r *ReferenceTrack) CreatedAt() time.Time { return r.createdAt }
func (r *ReferenceTrack) UpdatedAt() time.Time { return r.updatedAt }
func (r *ReferenceTrack) DeletedAt() *time.Time { return r.deletedAt }

func (r *ReferenceTrack) SetID(id string) { r.id = id }
func (r *ReferenceTrack) SetName(name string) { r.name = name }
func (r *ReferenceTrack) SetSizeBytes(size int64) { r.sizeBytes = size }
func (r *ReferenceTrack) SetContentType(ct string) { r.contentType = ct }
func (r *ReferenceTrack) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *ReferenceTrack) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *ReferenceTrack) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// Validate checks that the reference has a name and a stored path.
func (r *ReferenceTrack) Validate() error {
	if r.name == "" {
		return fmt.Errorf("reference name is required")
	}
	if r.path == "" {
		return fmt.Errorf("reference path is required")
	}
	return nil
}
