package models

import (
	"fmt"
	"time"
)

// Playlist represents an ordered collection of library songs.
//
// Membership lives in the playlist_songs join table; SongCount is populated
// by the repository when loading.
type Playlist struct {
	id          string
	sequence    int
	name        string
	description string
	songCount   int
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewPlaylist creates a Playlist with the given sequence and name.
func NewPlaylist(sequence int, name, description string) *Playlist {
	now := time.Now()
	return &Playlist{
		sequence:    sequence,
		name:        name,
		description: description,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (p *Playlist) ID() string { return p.id }
func (p *Playlist) Sequence() int { return p.sequence }
func (p *Playlist) Name() string { return p.name }
func (p *Playlist) Description() string { return p.description }
func (p *Playlist) SongCount() int { return p.songCount }
func (p *Playlist) CreatedAt() time.Time { return p.createdAt }
func (p *Playlist) UpdatedAt() time.Time { return p.updatedAt }
func (p *Playlist) DeletedAt() *time.Time { return p.deletedAt }

func (p *Playlist) SetID(id string) { p.id = id }
func (p *Playlist) SetName(name string) { p.name = name }
func (p *Playlist) SetDescription(description string) { p.description = description }
func (p *Playlist) SetSongCount(count int) { p.songCount = count }
func (p *Playlist) SetCreatedAt(t time.Time) { p.createdAt = t }
func (p *Playlist) SetUpdatedAt(t time.Time) { p.updatedAt = t }
func (p *Playlist) SetDeletedAt(t *time.Time) { p.deletedAt = t }

// Validate checks that the playlist has a name.
func (p *Playlist) Validate() error {
	if p.name == "" {
		return fmt.Errorf("playlist name is required")
	}
	return nil
}
