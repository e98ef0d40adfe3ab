package models

import (
	"fmt"
	"time"
)

// Song source values.
const (
	SongSourceGenerated = "generated"
	SongSourceImported  = "imported"
	SongSourceUploaded  = "uploaded"
)

// Song represents a library entry backed by an audio file on disk.
//
// FilePath is relative to the configured library directory. Generated songs
// carry the job ID and prompt that produced them.
type Song struct {
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
	jobID           string
	prompt          string
	lyrics          string
	createdAt       time.Time
	updatedAt       time.Time
	deletedAt       *time.Time
}

// NewSong creates a Song with the given sequence, title, and library-relative file path.
func NewSong(sequence int, title, filePath string) *Song {
	now := time.Now()
	return &Song{
		sequence:  sequence,
		title:     title,
		filePath:  filePath,
		source:    SongSourceImported,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Song) ID() string { return s.id }
func (s *Song) Sequence() int { return s.sequence }
func (s *Song) Title() string { return s.title }
func (s *Song) Artist() string { return s.artist }
func (s *Song) Album() string { return s.album }
func (s *Song) Tags() string { return s.tags }
func (s *Song) DurationSeconds() float64 { return s.durationSeconds }
func (s *Song) FilePath() string { return s.filePath }
func (s *Song) Format() string { return s.format }
func (s *Song) SampleRate() int { return s.sampleRate }
func (s *Song) Channels() int { return s.channels }
func (s *Song) SizeBytes() int64 { return s.sizeBytes }
func (s *Song) Source() string { return s.source }
func (s *Song) JobID() string { return s.jobID }
func (s *Song) Prompt() string { return s.prompt }
func (s *Song) Lyrics() string { return s.lyrics }
func (s *Song) CreatedAt() time.Time { return s.createdAt }
func (s *Song) UpdatedAt() time.Time { return s.updatedAt }
func (s *Song) DeletedAt() *time.Time { return s.deletedAt }

func (s *Song) SetID(id string) { s.id = id }
func (s *Song) SetTitle(title string) { s.title = title }
func (s *Song) SetArtist(artist string) { s.artist = artist }
func (s *Song) SetAlbum(album string) { s.album = album }
func (s *Song) SetTags(tags string) { s.tags = tags }
func (s *Song) SetDurationSeconds(d float64) { s.durationSeconds = d }
func (s *Song) SetFilePath(path string) { s.filePath = path }
func (s *Song) SetFormat(format string) { s.format = format }
func (s *Song) SetSampleRate(rate int) { s.sampleRate = rate }
func (s *Song) SetChannels(channels int) { s.channels = channels }
func (s *Song) SetSizeBytes(size int64) { s.sizeBytes = size }
func (s *Song) SetJobID(jobID string) { s.jobID = jobID }
func (s *Song) SetPrompt(prompt string) { s.prompt = prompt }
func (s *Song) SetLyrics(lyrics string) { s.lyrics = lyrics }
func (s *Song) SetCreatedAt(t time.Time) { s.createdAt = t }
func (s *Song) SetUpdatedAt(t time.Time) { s.updatedAt = t }
func (s *Song) SetDeletedAt(t *time.Time) { s.deletedAt = t }

// SetSource sets the song's origin. Valid values are SongSourceGenerated,
// SongSourceImported, and SongSourceUploaded.
func (s *Song) SetSource(source string) { s.source = source }

// Validate checks that the song has a title, a file path, and a known source.
func (s *Song) Validate() error {
	if s.title == "" {
		return fmt.Errorf("song title is required")
	}
	if s.filePath == "" {
		return fmt.Errorf("song file path is required")
	}
	switch s.source {
	case SongSourceGenerated, SongSourceImported, SongSourceUploaded:
	default:
		return fmt.Errorf("invalid song source: %s", s.source)
	}
	return nil
}
