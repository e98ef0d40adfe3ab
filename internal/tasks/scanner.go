package tasks

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"soundsmith/internal/audio"
	"soundsmith/internal/models"
	"soundsmith/internal/repositories"
	"soundsmith/internal/shared"
)

// audioExtensions lists the file types the scanner catalogs. Anything else in
// the library directory is ignored.
var audioExtensions = map[string]bool{
	".wav":  true,
	".flac": true,
	".mp3":  true,
	".ogg":  true,
	".m4a":  true,
}

// ScanResult summarizes one pass over the library directory.
type ScanResult struct {
	Scanned int `json:"scanned"`
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Scanner reconciles the song catalog with the files actually on disk.
//
// Files without a row are cataloged, rows whose size changed are refreshed,
// and rows whose files vanished are soft deleted. Paths are the join key.
type Scanner struct {
	songs  *repositories.SongRepository
	store  *audio.Store
	logger *log.Logger
}

// NewScanner creates a Scanner over the given store and song repository.
func NewScanner(songs *repositories.SongRepository, store *audio.Store, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Scanner{songs: songs, store: store, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (s *Scanner) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Scan walks the library directory once and reconciles the catalog.
func (s *Scanner) Scan(ctx context.Context, progress chan<- ProgressUpdate) (*ScanResult, error) {
	result := &ScanResult{}
	seen := map[string]bool{}

	root := s.store.Root()
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		result.Scanned++
		seen[rel] = true
		s.sendProgress(progress, scanUpdate(result.Scanned, 0, rel))

		return s.reconcile(rel, path, result)
	})
	if err != nil {
		return result, fmt.Errorf("library scan failed: %w", err)
	}

	// Rows whose files are gone get soft deleted; their audio may come back
	// on a later scan as a fresh row.
	songs, err := s.songs.List(nil)
	if err != nil {
		return result, fmt.Errorf("failed to list songs: %w", err)
	}

	for _, song := range songs {
		if seen[song.FilePath()] {
			continue
		}
		if err := s.songs.Delete(song.ID()); err != nil {
			s.logger.Warn("failed to remove vanished song", "song", song.ID(), "error", err)
			continue
		}
		result.Removed++
		s.logger.Info("removed vanished song", "song", song.ID(), "path", song.FilePath())
	}

	s.logger.Info("library scan complete",
		"scanned", result.Scanned, "added", result.Added,
		"updated", result.Updated, "removed", result.Removed)
	return result, nil
}

// reconcile catalogs one file: new paths insert, changed sizes refresh.
func (s *Scanner) reconcile(rel, path string, result *ScanResult) error {
	info, err := audio.Probe(path)
	if err != nil {
		s.logger.Warn("skipping unreadable audio file", "path", rel, "error", err)
		return nil
	}

	existing, err := s.songs.GetByPath(rel)
	if err != nil {
		song := models.NewSong(0, titleFromPath(rel), rel)
		applyInfo(song, info)
		if err := s.songs.Create(song); err != nil {
			return fmt.Errorf("failed to catalog %s: %w", rel, err)
		}
		result.Added++
		return nil
	}

	if existing.SizeBytes() == info.SizeBytes {
		return nil
	}

	applyInfo(existing, info)
	if err := s.songs.Update(existing); err != nil {
		return fmt.Errorf("failed to refresh %s: %w", rel, err)
	}
	result.Updated++
	return nil
}

func applyInfo(song *models.Song, info *audio.Info) {
	song.SetFormat(info.Format)
	song.SetDurationSeconds(info.DurationSeconds)
	song.SetSampleRate(info.SampleRate)
	song.SetChannels(info.Channels)
	song.SetSizeBytes(info.SizeBytes)
}

// titleFromPath turns "imports/4cf1a2b0_First Light.wav" into "First Light".
func titleFromPath(rel string) string {
	base := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))

	// Strip the unique prefix the store prepends on save.
	if i := strings.Index(base, "_"); i == 8 {
		stripped := base[i+1:]
		if stripped != "" {
			base = stripped
		}
	}

	if base == "" {
		return "Untitled"
	}
	return base
}
