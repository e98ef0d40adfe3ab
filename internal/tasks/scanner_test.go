package tasks

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"soundsmith/internal/audio"
	"soundsmith/internal/repositories"
	"soundsmith/internal/shared"
)

// wavBytes builds a header-only mono 22.05kHz stream declaring dataSize bytes
// of PCM, so size on disk can be varied per test.
func wavBytes(dataSize uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(22050))
	binary.Write(&buf, binary.LittleEndian, uint32(44100))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	return buf.Bytes()
}

func setupScanner(t *testing.T) (*Scanner, *repositories.SongRepository, string) {
	t.Helper()

	db := newTestDB(t)
	songs := repositories.NewSongRepository(db)

	root := t.TempDir()
	store, err := audio.NewStore(root)
	if err != nil {
		t.Fatalf("failed to create audio store: %v", err)
	}

	return NewScanner(songs, store, shared.NewLogger(io.Discard)), songs, root
}

func writeLibraryFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

func TestScanner_Scan(t *testing.T) {
	t.Run("CatalogsNewFiles", func(t *testing.T) {
		scanner, songs, root := setupScanner(t)

		writeLibraryFile(t, root, "imports/4cf1a2b0_First Light.wav", wavBytes(44100))
		writeLibraryFile(t, root, "generated/morning-mist.wav", wavBytes(88200))
		writeLibraryFile(t, root, "imports/notes.txt", []byte("not audio"))

		result, err := scanner.Scan(context.Background(), nil)
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}

		if result.Scanned != 2 {
			t.Errorf("expected 2 scanned files, got %d", result.Scanned)
		}
		if result.Added != 2 {
			t.Errorf("expected 2 added songs, got %d", result.Added)
		}

		song, err := songs.GetByPath("imports/4cf1a2b0_First Light.wav")
		if err != nil {
			t.Fatalf("imported file not cataloged: %v", err)
		}
		if song.Title() != "First Light" {
			t.Errorf("expected store prefix stripped from title, got %q", song.Title())
		}
		if song.Format() != "wav" {
			t.Errorf("expected wav format, got %s", song.Format())
		}
		if song.DurationSeconds() != 1.0 {
			t.Errorf("expected probed duration 1.0, got %f", song.DurationSeconds())
		}
		if song.SampleRate() != 22050 {
			t.Errorf("expected probed sample rate 22050, got %d", song.SampleRate())
		}

		plain, err := songs.GetByPath("generated/morning-mist.wav")
		if err != nil {
			t.Fatalf("generated file not cataloged: %v", err)
		}
		if plain.Title() != "morning-mist" {
			t.Errorf("expected filename as title, got %q", plain.Title())
		}
	})

	t.Run("SecondScanChangesNothing", func(t *testing.T) {
		scanner, _, root := setupScanner(t)

		writeLibraryFile(t, root, "imports/steady.wav", wavBytes(44100))

		if _, err := scanner.Scan(context.Background(), nil); err != nil {
			t.Fatalf("first scan failed: %v", err)
		}

		result, err := scanner.Scan(context.Background(), nil)
		if err != nil {
			t.Fatalf("second scan failed: %v", err)
		}

		if result.Added != 0 || result.Updated != 0 || result.Removed != 0 {
			t.Errorf("expected idle second scan, got added=%d updated=%d removed=%d",
				result.Added, result.Updated, result.Removed)
		}
	})

	t.Run("RefreshesChangedFiles", func(t *testing.T) {
		scanner, songs, root := setupScanner(t)

		writeLibraryFile(t, root, "imports/edited.wav", wavBytes(44100))

		if _, err := scanner.Scan(context.Background(), nil); err != nil {
			t.Fatalf("first scan failed: %v", err)
		}

		// Same path, different size: an external edit.
		writeLibraryFile(t, root, "imports/edited.wav", wavBytes(88200))

		result, err := scanner.Scan(context.Background(), nil)
		if err != nil {
			t.Fatalf("second scan failed: %v", err)
		}

		if result.Updated != 1 {
			t.Errorf("expected 1 updated song, got %d", result.Updated)
		}

		song, err := songs.GetByPath("imports/edited.wav")
		if err != nil {
			t.Fatalf("failed to get refreshed song: %v", err)
		}
		if song.DurationSeconds() != 2.0 {
			t.Errorf("expected refreshed duration 2.0, got %f", song.DurationSeconds())
		}
	})

	t.Run("RemovesVanishedFiles", func(t *testing.T) {
		scanner, songs, root := setupScanner(t)

		writeLibraryFile(t, root, "imports/fleeting.wav", wavBytes(44100))

		if _, err := scanner.Scan(context.Background(), nil); err != nil {
			t.Fatalf("first scan failed: %v", err)
		}

		if err := os.Remove(filepath.Join(root, "imports", "fleeting.wav")); err != nil {
			t.Fatalf("failed to remove file: %v", err)
		}

		result, err := scanner.Scan(context.Background(), nil)
		if err != nil {
			t.Fatalf("second scan failed: %v", err)
		}

		if result.Removed != 1 {
			t.Errorf("expected 1 removed song, got %d", result.Removed)
		}
		if _, err := songs.GetByPath("imports/fleeting.wav"); err == nil {
			t.Error("vanished song should be gone from the catalog")
		}
	})

	t.Run("SkipsUnreadableAudio", func(t *testing.T) {
		scanner, _, root := setupScanner(t)

		writeLibraryFile(t, root, "imports/broken.wav", []byte("not riff data"))
		writeLibraryFile(t, root, "imports/fine.wav", wavBytes(44100))

		result, err := scanner.Scan(context.Background(), nil)
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}

		if result.Scanned != 2 {
			t.Errorf("expected both files scanned, got %d", result.Scanned)
		}
		if result.Added != 1 {
			t.Errorf("expected only the readable file cataloged, got %d", result.Added)
		}
	})

	t.Run("OpaqueFormatsStillCatalog", func(t *testing.T) {
		scanner, songs, root := setupScanner(t)

		writeLibraryFile(t, root, "imports/loop.mp3", []byte("opaque mp3 bytes"))

		result, err := scanner.Scan(context.Background(), nil)
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}

		if result.Added != 1 {
			t.Fatalf("expected mp3 cataloged, got added=%d", result.Added)
		}

		song, err := songs.GetByPath("imports/loop.mp3")
		if err != nil {
			t.Fatalf("failed to get mp3 song: %v", err)
		}
		if song.Format() != "mp3" {
			t.Errorf("expected mp3 format, got %s", song.Format())
		}
		if song.DurationSeconds() != 0 {
			t.Errorf("expected no duration for opaque format, got %f", song.DurationSeconds())
		}
	})

	t.Run("ReportsProgress", func(t *testing.T) {
		scanner, _, root := setupScanner(t)

		writeLibraryFile(t, root, "imports/one.wav", wavBytes(44100))
		writeLibraryFile(t, root, "imports/two.wav", wavBytes(44100))

		progress := make(chan ProgressUpdate, 16)
		if _, err := scanner.Scan(context.Background(), progress); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		close(progress)

		count := 0
		for update := range progress {
			if update.Phase != Scanning {
				t.Errorf("expected scanning phase, got %s", update.Phase)
			}
			count++
		}
		if count != 2 {
			t.Errorf("expected 2 progress updates, got %d", count)
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		scanner, _, root := setupScanner(t)

		writeLibraryFile(t, root, "imports/one.wav", wavBytes(44100))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := scanner.Scan(ctx, nil); err == nil {
			t.Error("expected error for canceled context")
		}
	})
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"imports/4cf1a2b0_First Light.wav", "First Light"},
		{"generated/morning-mist.wav", "morning-mist"},
		{"uploads/take_one.flac", "take_one"},
		{"deaf00d1_solo.mp3", "solo"},
		{"imports/short_x.wav", "short_x"},
	}

	for _, tt := range tests {
		if got := titleFromPath(tt.rel); got != tt.want {
			t.Errorf("titleFromPath(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}
