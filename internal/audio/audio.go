// package audio manages the files behind the library: saving payloads under a
// single root directory and reading stream parameters out of WAV headers.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"soundsmith/internal/shared"
)

// Store writes and reads opaque payloads under a single root directory.
//
// Paths handed out are relative to the root, so catalog rows stay valid when
// the library directory moves.
type Store struct {
	root string
}

// NewStore creates the root directory if needed and returns a store rooted there
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store root: %w", err)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}

	return &Store{root: abs}, nil
}

// Root returns the absolute root directory of the store
func (s *Store) Root() string { return s.root }

// Save streams payload into dir under the root, prefixing the filename with a
// short unique ID so repeated uploads of the same name never collide.
// Returns the root-relative path (slash separated) and the bytes written.
func (s *Store) Save(dir, filename string, payload io.Reader) (string, int64, error) {
	rel := filepath.ToSlash(filepath.Join(dir, uniqueName(filename)))

	abs, err := s.Abs(rel)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(abs)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(file, payload)
	if err != nil {
		file.Close()
		os.Remove(abs)
		return "", 0, fmt.Errorf("failed to write payload: %w", err)
	}

	if err := file.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close file: %w", err)
	}

	return rel, size, nil
}

// Open opens a stored file for reading
func (s *Store) Open(rel string) (*os.File, error) {
	abs, err := s.Abs(rel)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(abs)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrAudioMissing, rel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", rel, err)
	}

	return file, nil
}

// Remove deletes a stored file. A missing file is not an error; the catalog
// row may outlive its payload.
func (s *Store) Remove(rel string) error {
	abs, err := s.Abs(rel)
	if err != nil {
		return err
	}

	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", rel, err)
	}

	return nil
}

// Abs resolves a root-relative path, rejecting anything that escapes the root
func (s *Store) Abs(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes library root: %s", rel)
	}

	return filepath.Join(s.root, clean), nil
}

// uniqueName keeps the original name readable behind a random prefix
func uniqueName(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "payload"
	}

	return shared.GenerateID()[:8] + "_" + base
}

// Info describes an audio payload on disk. Non-WAV formats carry size and
// format only; their contents are treated as opaque.
type Info struct {
	Format          string
	DurationSeconds float64
	SampleRate      int
	Channels        int
	BitsPerSample   int
	SizeBytes       int64
}

// Probe stats path and, for WAV files, reads stream parameters from the header
func Probe(path string) (*Info, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat audio file: %w", err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	if format != "wav" {
		return &Info{Format: format, SizeBytes: stat.Size()}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	info, err := ProbeWAV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	info.SizeBytes = stat.Size()
	return info, nil
}

// ProbeWAV reads RIFF/WAVE stream parameters from r.
//
// It walks the chunk list for "fmt " and "data", which covers the PCM files
// the renderer produces and the common import cases. Sample data itself is
// never read.
func ProbeWAV(r io.ReadSeeker) (*Info, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("short riff header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a riff wave stream")
	}

	info := &Info{Format: "wav"}

	var (
		byteRate uint32
		dataSize uint32
		haveFmt  bool
		haveData bool
	)

	for !haveFmt || !haveData {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("failed to read chunk header: %w", err)
		}

		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])
		skip := int64(size)

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too small: %d bytes", size)
			}

			var params [16]byte
			if _, err := io.ReadFull(r, params[:]); err != nil {
				return nil, fmt.Errorf("failed to read fmt chunk: %w", err)
			}

			info.Channels = int(binary.LittleEndian.Uint16(params[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(params[4:8]))
			byteRate = binary.LittleEndian.Uint32(params[8:12])
			info.BitsPerSample = int(binary.LittleEndian.Uint16(params[14:16]))

			haveFmt = true
			skip -= 16
		case "data":
			dataSize = size
			haveData = true
		}

		// Chunks are word aligned; odd sizes carry a pad byte.
		if size%2 == 1 {
			skip++
		}

		if skip > 0 {
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("failed to skip chunk: %w", err)
			}
		}
	}

	if !haveFmt || !haveData {
		return nil, fmt.Errorf("missing fmt or data chunk")
	}

	if byteRate > 0 {
		info.DurationSeconds = float64(dataSize) / float64(byteRate)
	}

	return info, nil
}
