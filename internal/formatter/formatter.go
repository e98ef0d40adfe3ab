// package formatter renders library and playlist exports to CSV, Markdown, plain text, and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"soundsmith/internal/models"
	"soundsmith/internal/shared"
)

// Export bundles the rows handed to the exporters. Name and Description
// describe the collection being exported: a playlist, or the whole library.
type Export struct {
	Name        string
	Description string
	Songs       []*models.Song
}

// LibraryExport wraps the full catalog for the exporters.
func LibraryExport(songs []*models.Song) *Export {
	return &Export{Name: "Library", Songs: songs}
}

// PlaylistExport wraps a playlist and its member rows for the exporters.
func PlaylistExport(playlist *models.Playlist, songs []*models.Song) *Export {
	return &Export{
		Name:        playlist.Name(),
		Description: playlist.Description(),
		Songs:       songs,
	}
}

// songRecord is the flat serializable view of a catalog row. Field names
// match the HTTP API, so exported JSON reads the same as an API response.
type songRecord struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist,omitempty"`
	Album           string    `json:"album,omitempty"`
	Tags            string    `json:"tags,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	FilePath        string    `json:"file_path"`
	Format          string    `json:"format,omitempty"`
	SizeBytes       int64     `json:"size_bytes"`
	Source          string    `json:"source"`
	Prompt          string    `json:"prompt,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toRecord(song *models.Song) songRecord {
	return songRecord{
		ID:              song.ID(),
		Title:           song.Title(),
		Artist:          song.Artist(),
		Album:           song.Album(),
		Tags:            song.Tags(),
		DurationSeconds: song.DurationSeconds(),
		FilePath:        song.FilePath(),
		Format:          song.Format(),
		SizeBytes:       song.SizeBytes(),
		Source:          song.Source(),
		Prompt:          song.Prompt(),
		CreatedAt:       song.CreatedAt(),
	}
}

func toRecords(songs []*models.Song) []songRecord {
	records := make([]songRecord, 0, len(songs))
	for _, song := range songs {
		records = append(records, toRecord(song))
	}
	return records
}

type exportDocument struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	SongCount   int          `json:"song_count"`
	Songs       []songRecord `json:"songs"`
}

type exportMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SongCount   int    `json:"song_count"`
}

// ExportToCSV converts an Export to CSV format with columns: ID, Title, Artist, Album, Duration, Format, Source
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "Format", "Source"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range export.Songs {
		row := []string{
			song.ID(),
			song.Title(),
			song.Artist(),
			song.Album(),
			strconv.FormatFloat(song.DurationSeconds(), 'f', -1, 64),
			song.Format(),
			song.Source(),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an Export to a Markdown document with a song table
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Name))

	if export.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", export.Description))
	}

	buf.WriteString(fmt.Sprintf("**Songs**: %d\n\n", len(export.Songs)))

	buf.WriteString("| # | Title | Artist | Album | Duration | Source |\n")
	buf.WriteString("|---|-------|--------|-------|----------|--------|\n")
	for i, song := range export.Songs {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			i+1,
			cell(song.Title()),
			cell(song.Artist()),
			cell(song.Album()),
			shared.FormatDuration(song.DurationSeconds()),
			song.Source(),
		))
	}

	return buf.Bytes(), nil
}

// cell escapes a value for a Markdown table. A literal pipe would split the column.
func cell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}

// ExportToText converts an Export to plain text format
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Collection: %s\n", export.Name))
	if export.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", export.Description))
	}
	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(export.Songs)))

	for i, song := range export.Songs {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, songLine(song), shared.FormatDuration(song.DurationSeconds())))
	}

	return buf.Bytes(), nil
}

// songLine renders "Artist - Title", or just the title when the row has no artist.
func songLine(song *models.Song) string {
	if song.Artist() == "" {
		return song.Title()
	}
	return fmt.Sprintf("%s - %s", song.Artist(), song.Title())
}

// ExportToJSON converts an Export, metadata and songs together, to indented JSON
func ExportToJSON(export *Export) ([]byte, error) {
	doc := exportDocument{
		Name:        export.Name,
		Description: export.Description,
		SongCount:   len(export.Songs),
		Songs:       toRecords(export.Songs),
	}
	return shared.MarshalJSON(doc, true)
}

// ToMetadataJSON generates a JSON representation of the collection metadata (without songs)
func ToMetadataJSON(export *Export) ([]byte, error) {
	meta := exportMetadata{
		Name:        export.Name,
		Description: export.Description,
		SongCount:   len(export.Songs),
	}
	return shared.MarshalJSON(meta, true)
}

// Slug derives a filesystem-friendly base name from a collection name.
// Letters and digits are lowercased, everything else collapses to a single underscore.
func Slug(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "export"
	}
	return b.String()
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	SongsFile    string
	MetadataFile string
}

// WriteCSVExport exports a collection to CSV format with an accompanying metadata JSON file.
//
// Defaults to a slug of the collection name & creates {base}_songs.csv and {base}_metadata.json
func WriteCSVExport(export *Export, basePath string) (*CSVExportResult, error) {
	if basePath == "" {
		basePath = Slug(export.Name)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	songsFile := basePath + "_songs.csv"
	if err := os.WriteFile(songsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := basePath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		SongsFile:    songsFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports a collection to a Markdown document.
//
// Defaults to {slug}.md as the filename.
func WriteMarkdownExport(export *Export, filepath string) (string, error) {
	if filepath == "" {
		filepath = Slug(export.Name) + ".md"
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport exports a collection to plain text format.
//
// Defaults to {slug}_songs.txt as the filename.
func WriteTextExport(export *Export, filepath string) (string, error) {
	if filepath == "" {
		filepath = Slug(export.Name) + "_songs.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

// WriteJSONExport exports a collection, metadata and songs together, to a JSON file.
//
// Defaults to {slug}.json as the filename.
func WriteJSONExport(export *Export, filepath string) (string, error) {
	if filepath == "" {
		filepath = Slug(export.Name) + ".json"
	}

	jsonData, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(filepath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return filepath, nil
}
