package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"soundsmith/internal/audio"
	"soundsmith/internal/formatter"
	"soundsmith/internal/models"
	"soundsmith/internal/repositories"
	"soundsmith/internal/shared"
	"soundsmith/internal/tasks"
)

// LibraryList lists catalog rows, optionally filtered by source.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if source := cmd.String("source"); source != "" {
		criteria["source"] = source
	}

	songs, err := repositories.NewSongRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list songs: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(formatter.LibraryExport(songs), cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		r.writePlain("Library is empty. Queue something with 'soundsmith generate submit'.\n")
		return nil
	}

	r.writePlain("Found %d songs:\n\n", len(songs))
	for i, song := range songs {
		r.writePlain("%d. %s\n", i+1, songLabel(song))
		r.writePlain("   ID: %s\n", song.ID())
		r.writePlain("   Duration: %s\n", shared.FormatDuration(song.DurationSeconds()))
		r.writePlain("   Source: %s\n", song.Source())
		r.writePlain("   Size: %s\n", humanize.Bytes(uint64(song.SizeBytes())))
		r.writePlain("\n")
	}

	return nil
}

// LibraryScan walks the library directory and reconciles it with the catalog.
func (r *Runner) LibraryScan(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := audio.NewStore(r.config.Library.Dir)
	if err != nil {
		return fmt.Errorf("failed to open library directory: %w", err)
	}

	scanner := tasks.NewScanner(repositories.NewSongRepository(db), store, r.logger)

	r.writePlain("Scanning %s...\n\n", store.Root())

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("🔍 %s\n", update.Message)
		}
	}()

	result, err := scanner.Scan(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	r.writePlainHeader("Scan Complete")
	r.writePlain("Scanned: %d\n", result.Scanned)
	r.writePlain("Added: %d\n", result.Added)
	r.writePlain("Updated: %d\n", result.Updated)
	r.writePlain("Removed: %d\n", result.Removed)

	return nil
}

// LibrarySearch finds songs whose text fields contain the query substring.
func (r *Runner) LibrarySearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	db, err := r.openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	songs, err := repositories.NewSongRepository(db).Search(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(songs) == 0 {
		r.writePlain("No songs match %q.\n", query)
		return nil
	}

	r.writePlain("Found %d songs:\n\n", len(songs))
	for i, song := range songs {
		r.writePlain("%d. %s [%s]\n", i+1, songLabel(song), shared.FormatDuration(song.DurationSeconds()))
	}

	return nil
}

// LibraryExport writes the library or a playlist to CSV, Markdown, text, or JSON.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	var export *formatter.Export
	if playlistID := cmd.String("playlist"); playlistID != "" {
		playlists := repositories.NewPlaylistRepository(db)
		playlist, err := playlists.Get(playlistID)
		if err != nil {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		tracks, err := playlists.Songs(playlist.ID())
		if err != nil {
			return fmt.Errorf("failed to load playlist songs: %w", err)
		}
		export = formatter.PlaylistExport(playlist, tracks)
	} else {
		songs, err := repositories.NewSongRepository(db).List(nil)
		if err != nil {
			return fmt.Errorf("failed to list songs: %w", err)
		}
		export = formatter.LibraryExport(songs)
	}

	output := cmd.String("output")

	switch format := cmd.String("format"); format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		r.writePlain("✓ Exported %d songs\n", len(export.Songs))
		r.writePlain("Songs: %s\n", result.SongsFile)
		r.writePlain("Metadata: %s\n", result.MetadataFile)
	case "markdown", "md":
		path, err := formatter.WriteMarkdownExport(export, exportPath(output, ".md"))
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		r.writePlain("✓ Exported %d songs to %s\n", len(export.Songs), path)
	case "text", "txt":
		path, err := formatter.WriteTextExport(export, exportPath(output, ".txt"))
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		r.writePlain("✓ Exported %d songs to %s\n", len(export.Songs), path)
	case "json":
		path, err := formatter.WriteJSONExport(export, exportPath(output, ".json"))
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		r.writePlain("✓ Exported %d songs to %s\n", len(export.Songs), path)
	default:
		return fmt.Errorf("%w: unknown format %q (csv, markdown, text, json)", shared.ErrInvalidFlag, format)
	}

	return nil
}

// LibraryStats prints catalog totals and job counts.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	songs, err := repositories.NewSongRepository(db).List(nil)
	if err != nil {
		return fmt.Errorf("failed to list songs: %w", err)
	}

	playlists, err := repositories.NewPlaylistRepository(db).List(nil)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	references, err := repositories.NewReferenceRepository(db).List(nil)
	if err != nil {
		return fmt.Errorf("failed to list references: %w", err)
	}

	jobCounts, err := repositories.NewJobRepository(db).CountByStatus()
	if err != nil {
		return fmt.Errorf("failed to count jobs: %w", err)
	}

	var totalBytes int64
	var totalSeconds float64
	for _, song := range songs {
		totalBytes += song.SizeBytes()
		totalSeconds += song.DurationSeconds()
	}
	for _, reference := range references {
		totalBytes += reference.SizeBytes()
	}

	r.writePlainHeader("Library")
	r.writePlain("Songs: %s\n", humanize.Comma(int64(len(songs))))
	r.writePlain("Playlists: %s\n", humanize.Comma(int64(len(playlists))))
	r.writePlain("References: %s\n", humanize.Comma(int64(len(references))))
	r.writePlain("Audio: %s of %s\n", shared.FormatDuration(totalSeconds), humanize.Bytes(uint64(totalBytes)))

	if len(jobCounts) > 0 {
		r.writePlain("\nJobs:\n")
		for _, status := range []string{
			models.JobStatusPending,
			models.JobStatusRunning,
			models.JobStatusCompleted,
			models.JobStatusFailed,
			models.JobStatusCanceled,
		} {
			if n := jobCounts[status]; n > 0 {
				r.writePlain("  %s: %d\n", status, n)
			}
		}
	}

	return nil
}

// exportPath appends ext when the user named an output base, and keeps the
// exporters' slug defaults otherwise.
func exportPath(output, ext string) string {
	if output == "" {
		return ""
	}
	return output + ext
}

// songLabel renders "Artist - Title" with a fallback for untitled rows.
func songLabel(song *models.Song) string {
	title := song.Title()
	if title == "" {
		title = "(untitled)"
	}
	if artist := song.Artist(); artist != "" {
		return artist + " - " + title
	}
	return title
}
