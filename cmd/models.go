package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"soundsmith/internal/services"
	"soundsmith/internal/shared"
	"soundsmith/internal/tasks"
)

// ModelsList shows the releases in the bundled weight manifest.
func (r *Runner) ModelsList(ctx context.Context, cmd *cli.Command) error {
	manifest, err := tasks.LoadManifest()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(manifest, cmd.Bool("pretty"))
	}

	loaded := map[string]bool{}
	if cmd.Bool("remote") {
		generator := services.NewRemoteGenerator(r.config.Generator.URL, 0)
		infos, err := generator.Models(ctx)
		if err != nil {
			r.logger.Warnf("sidecar unreachable, listing manifest only: %v", err)
		}
		for _, info := range infos {
			loaded[info.Name] = info.Loaded
		}
	}

	for i, model := range manifest.Models {
		marker := ""
		if model.Name == r.config.Generator.Model {
			marker = " (default)"
		}
		if loaded[model.Name] {
			marker += " (loaded)"
		}
		r.writePlain("%d. %s %s%s\n", i+1, model.Name, model.Version, marker)
		if model.Description != "" {
			r.writePlain("   %s\n", model.Description)
		}
		r.writePlain("   Files: %d, %s\n", len(model.Files), humanize.Bytes(uint64(model.TotalBytes())))
	}

	return nil
}

// ModelsDownload fetches a model's weight files.
func (r *Runner) ModelsDownload(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		name = r.config.Generator.Model
	}
	if name == "" {
		return fmt.Errorf("%w: model name", shared.ErrMissingArgument)
	}

	manifest, err := tasks.LoadManifest()
	if err != nil {
		return err
	}

	model, err := manifest.Model(name)
	if err != nil {
		return err
	}

	opts := tasks.FetchOpts{
		Dir:         r.config.Downloads.Dir,
		Workers:     r.config.Downloads.Workers,
		RateLimitMB: r.config.Downloads.RateLimitMB,
		Verify:      r.config.Downloads.Verify,
	}
	if cmd.IsSet("dir") {
		opts.Dir = cmd.String("dir")
	}
	if cmd.IsSet("workers") {
		opts.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimitMB = float64(cmd.Int("rate"))
	}
	if cmd.IsSet("verify") {
		opts.Verify = cmd.Bool("verify")
	}

	r.writePlain("Downloading %s %s (%s)...\n\n", model.Name, model.Version, humanize.Bytes(uint64(model.TotalBytes())))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.Verifying:
				r.writePlain("🔒 %s\n", update.Message)
			default:
				r.writePlain("📦 %s\n", update.Message)
			}
		}
	}()

	fetcher := tasks.NewFetcher(r.httpClient, r.logger)
	result, err := fetcher.Fetch(ctx, model, progressCh, opts)
	close(progressCh)
	<-done

	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	r.writePlainHeader("Download Complete")
	r.writePlain("Model: %s\n", result.Model)
	r.writePlain("Directory: %s\n", result.Directory)
	r.writePlain("Downloaded: %d, cached: %d, failed: %d\n", result.Downloaded, result.Skipped, result.Failed)
	r.writePlain("Total: %s\n", humanize.Bytes(uint64(result.TotalBytes)))

	return nil
}
