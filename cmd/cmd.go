// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand starts the studio server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the studio server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to bind",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the studio in a browser once the server is up",
			},
		},
		Action: r.Serve,
	}
}

// libraryCommand groups song library operations
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect and maintain the song library",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs in the library",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only show songs from this source (generated, imported)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.LibraryList,
			},
			{
				Name:   "scan",
				Usage:  "Reconcile the library directory with the database",
				Action: r.LibraryScan,
			},
			{
				Name:  "search",
				Usage: "Search songs by title, artist, tags, or lyrics",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Action: r.LibrarySearch,
			},
			{
				Name:  "export",
				Usage: "Export the library or a playlist to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Export this playlist instead of the whole library",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text, json)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path without extension",
					},
				},
				Action: r.LibraryExport,
			},
			{
				Name:   "stats",
				Usage:  "Show library totals",
				Action: r.LibraryStats,
			},
		},
	}
}

// generateCommand submits and tracks generation jobs
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Submit and track generation jobs",
		Commands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "Queue a new generation job",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "prompt",
						Aliases:  []string{"p"},
						Usage:    "Text prompt describing the song",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Title for the generated song",
					},
					&cli.StringFlag{
						Name:  "lyrics",
						Usage: "Lyrics to sing, or [instrumental]",
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Model to render with",
					},
					&cli.StringFlag{
						Name:  "preset",
						Usage: "Named parameter preset",
					},
					&cli.IntFlag{
						Name:  "duration",
						Usage: "Target length in seconds",
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Random seed, 0 picks one",
					},
					&cli.IntFlag{
						Name:  "steps",
						Usage: "Inference steps",
					},
					&cli.StringFlag{
						Name:  "guidance",
						Usage: "Guidance scale",
					},
					&cli.StringFlag{
						Name:  "reference",
						Usage: "Reference track ID for style transfer",
					},
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Follow the job until it finishes",
					},
				},
				Action: r.GenerateSubmit,
			},
			{
				Name:  "status",
				Usage: "Show one job",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Follow the job until it finishes",
					},
				},
				Action: r.GenerateStatus,
			},
			{
				Name:  "cancel",
				Usage: "Cancel a pending or running job",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.GenerateCancel,
			},
			{
				Name:  "queue",
				Usage: "Show the generation queue",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.GenerateQueue,
			},
		},
	}
}

// modelsCommand lists and downloads model weights
func modelsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List and download model weights",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show models from the bundled manifest",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "remote",
						Usage: "Also ask the running sidecar which models are loaded",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ModelsList,
			},
			{
				Name:  "download",
				Usage: "Fetch model weights",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Destination directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent downloads",
					},
					&cli.IntFlag{
						Name:  "rate",
						Usage: "Throttle in MB/s, 0 for unlimited",
					},
					&cli.BoolFlag{
						Name:  "verify",
						Usage: "Check file digests after download",
					},
				},
				Action: r.ModelsDownload,
			},
		},
	}
}

// guideCommand renders the built-in guides
func guideCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "guide",
		Usage: "Read the built-in guides",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "topic"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "width",
				Usage: "Wrap width for rendered text",
				Value: 80,
			},
		},
		Action: r.Guide,
	}
}
