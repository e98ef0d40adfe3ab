package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"soundsmith/internal/audio"
	"soundsmith/internal/repositories"
	"soundsmith/internal/server"
	"soundsmith/internal/services"
	"soundsmith/internal/shared"
	"soundsmith/internal/tasks"
)

// Serve boots the full studio: database, generation engine, library watcher,
// and the HTTP server. It blocks until a signal arrives or a component fails.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.serveConfig(cmd)
	if err != nil {
		return err
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Every row the API serves hangs off the default local user.
	if _, err := repositories.NewUserRepository(db).EnsureDefault(); err != nil {
		return fmt.Errorf("failed to seed default user: %w", err)
	}

	store, err := audio.NewStore(config.Library.Dir)
	if err != nil {
		return fmt.Errorf("failed to open library directory: %w", err)
	}

	songs := repositories.NewSongRepository(db)
	generator := services.NewRemoteGenerator(config.Generator.URL, time.Duration(config.Generator.PollIntervalMS)*time.Millisecond)

	engine := tasks.NewEngine(tasks.EngineOpts{
		Generator:    generator,
		Jobs:         repositories.NewJobRepository(db),
		Songs:        songs,
		References:   repositories.NewReferenceRepository(db),
		Store:        store,
		Logger:       r.logger,
		DefaultModel: config.Generator.Model,
		Timeout:      time.Duration(config.Generator.TimeoutSeconds) * time.Second,
	})

	scanner := tasks.NewScanner(songs, store, r.logger)
	if config.Library.ScanOnStart {
		if _, err := scanner.Scan(ctx, nil); err != nil {
			r.logger.Warnf("startup scan failed: %v", err)
		}
	}

	srv := server.New(server.Opts{
		Config:    config,
		DB:        db,
		Engine:    engine,
		Generator: generator,
		Store:     store,
		Logger:    r.logger,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			r.logger.Infof("received %v, shutting down", sig)
			cancel()
		case <-runCtx.Done():
		}
	}()

	if config.Library.Watch {
		watcher, err := tasks.NewWatcher(config.Library.Dir, scanner, r.logger)
		if err != nil {
			r.logger.Warnf("library watcher unavailable: %v", err)
		} else if err := watcher.Start(runCtx); err != nil {
			r.logger.Warnf("library watcher failed to start: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return srv.Run()
	})

	g.Go(func() error {
		if err := engine.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown(context.Background())
	})

	if config.Server.OpenBrowser {
		go r.openStudio(config)
	}

	r.writePlain("soundsmith studio on http://%s\n", config.Server.Addr())

	return g.Wait()
}

// serveConfig resolves the effective server config, letting flags override
// file values.
func (r *Runner) serveConfig(cmd *cli.Command) (*shared.Config, error) {
	config := r.config
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	} else if cmd.IsSet("config") {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingConfig, configPath)
	}

	if cmd.IsSet("host") {
		config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		config.Server.Port = cmd.Int("port")
	}
	if cmd.Bool("open") {
		config.Server.OpenBrowser = true
	}

	return config, nil
}

// openStudio points the default browser at the SPA once the listener has had
// a moment to come up.
func (r *Runner) openStudio(config *shared.Config) {
	time.Sleep(300 * time.Millisecond)

	host := config.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}

	url := fmt.Sprintf("http://%s:%d", host, config.Server.Port)
	if err := shared.OpenBrowser(url); err != nil {
		r.logger.Warnf("failed to open browser: %v", err)
	}
}
