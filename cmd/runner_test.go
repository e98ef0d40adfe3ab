package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"soundsmith/internal/models"
	"soundsmith/internal/services"
	"soundsmith/internal/shared"
	tu "soundsmith/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := services.NewAPIClient("http://127.0.0.1:9999", httpClient)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with nil api targets the configured server", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{
				Config: config,
			})

			want := "http://" + config.Server.Addr()
			if runner.api.BaseURL() != want {
				t.Errorf("expected api base URL %s, got %s", want, runner.api.BaseURL())
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with empty configPath", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "",
			})

			if runner.configPath != "" {
				t.Errorf("expected empty configPath, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
				continue
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"serve", "setup", "library", "generate", "models", "guide", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("commands", func(t *testing.T) {
		newTestRunner := func(t *testing.T) (*Runner, *bytes.Buffer) {
			t.Helper()
			config := shared.DefaultConfig()
			config.Database.Path = filepath.Join(t.TempDir(), "test.db")
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Config: config, Output: output})
			return runner, output
		}

		run := func(t *testing.T, runner *Runner, args ...string) error {
			t.Helper()
			app := &cli.Command{Name: "soundsmith", Commands: runner.register()}
			return app.Run(context.Background(), append([]string{"soundsmith"}, args...))
		}

		t.Run("library stats on an empty database", func(t *testing.T) {
			runner, output := newTestRunner(t)

			if err := run(t, runner, "library", "stats"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !strings.Contains(output.String(), "Songs: 0") {
				t.Errorf("expected empty totals, got %s", output.String())
			}
		})

		t.Run("library search without a query", func(t *testing.T) {
			runner, _ := newTestRunner(t)

			err := run(t, runner, "library", "search")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected missing argument error, got %v", err)
			}
		})

		t.Run("library export writes csv files", func(t *testing.T) {
			runner, output := newTestRunner(t)
			base := filepath.Join(t.TempDir(), "export")

			if err := run(t, runner, "library", "export", "--output", base); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			tu.AssertFileExists(t, base+"_songs.csv")
			tu.AssertFileExists(t, base+"_metadata.json")
			if !strings.Contains(output.String(), "Exported 0 songs") {
				t.Errorf("expected export summary, got %s", output.String())
			}
		})

		t.Run("guide lists topics", func(t *testing.T) {
			runner, output := newTestRunner(t)

			if err := run(t, runner, "guide"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !strings.Contains(output.String(), "prompting") {
				t.Errorf("expected topic list, got %s", output.String())
			}
		})

		t.Run("models list shows manifest releases", func(t *testing.T) {
			runner, output := newTestRunner(t)

			if err := run(t, runner, "models", "list"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !strings.Contains(output.String(), "harmonia-v1") {
				t.Errorf("expected manifest models, got %s", output.String())
			}
		})
	})
}

func TestSongLabel(t *testing.T) {
	t.Run("with artist and title", func(t *testing.T) {
		song := models.NewSong(0, "Neon Rain", "neon.wav")
		song.SetArtist("Vega")

		if got := songLabel(song); got != "Vega - Neon Rain" {
			t.Errorf("expected 'Vega - Neon Rain', got %q", got)
		}
	})

	t.Run("title only", func(t *testing.T) {
		song := models.NewSong(0, "Neon Rain", "neon.wav")

		if got := songLabel(song); got != "Neon Rain" {
			t.Errorf("expected 'Neon Rain', got %q", got)
		}
	})

	t.Run("untitled", func(t *testing.T) {
		song := models.NewSong(0, "", "neon.wav")

		if got := songLabel(song); got != "(untitled)" {
			t.Errorf("expected '(untitled)', got %q", got)
		}
	})
}

func TestJobLine(t *testing.T) {
	t.Run("prefers title", func(t *testing.T) {
		job := services.JobSummary{ID: "j1", Title: "Night Drive", Prompt: "synthwave"}

		if got := jobLine(job); got != "Night Drive" {
			t.Errorf("expected title, got %q", got)
		}
	})

	t.Run("falls back to prompt", func(t *testing.T) {
		job := services.JobSummary{ID: "j1", Prompt: "synthwave"}

		if got := jobLine(job); got != "synthwave" {
			t.Errorf("expected prompt, got %q", got)
		}
	})

	t.Run("falls back to id", func(t *testing.T) {
		job := services.JobSummary{ID: "j1"}

		if got := jobLine(job); got != "j1" {
			t.Errorf("expected id, got %q", got)
		}
	})

	t.Run("appends progress while running", func(t *testing.T) {
		job := services.JobSummary{
			ID:            "j1",
			Title:         "Night Drive",
			Status:        models.JobStatusRunning,
			ProgressStep:  3,
			ProgressTotal: 50,
		}

		if got := jobLine(job); got != "Night Drive (3/50)" {
			t.Errorf("expected progress suffix, got %q", got)
		}
	})
}

func TestExportPath(t *testing.T) {
	t.Run("empty output keeps exporter defaults", func(t *testing.T) {
		if got := exportPath("", ".md"); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})

	t.Run("appends extension", func(t *testing.T) {
		if got := exportPath("out/export", ".md"); got != "out/export.md" {
			t.Errorf("expected 'out/export.md', got %q", got)
		}
	})
}
