package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStudioClient(t *testing.T) {
	t.Run("GetHealth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/health" {
				t.Errorf("expected path '/api/health', got %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status": "ok", "generator": {"name": "harmonia", "status": "unreachable", "error": "connection refused"}}`))
		}))
		defer server.Close()

		client := NewAPIClient(server.URL, nil)
		health, err := client.GetHealth(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if health.Status != "ok" {
			t.Errorf("expected status 'ok', got %s", health.Status)
		}
		if health.Generator.Name != "harmonia" {
			t.Errorf("expected generator 'harmonia', got %s", health.Generator.Name)
		}
		if health.Generator.Status != "unreachable" {
			t.Errorf("expected generator status 'unreachable', got %s", health.Generator.Status)
		}
		if health.Generator.Error != "connection refused" {
			t.Errorf("expected generator error to be preserved, got %s", health.Generator.Error)
		}
	})

	t.Run("GetQueue", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/generate" {
				t.Errorf("expected path '/api/generate', got %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{
				"queue": {"current": "job-2", "queued": ["job-3", "job-4"]},
				"jobs": [
					{"id": "job-3", "status": "pending", "prompt": "rainy jazz"},
					{"id": "job-2", "status": "running", "progress_step": 12, "progress_total": 32}
				]
			}`))
		}))
		defer server.Close()

		client := NewAPIClient(server.URL, nil)
		summary, err := client.GetQueue(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := &QueueSummary{
			Queue: QueueStatus{Current: "job-2", Queued: []string{"job-3", "job-4"}},
			Jobs: []JobSummary{
				{ID: "job-3", Status: "pending", Prompt: "rainy jazz"},
				{ID: "job-2", Status: "running", ProgressStep: 12, ProgressTotal: 32},
			},
		}
		if diff := cmp.Diff(want, summary); diff != "" {
			t.Errorf("queue summary mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("GetJob", func(t *testing.T) {
		t.Run("Found", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/generate/job-1" {
					t.Errorf("expected path '/api/generate/job-1', got %s", r.URL.Path)
				}
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"id": "job-1", "status": "completed", "result_song_id": "song-9"}`))
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, nil)
			job, err := client.GetJob(context.Background(), "job-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if job.Status != "completed" || job.ResultSongID != "song-9" {
				t.Errorf("unexpected job: %+v", job)
			}
		})

		t.Run("Not Found Surfaces Envelope", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error": "job not found: job-9"}`))
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, nil)
			_, err := client.GetJob(context.Background(), "job-9")
			if err == nil {
				t.Fatal("expected error for missing job")
			}
			if !strings.Contains(err.Error(), "job not found: job-9") {
				t.Errorf("expected server message in error, got %v", err)
			}
		})
	})

	t.Run("SubmitJob", func(t *testing.T) {
		t.Run("Returns Job ID", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				body, _ := io.ReadAll(r.Body)
				if !strings.Contains(string(body), `"prompt":"dreamy synthwave"`) {
					t.Errorf("expected prompt in body, got %s", body)
				}
				if strings.Contains(string(body), "duration_seconds") {
					t.Errorf("zero duration should be omitted, got %s", body)
				}

				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"job_id": "job-7"}`))
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, nil)
			id, err := client.SubmitJob(context.Background(), SubmitOptions{Prompt: "dreamy synthwave"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if id != "job-7" {
				t.Errorf("expected job ID 'job-7', got %s", id)
			}
		})

		t.Run("Queue Full Surfaces Envelope", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"error": "generation queue is full"}`))
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, nil)
			_, err := client.SubmitJob(context.Background(), SubmitOptions{Prompt: "anything"})
			if err == nil {
				t.Fatal("expected error when queue is full")
			}
			if !strings.Contains(err.Error(), "queue is full") {
				t.Errorf("expected queue-full message, got %v", err)
			}
		})
	})

	t.Run("CancelJob", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST method, got %s", r.Method)
			}
			if r.URL.Path != "/api/generate/job-1/cancel" {
				t.Errorf("expected cancel path, got %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"id": "job-1", "status": "canceled"}`))
		}))
		defer server.Close()

		client := NewAPIClient(server.URL, nil)
		job, err := client.CancelJob(context.Background(), "job-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if job.Status != "canceled" {
			t.Errorf("expected status 'canceled', got %s", job.Status)
		}
	})

	t.Run("GetSongs", func(t *testing.T) {
		t.Run("Decodes Catalog", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("search") != "" {
					t.Errorf("expected no search param, got %s", r.URL.RawQuery)
				}
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"songs": [{"id": "song-1", "title": "Neon Nights", "duration_seconds": 182.5, "source": "generated"}]}`))
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, nil)
			songs, err := client.GetSongs(context.Background(), "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(songs) != 1 {
				t.Fatalf("expected 1 song, got %d", len(songs))
			}
			if songs[0].Title != "Neon Nights" || songs[0].DurationSeconds != 182.5 {
				t.Errorf("unexpected song: %+v", songs[0])
			}
		})

		t.Run("Passes Search Query", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("search"); got != "neon lights" {
					t.Errorf("expected search 'neon lights', got %q", got)
				}
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"songs": []}`))
			}))
			defer server.Close()

			client := NewAPIClient(server.URL, nil)
			songs, err := client.GetSongs(context.Background(), "neon lights")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(songs) != 0 {
				t.Errorf("expected empty result, got %d", len(songs))
			}
		})
	})

	t.Run("Error Without Envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream exploded"))
		}))
		defer server.Close()

		client := NewAPIClient(server.URL, nil)
		_, err := client.GetQueue(context.Background())
		if err == nil {
			t.Fatal("expected error for non-JSON failure")
		}
		if !strings.Contains(err.Error(), "502") {
			t.Errorf("expected status code in error, got %v", err)
		}
	})
}
