package server

import (
	"context"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"
)

// healthTimeout bounds the sidecar probe so a wedged backend cannot hang the
// health endpoint.
const healthTimeout = 2 * time.Second

type generatorHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealth always answers 200: the server being able to answer is the
// server's health. The generator's reachability rides along.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	gen := generatorHealth{Status: "unconfigured"}

	if s.generator != nil {
		gen.Name = s.generator.Name()

		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := s.generator.Health(ctx); err != nil {
			gen.Status = "unreachable"
			gen.Error = err.Error()
		} else {
			gen.Status = "ok"
		}
	}

	respond(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"generator": gen,
	})
}

type statsResponse struct {
	Songs      int            `json:"songs"`
	Playlists  int            `json:"playlists"`
	References int            `json:"references"`
	Jobs       map[string]int `json:"jobs"`
	DiskBytes  int64          `json:"disk_bytes"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	songs, err := s.songs.List(nil)
	if err != nil {
		s.fail(w, err)
		return
	}
	playlists, err := s.playlists.List(nil)
	if err != nil {
		s.fail(w, err)
		return
	}
	refs, err := s.references.List(nil)
	if err != nil {
		s.fail(w, err)
		return
	}
	jobs, err := s.jobs.CountByStatus()
	if err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, statsResponse{
		Songs:      len(songs),
		Playlists:  len(playlists),
		References: len(refs),
		Jobs:       jobs,
		DiskBytes:  diskUsage(s.store.Root()),
	})
}

// diskUsage sums file sizes under root. Unreadable entries are skipped; the
// number is informational, not an accounting guarantee.
func diskUsage(root string) int64 {
	var total int64

	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})

	return total
}
