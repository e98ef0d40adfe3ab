package server

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"soundsmith/internal/models"
	"soundsmith/internal/shared"
)

// maxUploadMemory bounds how much of a multipart upload buffers in memory
// before spilling to temp files.
const maxUploadMemory = 32 << 20

type referenceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentType string    `json:"content_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func referenceView(ref *models.ReferenceTrack) referenceResponse {
	return referenceResponse{
		ID:          ref.ID(),
		Name:        ref.Name(),
		Filename:    ref.Filename(),
		SizeBytes:   ref.SizeBytes(),
		ContentType: ref.ContentType(),
		CreatedAt:   ref.CreatedAt(),
	}
}

func (s *Server) handleReferenceList(w http.ResponseWriter, _ *http.Request) {
	refs, err := s.references.List(nil)
	if err != nil {
		s.fail(w, err)
		return
	}

	views := make([]referenceResponse, len(refs))
	for i, ref := range refs {
		views[i] = referenceView(ref)
	}

	respond(w, http.StatusOK, map[string]any{"references": views})
}

// handleReferenceUpload stores conditioning audio. The payload is opaque: no
// decoding, no format checks, saved byte-for-byte for the generator to read.
func (s *Server) handleReferenceUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.fail(w, fmt.Errorf("%w: malformed multipart form: %v", shared.ErrInvalidInput, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			s.fail(w, fmt.Errorf("%w: multipart field %q is required", shared.ErrInvalidInput, "file"))
			return
		}
		s.fail(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	rel, size, err := s.store.Save("references", header.Filename, file)
	if err != nil {
		s.fail(w, err)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		base := path.Base(header.Filename)
		name = strings.TrimSuffix(base, path.Ext(base))
	}
	if name == "" {
		_ = s.store.Remove(rel)
		s.fail(w, fmt.Errorf("%w: reference needs a name or a filename", shared.ErrInvalidInput))
		return
	}

	ref := models.NewReferenceTrack(0, name, header.Filename, rel)
	ref.SetSizeBytes(size)
	ref.SetContentType(header.Header.Get("Content-Type"))

	if err := s.references.Create(ref); err != nil {
		// Keep disk and catalog consistent when the insert fails.
		_ = s.store.Remove(rel)
		s.fail(w, err)
		return
	}

	respond(w, http.StatusCreated, referenceView(ref))
}

func (s *Server) handleReferenceAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ref, err := s.references.Get(id)
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrReferenceNotFound, id))
		return
	}

	s.streamAudio(w, r, ref.Path())
}

func (s *Server) handleReferenceDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ref, err := s.references.Get(id)
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %s", shared.ErrReferenceNotFound, id))
		return
	}

	if err := s.store.Remove(ref.Path()); err != nil {
		s.fail(w, err)
		return
	}

	if err := s.references.Delete(id); err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusNoContent, nil)
}
