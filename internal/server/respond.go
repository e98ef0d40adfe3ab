package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"soundsmith/internal/shared"
)

// respond writes v as JSON with the given status. A nil v writes headers only.
func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		// The status line is already out; encoding errors have nowhere to go.
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError writes the API's uniform error envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}

// fail maps err onto an HTTP status and writes the error envelope. Unmapped
// errors become an opaque 500 and get logged; everything else carries its
// message to the client.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		respondError(w, status, "internal server error")
		return
	}
	respondError(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, shared.ErrSongNotFound),
		errors.Is(err, shared.ErrPlaylistNotFound),
		errors.Is(err, shared.ErrJobNotFound),
		errors.Is(err, shared.ErrReferenceNotFound),
		errors.Is(err, shared.ErrAudioMissing),
		errors.Is(err, shared.ErrResultNotReady):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrJobNotCancelable):
		return http.StatusConflict
	case errors.Is(err, shared.ErrQueueFull),
		errors.Is(err, shared.ErrServiceUnavailable),
		errors.Is(err, shared.ErrGeneratorUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into v, mapping parse failures to the
// invalid-input sentinel so they surface as 400s.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed json: %v", shared.ErrInvalidInput, err)
	}
	return nil
}
