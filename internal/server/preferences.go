package server

import (
	"fmt"
	"net/http"

	"soundsmith/internal/models"
	"soundsmith/internal/shared"
)

func (s *Server) handlePreferencesGet(w http.ResponseWriter, _ *http.Request) {
	user, err := s.users.EnsureDefault()
	if err != nil {
		s.fail(w, err)
		return
	}

	prefs, err := s.preferences.Get(user.ID())
	if err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, prefs)
}

// handlePreferencesPut replaces the preferences document. Fields the body
// omits keep their defaults, so a client can send just what it changes.
func (s *Server) handlePreferencesPut(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.EnsureDefault()
	if err != nil {
		s.fail(w, err)
		return
	}

	prefs := models.DefaultPreferences()
	if err := decodeJSON(r, prefs); err != nil {
		s.fail(w, err)
		return
	}

	if err := prefs.Validate(); err != nil {
		s.fail(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	if err := s.preferences.Put(user.ID(), prefs); err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, prefs)
}
