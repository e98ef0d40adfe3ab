package server

import (
	"net/http"
	"time"

	"soundsmith/internal/models"
)

// The studio is single-user and local. The auth endpoints exist so the SPA's
// session plumbing has something to talk to; they always resolve to the
// default user and never issue credentials.

type userResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func userView(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID(),
		Username:    u.Username(),
		DisplayName: u.DisplayName(),
		CreatedAt:   u.CreatedAt(),
	}
}

func (s *Server) handleAuthLogin(w http.ResponseWriter, _ *http.Request) {
	user, err := s.users.EnsureDefault()
	if err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, userView(user))
}

func (s *Server) handleAuthMe(w http.ResponseWriter, _ *http.Request) {
	user, err := s.users.EnsureDefault()
	if err != nil {
		s.fail(w, err)
		return
	}

	respond(w, http.StatusOK, userView(user))
}

func (s *Server) handleAuthLogout(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusNoContent, nil)
}
