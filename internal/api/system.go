package api

import (
	"net/http"
)

// handleStatus returns the plexer status: mode, routing file and whether
// there are unsaved edits.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.plexer.CurrentStatus(r.Context())
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	status, err := s.plexer.CurrentStatus(r.Context())
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": status.Mode})
}
