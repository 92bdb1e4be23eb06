package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/midiplexer/internal/activity"
)

// handleListActivity returns a page of the activity log, newest first.
//
// Query parameters:
//   - kind: one of the activity kinds
//   - controller, client: exact match
//   - since: RFC 3339 timestamp
//   - limit, offset: paging (limit defaults to 50, capped at 200)
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "activity log is disabled")
		return
	}

	q := r.URL.Query()
	filter := activity.Filter{
		Controller: q.Get("controller"),
		Client:     q.Get("client"),
	}
	if len(filter.Controller) > maxNameLen || len(filter.Client) > maxNameLen {
		writeBadRequest(w, "filter exceeds maximum length")
		return
	}

	if kind := q.Get("kind"); kind != "" {
		valid := false
		for _, k := range activity.Kinds() {
			if string(k) == kind {
				valid = true
				break
			}
		}
		if !valid {
			writeBadRequest(w, "invalid kind")
			return
		}
		filter.Kind = activity.Kind(kind)
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeBadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = t
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, name+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	result, err := s.activity.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing activity", "error", err)
		writeInternalError(w, "failed to list activity")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "activity log is disabled")
		return
	}
	entry, err := s.activity.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writePlexerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
