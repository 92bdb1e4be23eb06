package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/nerrad567/midiplexer/internal/activity"
	"github.com/nerrad567/midiplexer/internal/client"
	"github.com/nerrad567/midiplexer/internal/controller"
	"github.com/nerrad567/midiplexer/internal/plexer"
	"github.com/nerrad567/midiplexer/internal/routing"
	"github.com/nerrad567/midiplexer/internal/track"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeTimeout     = "timeout"
	ErrCodeUnavailable = "unavailable"
	ErrCodeInternal    = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writePlexerError maps an error from the plexer or its workers to a
// response. The message is the error text, which names the missing or
// conflicting item.
func writePlexerError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, plexer.ErrNoSuchClient),
		errors.Is(err, plexer.ErrNoSuchController),
		errors.Is(err, plexer.ErrNoSuchScene),
		errors.Is(err, controller.ErrNoSuchSignal),
		errors.Is(err, client.ErrNoSuchTrack),
		errors.Is(err, activity.ErrNotFound),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, plexer.ErrDuplicateName),
		errors.Is(err, plexer.ErrOffline):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, plexer.ErrInvalidArgument),
		errors.Is(err, plexer.ErrUnknownType),
		errors.Is(err, track.ErrInvalidConfig),
		errors.Is(err, routing.ErrMalformed):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, plexer.ErrQueryTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeTimeout
	case errors.Is(err, plexer.ErrStopped):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
