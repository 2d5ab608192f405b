package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/calmchores/internal/chore"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads the request body into v and reports a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// choreStatus maps chore errors to HTTP status codes.
func choreStatus(err error) int {
	switch {
	case errors.Is(err, chore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chore.ErrAlreadyCompleted),
		errors.Is(err, chore.ErrNotCompleted),
		errors.Is(err, chore.ErrNoEligibleAssignee):
		return http.StatusConflict
	case errors.Is(err, chore.ErrMissingTitle),
		errors.Is(err, chore.ErrInvalidRecurrenceConfig),
		errors.Is(err, chore.ErrMissingDueDate),
		errors.Is(err, chore.ErrUnknownArea),
		errors.Is(err, chore.ErrNotMember):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeChoreError answers with the status for err. Only unexpected errors
// are logged, and their text is not sent to the client.
func writeChoreError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	status := choreStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error(op, "error", err)
		writeError(w, status, op+" failed")
		return
	}
	writeError(w, status, err.Error())
}
