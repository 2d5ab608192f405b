package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/calmchores/internal/chore"
)

func TestChoreStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("task x: %w", chore.ErrNotFound), http.StatusNotFound},
		{chore.ErrAlreadyCompleted, http.StatusConflict},
		{chore.ErrNotCompleted, http.StatusConflict},
		{chore.ErrNoEligibleAssignee, http.StatusConflict},
		{chore.ErrMissingTitle, http.StatusUnprocessableEntity},
		{chore.ErrInvalidRecurrenceConfig, http.StatusUnprocessableEntity},
		{chore.ErrMissingDueDate, http.StatusUnprocessableEntity},
		{chore.ErrUnknownArea, http.StatusUnprocessableEntity},
		{chore.ErrNotMember, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := choreStatus(tt.err); got != tt.want {
				t.Errorf("choreStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWriteChoreErrorHidesInternals(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rec := httptest.NewRecorder()
	writeChoreError(rec, logger, "complete task", errors.New("database is locked"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "locked") {
		t.Errorf("body leaks the cause: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	writeChoreError(rec, logger, "complete task", chore.ErrAlreadyCompleted)
	if !strings.Contains(rec.Body.String(), chore.ErrAlreadyCompleted.Error()) {
		t.Errorf("body = %s, want the rule that failed", rec.Body.String())
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))

	var v map[string]any
	if decodeJSON(rec, req, &v) {
		t.Fatal("decodeJSON accepted garbage")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
