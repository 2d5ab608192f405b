package chore

import (
	"strings"

	"github.com/dukerupert/calmchores/internal/model"
)

// Normalize clears fields that have no meaning for the task's recurrence
// mode, the same way the edit form drops hidden inputs.
func Normalize(t *model.Task) {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	if t.Area != nil && strings.TrimSpace(*t.Area) == "" {
		t.Area = nil
	}

	if !t.IsRepeating {
		t.AlwaysRepeat = false
		t.RepeatDays = nil
		return
	}
	if t.AlwaysRepeat {
		t.DueDate = nil
		t.RepeatDays = nil
	}
}

// Validate checks the recurrence and due-date invariants of a task about to
// be persisted.
func Validate(t model.Task) error {
	if t.Title == "" {
		return ErrMissingTitle
	}
	if t.IsRepeating && !t.AlwaysRepeat && (t.RepeatDays == nil || *t.RepeatDays <= 0) {
		return ErrInvalidRecurrenceConfig
	}
	if !t.IsRepeating && t.AlwaysRepeat {
		return ErrInvalidRecurrenceConfig
	}
	if t.DueDate == nil && !(t.IsRepeating && t.AlwaysRepeat) {
		return ErrMissingDueDate
	}
	return nil
}
