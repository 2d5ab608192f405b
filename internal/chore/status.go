package chore

import (
	"time"

	"github.com/dukerupert/calmchores/internal/model"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusDueToday  Status = "due_today"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusNoDueDate Status = "no_due_date"
)

type TaskWithStatus struct {
	model.Task
	Status       Status `json:"status"`
	AssigneeName string `json:"assignee_name,omitempty"`
}

// ComputeStatus determines where a task stands at now.
func ComputeStatus(task model.Task, now time.Time) Status {
	if task.Completed {
		return StatusCompleted
	}
	if task.DueDate == nil {
		return StatusNoDueDate
	}

	due := *task.DueDate
	if now.After(due) {
		return StatusOverdue
	}

	// Due later today, in the caller's location
	loc := now.Location()
	if startOfDay(due.In(loc)).Equal(startOfDay(now)) {
		return StatusDueToday
	}
	return StatusPending
}

// IsDueWithin reports whether an open task falls due in (now, now+window].
func IsDueWithin(task model.Task, now time.Time, window time.Duration) bool {
	if task.Completed || task.DueDate == nil {
		return false
	}
	due := *task.DueDate
	return due.After(now) && !due.After(now.Add(window))
}

// WithStatus decorates tasks with their status and the assignee's display
// name taken from the house projection.
func WithStatus(tasks []model.Task, house *model.House, now time.Time) []TaskWithStatus {
	names := make(map[string]string)
	if house != nil {
		for _, m := range house.Members {
			names[m.ID] = m.DisplayName
		}
	}

	out := make([]TaskWithStatus, 0, len(tasks))
	for _, t := range tasks {
		tw := TaskWithStatus{Task: t, Status: ComputeStatus(t, now)}
		if t.AssignedTo != nil {
			tw.AssigneeName = names[*t.AssignedTo]
		}
		out = append(out, tw)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
