package model

import "time"

type Task struct {
	ID                string     `json:"id"`
	HouseID           string     `json:"house_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	DueDate           *time.Time `json:"due_date"`
	Completed         bool       `json:"completed"`
	AssignedTo        *string    `json:"assigned_to"`
	CreatedBy         string     `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	IsRepeating       bool       `json:"is_repeating"`
	AlwaysRepeat      bool       `json:"always_repeat"`
	RepeatDays        *int       `json:"repeat_days"`
	AutoRotate        bool       `json:"auto_rotate"`
	Area              *string    `json:"area"`
	CompletedBy       *string    `json:"completed_by"`
	CompletedAt       *time.Time `json:"completed_at"`
	OverdueCompletion *bool      `json:"overdue_completion"`
	RepeatTaskID      *string    `json:"repeat_task_id"`
}

// IsAssignedTo reports whether the task is assigned to userID.
func (t Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// IsCompletedBy reports whether userID completed the task.
func (t Task) IsCompletedBy(userID string) bool {
	return t.Completed && t.CompletedBy != nil && *t.CompletedBy == userID
}

// InLineage reports whether the task belongs to the recurring chore repeatTaskID.
func (t Task) InLineage(repeatTaskID string) bool {
	return t.RepeatTaskID != nil && *t.RepeatTaskID == repeatTaskID
}

// TaskFilter narrows a task listing. Zero values match everything.
type TaskFilter struct {
	OpenOnly      bool
	CompletedOnly bool
	AssignedTo    string
	RepeatTaskID  string
}
