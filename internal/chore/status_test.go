package chore

import (
	"testing"
	"time"

	"github.com/dukerupert/calmchores/internal/model"
)

func TestStatusNoDueDate(t *testing.T) {
	task := model.Task{ID: "1", Title: "Restock soap", IsRepeating: true, AlwaysRepeat: true}
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

	if got := ComputeStatus(task, now); got != StatusNoDueDate {
		t.Errorf("status = %q, want %q", got, StatusNoDueDate)
	}
}

func TestStatusCompleted(t *testing.T) {
	task := model.Task{ID: "1", Title: "Dust", DueDate: timePtr(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)), Completed: true}
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

	// Completed wins even when the due date has passed.
	if got := ComputeStatus(task, now); got != StatusCompleted {
		t.Errorf("status = %q, want %q", got, StatusCompleted)
	}
}

func TestStatusOverdue(t *testing.T) {
	task := model.Task{ID: "1", Title: "Mop", DueDate: timePtr(time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC))}
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

	if got := ComputeStatus(task, now); got != StatusOverdue {
		t.Errorf("status = %q, want %q", got, StatusOverdue)
	}
}

func TestStatusDueToday(t *testing.T) {
	task := model.Task{ID: "1", Title: "Mop", DueDate: timePtr(time.Date(2026, 2, 5, 20, 0, 0, 0, time.UTC))}
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

	if got := ComputeStatus(task, now); got != StatusDueToday {
		t.Errorf("status = %q, want %q", got, StatusDueToday)
	}
}

func TestStatusPending(t *testing.T) {
	task := model.Task{ID: "1", Title: "Mop", DueDate: timePtr(time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC))}
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

	if got := ComputeStatus(task, now); got != StatusPending {
		t.Errorf("status = %q, want %q", got, StatusPending)
	}
}

func TestStatusDueTodayUsesCallerLocation(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*60*60)
	// 03:00 UTC on the 6th is still the evening of the 5th at UTC-7.
	task := model.Task{ID: "1", Title: "Mop", DueDate: timePtr(time.Date(2026, 2, 6, 3, 0, 0, 0, time.UTC))}
	now := time.Date(2026, 2, 5, 10, 0, 0, 0, loc)

	if got := ComputeStatus(task, now); got != StatusDueToday {
		t.Errorf("status = %q, want %q", got, StatusDueToday)
	}
}

func TestIsDueWithin(t *testing.T) {
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		task model.Task
		want bool
	}{
		{"due in 30m", model.Task{DueDate: timePtr(now.Add(30 * time.Minute))}, true},
		{"due in exactly 1h", model.Task{DueDate: timePtr(now.Add(time.Hour))}, true},
		{"due in 2h", model.Task{DueDate: timePtr(now.Add(2 * time.Hour))}, false},
		{"already overdue", model.Task{DueDate: timePtr(now.Add(-time.Minute))}, false},
		{"completed", model.Task{DueDate: timePtr(now.Add(time.Minute)), Completed: true}, false},
		{"no due date", model.Task{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDueWithin(tt.task, now, time.Hour); got != tt.want {
				t.Errorf("IsDueWithin = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithStatusResolvesAssigneeName(t *testing.T) {
	now := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)
	house := &model.House{
		ID: "h1",
		Members: []model.UserSummary{
			{ID: "u1", DisplayName: "Alice"},
			{ID: "u2", DisplayName: "Bob"},
		},
	}
	tasks := []model.Task{
		{ID: "1", Title: "Mop", AssignedTo: strPtr("u2"), DueDate: timePtr(now.Add(-time.Hour))},
		{ID: "2", Title: "Dust"},
		{ID: "3", Title: "Sweep", AssignedTo: strPtr("gone")},
	}

	got := WithStatus(tasks, house, now)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].AssigneeName != "Bob" || got[0].Status != StatusOverdue {
		t.Errorf("first = %q/%q, want Bob/overdue", got[0].AssigneeName, got[0].Status)
	}
	if got[1].AssigneeName != "" || got[1].Status != StatusNoDueDate {
		t.Errorf("second = %q/%q, want unassigned/no_due_date", got[1].AssigneeName, got[1].Status)
	}
	if got[2].AssigneeName != "" {
		t.Errorf("departed member name = %q, want empty", got[2].AssigneeName)
	}
}
