package chore

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dukerupert/calmchores/internal/model"
)

func intPtr(i int) *int              { return &i }
func boolPtr(b bool) *bool           { return &b }
func timePtr(t time.Time) *time.Time { return &t }

var (
	due   = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	early = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	late  = time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
)

func TestCompleteNonRepeating(t *testing.T) {
	task := model.Task{
		ID: "t1", HouseID: "h1", Title: "Take out trash",
		DueDate: timePtr(due), AssignedTo: strPtr("alice"), CreatedBy: "alice",
	}

	tr, err := Complete(task, CompleteInput{By: "bob", Now: early}, NewRotator(nil))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if tr.Kind != TransitionCompleted {
		t.Errorf("kind = %q, want %q", tr.Kind, TransitionCompleted)
	}
	if tr.Successor != nil {
		t.Errorf("successor = %+v, want none", tr.Successor)
	}

	want := task
	want.Completed = true
	want.CompletedBy = strPtr("bob")
	want.CompletedAt = timePtr(early)
	want.OverdueCompletion = boolPtr(false)
	if diff := cmp.Diff(want, tr.Updated); diff != "" {
		t.Errorf("updated mismatch (-want +got):\n%s", diff)
	}
}

func TestCompleteAfterDueIsOverdue(t *testing.T) {
	task := model.Task{ID: "t1", Title: "Mop", DueDate: timePtr(due)}

	tr, err := Complete(task, CompleteInput{By: "alice", Now: late}, NewRotator(nil))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if tr.Updated.OverdueCompletion == nil || !*tr.Updated.OverdueCompletion {
		t.Error("expected overdue completion")
	}
}

func TestCompleteAlwaysRepeat(t *testing.T) {
	task := model.Task{
		ID: "t1", HouseID: "h1", Title: "Restock paper towels",
		IsRepeating: true, AlwaysRepeat: true,
		AssignedTo: strPtr("alice"), CreatedBy: "carol",
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Area:         strPtr("Kitchen"),
		RepeatTaskID: strPtr("X"),
	}

	tr, err := Complete(task, CompleteInput{By: "alice", Now: late}, NewRotator(nil))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if tr.Kind != TransitionCompletedWithSuccessor || tr.Successor == nil {
		t.Fatalf("kind = %q successor = %v, want one successor", tr.Kind, tr.Successor)
	}
	if tr.Updated.OverdueCompletion == nil || *tr.Updated.OverdueCompletion {
		t.Error("a task with no due date is never overdue")
	}

	want := model.Task{
		HouseID: "h1", Title: "Restock paper towels",
		AssignedTo: strPtr("alice"), CreatedBy: "carol", CreatedAt: late,
		IsRepeating: true, AlwaysRepeat: true,
		Area:         strPtr("Kitchen"),
		RepeatTaskID: strPtr("X"),
	}
	if diff := cmp.Diff(want, *tr.Successor); diff != "" {
		t.Errorf("successor mismatch (-want +got):\n%s", diff)
	}
}

func TestCompleteRepeatDays(t *testing.T) {
	task := model.Task{
		ID: "t1", HouseID: "h1", Title: "Water plants",
		DueDate:     timePtr(due),
		IsRepeating: true, RepeatDays: intPtr(3),
		AssignedTo: strPtr("bob"), CreatedBy: "bob",
		RepeatTaskID: strPtr("X"),
	}

	// Completed a day late: the next due date still counts from the original.
	tr, err := Complete(task, CompleteInput{By: "bob", Now: late}, NewRotator(nil))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if tr.Successor == nil {
		t.Fatal("expected a successor")
	}
	wantDue := time.Date(2026, 3, 13, 18, 0, 0, 0, time.UTC)
	if tr.Successor.DueDate == nil || !tr.Successor.DueDate.Equal(wantDue) {
		t.Errorf("successor due = %v, want %v", tr.Successor.DueDate, wantDue)
	}
	if tr.Successor.RepeatTaskID == nil || *tr.Successor.RepeatTaskID != "X" {
		t.Errorf("successor lineage = %v, want X", tr.Successor.RepeatTaskID)
	}
	if tr.Successor.Completed || tr.Successor.CompletedBy != nil || tr.Successor.OverdueCompletion != nil {
		t.Error("successor must be open with no completion stamps")
	}
	if tr.Successor.AssignedTo == nil || *tr.Successor.AssignedTo != "bob" {
		t.Errorf("successor assignee = %v, want bob copied forward", tr.Successor.AssignedTo)
	}
	if !tr.Updated.Completed || *tr.Updated.OverdueCompletion != true {
		t.Error("original should be completed and flagged overdue")
	}
}

func TestCompleteAutoRotateByLineage(t *testing.T) {
	task := model.Task{
		ID: "t2", Title: "Vacuum", DueDate: timePtr(due),
		IsRepeating: true, RepeatDays: intPtr(7), AutoRotate: true,
		AssignedTo: strPtr("alice"), RepeatTaskID: strPtr("X"),
	}
	in := CompleteInput{
		By:      "alice",
		Now:     early,
		Members: []string{"alice", "bob", "carol"},
		History: []model.Task{
			lineageDone("t0", "X", "bob"),
			// Stale open copy of the task itself must not be double counted.
			task,
		},
	}

	tr, err := Complete(task, in, NewRotator(&seqRand{}))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := *tr.Successor.AssignedTo; got != "carol" {
		t.Errorf("successor assignee = %q, want carol", got)
	}
}

func TestCompleteAutoRotateWithoutLineageUsesLoad(t *testing.T) {
	task := model.Task{
		ID: "t2", Title: "Vacuum", DueDate: timePtr(due),
		IsRepeating: true, RepeatDays: intPtr(7), AutoRotate: true,
		AssignedTo: strPtr("alice"),
	}
	in := CompleteInput{
		By:      "alice",
		Now:     early,
		Members: []string{"alice", "bob"},
		Open: []model.Task{
			task, // still open in the snapshot
			openTask("t3", "bob"),
		},
	}

	tr, err := Complete(task, in, NewRotator(&seqRand{}))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := *tr.Successor.AssignedTo; got != "alice" {
		t.Errorf("successor assignee = %q, want alice", got)
	}
}

func TestCompleteAutoRotateNoMembers(t *testing.T) {
	task := model.Task{
		ID: "t2", Title: "Vacuum", IsRepeating: true, AlwaysRepeat: true,
		AutoRotate: true, RepeatTaskID: strPtr("X"),
	}
	_, err := Complete(task, CompleteInput{By: "alice", Now: early}, NewRotator(nil))
	if !errors.Is(err, ErrNoEligibleAssignee) {
		t.Errorf("err = %v, want ErrNoEligibleAssignee", err)
	}
}

func TestCompleteRejects(t *testing.T) {
	tests := []struct {
		name string
		task model.Task
		want error
	}{
		{
			name: "already completed",
			task: model.Task{ID: "t1", Completed: true, CompletedBy: strPtr("a")},
			want: ErrAlreadyCompleted,
		},
		{
			name: "repeating without schedule",
			task: model.Task{ID: "t1", IsRepeating: true, DueDate: timePtr(due)},
			want: ErrInvalidRecurrenceConfig,
		},
		{
			name: "zero repeat days",
			task: model.Task{ID: "t1", IsRepeating: true, RepeatDays: intPtr(0), DueDate: timePtr(due)},
			want: ErrInvalidRecurrenceConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Complete(tt.task, CompleteInput{By: "a", Now: early}, NewRotator(nil))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUncompleteClearsStamps(t *testing.T) {
	task := model.Task{ID: "t1", Title: "Dust", DueDate: timePtr(due), AssignedTo: strPtr("alice")}
	done, err := Complete(task, CompleteInput{By: "bob", Now: late}, NewRotator(nil))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	tr, err := Uncomplete(done.Updated)
	if err != nil {
		t.Fatalf("uncomplete: %v", err)
	}
	if tr.Kind != TransitionReopened || tr.Successor != nil {
		t.Errorf("kind = %q successor = %v", tr.Kind, tr.Successor)
	}
	if diff := cmp.Diff(task, tr.Updated); diff != "" {
		t.Errorf("reopened task mismatch (-want +got):\n%s", diff)
	}

	if _, err := Uncomplete(task); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("err = %v, want ErrNotCompleted", err)
	}
}

func TestToggle(t *testing.T) {
	task := model.Task{ID: "t1", Title: "Dust", DueDate: timePtr(due)}
	rot := NewRotator(nil)

	tr, err := Toggle(task, CompleteInput{By: "alice", Now: early}, rot)
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if !tr.Updated.Completed {
		t.Fatal("expected completed after first toggle")
	}

	tr, err = Toggle(tr.Updated, CompleteInput{By: "alice", Now: early}, rot)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if tr.Updated.Completed || tr.Updated.CompletedAt != nil {
		t.Error("expected open task after second toggle")
	}
}

func TestCompletionStampsInvariant(t *testing.T) {
	task := model.Task{ID: "t1", Title: "Dust", DueDate: timePtr(due)}
	tr, _ := Complete(task, CompleteInput{By: "alice", Now: early}, NewRotator(nil))

	check := func(tk model.Task) {
		t.Helper()
		stamped := tk.CompletedBy != nil && tk.CompletedAt != nil && tk.OverdueCompletion != nil
		clear := tk.CompletedBy == nil && tk.CompletedAt == nil && tk.OverdueCompletion == nil
		if tk.Completed && !stamped {
			t.Errorf("completed task missing stamps: %+v", tk)
		}
		if !tk.Completed && !clear {
			t.Errorf("open task carries stamps: %+v", tk)
		}
	}
	check(tr.Updated)
	re, _ := Uncomplete(tr.Updated)
	check(re.Updated)
}
