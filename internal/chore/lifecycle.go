package chore

import (
	"time"

	"github.com/dukerupert/calmchores/internal/model"
)

// TransitionKind tags the outcome of completing a task.
type TransitionKind string

const (
	TransitionCompleted              TransitionKind = "completed"
	TransitionCompletedWithSuccessor TransitionKind = "completed_with_successor"
	TransitionReopened               TransitionKind = "reopened"
)

// Transition is the result of moving a task between Open and Completed.
// Successor is non-nil exactly when Kind is TransitionCompletedWithSuccessor.
type Transition struct {
	Kind      TransitionKind
	Updated   model.Task
	Successor *model.Task
}

// CompleteInput carries everything a completion needs besides the task.
type CompleteInput struct {
	By  string
	Now time.Time
	// Members are the rotation candidates, already filtered for availability.
	Members []string
	// Open holds the house's open tasks, for load-based rotation.
	Open []model.Task
	// History holds the completed instances of the task's lineage, for
	// lineage-based rotation. The task being completed is added automatically.
	History []model.Task
}

// Complete moves an open task to Completed and, for repeating tasks, builds
// the successor instance. The successor has no ID; the store assigns one.
func Complete(task model.Task, in CompleteInput, rot *Rotator) (Transition, error) {
	if task.Completed {
		return Transition{}, ErrAlreadyCompleted
	}
	if task.IsRepeating && !task.AlwaysRepeat && (task.RepeatDays == nil || *task.RepeatDays <= 0) {
		return Transition{}, ErrInvalidRecurrenceConfig
	}

	now := in.Now.UTC()
	by := in.By
	overdue := task.DueDate != nil && now.After(*task.DueDate)

	updated := task
	updated.Completed = true
	updated.CompletedBy = &by
	updated.CompletedAt = &now
	updated.OverdueCompletion = &overdue

	if !task.IsRepeating {
		return Transition{Kind: TransitionCompleted, Updated: updated}, nil
	}

	assignee, err := nextAssignee(updated, in, rot)
	if err != nil {
		return Transition{}, err
	}

	succ := model.Task{
		HouseID:      task.HouseID,
		Title:        task.Title,
		Description:  task.Description,
		AssignedTo:   assignee,
		CreatedBy:    task.CreatedBy,
		CreatedAt:    now,
		IsRepeating:  true,
		AlwaysRepeat: task.AlwaysRepeat,
		RepeatDays:   copyInt(task.RepeatDays),
		AutoRotate:   task.AutoRotate,
		Area:         copyString(task.Area),
		RepeatTaskID: copyString(task.RepeatTaskID),
	}
	if !task.AlwaysRepeat {
		base := now
		if task.DueDate != nil {
			base = *task.DueDate
		}
		due := base.AddDate(0, 0, *task.RepeatDays)
		succ.DueDate = &due
	}

	return Transition{Kind: TransitionCompletedWithSuccessor, Updated: updated, Successor: &succ}, nil
}

func nextAssignee(completed model.Task, in CompleteInput, rot *Rotator) (*string, error) {
	if !completed.AutoRotate {
		return copyString(completed.AssignedTo), nil
	}

	var (
		id  string
		err error
	)
	if completed.RepeatTaskID != nil {
		history := append([]model.Task{completed}, withoutID(in.History, completed.ID)...)
		id, err = rot.LineageBased(history, in.Members, *completed.RepeatTaskID, in.By)
	} else {
		id, err = rot.LoadBased(withoutID(in.Open, completed.ID), in.Members)
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Uncomplete reopens a completed task and clears its completion stamps. A
// successor spawned by the earlier completion is left in place.
func Uncomplete(task model.Task) (Transition, error) {
	if !task.Completed {
		return Transition{}, ErrNotCompleted
	}
	task.Completed = false
	task.CompletedBy = nil
	task.CompletedAt = nil
	task.OverdueCompletion = nil
	return Transition{Kind: TransitionReopened, Updated: task}, nil
}

// Toggle completes an open task or reopens a completed one.
func Toggle(task model.Task, in CompleteInput, rot *Rotator) (Transition, error) {
	if task.Completed {
		return Uncomplete(task)
	}
	return Complete(task, in, rot)
}

// withoutID drops stale copies of the task being transitioned.
func withoutID(tasks []model.Task, id string) []model.Task {
	if id == "" {
		return tasks
	}
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
