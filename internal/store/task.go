package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/calmchores/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var (
		dueDate, completedAt                sql.NullTime
		assignedTo, area, completedBy, rtID sql.NullString
		repeatDays                          sql.NullInt64
		overdue                             sql.NullBool
	)
	err := scanner.Scan(
		&t.ID, &t.HouseID, &t.Title, &t.Description, &dueDate, &t.Completed,
		&assignedTo, &t.CreatedBy, &t.CreatedAt, &t.IsRepeating, &t.AlwaysRepeat,
		&repeatDays, &t.AutoRotate, &area, &completedBy, &completedAt, &overdue, &rtID,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		d := dueDate.Time.UTC()
		t.DueDate = &d
	}
	if completedAt.Valid {
		c := completedAt.Time.UTC()
		t.CompletedAt = &c
	}
	if repeatDays.Valid {
		n := int(repeatDays.Int64)
		t.RepeatDays = &n
	}
	if overdue.Valid {
		t.OverdueCompletion = &overdue.Bool
	}
	t.AssignedTo = nullStringPtr(assignedTo)
	t.Area = nullStringPtr(area)
	t.CompletedBy = nullStringPtr(completedBy)
	t.RepeatTaskID = nullStringPtr(rtID)
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

const taskCols = `id, house_id, title, description, due_date, completed,
	assigned_to, created_by, created_at, is_repeating, always_repeat,
	repeat_days, auto_rotate, area, completed_by, completed_at, overdue_completion, repeat_task_id`

// Create inserts a task under a fresh id. The id on t is ignored.
func (s *TaskStore) Create(t model.Task) (*model.Task, error) {
	t.ID = uuid.NewString()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO tasks (`+taskCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.HouseID, t.Title, t.Description, timeArg(t.DueDate), t.Completed,
		t.AssignedTo, t.CreatedBy, t.CreatedAt.UTC(), t.IsRepeating, t.AlwaysRepeat,
		t.RepeatDays, t.AutoRotate, t.Area, t.CompletedBy, timeArg(t.CompletedAt), t.OverdueCompletion, t.RepeatTaskID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(t.HouseID, t.ID)
}

func (s *TaskStore) GetByID(houseID, id string) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ? AND house_id = ?`, id, houseID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns the house's tasks, oldest first.
func (s *TaskStore) List(houseID string, filter model.TaskFilter) ([]model.Task, error) {
	where := []string{"house_id = ?"}
	args := []any{houseID}
	if filter.OpenOnly {
		where = append(where, "completed = 0")
	}
	if filter.CompletedOnly {
		where = append(where, "completed = 1")
	}
	if filter.AssignedTo != "" {
		where = append(where, "assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}
	if filter.RepeatTaskID != "" {
		where = append(where, "repeat_task_id = ?")
		args = append(args, filter.RepeatTaskID)
	}

	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE `+strings.Join(where, " AND ")+` ORDER BY created_at ASC, rowid ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update overwrites every column except id, house_id and created_at. It
// returns (nil, nil) when no task matches.
func (s *TaskStore) Update(t model.Task) (*model.Task, error) {
	result, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, due_date = ?, completed = ?,
		 assigned_to = ?, is_repeating = ?, always_repeat = ?, repeat_days = ?, auto_rotate = ?,
		 area = ?, completed_by = ?, completed_at = ?, overdue_completion = ?, repeat_task_id = ?
		 WHERE id = ? AND house_id = ?`,
		t.Title, t.Description, timeArg(t.DueDate), t.Completed,
		t.AssignedTo, t.IsRepeating, t.AlwaysRepeat, t.RepeatDays, t.AutoRotate,
		t.Area, t.CompletedBy, timeArg(t.CompletedAt), t.OverdueCompletion, t.RepeatTaskID,
		t.ID, t.HouseID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(t.HouseID, t.ID)
}

func (s *TaskStore) Delete(houseID, id string) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ? AND house_id = ?`, id, houseID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// timeArg normalizes optional timestamps to UTC before they reach the driver.
func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
