package chore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/calmchores/internal/model"
)

// TaskRepository persists task instances. GetByID and Update return
// (nil, nil) when the task does not exist.
type TaskRepository interface {
	Create(t model.Task) (*model.Task, error)
	GetByID(houseID, id string) (*model.Task, error)
	List(houseID string, filter model.TaskFilter) ([]model.Task, error)
	Update(t model.Task) (*model.Task, error)
	Delete(houseID, id string) error
}

// HouseRepository reads houses with their projected member list.
type HouseRepository interface {
	GetByID(id string) (*model.House, error)
}

// TaskInput holds the user-editable fields of a task.
type TaskInput struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	IsRepeating  bool       `json:"is_repeating"`
	AlwaysRepeat bool       `json:"always_repeat"`
	RepeatDays   *int       `json:"repeat_days"`
	AutoRotate   bool       `json:"auto_rotate"`
	AssignedTo   *string    `json:"assigned_to"`
	Area         *string    `json:"area"`
}

func (in TaskInput) apply(t *model.Task) {
	t.Title = in.Title
	t.Description = in.Description
	t.DueDate = in.DueDate
	t.IsRepeating = in.IsRepeating
	t.AlwaysRepeat = in.AlwaysRepeat
	t.RepeatDays = in.RepeatDays
	t.AutoRotate = in.AutoRotate
	t.AssignedTo = in.AssignedTo
	t.Area = in.Area
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
}

// Service runs the assignment and completion rules against the store.
//
// Writes are unconditional overwrites with no version check: two members
// completing the same task at once both succeed and the last write wins, and
// two rotations reading the same load snapshot may pick the same member.
type Service struct {
	tasks   TaskRepository
	houses  HouseRepository
	rotator *Rotator
	now     func() time.Time
	newID   func() string
}

func NewService(tasks TaskRepository, houses HouseRepository, rotator *Rotator) *Service {
	if rotator == nil {
		rotator = NewRotator(nil)
	}
	return &Service{
		tasks:   tasks,
		houses:  houses,
		rotator: rotator,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *Service) house(houseID, actor string) (*model.House, error) {
	h, err := s.houses.GetByID(houseID)
	if err != nil {
		return nil, fmt.Errorf("get house: %w", err)
	}
	if h == nil {
		return nil, fmt.Errorf("house %s: %w", houseID, ErrNotFound)
	}
	if actor != "" && !h.HasMember(actor) {
		return nil, ErrNotMember
	}
	return h, nil
}

func (s *Service) task(houseID, taskID string) (*model.Task, error) {
	t, err := s.tasks.GetByID(houseID, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return t, nil
}

func (s *Service) checkRefs(h *model.House, t model.Task) error {
	if t.Area != nil && !h.HasArea(*t.Area) {
		return ErrUnknownArea
	}
	if t.AssignedTo != nil && !h.HasMember(*t.AssignedTo) {
		return ErrNotMember
	}
	return nil
}

// CreateTask adds a chore to the house. Auto-rotating tasks are assigned to
// the least-loaded available member.
func (s *Service) CreateTask(houseID, actor string, in TaskInput) (*model.Task, error) {
	h, err := s.house(houseID, actor)
	if err != nil {
		return nil, err
	}

	t := model.Task{HouseID: houseID, CreatedBy: actor, CreatedAt: s.now().UTC()}
	in.apply(&t)
	Normalize(&t)
	if err := Validate(t); err != nil {
		return nil, err
	}

	if t.AutoRotate {
		open, err := s.tasks.List(houseID, model.TaskFilter{OpenOnly: true})
		if err != nil {
			return nil, fmt.Errorf("list open tasks: %w", err)
		}
		assignee, err := s.rotator.LoadBased(open, h.AvailableMemberIDs())
		if err != nil {
			return nil, err
		}
		t.AssignedTo = &assignee
	}
	if err := s.checkRefs(h, t); err != nil {
		return nil, err
	}

	if t.IsRepeating {
		lineage := s.newID()
		t.RepeatTaskID = &lineage
	}

	created, err := s.tasks.Create(t)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// UpdateTask overwrites the editable fields of a task. Completion stamps and
// the lineage id are kept; a task that becomes repeating gets a lineage id.
// Turning on auto-rotation clears the assignee of an open task until the
// next completion; a task already rotating, or already completed, keeps its
// assignee.
func (s *Service) UpdateTask(houseID, taskID, actor string, in TaskInput) (*model.Task, error) {
	h, err := s.house(houseID, actor)
	if err != nil {
		return nil, err
	}
	existing, err := s.task(houseID, taskID)
	if err != nil {
		return nil, err
	}

	t := *existing
	in.apply(&t)
	if t.AutoRotate {
		// Stats read the assignee of completed instances.
		t.AssignedTo = nil
		if existing.AutoRotate || existing.Completed {
			t.AssignedTo = existing.AssignedTo
		}
	}
	Normalize(&t)
	if err := Validate(t); err != nil {
		return nil, err
	}

	// An area dropped from the house stays valid on tasks that already carry it.
	refs := t
	if sameString(refs.Area, existing.Area) {
		refs.Area = nil
	}
	if existing.Completed && sameString(refs.AssignedTo, existing.AssignedTo) {
		refs.AssignedTo = nil
	}
	if err := s.checkRefs(h, refs); err != nil {
		return nil, err
	}
	if t.IsRepeating && t.RepeatTaskID == nil {
		lineage := s.newID()
		t.RepeatTaskID = &lineage
	}

	updated, err := s.tasks.Update(t)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return updated, nil
}

func (s *Service) DeleteTask(houseID, taskID, actor string) error {
	if _, err := s.house(houseID, actor); err != nil {
		return err
	}
	if _, err := s.task(houseID, taskID); err != nil {
		return err
	}
	if err := s.tasks.Delete(houseID, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *Service) GetTask(houseID, taskID string) (*model.Task, error) {
	return s.task(houseID, taskID)
}

func (s *Service) ListTasks(houseID string, filter model.TaskFilter) ([]model.Task, error) {
	tasks, err := s.tasks.List(houseID, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CompleteTask completes a task on behalf of actor and persists the
// successor of a repeating task. The original is updated first, then the
// successor inserted; the two writes are not atomic.
func (s *Service) CompleteTask(houseID, taskID, actor string) (Transition, error) {
	h, err := s.house(houseID, actor)
	if err != nil {
		return Transition{}, err
	}
	t, err := s.task(houseID, taskID)
	if err != nil {
		return Transition{}, err
	}
	in, err := s.completeInput(h, *t, actor)
	if err != nil {
		return Transition{}, err
	}

	tr, err := Complete(*t, in, s.rotator)
	if err != nil {
		return Transition{}, err
	}
	if tr.Successor != nil {
		if err := s.fitSuccessor(h, tr.Successor, t.ID); err != nil {
			return Transition{}, err
		}
	}
	return s.persist(tr)
}

// fitSuccessor keeps a carried-over successor inside the house as it is now:
// an assignee who left is replaced by the least-loaded available member (or
// nobody), and an area the house no longer has is dropped.
func (s *Service) fitSuccessor(h *model.House, succ *model.Task, completedID string) error {
	if succ.Area != nil && !h.HasArea(*succ.Area) {
		succ.Area = nil
	}
	if succ.AssignedTo == nil || h.HasMember(*succ.AssignedTo) {
		return nil
	}

	open, err := s.tasks.List(h.ID, model.TaskFilter{OpenOnly: true})
	if err != nil {
		return fmt.Errorf("list open tasks: %w", err)
	}
	id, err := s.rotator.LoadBased(withoutID(open, completedID), h.AvailableMemberIDs())
	if errors.Is(err, ErrNoEligibleAssignee) {
		succ.AssignedTo = nil
		return nil
	}
	if err != nil {
		return err
	}
	succ.AssignedTo = &id
	return nil
}

// UncompleteTask reopens a task. Any successor already spawned stays.
func (s *Service) UncompleteTask(houseID, taskID, actor string) (Transition, error) {
	if _, err := s.house(houseID, actor); err != nil {
		return Transition{}, err
	}
	t, err := s.task(houseID, taskID)
	if err != nil {
		return Transition{}, err
	}
	tr, err := Uncomplete(*t)
	if err != nil {
		return Transition{}, err
	}
	return s.persist(tr)
}

// ToggleTask flips a task between open and completed.
func (s *Service) ToggleTask(houseID, taskID, actor string) (Transition, error) {
	t, err := s.task(houseID, taskID)
	if err != nil {
		return Transition{}, err
	}
	if t.Completed {
		return s.UncompleteTask(houseID, taskID, actor)
	}
	return s.CompleteTask(houseID, taskID, actor)
}

func (s *Service) completeInput(h *model.House, t model.Task, actor string) (CompleteInput, error) {
	in := CompleteInput{By: actor, Now: s.now(), Members: h.AvailableMemberIDs()}
	if !t.IsRepeating || !t.AutoRotate {
		return in, nil
	}

	var err error
	if t.RepeatTaskID != nil {
		in.History, err = s.tasks.List(h.ID, model.TaskFilter{CompletedOnly: true, RepeatTaskID: *t.RepeatTaskID})
		if err != nil {
			return in, fmt.Errorf("list lineage history: %w", err)
		}
		return in, nil
	}
	in.Open, err = s.tasks.List(h.ID, model.TaskFilter{OpenOnly: true})
	if err != nil {
		return in, fmt.Errorf("list open tasks: %w", err)
	}
	return in, nil
}

func (s *Service) persist(tr Transition) (Transition, error) {
	updated, err := s.tasks.Update(tr.Updated)
	if err != nil {
		return Transition{}, fmt.Errorf("update task: %w", err)
	}
	if updated == nil {
		return Transition{}, fmt.Errorf("task %s: %w", tr.Updated.ID, ErrNotFound)
	}
	tr.Updated = *updated

	if tr.Successor != nil {
		succ, err := s.tasks.Create(*tr.Successor)
		if err != nil {
			return Transition{}, fmt.Errorf("create successor: %w", err)
		}
		tr.Successor = succ
	}
	return tr, nil
}

// UserStats folds the house history, or one recurring chore's history when
// repeatTaskID is set, into the user's statistics.
func (s *Service) UserStats(houseID, userID, repeatTaskID string) (Stats, error) {
	h, err := s.house(houseID, "")
	if err != nil {
		return Stats{}, err
	}
	if !h.HasMember(userID) {
		return Stats{}, ErrNotMember
	}
	history, err := s.tasks.List(houseID, model.TaskFilter{CompletedOnly: true, RepeatTaskID: repeatTaskID})
	if err != nil {
		return Stats{}, fmt.Errorf("list history: %w", err)
	}
	return ComputeStats(userID, history), nil
}

// Leaderboard returns stats for every member of the house.
func (s *Service) Leaderboard(houseID string) ([]Stats, error) {
	h, err := s.house(houseID, "")
	if err != nil {
		return nil, err
	}
	history, err := s.tasks.List(houseID, model.TaskFilter{CompletedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return HouseStats(history, h.MemberIDs()), nil
}

// Completions counts per-member completions of the recurring chore that
// taskID belongs to. Non-repeating tasks yield zero for everyone.
func (s *Service) Completions(houseID, taskID string) (map[string]int, error) {
	h, err := s.house(houseID, "")
	if err != nil {
		return nil, err
	}
	t, err := s.task(houseID, taskID)
	if err != nil {
		return nil, err
	}
	if t.RepeatTaskID == nil {
		return LineageCompletions(nil, h.MemberIDs(), ""), nil
	}
	history, err := s.tasks.List(houseID, model.TaskFilter{CompletedOnly: true, RepeatTaskID: *t.RepeatTaskID})
	if err != nil {
		return nil, fmt.Errorf("list lineage history: %w", err)
	}
	return LineageCompletions(history, h.MemberIDs(), *t.RepeatTaskID), nil
}

const (
	welcomeTitle       = "Welcome to your new house!"
	welcomeDescription = "Start by adding some tasks for your household."
	welcomeDueDays     = 7
)

// SeedWelcome adds the starter task a new house opens with, assigned to the
// owner and due a week out.
func (s *Service) SeedWelcome(houseID, ownerID string) (*model.Task, error) {
	due := s.now().UTC().AddDate(0, 0, welcomeDueDays)
	return s.CreateTask(houseID, ownerID, TaskInput{
		Title:       welcomeTitle,
		Description: welcomeDescription,
		DueDate:     &due,
		AssignedTo:  &ownerID,
	})
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
