package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/calmchores/internal/auth"
	"github.com/dukerupert/calmchores/internal/chore"
	"github.com/dukerupert/calmchores/internal/model"
	"github.com/dukerupert/calmchores/internal/store"
	"github.com/dukerupert/calmchores/internal/websocket"
)

// AssignmentNotifier is told when a task lands on someone.
type AssignmentNotifier interface {
	TaskAssigned(houseID, actorID string, t model.Task)
}

type TaskHandler struct {
	service    *chore.Service
	houseStore *store.HouseStore
	hub        *websocket.Hub
	notifier   AssignmentNotifier
	logger     *slog.Logger
	now        func() time.Time
}

func NewTaskHandler(svc *chore.Service, hs *store.HouseStore, hub *websocket.Hub, notifier AssignmentNotifier, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		service:    svc,
		houseStore: hs,
		hub:        hub,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

func (h *TaskHandler) broadcast(houseID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(houseID, msg)
	}
}

// notify runs in the background so push latency never holds up a response.
func (h *TaskHandler) notify(houseID, actor string, t *model.Task) {
	if h.notifier == nil || t == nil || t.AssignedTo == nil {
		return
	}
	task := *t
	go h.notifier.TaskAssigned(houseID, actor, task)
}

// clock returns now in the location named by ?tz=, falling back to UTC.
func (h *TaskHandler) clock(r *http.Request) time.Time {
	now := h.now()
	if tz := r.URL.Query().Get("tz"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return now.In(loc)
		}
	}
	return now.UTC()
}

func (h *TaskHandler) decorate(r *http.Request, houseID string, tasks []model.Task) ([]chore.TaskWithStatus, error) {
	house, err := h.houseStore.GetByID(houseID)
	if err != nil {
		return nil, err
	}
	return chore.WithStatus(tasks, house, h.clock(r)), nil
}

func (h *TaskHandler) writeTask(w http.ResponseWriter, r *http.Request, status int, t *model.Task) {
	out, err := h.decorate(r, t.HouseID, []model.Task{*t})
	if err != nil {
		h.logger.Error("decorate task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load house")
		return
	}
	writeJSON(w, status, out[0])
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	houseID := auth.HouseID(r.Context())
	q := r.URL.Query()
	filter := model.TaskFilter{
		OpenOnly:      q.Get("open") == "1",
		CompletedOnly: q.Get("completed") == "1",
		AssignedTo:    q.Get("assigned_to"),
		RepeatTaskID:  q.Get("repeat_task_id"),
	}
	if q.Get("mine") == "1" {
		filter.AssignedTo = auth.UserID(r.Context())
	}
	if filter.OpenOnly && filter.CompletedOnly {
		writeError(w, http.StatusBadRequest, "open and completed are mutually exclusive")
		return
	}

	tasks, err := h.service.ListTasks(houseID, filter)
	if err != nil {
		writeChoreError(w, h.logger, "list tasks", err)
		return
	}
	out, err := h.decorate(r, houseID, tasks)
	if err != nil {
		h.logger.Error("decorate tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load house")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in chore.TaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	houseID, actor := auth.HouseID(r.Context()), auth.UserID(r.Context())

	task, err := h.service.CreateTask(houseID, actor, in)
	if err != nil {
		writeChoreError(w, h.logger, "create task", err)
		return
	}

	h.logger.Debug("task created", "house_id", houseID, "task_id", task.ID, "auto_rotate", task.AutoRotate)
	h.broadcast(houseID, websocket.NewMessage("task", "created", task.ID, nil))
	h.notify(houseID, actor, task)
	h.writeTask(w, r, http.StatusCreated, task)
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.GetTask(auth.HouseID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeChoreError(w, h.logger, "get task", err)
		return
	}
	h.writeTask(w, r, http.StatusOK, task)
}

// Update handles PUT /api/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in chore.TaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	houseID, actor := auth.HouseID(r.Context()), auth.UserID(r.Context())

	task, err := h.service.UpdateTask(houseID, r.PathValue("id"), actor, in)
	if err != nil {
		writeChoreError(w, h.logger, "update task", err)
		return
	}

	h.broadcast(houseID, websocket.NewMessage("task", "updated", task.ID, nil))
	h.writeTask(w, r, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	houseID, id := auth.HouseID(r.Context()), r.PathValue("id")

	if err := h.service.DeleteTask(houseID, id, auth.UserID(r.Context())); err != nil {
		writeChoreError(w, h.logger, "delete task", err)
		return
	}

	h.broadcast(houseID, websocket.NewMessage("task", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type transitionResponse struct {
	Kind      chore.TransitionKind  `json:"kind"`
	Task      chore.TaskWithStatus  `json:"task"`
	Successor *chore.TaskWithStatus `json:"successor,omitempty"`
}

type transitionFunc func(houseID, taskID, actor string) (chore.Transition, error)

func (h *TaskHandler) transition(op string, fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		houseID, actor := auth.HouseID(r.Context()), auth.UserID(r.Context())

		tr, err := fn(houseID, r.PathValue("id"), actor)
		if err != nil {
			writeChoreError(w, h.logger, op, err)
			return
		}

		tasks := []model.Task{tr.Updated}
		if tr.Successor != nil {
			tasks = append(tasks, *tr.Successor)
		}
		out, err := h.decorate(r, houseID, tasks)
		if err != nil {
			h.logger.Error("decorate transition", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load house")
			return
		}
		resp := transitionResponse{Kind: tr.Kind, Task: out[0]}

		extra := map[string]any{"kind": string(tr.Kind)}
		if tr.Successor != nil {
			resp.Successor = &out[1]
			extra["successor_id"] = tr.Successor.ID
			h.notify(houseID, actor, tr.Successor)
		}
		action := "completed"
		if tr.Kind == chore.TransitionReopened {
			action = "reopened"
		}
		h.logger.Debug("task "+action, "house_id", houseID, "task_id", tr.Updated.ID, "by", actor)
		h.broadcast(houseID, websocket.NewMessage("task", action, tr.Updated.ID, extra))

		writeJSON(w, http.StatusOK, resp)
	}
}

// Complete handles POST /api/tasks/{id}/complete.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition("complete task", h.service.CompleteTask)(w, r)
}

// Uncomplete handles POST /api/tasks/{id}/uncomplete.
func (h *TaskHandler) Uncomplete(w http.ResponseWriter, r *http.Request) {
	h.transition("uncomplete task", h.service.UncompleteTask)(w, r)
}

// Toggle handles POST /api/tasks/{id}/toggle.
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.transition("toggle task", h.service.ToggleTask)(w, r)
}

type completionCount struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Count       int    `json:"count"`
}

// Completions handles GET /api/tasks/{id}/completions: how often each member
// has done this recurring chore, in member order.
func (h *TaskHandler) Completions(w http.ResponseWriter, r *http.Request) {
	houseID := auth.HouseID(r.Context())
	counts, err := h.service.Completions(houseID, r.PathValue("id"))
	if err != nil {
		writeChoreError(w, h.logger, "count completions", err)
		return
	}
	house, err := h.houseStore.GetByID(houseID)
	if err != nil || house == nil {
		h.logger.Error("get house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load house")
		return
	}

	out := make([]completionCount, 0, len(house.Members))
	for _, m := range house.Members {
		out = append(out, completionCount{UserID: m.ID, DisplayName: m.DisplayName, Count: counts[m.ID]})
	}
	writeJSON(w, http.StatusOK, out)
}
