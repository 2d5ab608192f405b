package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/calmchores/internal/chore"
	"github.com/dukerupert/calmchores/internal/model"
	"github.com/dukerupert/calmchores/internal/store"
)

const (
	dueSoonWindow = time.Hour
	// Tasks overdue for longer than this are not announced.
	overdueLookback = 24 * time.Hour
	sentRetention   = 7 * 24 * time.Hour
)

// Scheduler sends due-soon and overdue reminders to task assignees.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	push     *store.PushStore
	tasks    *store.TaskStore
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(svc *Service, pushStore *store.PushStore, taskStore *store.TaskStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		push:     pushStore,
		tasks:    taskStore,
		logger:   logger,
		interval: time.Minute,
		now:      time.Now,
	}
}

// Start runs the reminder loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	now := s.now().UTC()

	houseIDs, err := s.push.ListHouseIDs()
	if err != nil {
		s.logger.Error("list houses with subscriptions", "error", err)
		return
	}
	for _, hid := range houseIDs {
		s.checkHouse(hid, now)
	}

	if err := s.push.CleanupSent(now.Add(-sentRetention)); err != nil {
		s.logger.Error("cleanup sent notifications", "error", err)
	}
}

func (s *Scheduler) checkHouse(houseID string, now time.Time) {
	tasks, err := s.tasks.List(houseID, model.TaskFilter{OpenOnly: true})
	if err != nil {
		s.logger.Error("list open tasks", "house_id", houseID, "error", err)
		return
	}

	for _, t := range tasks {
		if t.AssignedTo == nil || t.DueDate == nil {
			continue
		}
		switch {
		case chore.ComputeStatus(t, now) == chore.StatusOverdue && now.Sub(*t.DueDate) <= overdueLookback:
			s.remind(houseID, t, model.NotifTypeTaskOverdue, 0, Payload{
				Title: "Overdue chore",
				Body:  fmt.Sprintf("%s is overdue", t.Title),
				URL:   "/tasks/" + t.ID,
				Tag:   "overdue-" + t.ID,
			})
		case chore.IsDueWithin(t, now, dueSoonWindow):
			s.remind(houseID, t, model.NotifTypeTaskDueSoon, int(dueSoonWindow.Minutes()), Payload{
				Title: "Chore due soon",
				Body:  fmt.Sprintf("%s is due at %s", t.Title, t.DueDate.UTC().Format("15:04 MST")),
				URL:   "/tasks/" + t.ID,
				Tag:   "due-" + t.ID,
			})
		}
	}
}

// remind notifies the assignee of t once per (type, task, lead time).
func (s *Scheduler) remind(houseID string, t model.Task, notifType string, lead int, payload Payload) {
	sent, err := s.push.WasSent(houseID, notifType, t.ID, lead)
	if err != nil {
		s.logger.Error("check sent notification", "task_id", t.ID, "error", err)
		return
	}
	if sent {
		return
	}

	s.sendToUser(houseID, *t.AssignedTo, notifType, payload)

	if err := s.push.RecordSent(houseID, notifType, t.ID, lead); err != nil {
		s.logger.Error("record sent notification", "task_id", t.ID, "error", err)
	}
}

// TaskAssigned tells the new assignee of a task, unless they assigned it themselves.
func (s *Scheduler) TaskAssigned(houseID, actorID string, t model.Task) {
	if t.AssignedTo == nil || *t.AssignedTo == actorID {
		return
	}
	s.sendToUser(houseID, *t.AssignedTo, model.NotifTypeTaskAssigned, Payload{
		Title: "Your turn",
		Body:  fmt.Sprintf("%s is now yours", t.Title),
		URL:   "/tasks/" + t.ID,
		Tag:   "assigned-" + t.ID,
	})
}

// sendToUser delivers payload to every device of userID in the house,
// honouring their preference and pruning expired subscriptions.
func (s *Scheduler) sendToUser(houseID, userID, notifType string, payload Payload) int {
	enabled, err := s.push.IsPreferenceEnabled(userID, houseID, notifType)
	if err != nil {
		s.logger.Error("check notification preference", "user_id", userID, "error", err)
		return 0
	}
	if !enabled {
		return 0
	}

	subs, err := s.push.ListByUser(userID, houseID)
	if err != nil {
		s.logger.Error("list subscriptions", "user_id", userID, "error", err)
		return 0
	}

	delivered := 0
	for _, sub := range subs {
		err := s.service.Send(&sub, payload)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrExpired):
			if err := s.push.DeleteByEndpoint(sub.Endpoint); err != nil {
				s.logger.Error("delete expired subscription", "error", err)
			}
		default:
			s.logger.Warn("send push", "type", notifType, "user_id", userID, "error", err)
		}
	}
	return delivered
}
