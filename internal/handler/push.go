package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dukerupert/calmchores/internal/auth"
	"github.com/dukerupert/calmchores/internal/model"
	"github.com/dukerupert/calmchores/internal/push"
	"github.com/dukerupert/calmchores/internal/store"
)

// PushHandler manages browser subscriptions. service is nil when no VAPID
// keys are configured.
type PushHandler struct {
	pushStore *store.PushStore
	service   *push.Service
	logger    *slog.Logger
}

func NewPushHandler(ps *store.PushStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, service: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe handles POST /api/push/subscriptions.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusUnprocessableEntity, "endpoint, p256dh, and auth are required")
		return
	}
	if u, err := url.Parse(req.Endpoint); err != nil || u.Scheme != "https" {
		writeError(w, http.StatusUnprocessableEntity, "endpoint must be an https URL")
		return
	}

	sub, err := h.pushStore.CreateSubscription(auth.UserID(r.Context()), auth.HouseID(r.Context()),
		req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscriptions.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.pushStore.DeleteSubscription(auth.UserID(r.Context()), req.Endpoint); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSubscriptions handles GET /api/push/subscriptions.
func (h *PushHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.pushStore.ListByUser(auth.UserID(r.Context()), auth.HouseID(r.Context()))
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// VAPIDKey handles GET /api/push/vapid-key.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusNotFound, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

type preference struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// GetPreferences handles GET /api/push/preferences. Every known type is
// listed; types never set are enabled.
func (h *PushHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	h.writePreferences(w, r)
}

func (h *PushHandler) writePreferences(w http.ResponseWriter, r *http.Request) {
	userID, houseID := auth.UserID(r.Context()), auth.HouseID(r.Context())

	out := make([]preference, 0, len(model.NotificationTypes))
	for _, t := range model.NotificationTypes {
		enabled, err := h.pushStore.IsPreferenceEnabled(userID, houseID, t)
		if err != nil {
			h.logger.Error("get push preference", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get preferences")
			return
		}
		out = append(out, preference{Type: t, Enabled: enabled})
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdatePreferences handles PUT /api/push/preferences.
func (h *PushHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preferences []preference `json:"preferences"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	for _, p := range req.Preferences {
		if !model.IsNotificationType(p.Type) {
			writeError(w, http.StatusUnprocessableEntity, "unknown notification type "+p.Type)
			return
		}
	}

	userID, houseID := auth.UserID(r.Context()), auth.HouseID(r.Context())
	for _, p := range req.Preferences {
		if err := h.pushStore.SetPreference(userID, houseID, p.Type, p.Enabled); err != nil {
			h.logger.Error("set push preference", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update preferences")
			return
		}
	}
	h.writePreferences(w, r)
}

// TestNotification handles POST /api/push/test.
func (h *PushHandler) TestNotification(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeError(w, http.StatusNotFound, "push notifications are not configured")
		return
	}
	subs, err := h.pushStore.ListByUser(auth.UserID(r.Context()), auth.HouseID(r.Context()))
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	payload := push.Payload{Title: "CalmChores", Body: "Push notifications are working", Tag: "test"}
	sent := 0
	for _, sub := range subs {
		err := h.service.Send(&sub, payload)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, push.ErrExpired):
			h.pushStore.DeleteByEndpoint(sub.Endpoint)
		default:
			h.logger.Warn("test push", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
