package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/calmchores/internal/auth"
	"github.com/dukerupert/calmchores/internal/model"
	"github.com/dukerupert/calmchores/internal/store"
	"github.com/dukerupert/calmchores/internal/websocket"
)

type MeHandler struct {
	userStore  *store.UserStore
	houseStore *store.HouseStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewMeHandler(us *store.UserStore, hs *store.HouseStore, hub *websocket.Hub, logger *slog.Logger) *MeHandler {
	return &MeHandler{userStore: us, houseStore: hs, hub: hub, logger: logger}
}

type meResponse struct {
	User    *model.User   `json:"user"`
	HouseID string        `json:"house_id,omitempty"`
	Houses  []model.House `json:"houses"`
}

// Get handles GET /api/me.
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK)
}

func (h *MeHandler) respond(w http.ResponseWriter, r *http.Request, status int) {
	userID := auth.UserID(r.Context())
	user, err := h.userStore.GetByID(userID)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	houses, err := h.houseStore.ListForUser(userID)
	if err != nil {
		h.logger.Error("list houses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if houses == nil {
		houses = []model.House{}
	}
	writeJSON(w, status, meResponse{User: user, HouseID: auth.HouseID(r.Context()), Houses: houses})
}

type profileRequest struct {
	DisplayName  string `json:"display_name"`
	VacationMode bool   `json:"vacation_mode"`
}

// Update handles PUT /api/me. Every house the user belongs to is reprojected
// so rotation sees the new vacation flag.
func (h *MeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := auth.UserID(r.Context())

	if _, err := h.userStore.UpdateProfile(userID, req.DisplayName, req.VacationMode); err != nil {
		h.logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	if err := h.houseStore.ProjectMembersForUser(userID); err != nil {
		h.logger.Error("project members", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update houses")
		return
	}

	if h.hub != nil {
		houses, err := h.houseStore.ListForUser(userID)
		if err != nil {
			h.logger.Warn("list houses for broadcast", "error", err)
		}
		for _, house := range houses {
			h.hub.Broadcast(house.ID, websocket.NewMessage("house", "member_updated", userID, nil))
		}
	}

	h.respond(w, r, http.StatusOK)
}

// ChangePassword handles PUT /api/me/password.
func (h *MeHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.NewPassword) < minPasswordLen {
		writeError(w, http.StatusUnprocessableEntity, "password must be at least 8 characters")
		return
	}

	user, err := h.userStore.GetByID(auth.UserID(r.Context()))
	if err != nil || user == nil {
		h.logger.Error("get user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}
	ok, err := h.userStore.CheckPassword(user.Email, req.CurrentPassword)
	if err != nil {
		h.logger.Error("check password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}
	if ok == nil {
		writeError(w, http.StatusForbidden, "current password is wrong")
		return
	}

	if err := h.userStore.SetPassword(user.ID, req.NewPassword); err != nil {
		h.logger.Error("set password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
