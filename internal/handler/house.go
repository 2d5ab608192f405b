package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/calmchores/internal/auth"
	"github.com/dukerupert/calmchores/internal/chore"
	"github.com/dukerupert/calmchores/internal/model"
	"github.com/dukerupert/calmchores/internal/store"
	"github.com/dukerupert/calmchores/internal/websocket"
)

const maxAreas = 50

type HouseHandler struct {
	chores       *chore.Service
	houseStore   *store.HouseStore
	sessionStore *store.SessionStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewHouseHandler(svc *chore.Service, hs *store.HouseStore, ss *store.SessionStore, hub *websocket.Hub, logger *slog.Logger) *HouseHandler {
	return &HouseHandler{chores: svc, houseStore: hs, sessionStore: ss, hub: hub, logger: logger}
}

func (h *HouseHandler) broadcast(houseID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(houseID, msg)
	}
}

// current loads the caller's house, answering 404 if it disappeared.
func (h *HouseHandler) current(w http.ResponseWriter, r *http.Request) (*model.House, bool) {
	house, err := h.houseStore.GetByID(auth.HouseID(r.Context()))
	if err != nil {
		h.logger.Error("get house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load house")
		return nil, false
	}
	if house == nil {
		writeError(w, http.StatusNotFound, "house not found")
		return nil, false
	}
	return house, true
}

func (h *HouseHandler) requireOwner(w http.ResponseWriter, r *http.Request) (*model.House, bool) {
	house, ok := h.current(w, r)
	if !ok {
		return nil, false
	}
	if house.OwnerID != auth.UserID(r.Context()) {
		writeError(w, http.StatusForbidden, "only the house owner can do that")
		return nil, false
	}
	return house, true
}

func (h *HouseHandler) selectHouse(w http.ResponseWriter, r *http.Request, houseID string) bool {
	if err := h.sessionStore.SetHouse(auth.SessionID(r.Context()), &houseID); err != nil {
		h.logger.Error("set session house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to switch house")
		return false
	}
	return true
}

// List handles GET /api/houses.
func (h *HouseHandler) List(w http.ResponseWriter, r *http.Request) {
	houses, err := h.houseStore.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list houses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list houses")
		return
	}
	if houses == nil {
		houses = []model.House{}
	}
	writeJSON(w, http.StatusOK, houses)
}

type houseRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/houses. The creator owns the house and the
// session switches to it.
func (h *HouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req houseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	userID := auth.UserID(r.Context())
	house, err := h.houseStore.Create(req.Name, userID)
	if err != nil {
		h.logger.Error("create house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create house")
		return
	}
	if _, err := h.chores.SeedWelcome(house.ID, userID); err != nil {
		h.logger.Warn("seed welcome task", "house_id", house.ID, "error", err)
	}
	if !h.selectHouse(w, r, house.ID) {
		return
	}
	writeJSON(w, http.StatusCreated, house)
}

// Join handles POST /api/houses/join.
func (h *HouseHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JoinCode string `json:"join_code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.JoinCode))
	if code == "" {
		writeError(w, http.StatusUnprocessableEntity, "join_code is required")
		return
	}

	house, err := h.houseStore.GetByJoinCode(code)
	if err != nil {
		h.logger.Error("get house by join code", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join house")
		return
	}
	if house == nil {
		writeError(w, http.StatusNotFound, "no house with that join code")
		return
	}

	userID := auth.UserID(r.Context())
	if err := h.houseStore.AddMember(house.ID, userID); err != nil {
		h.logger.Error("add member", "house_id", house.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join house")
		return
	}
	if !h.selectHouse(w, r, house.ID) {
		return
	}

	house, err = h.houseStore.GetByID(house.ID)
	if err != nil || house == nil {
		h.logger.Error("reload house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load house")
		return
	}
	h.broadcast(house.ID, websocket.NewMessage("house", "member_joined", userID, nil))
	writeJSON(w, http.StatusOK, house)
}

// Select handles POST /api/houses/{id}/select.
func (h *HouseHandler) Select(w http.ResponseWriter, r *http.Request) {
	house, err := h.houseStore.GetByID(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load house")
		return
	}
	if house == nil || !house.HasMember(auth.UserID(r.Context())) {
		writeError(w, http.StatusNotFound, "house not found")
		return
	}
	if !h.selectHouse(w, r, house.ID) {
		return
	}
	writeJSON(w, http.StatusOK, house)
}

// Get handles GET /api/house.
func (h *HouseHandler) Get(w http.ResponseWriter, r *http.Request) {
	house, ok := h.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, house)
}

// Rename handles PUT /api/house.
func (h *HouseHandler) Rename(w http.ResponseWriter, r *http.Request) {
	house, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	var req houseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	updated, err := h.houseStore.Rename(house.ID, req.Name)
	if err != nil {
		h.logger.Error("rename house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to rename house")
		return
	}
	h.broadcast(house.ID, websocket.NewMessage("house", "updated", house.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

// SetAreas handles PUT /api/house/areas. Names are trimmed and deduplicated.
func (h *HouseHandler) SetAreas(w http.ResponseWriter, r *http.Request) {
	house, ok := h.requireOwner(w, r)
	if !ok {
		return
	}
	var req struct {
		Areas []string `json:"areas"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	areas := make([]string, 0, len(req.Areas))
	seen := make(map[string]bool)
	for _, a := range req.Areas {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		areas = append(areas, a)
	}
	if len(areas) > maxAreas {
		writeError(w, http.StatusUnprocessableEntity, "too many areas")
		return
	}

	updated, err := h.houseStore.SetAreas(house.ID, areas)
	if err != nil {
		h.logger.Error("set areas", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update areas")
		return
	}
	h.broadcast(house.ID, websocket.NewMessage("house", "updated", house.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

// RemoveMember handles DELETE /api/house/members/{id}. The owner may remove
// anyone but themselves; other members may only remove themselves.
func (h *HouseHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	house, ok := h.current(w, r)
	if !ok {
		return
	}
	caller := auth.UserID(r.Context())
	target := r.PathValue("id")

	switch {
	case !house.HasMember(target):
		writeError(w, http.StatusNotFound, "member not found")
		return
	case target == house.OwnerID:
		writeError(w, http.StatusConflict, "the owner cannot leave the house")
		return
	case caller != house.OwnerID && caller != target:
		writeError(w, http.StatusForbidden, "only the house owner can remove other members")
		return
	}

	if err := h.houseStore.RemoveMember(house.ID, target); err != nil {
		h.logger.Error("remove member", "house_id", house.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	if caller == target {
		if err := h.sessionStore.SetHouse(auth.SessionID(r.Context()), nil); err != nil {
			h.logger.Error("clear session house", "error", err)
		}
	}

	h.broadcast(house.ID, websocket.NewMessage("house", "member_left", target, nil))
	w.WriteHeader(http.StatusNoContent)
}
