package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/calmchores/internal/auth"
	"github.com/dukerupert/calmchores/internal/chore"
	"github.com/dukerupert/calmchores/internal/model"
	"github.com/dukerupert/calmchores/internal/store"
)

type StatsHandler struct {
	service    *chore.Service
	houseStore *store.HouseStore
	logger     *slog.Logger
}

func NewStatsHandler(svc *chore.Service, hs *store.HouseStore, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{service: svc, houseStore: hs, logger: logger}
}

// statsResponse adds what the rank gauge needs to the raw numbers.
type statsResponse struct {
	chore.Stats
	DisplayName string  `json:"display_name"`
	NeedleAngle float64 `json:"needle_angle"`
}

func newStatsResponse(s chore.Stats, house *model.House) statsResponse {
	resp := statsResponse{Stats: s, NeedleAngle: chore.NeedleAngle(s.Score)}
	for _, m := range house.Members {
		if m.ID == s.UserID {
			resp.DisplayName = m.DisplayName
			break
		}
	}
	return resp
}

func (h *StatsHandler) house(w http.ResponseWriter, r *http.Request) (*model.House, bool) {
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

func (h *StatsHandler) userStats(w http.ResponseWriter, r *http.Request, userID string) {
	house, ok := h.house(w, r)
	if !ok {
		return
	}
	if !house.HasMember(userID) {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	stats, err := h.service.UserStats(house.ID, userID, r.URL.Query().Get("repeat_task_id"))
	if err != nil {
		writeChoreError(w, h.logger, "compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(stats, house))
}

// Me handles GET /api/stats/me.
func (h *StatsHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.userStats(w, r, auth.UserID(r.Context()))
}

// User handles GET /api/stats/users/{id}.
func (h *StatsHandler) User(w http.ResponseWriter, r *http.Request) {
	h.userStats(w, r, r.PathValue("id"))
}

// Leaderboard handles GET /api/stats/leaderboard, best score first.
func (h *StatsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	house, ok := h.house(w, r)
	if !ok {
		return
	}
	board, err := h.service.Leaderboard(house.ID)
	if err != nil {
		writeChoreError(w, h.logger, "compute leaderboard", err)
		return
	}

	out := make([]statsResponse, 0, len(board))
	for _, s := range board {
		out = append(out, newStatsResponse(s, house))
	}
	writeJSON(w, http.StatusOK, out)
}
