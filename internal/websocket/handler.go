package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/calmchores/internal/auth"
)

// HandleWebSocket upgrades the request and subscribes the connection to the
// caller's current house. It must sit behind the auth middleware.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		houseID := auth.HouseID(r.Context())
		if houseID == "" {
			http.Error(w, "no house selected", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		logger.Debug("websocket connected", "house_id", houseID, "user_id", auth.UserID(r.Context()))
		NewClient(hub, conn, houseID).Run(r.Context())
	}
}
