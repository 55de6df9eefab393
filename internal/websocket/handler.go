package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/happyloop/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and streams the
// parent's change notifications until the connection closes.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parentID := auth.ParentID(r.Context())
		if parentID == 0 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "parent_id", parentID, "error", err)
			return
		}
		defer conn.CloseNow()

		logger.Debug("websocket connected", "parent_id", parentID)
		NewClient(hub, conn, parentID).Run(r.Context())
		logger.Debug("websocket closed", "parent_id", parentID)
	}
}
