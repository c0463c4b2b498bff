package sessions

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/openmentor/relay/internal/infrastructure/json"
	"github.com/openmentor/relay/internal/infrastructure/logging"
	"github.com/openmentor/relay/internal/infrastructure/ws"
	"github.com/openmentor/relay/internal/presentation/utils"
)

type Handler struct {
	relay    *ws.Relay
	upgrader *websocket.Upgrader
	logger   logging.Logger
}

func NewHandler(relay *ws.Relay, upgrader *websocket.Upgrader, logger logging.Logger) *Handler {
	return &Handler{
		relay:    relay,
		upgrader: upgrader,
		logger:   logger,
	}
}

// JoinSessionHandler godoc
// @Summary      Join a session room via WebSocket
// @Description  Upgrades to WebSocket and relays signaling, chat and presence for the session room
// @Tags         sessions
// @Produce      json
// @Param        roomCode path string true "Session room code"
// @Param        user_id query int false "Authenticated user ID (fallback when X-User-ID is absent)"
// @Success      101 {object} map[string]interface{} "Switching Protocols - WebSocket connection established"
// @Failure      400 {object} map[string]interface{} "Bad request - missing room code"
// @Router       /ws/session/{roomCode} [get]
func (h *Handler) JoinSessionHandler(w http.ResponseWriter, r *http.Request) {
	roomCode := chi.URLParam(r, "roomCode")
	if roomCode == "" {
		json.WriteValidationError(w, errors.New("room code is missing"))
		return
	}

	userID := utils.UserIDFrom(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(logging.WebSocket, logging.Handshake, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.RoomCode:     roomCode,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	// Refusals are delivered as application close codes on the socket, not
	// as HTTP statuses; the upgrade already happened.
	p, err := h.relay.Join(r.Context(), roomCode, userID, ws.NewConn(conn))
	if err != nil {
		return
	}

	h.relay.Serve(p, conn)
}

// GetPresenceHandler godoc
// @Summary      Current session room roster
// @Description  Returns who is connected to the session room right now
// @Tags         sessions
// @Produce      json
// @Param        roomCode path string true "Session room code"
// @Success      200 {object} presenceResponse "Current roster"
// @Failure      400 {object} map[string]interface{} "Bad request - missing room code"
// @Router       /api/sessions/{roomCode}/presence [get]
func (h *Handler) GetPresenceHandler(w http.ResponseWriter, r *http.Request) {
	roomCode := chi.URLParam(r, "roomCode")
	if roomCode == "" {
		json.WriteValidationError(w, errors.New("room code is missing"))
		return
	}

	identities := h.relay.Snapshot(roomCode)

	participants := make([]participantPayload, 0, len(identities))
	for _, id := range identities {
		participants = append(participants, participantPayload{
			UserID:   id.UserID,
			Username: id.Username,
			Role:     string(id.Role),
		})
	}

	json.Write(w, http.StatusOK, presenceResponse{
		RoomCode:     roomCode,
		Participants: participants,
		Count:        len(participants),
	})
}
