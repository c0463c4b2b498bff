package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/openmentor/relay/internal/infrastructure/configs"
	"github.com/openmentor/relay/internal/infrastructure/json"
	"github.com/openmentor/relay/internal/infrastructure/logging"
	"github.com/openmentor/relay/internal/infrastructure/ws"
	"github.com/openmentor/relay/internal/presentation/utils"
)

type Handler struct {
	dashboard *ws.Dashboard
	upgrader  *websocket.Upgrader
	logger    logging.Logger
	cfg       configs.RelayConfig
}

func NewHandler(dashboard *ws.Dashboard, upgrader *websocket.Upgrader, logger logging.Logger, cfg configs.RelayConfig) *Handler {
	return &Handler{
		dashboard: dashboard,
		upgrader:  upgrader,
		logger:    logger,
		cfg:       cfg,
	}
}

// ConnectHandler godoc
// @Summary      Live dashboard feed via WebSocket
// @Description  Upgrades to WebSocket and streams dashboard updates for the user
// @Tags         dashboard
// @Produce      json
// @Param        userID path int true "User ID the feed belongs to"
// @Param        user_id query int false "Authenticated user ID (fallback when X-User-ID is absent)"
// @Success      101 {object} map[string]interface{} "Switching Protocols - WebSocket connection established"
// @Failure      400 {object} map[string]interface{} "Bad request - invalid user ID"
// @Router       /ws/dashboard/{userID} [get]
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	pathID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || pathID <= 0 {
		json.WriteValidationError(w, errors.New("user ID must be a positive integer"))
		return
	}

	authID := utils.UserIDFrom(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(logging.Dashboard, logging.Handshake, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.UserId:       pathID,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	wrapped := ws.NewConn(conn)

	if authID == 0 {
		_ = wrapped.Close(ws.CloseNotAuthenticated, "not authenticated")
		return
	}

	// A user only gets their own feed.
	if authID != pathID {
		h.logger.Warn(logging.Dashboard, logging.Handshake, "dashboard identity mismatch", map[logging.ExtraKey]any{
			logging.UserId:    authID,
			logging.CloseCode: ws.CloseNotMember,
		})
		_ = wrapped.Close(ws.CloseNotMember, "forbidden")
		return
	}

	client := ws.NewDashboardClient(authID, wrapped, h.cfg.SendBuffer)

	h.logger.Info(logging.Dashboard, logging.Handshake, "dashboard connected", map[logging.ExtraKey]any{
		logging.UserId: authID,
	})

	h.dashboard.Serve(r.Context(), client, conn)
}
