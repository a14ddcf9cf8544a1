package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/schedulo/internal/auth"
	"github.com/spec-kit/schedulo/internal/events"
	"github.com/spec-kit/schedulo/internal/realtime"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

const roomsKey = "realtime_rooms"

// RealtimeHandler upgrades authenticated requests to websockets joined to the caller's
// user and role rooms.
type RealtimeHandler struct {
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(hub *realtime.Hub, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, logger: logger}
}

// Upgrade rejects non-websocket requests and records the rooms to join.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	principal, found := auth.PrincipalFromContext(c)
	if !found {
		return apperrors.NewUnauthorized("authentication required")
	}
	c.Locals(roomsKey, []string{
		events.UserRoom(principal.Credential.ID),
		events.RoleRoom(principal.Role),
	})
	return c.Next()
}

// Serve handles GET /ws after Upgrade.
func (h *RealtimeHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		rooms, _ := conn.Locals(roomsKey).([]string)
		client := h.hub.Register(conn, rooms...)
		defer h.hub.Unregister(client)
		h.logger.Debug("realtime client connected", zap.Strings("rooms", rooms))

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
