package handler

import (
	"metrocare-be/internal/dto"
	"metrocare-be/internal/pkg/identity"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/internal/pkg/serverutils"
	"metrocare-be/internal/service"
	internalWS "metrocare-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	service   *service.NotificationService
	hub       *internalWS.Hub
	jwtSecret string
	auth      fiber.Handler
	logger    logger.ILogger
}

func NewNotificationHandler(service *service.NotificationService, hub *internalWS.Hub, jwtSecret string, auth fiber.Handler, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
		auth:      auth,
		logger:    log,
	}
}

type broadcastRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=2000"`
}

// ServeWs authenticates the handshake and upgrades the connection.
// Browsers cannot set headers on a websocket, so the token may come from the
// "token" query parameter as well as the header or cookie.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = serverutils.TokenFromRequest(c)
	}
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
	}

	caller, err := identity.ParseToken(h.jwtSecret, tokenStr)
	if err != nil {
		h.logger.Warn("NotificationHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userID := caller.UserId
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID.String()})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID.String()})
	})(c)
}

// GetNotifications returns the caller's inbox, newest first.
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	caller, err := identity.MustCaller(c.UserContext())
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	notifications, total, err := h.service.GetNotifications(c.UserContext(), caller.UserId, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(serverutils.SuccessResponse("Notifications retrieved", dto.NotificationListResponse{
		Notifications: notifications,
		Total:         total,
		Page:          offset/limit + 1,
		Limit:         limit,
	}))
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	caller, err := identity.MustCaller(c.UserContext())
	if err != nil {
		return err
	}

	count, err := h.service.GetUnreadCount(c.UserContext(), caller.UserId)
	if err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse("Unread count", dto.UnreadCountResponse{Count: count}))
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	caller, err := identity.MustCaller(c.UserContext())
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.service.MarkAsRead(c.UserContext(), caller.UserId, id); err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse[any]("Notification marked as read", nil))
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	caller, err := identity.MustCaller(c.UserContext())
	if err != nil {
		return err
	}

	if err := h.service.MarkAllAsRead(c.UserContext(), caller.UserId); err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse[any]("All notifications marked as read", nil))
}

// Broadcast sends a live system message to every connected client.
func (h *NotificationHandler) Broadcast(c *fiber.Ctx) error {
	var req broadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	notif := h.service.Broadcast(req.Title, req.Message)
	return c.JSON(serverutils.SuccessResponse("Broadcast sent", notif))
}

func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notif := router.Group("/notifications", h.auth)
	notif.Get("/", h.GetNotifications)
	notif.Get("/unread-count", h.GetUnreadCount)
	notif.Patch("/read-all", h.MarkAllAsRead)
	notif.Patch("/:id/read", h.MarkAsRead)
	notif.Post("/broadcast", serverutils.RequireRoles(identity.RoleAdmin), h.Broadcast)

	router.Get("/ws", h.ServeWs)
}
