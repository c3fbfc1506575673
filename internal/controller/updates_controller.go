package controller

import (
	"time"

	"metrocare-be/internal/pkg/serverutils"
	"metrocare-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUpdatesController interface {
	RegisterRoutes(r fiber.Router)
	Poll(ctx *fiber.Ctx) error
}

type updatesController struct {
	service service.IUpdatesService
	auth    fiber.Handler
}

func NewUpdatesController(service service.IUpdatesService, auth fiber.Handler) IUpdatesController {
	return &updatesController{service: service, auth: auth}
}

func (c *updatesController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/updates/v1", c.auth)
	h.Get("/poll", c.Poll)
}

func (c *updatesController) Poll(ctx *fiber.Ctx) error {
	var lastCheck time.Time
	if raw := ctx.Query("lastCheck"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lastCheck must be an RFC3339 timestamp")
		}
		lastCheck = t
	}

	res, err := c.service.Poll(ctx.UserContext(), lastCheck)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Updates retrieved", res))
}
