package controller

import (
	"metrocare-be/internal/dto"
	"metrocare-be/internal/pkg/serverutils"
	"metrocare-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAiController interface {
	RegisterRoutes(r fiber.Router)
	GenerateEmbedding(ctx *fiber.Ctx) error
}

type aiController struct {
	service service.IEmbeddingService
	auth    fiber.Handler
}

func NewAiController(service service.IEmbeddingService, auth fiber.Handler) IAiController {
	return &aiController{service: service, auth: auth}
}

func (c *aiController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ai/v1", c.auth)
	h.Post("/embeddings", c.GenerateEmbedding)
}

func (c *aiController) GenerateEmbedding(ctx *fiber.Ctx) error {
	var req dto.GenerateEmbeddingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Generate(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Embedding generated", res))
}
