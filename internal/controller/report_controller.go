package controller

import (
	"metrocare-be/internal/dto"
	"metrocare-be/internal/pkg/serverutils"
	"metrocare-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IReportController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	CheckDuplicates(ctx *fiber.Ctx) error
	FindSimilar(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	MyReports(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	UpdateStatus(ctx *fiber.Ctx) error
	ToggleVote(ctx *fiber.Ctx) error
}

type reportController struct {
	service      service.IReportService
	auth         fiber.Handler
	optionalAuth fiber.Handler
}

func NewReportController(service service.IReportService, auth, optionalAuth fiber.Handler) IReportController {
	return &reportController{service: service, auth: auth, optionalAuth: optionalAuth}
}

func (c *reportController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/reports/v1")
	h.Get("/", c.List)
	h.Post("/", c.auth, c.Create)
	h.Post("/duplicates/check", c.auth, c.CheckDuplicates)
	h.Post("/similar", c.auth, c.FindSimilar)
	h.Get("/my-reports", c.auth, c.MyReports)
	h.Get("/:id", c.optionalAuth, c.Show)
	h.Patch("/:id/status", c.auth, c.UpdateStatus)
	h.Post("/:id/vote", c.auth, c.ToggleVote)
}

func (c *reportController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Report created", res))
}

func (c *reportController) CheckDuplicates(ctx *fiber.Ctx) error {
	var req dto.CheckDuplicatesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CheckDuplicates(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Duplicate check completed", res))
}

func (c *reportController) FindSimilar(ctx *fiber.Ctx) error {
	var req dto.SimilarReportsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.FindSimilar(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Similar reports", res))
}

func (c *reportController) List(ctx *fiber.Ctx) error {
	filter := dto.SearchFilter{Page: 1, Limit: 10}
	if err := ctx.QueryParser(&filter); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(filter); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), &filter)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Reports", res))
}

func (c *reportController) MyReports(ctx *fiber.Ctx) error {
	filter := dto.MyReportsFilter{Page: 1, Limit: 10, Status: "all"}
	if err := ctx.QueryParser(&filter); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}
	if err := serverutils.ValidateRequest(filter); err != nil {
		return err
	}

	res, err := c.service.MyReports(ctx.UserContext(), &filter)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("My reports", res))
}

func (c *reportController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid report id")
	}

	res, err := c.service.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Report", res))
}

func (c *reportController) UpdateStatus(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid report id")
	}

	var req dto.UpdateStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateStatus(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Report status updated", res))
}

func (c *reportController) ToggleVote(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid report id")
	}

	res, err := c.service.ToggleVote(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Vote toggled", res))
}
