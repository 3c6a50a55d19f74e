package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wicaksana/pos-order-service/internal/auth"
	"github.com/wicaksana/pos-order-service/internal/httputil"
	"github.com/wicaksana/pos-order-service/internal/model"
	"github.com/wicaksana/pos-order-service/internal/sale"
	"github.com/wicaksana/pos-order-service/internal/sale/dto"
	"github.com/wicaksana/pos-order-service/pkg/logger"
	"go.uber.org/zap"
)

type SaleHandler struct {
	uc     sale.UseCase
	logger logger.ZapLogger
}

func NewSaleHandler(uc sale.UseCase, log logger.ZapLogger) *SaleHandler {
	return &SaleHandler{uc: uc, logger: log}
}

func (h *SaleHandler) Register(router fiber.Router) {
	router.Post("/sales", h.Create)
	router.Get("/sales", h.List)
	router.Get("/sales/:displayId", h.Get)
	router.Patch("/sales/:displayId/status", h.Transition)
	router.Delete("/sales/:displayId", h.Delete)
}

func (h *SaleHandler) Create(c *fiber.Ctx) error {
	input := new(dto.CreateSaleInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	created, err := h.uc.CreateSale(h.ctx(c), input)
	if err != nil {
		return httputil.RespondError(c, err)
	}

	h.logger.Info("sale created",
		zap.String("display_id", created.DisplayID), zap.Int64("total", created.Total))
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *SaleHandler) Get(c *fiber.Ctx) error {
	s, err := h.uc.GetSale(h.ctx(c), c.Params("displayId"))
	if err != nil {
		return httputil.RespondError(c, err)
	}
	return c.JSON(s)
}

func (h *SaleHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	sales, count, err := h.uc.ListSales(h.ctx(c), &dto.SaleFilters{
		CustomerID: c.Query("customer_id"),
		BranchID:   c.Query("branch_id"),
		Status:     c.Query("status"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return httputil.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"data": sales, "total": count})
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h *SaleHandler) Transition(c *fiber.Ctx) error {
	req := new(transitionRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	updated, err := h.uc.TransitionSale(h.ctx(c), c.Params("displayId"), model.SaleStatus(req.Status))
	if err != nil {
		return httputil.RespondError(c, err)
	}
	return c.JSON(updated)
}

func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteSale(h.ctx(c), c.Params("displayId")); err != nil {
		return httputil.RespondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ctx threads the middleware-resolved actor onto the request context the
// usecases read from.
func (h *SaleHandler) ctx(c *fiber.Ctx) context.Context {
	if actor, ok := auth.ActorFromFiber(c); ok {
		return auth.WithActor(c.UserContext(), actor)
	}
	return c.UserContext()
}
