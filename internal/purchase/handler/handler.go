package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wicaksana/pos-order-service/internal/auth"
	"github.com/wicaksana/pos-order-service/internal/httputil"
	"github.com/wicaksana/pos-order-service/internal/purchase"
	"github.com/wicaksana/pos-order-service/internal/purchase/dto"
	"github.com/wicaksana/pos-order-service/pkg/logger"
	"go.uber.org/zap"
)

type PurchaseHandler struct {
	uc     purchase.UseCase
	logger logger.ZapLogger
}

func NewPurchaseHandler(uc purchase.UseCase, log logger.ZapLogger) *PurchaseHandler {
	return &PurchaseHandler{uc: uc, logger: log}
}

func (h *PurchaseHandler) Register(router fiber.Router) {
	router.Post("/purchases", h.Create)
	router.Get("/purchases", h.List)
	router.Get("/purchases/:displayId", h.Get)
	router.Patch("/purchases/:displayId/deactivate", h.Deactivate)
	router.Patch("/purchases/:displayId/reactivate", h.Reactivate)
	router.Delete("/purchases/:displayId", h.Delete)
}

func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	input := new(dto.CreatePurchaseInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	created, err := h.uc.CreatePurchase(h.ctx(c), input)
	if err != nil {
		return httputil.RespondError(c, err)
	}

	h.logger.Info("purchase created",
		zap.String("display_id", created.DisplayID), zap.Int64("total", created.Total))
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *PurchaseHandler) Get(c *fiber.Ctx) error {
	p, err := h.uc.GetPurchase(h.ctx(c), c.Params("displayId"))
	if err != nil {
		return httputil.RespondError(c, err)
	}
	return c.JSON(p)
}

func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	purchases, count, err := h.uc.ListPurchases(h.ctx(c), &dto.PurchaseFilters{
		ProviderID: c.Query("provider_id"),
		Status:     c.Query("status"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return httputil.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"data": purchases, "total": count})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *PurchaseHandler) Deactivate(c *fiber.Ctx) error {
	req := new(reasonRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	updated, err := h.uc.DeactivatePurchase(h.ctx(c), c.Params("displayId"), req.Reason)
	if err != nil {
		return httputil.RespondError(c, err)
	}
	return c.JSON(updated)
}

func (h *PurchaseHandler) Reactivate(c *fiber.Ctx) error {
	req := new(reasonRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	updated, err := h.uc.ReactivatePurchase(h.ctx(c), c.Params("displayId"), req.Reason)
	if err != nil {
		return httputil.RespondError(c, err)
	}
	return c.JSON(updated)
}

func (h *PurchaseHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeletePurchase(h.ctx(c), c.Params("displayId")); err != nil {
		return httputil.RespondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PurchaseHandler) ctx(c *fiber.Ctx) context.Context {
	if actor, ok := auth.ActorFromFiber(c); ok {
		return auth.WithActor(c.UserContext(), actor)
	}
	return c.UserContext()
}
