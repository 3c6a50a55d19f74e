package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/wicaksana/pos-order-service/internal/httputil"
	"github.com/wicaksana/pos-order-service/internal/ledger"
	"github.com/wicaksana/pos-order-service/internal/ledger/dto"
	"github.com/wicaksana/pos-order-service/pkg/logger"
)

// LedgerHandler exposes the read-only audit surface: product stock and the
// movement trail. Stock writes only happen through the lifecycles.
type LedgerHandler struct {
	uc     ledger.UseCase
	logger logger.ZapLogger
}

func NewLedgerHandler(uc ledger.UseCase, log logger.ZapLogger) *LedgerHandler {
	return &LedgerHandler{uc: uc, logger: log}
}

func (h *LedgerHandler) Register(router fiber.Router) {
	router.Get("/products/:id/stock", h.GetStock)
	router.Get("/movements", h.ListMovements)
}

func (h *LedgerHandler) GetStock(c *fiber.Ctx) error {
	product, err := h.uc.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return httputil.RespondError(c, err)
	}
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	return c.JSON(fiber.Map{"product_id": product.ID, "stock": product.Stock})
}

func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	movements, count, err := h.uc.ListMovements(c.UserContext(), &dto.MovementFilters{
		ProductID:     c.Query("product_id"),
		MovementType:  c.Query("movement_type"),
		ReferenceType: c.Query("reference_type"),
		ReferenceID:   c.Query("reference_id"),
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		return httputil.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"data": movements, "total": count})
}
