package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
)

// ReconciliationHandler maneja los conteos físicos.
type ReconciliationHandler struct {
	uc *stock.ReconciliationUseCase
}

// NewReconciliationHandler construye el handler.
func NewReconciliationHandler(uc *stock.ReconciliationUseCase) *ReconciliationHandler {
	return &ReconciliationHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar conteo físico
// @Description  Los ítems inexistentes se omiten y se informan en skipped_item_ids.
// @Tags         reconciliation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReconciliationRequest  true  "items con physical_quantity"
// @Success      201   {object}  dto.CreateReconciliationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/reconciliation [post]
func (h *ReconciliationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReconciliationRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	res, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *ReconciliationHandler) List(c *fiber.Ctx) error {
	var in dto.ReconciliationListRequest
	if e := bindQuery(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	page, err := h.uc.List(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(page)
}

func (h *ReconciliationHandler) GetByID(c *fiber.Ctx) error {
	rec, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rec)
}

// Complete genera el ajuste sintético de las discrepancias y lo aplica.
// PUT /api/stock/reconciliation/:id/complete
func (h *ReconciliationHandler) Complete(c *fiber.Ctx) error {
	res, err := h.uc.Complete(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Cancel PUT /api/stock/reconciliation/:id/cancel (solo borradores).
func (h *ReconciliationHandler) Cancel(c *fiber.Ctx) error {
	rec, err := h.uc.Cancel(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rec)
}
