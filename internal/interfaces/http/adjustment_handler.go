package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
)

// AdjustmentHandler maneja el flujo de ajustes de existencias.
type AdjustmentHandler struct {
	uc *stock.AdjustmentUseCase
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(uc *stock.AdjustmentUseCase) *AdjustmentHandler {
	return &AdjustmentHandler{uc: uc}
}

// Create godoc
// @Summary      Crear ajuste (queda pendiente de aprobación)
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAdjustmentRequest  true  "adjustment_type, reason, items"
// @Success      201   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAdjustmentRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	adj, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(adj)
}

// List GET /api/stock/adjustments
func (h *AdjustmentHandler) List(c *fiber.Ctx) error {
	var in dto.AdjustmentListRequest
	if e := bindQuery(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	page, err := h.uc.List(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(page)
}

// GetByID GET /api/stock/adjustments/:id
func (h *AdjustmentHandler) GetByID(c *fiber.Ctx) error {
	adj, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(adj)
}

// Approve godoc
// @Summary      Aprobar ajuste y aplicarlo al inventario
// @Description  Aplica cada línea en su propia transacción. Si alguna falla responde 207 con el
//
//	reporte por línea y el ajuste sigue pendiente; reintentar aplica solo lo que falta.
//
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Ajuste"
// @Success      200  {object}  dto.ApproveAdjustmentResponse
// @Success      207  {object}  dto.ApplyReport
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments/{id}/approve [put]
func (h *AdjustmentHandler) Approve(c *fiber.Ctx) error {
	res, err := h.uc.Approve(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Reject PUT /api/stock/adjustments/:id/reject
func (h *AdjustmentHandler) Reject(c *fiber.Ctx) error {
	adj, err := h.uc.Reject(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(adj)
}
