package http

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
)

// StockHandler maneja el libro de existencias, los movimientos y los reportes (protegido).
type StockHandler struct {
	ledger    *stock.LedgerUseCase
	movements *stock.MovementUseCase
	reports   *stock.ReportUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *stock.LedgerUseCase, movements *stock.MovementUseCase, reports *stock.ReportUseCase) *StockHandler {
	return &StockHandler{ledger: ledger, movements: movements, reports: reports}
}

// QueryLedger godoc
// @Summary      Consultar el libro de existencias
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        item_id           query  string  false  "Ítem"
// @Param        metal_type        query  string  false  "Metal"
// @Param        purity            query  string  false  "Pureza"
// @Param        transaction_type  query  string  false  "Tipo de movimiento"
// @Param        start_date        query  string  false  "Desde (YYYY-MM-DD)"
// @Param        end_date          query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        page              query  int     false  "Página (base 1)"
// @Param        limit             query  int     false  "Tamaño de página (máx. 100)"
// @Success      200  {object}  dto.LedgerPage
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/ledger [get]
func (h *StockHandler) QueryLedger(c *fiber.Ctx) error {
	var q dto.LedgerQuery
	if e := bindQuery(c, &q); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	page, err := h.ledger.Query(c.Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(page)
}

// ItemHistory godoc
// @Summary      Historial completo de un ítem
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Ítem"
// @Success      200  {object}  dto.ItemHistory
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/ledger/item/{id} [get]
func (h *StockHandler) ItemHistory(c *fiber.Ctx) error {
	hist, err := h.ledger.History(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(hist)
}

// VerifyItem recalcula la cadena del ítem y la compara con registro y saldo.
// GET /api/stock/ledger/item/:id/verify
func (h *StockHandler) VerifyItem(c *fiber.Ctx) error {
	report, err := h.ledger.Verify(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// Valuation godoc
// @Summary      Valuación de existencias
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        metal_type   query  string  false  "Metal"
// @Param        purity       query  string  false  "Pureza"
// @Param        category_id  query  string  false  "Categoría"
// @Success      200  {object}  dto.ValuationReport
// @Router       /api/stock/valuation [get]
func (h *StockHandler) Valuation(c *fiber.Ctx) error {
	var f dto.ValuationFilter
	if e := bindQuery(c, &f); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	report, err := h.reports.Valuation(c.Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// ValuationPDF genera el reporte de valuación en PDF.
// GET /api/stock/valuation/pdf
func (h *StockHandler) ValuationPDF(c *fiber.Ctx) error {
	var f dto.ValuationFilter
	if e := bindQuery(c, &f); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	var buf bytes.Buffer
	if err := h.reports.ValuationPDF(c.Context(), f, &buf); err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="valuation.pdf"`)
	return c.Send(buf.Bytes())
}

// MovementReport godoc
// @Summary      Reporte de movimientos del período
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        start_date  query  string  true   "Desde (YYYY-MM-DD)"
// @Param        end_date    query  string  true   "Hasta (YYYY-MM-DD)"
// @Param        metal_type  query  string  false  "Metal"
// @Success      200  {object}  dto.MovementReport
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movement-report [get]
func (h *StockHandler) MovementReport(c *fiber.Ctx) error {
	var in dto.MovementReportRequest
	if e := bindQuery(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	report, err := h.reports.Movement(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// MovementXLSX exporta el reporte de movimientos como planilla.
// GET /api/stock/movement-report/xlsx
func (h *StockHandler) MovementXLSX(c *fiber.Ctx) error {
	var in dto.MovementReportRequest
	if e := bindQuery(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	var buf bytes.Buffer
	if err := h.reports.MovementXLSX(c.Context(), in, &buf); err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="movements.xlsx"`)
	return c.Send(buf.Bytes())
}

// Summary resumen para el tablero: totales, alertas, metales y últimos ajustes.
// GET /api/stock/summary
func (h *StockHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.reports.Summary(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de existencias
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "item_id, type, quantity (direction solo en transfer)"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/stock/movements [post]
func (h *StockHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	entry, err := h.movements.RegisterMovement(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// InvoiceSale descuenta la existencia de las líneas de una factura.
// POST /api/stock/invoice-sales
func (h *StockHandler) InvoiceSale(c *fiber.Ctx) error {
	var in dto.InvoiceSaleRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	report, err := h.movements.RecordInvoiceSale(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// DeleteItem elimina el ítem junto con su saldo y sus asientos.
// DELETE /api/stock/items/:id
func (h *StockHandler) DeleteItem(c *fiber.Ctx) error {
	if err := h.movements.PurgeItem(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
