package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/stock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger          *stock.LedgerUseCase
	Movements       *stock.MovementUseCase
	Reports         *stock.ReportUseCase
	Adjustments     *stock.AdjustmentUseCase
	Reconciliations *stock.ReconciliationUseCase
	JWTSecret       string
}

// Router registra las rutas de la API. Todo /api/stock requiere Bearer Token;
// las decisiones (aprobar, rechazar, completar, cancelar, eliminar) solo admin o manager.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/stock", AuthMiddleware(deps.JWTSecret))
	supervisor := RequireRole(RoleAdmin, RoleManager)

	stockHandler := NewStockHandler(deps.Ledger, deps.Movements, deps.Reports)
	api.Get("/ledger", stockHandler.QueryLedger)
	api.Get("/ledger/item/:id", stockHandler.ItemHistory)
	api.Get("/ledger/item/:id/verify", stockHandler.VerifyItem)
	api.Get("/valuation", stockHandler.Valuation)
	api.Get("/valuation/pdf", stockHandler.ValuationPDF)
	api.Get("/movement-report", stockHandler.MovementReport)
	api.Get("/movement-report/xlsx", stockHandler.MovementXLSX)
	api.Get("/summary", stockHandler.Summary)
	api.Post("/movements", stockHandler.RegisterMovement)
	api.Post("/invoice-sales", stockHandler.InvoiceSale)
	api.Delete("/items/:id", supervisor, stockHandler.DeleteItem)

	adjustments := api.Group("/adjustments")
	adjustmentHandler := NewAdjustmentHandler(deps.Adjustments)
	adjustments.Post("/", adjustmentHandler.Create)
	adjustments.Get("/", adjustmentHandler.List)
	adjustments.Get("/:id", adjustmentHandler.GetByID)
	adjustments.Put("/:id/approve", supervisor, adjustmentHandler.Approve)
	adjustments.Put("/:id/reject", supervisor, adjustmentHandler.Reject)

	reconciliation := api.Group("/reconciliation")
	reconciliationHandler := NewReconciliationHandler(deps.Reconciliations)
	reconciliation.Post("/", reconciliationHandler.Create)
	reconciliation.Get("/", reconciliationHandler.List)
	reconciliation.Get("/:id", reconciliationHandler.GetByID)
	reconciliation.Put("/:id/complete", supervisor, reconciliationHandler.Complete)
	reconciliation.Put("/:id/cancel", supervisor, reconciliationHandler.Cancel)
}
