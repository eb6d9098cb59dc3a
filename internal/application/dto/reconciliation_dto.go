package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationLineRequest conteo físico de un ítem.
type ReconciliationLineRequest struct {
	ItemID           string `json:"item_id" validate:"required"`
	PhysicalQuantity int64  `json:"physical_quantity" validate:"min=0"`
}

// CreateReconciliationRequest body para POST /api/stock/reconciliation.
type CreateReconciliationRequest struct {
	Notes string                      `json:"notes,omitempty"`
	Lines []ReconciliationLineRequest `json:"items" validate:"required,min=1,dive"`
}

// ReconciliationListRequest filtros de GET /api/stock/reconciliation.
type ReconciliationListRequest struct {
	PageRequest
	Status string `query:"status"`
}

// ReconciliationLineResponse línea del conteo.
type ReconciliationLineResponse struct {
	LineNo           int             `json:"line_no"`
	ItemID           string          `json:"item_id"`
	ItemName         string          `json:"item_name"`
	DesignCode       string          `json:"design_code"`
	MetalType        string          `json:"metal_type"`
	Purity           string          `json:"purity"`
	SystemQuantity   int64           `json:"system_quantity"`
	PhysicalQuantity int64           `json:"physical_quantity"`
	Difference       int64           `json:"difference"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ValueDifference  decimal.Decimal `json:"value_difference"`
}

// ReconciliationResponse conciliación con sus líneas.
type ReconciliationResponse struct {
	ID                    string                       `json:"id"`
	Number                string                       `json:"reconciliation_number"`
	Status                string                       `json:"status"`
	Lines                 []ReconciliationLineResponse `json:"items"`
	TotalItemsCounted     int                          `json:"total_items_counted"`
	TotalDiscrepancies    int                          `json:"total_discrepancies"`
	TotalValueDiscrepancy decimal.Decimal              `json:"total_value_discrepancy"`
	Notes                 string                       `json:"notes,omitempty"`
	AdjustmentID          string                       `json:"adjustment_id,omitempty"`
	ReconciliationDate    time.Time                    `json:"reconciliation_date"`
	CreatedBy             string                       `json:"created_by"`
	CreatedAt             time.Time                    `json:"created_at"`
	CompletedBy           string                       `json:"completed_by,omitempty"`
	CompletedAt           *time.Time                   `json:"completed_at,omitempty"`
}

// CreateReconciliationResponse conciliación creada y los ítems omitidos por no existir.
type CreateReconciliationResponse struct {
	Reconciliation ReconciliationResponse `json:"reconciliation"`
	SkippedItemIDs []string               `json:"skipped_item_ids"`
}

// ReconciliationPage página de conciliaciones.
type ReconciliationPage struct {
	Reconciliations []ReconciliationResponse `json:"reconciliations"`
	PageResponse
}

// CompleteReconciliationResponse conciliación completada, ajuste sintético (si hubo) y detalle.
type CompleteReconciliationResponse struct {
	Reconciliation ReconciliationResponse `json:"reconciliation"`
	Adjustment     *AdjustmentResponse    `json:"adjustment,omitempty"`
	Report         *ApplyReport           `json:"report,omitempty"`
}
