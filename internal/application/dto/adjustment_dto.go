package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentLineRequest línea de POST /api/stock/adjustments.
// Si AdjustedQuantity viene, la diferencia se calcula contra la existencia actual.
type AdjustmentLineRequest struct {
	ItemID             string           `json:"item_id" validate:"required"`
	QuantityDifference int64            `json:"quantity_difference"`
	AdjustedQuantity   *int64           `json:"adjusted_quantity,omitempty" validate:"omitempty,min=0"`
	WeightDifference   *decimal.Decimal `json:"weight_difference,omitempty"`
	UnitCost           *decimal.Decimal `json:"unit_cost,omitempty"`
	ValueDifference    *decimal.Decimal `json:"value_difference,omitempty"`
	Reason             string           `json:"reason,omitempty"`
}

// CreateAdjustmentRequest body para POST /api/stock/adjustments.
type CreateAdjustmentRequest struct {
	Type   string                  `json:"adjustment_type" validate:"required"`
	Reason string                  `json:"reason" validate:"required"`
	Notes  string                  `json:"notes,omitempty"`
	Lines  []AdjustmentLineRequest `json:"items" validate:"required,min=1,dive"`
}

// AdjustmentListRequest filtros de GET /api/stock/adjustments.
type AdjustmentListRequest struct {
	PageRequest
	Status string `query:"status"`
	Type   string `query:"adjustment_type"`
	Reason string `query:"reason"`
}

// AdjustmentLineResponse línea del ajuste.
type AdjustmentLineResponse struct {
	LineNo             int             `json:"line_no"`
	ItemID             string          `json:"item_id"`
	ItemName           string          `json:"item_name"`
	DesignCode         string          `json:"design_code"`
	MetalType          string          `json:"metal_type"`
	Purity             string          `json:"purity"`
	SystemQuantity     int64           `json:"system_quantity"`
	SystemWeight       decimal.Decimal `json:"system_weight"`
	AdjustedQuantity   int64           `json:"adjusted_quantity"`
	AdjustedWeight     decimal.Decimal `json:"adjusted_weight"`
	QuantityDifference int64           `json:"quantity_difference"`
	WeightDifference   decimal.Decimal `json:"weight_difference"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	ValueDifference    decimal.Decimal `json:"value_difference"`
	Reason             string          `json:"reason,omitempty"`
	LedgerEntryID      string          `json:"ledger_entry_id,omitempty"`
	AppliedAt          *time.Time      `json:"applied_at,omitempty"`
}

// AdjustmentResponse ajuste con sus líneas.
type AdjustmentResponse struct {
	ID                    string                   `json:"id"`
	Number                string                   `json:"adjustment_number"`
	Type                  string                   `json:"adjustment_type"`
	Reason                string                   `json:"reason"`
	Status                string                   `json:"status"`
	Lines                 []AdjustmentLineResponse `json:"items"`
	TotalQuantityAdjusted int64                    `json:"total_quantity_adjusted"`
	TotalWeightAdjusted   decimal.Decimal          `json:"total_weight_adjusted"`
	TotalValueAdjusted    decimal.Decimal          `json:"total_value_adjusted"`
	Notes                 string                   `json:"notes,omitempty"`
	ReconciliationID      string                   `json:"reconciliation_id,omitempty"`
	AdjustmentDate        time.Time                `json:"adjustment_date"`
	CreatedBy             string                   `json:"created_by"`
	CreatedAt             time.Time                `json:"created_at"`
	ApprovedBy            string                   `json:"approved_by,omitempty"`
	ApprovedAt            *time.Time               `json:"approved_at,omitempty"`
}

// AdjustmentPage página de ajustes (created_at DESC).
type AdjustmentPage struct {
	Adjustments []AdjustmentResponse `json:"adjustments"`
	PageResponse
}

// Estados de línea en un ApplyReport. LinePending: el lote se cortó antes de intentar la línea.
const (
	LineApplied = "applied"
	LineSkipped = "skipped"
	LineFailed  = "failed"
	LinePending = "pending"
)

// LineResult resultado de aplicar una línea de un lote.
type LineResult struct {
	LineNo        int    `json:"line_no"`
	ItemID        string `json:"item_id"`
	Status        string `json:"status"`
	LedgerEntryID string `json:"ledger_entry_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ApplyReport detalle por línea de un lote aplicado (ajuste, conciliación o factura).
type ApplyReport struct {
	DocumentID string       `json:"document_id"`
	Number     string       `json:"number,omitempty"`
	Lines      []LineResult `json:"lines"`
}

// Count cantidad de líneas con el estado indicado.
func (r *ApplyReport) Count(status string) int {
	n := 0
	for _, l := range r.Lines {
		if l.Status == status {
			n++
		}
	}
	return n
}

// ApproveAdjustmentResponse ajuste aprobado y detalle de aplicación.
type ApproveAdjustmentResponse struct {
	Adjustment AdjustmentResponse `json:"adjustment"`
	Report     *ApplyReport       `json:"report"`
}
