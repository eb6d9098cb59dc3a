package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationFilter filtros de GET /api/stock/valuation.
type ValuationFilter struct {
	MetalType  string `query:"metal_type"`
	Purity     string `query:"purity"`
	CategoryID string `query:"category_id"`
}

// ValuationGroup totales de un grupo (metal o pureza).
type ValuationGroup struct {
	Count    int             `json:"count"`
	Quantity int64           `json:"quantity"`
	Weight   decimal.Decimal `json:"weight"`
	Value    decimal.Decimal `json:"value"`
}

// ValuationItem fila por ítem del reporte de valuación.
type ValuationItem struct {
	ItemID      string          `json:"item_id"`
	Name        string          `json:"name"`
	DesignCode  string          `json:"design_code"`
	MetalType   string          `json:"metal_type"`
	Purity      string          `json:"purity"`
	Quantity    int64           `json:"quantity"`
	UnitWeight  decimal.Decimal `json:"unit_weight"`
	TotalWeight decimal.Decimal `json:"total_weight"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

// ValuationSummary totales generales de la valuación.
type ValuationSummary struct {
	TotalItems      int             `json:"total_items"`
	TotalQuantity   int64           `json:"total_quantity"`
	TotalWeight     decimal.Decimal `json:"total_weight"`
	TotalValue      decimal.Decimal `json:"total_value"`
	ValuationMethod string          `json:"valuation_method"`
}

// ValuationReport foto actual del registro de ítems agrupada por metal y pureza.
type ValuationReport struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	Summary     ValuationSummary           `json:"summary"`
	ByMetal     map[string]*ValuationGroup `json:"by_metal"`
	ByPurity    map[string]*ValuationGroup `json:"by_purity"`
	Items       []ValuationItem            `json:"items"`
}

// MovementReportRequest filtros de GET /api/stock/movement-report.
type MovementReportRequest struct {
	StartDate string `query:"start_date" validate:"required"`
	EndDate   string `query:"end_date" validate:"required"`
	MetalType string `query:"metal_type"`
}

// MovementSummary entradas, salidas y neto del período.
type MovementSummary struct {
	TotalEntries int             `json:"total_entries"`
	QuantityIn   int64           `json:"quantity_in"`
	QuantityOut  int64           `json:"quantity_out"`
	NetQuantity  int64           `json:"net_quantity"`
	WeightIn     decimal.Decimal `json:"weight_in"`
	WeightOut    decimal.Decimal `json:"weight_out"`
	NetWeight    decimal.Decimal `json:"net_weight"`
	ValueIn      decimal.Decimal `json:"value_in"`
	ValueOut     decimal.Decimal `json:"value_out"`
	NetValue     decimal.Decimal `json:"net_value"`
}

// MovementGroup totales por tipo de movimiento.
type MovementGroup struct {
	Count       int             `json:"count"`
	QuantityIn  int64           `json:"quantity_in"`
	QuantityOut int64           `json:"quantity_out"`
	Value       decimal.Decimal `json:"value"`
}

// MovementReport movimientos del período agrupados por tipo.
type MovementReport struct {
	StartDate         time.Time                 `json:"start_date"`
	EndDate           time.Time                 `json:"end_date"`
	MetalType         string                    `json:"metal_type,omitempty"`
	Summary           MovementSummary           `json:"summary"`
	ByTransactionType map[string]*MovementGroup `json:"by_transaction_type"`
	Entries           []LedgerEntryResponse     `json:"entries"`
}

// StockOverview totales de existencia.
type StockOverview struct {
	TotalItems    int             `json:"total_items"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalWeight   decimal.Decimal `json:"total_weight"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// StockAlerts contadores de alerta.
type StockAlerts struct {
	LowStock           int `json:"low_stock"`
	OutOfStock         int `json:"out_of_stock"`
	PendingAdjustments int `json:"pending_adjustments"`
}

// LowStockItem ítem con existencia baja.
type LowStockItem struct {
	ItemID     string `json:"item_id"`
	Name       string `json:"name"`
	DesignCode string `json:"design_code"`
	Quantity   int64  `json:"quantity"`
}

// StockSummary resumen para el tablero de existencias.
type StockSummary struct {
	Overview          StockOverview              `json:"overview"`
	Alerts            StockAlerts                `json:"alerts"`
	ByMetal           map[string]*ValuationGroup `json:"by_metal"`
	LowStockItems     []LowStockItem             `json:"low_stock_items"`
	RecentAdjustments []AdjustmentResponse       `json:"recent_adjustments"`
}
