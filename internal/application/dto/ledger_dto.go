package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerQuery filtros de GET /api/stock/ledger. Las fechas van en formato 2006-01-02 o RFC3339.
type LedgerQuery struct {
	PageRequest
	ItemID          string `query:"item_id"`
	MetalType       string `query:"metal_type"`
	Purity          string `query:"purity"`
	TransactionType string `query:"transaction_type" validate:"omitempty,oneof=opening purchase sale issue return adjustment transfer"`
	StartDate       string `query:"start_date"`
	EndDate         string `query:"end_date"`
}

// LedgerEntryResponse asiento del libro.
type LedgerEntryResponse struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"item_id"`
	ItemName        string          `json:"item_name"`
	DesignCode      string          `json:"design_code"`
	MetalType       string          `json:"metal_type"`
	Purity          string          `json:"purity"`
	TransactionType string          `json:"transaction_type"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	QuantityIn      int64           `json:"quantity_in"`
	QuantityOut     int64           `json:"quantity_out"`
	WeightIn        decimal.Decimal `json:"weight_in"`
	WeightOut       decimal.Decimal `json:"weight_out"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TotalValue      decimal.Decimal `json:"total_value"`
	RunningQuantity int64           `json:"running_quantity"`
	RunningWeight   decimal.Decimal `json:"running_weight"`
	RunningValue    decimal.Decimal `json:"running_value"`
	ValuationMethod string          `json:"valuation_method"`
	Notes           string          `json:"notes,omitempty"`
	Sequence        int64           `json:"sequence"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LedgerPage página de asientos (created_at DESC).
type LedgerPage struct {
	Entries []LedgerEntryResponse `json:"entries"`
	PageResponse
}

// ItemResponse ficha del ítem tal como la ve el núcleo.
type ItemResponse struct {
	ID           string          `json:"id"`
	CategoryID   string          `json:"category_id,omitempty"`
	Name         string          `json:"name"`
	DesignCode   string          `json:"design_code"`
	MetalType    string          `json:"metal_type"`
	Purity       string          `json:"purity"`
	Quantity     int64           `json:"quantity"`
	Weight       decimal.Decimal `json:"weight"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Status       string          `json:"status"`
}

// ItemHistory cadena completa del ítem en orden ascendente.
type ItemHistory struct {
	Item         ItemResponse          `json:"item"`
	Entries      []LedgerEntryResponse `json:"entries"`
	TotalEntries int                   `json:"total_entries"`
}

// ChainBreak primer asiento que rompe la cadena.
type ChainBreak struct {
	Index    int    `json:"index"`
	EntryID  string `json:"entry_id"`
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

// ChainReport resultado de verificar la cadena de un ítem contra el registro y el saldo materializado.
type ChainReport struct {
	ItemID           string          `json:"item_id"`
	Entries          int             `json:"entries"`
	Valid            bool            `json:"valid"`
	Break            *ChainBreak     `json:"break,omitempty"`
	LedgerQuantity   int64           `json:"ledger_quantity"`
	LedgerWeight     decimal.Decimal `json:"ledger_weight"`
	RegistryQuantity int64           `json:"registry_quantity"`
	BalanceQuantity  int64           `json:"balance_quantity"`
	QuantityMismatch bool            `json:"quantity_mismatch"`
}

// RegisterMovementRequest body para POST /api/stock/movements.
// Direction solo aplica a transfer (in|out).
type RegisterMovementRequest struct {
	ItemID      string           `json:"item_id" validate:"required"`
	Type        string           `json:"type" validate:"required,oneof=opening purchase sale issue return transfer"`
	Direction   string           `json:"direction,omitempty" validate:"omitempty,oneof=in out"`
	Quantity    int64            `json:"quantity" validate:"gt=0"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceID string           `json:"reference_id,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// InvoiceSaleLine línea de una factura que descuenta existencia.
type InvoiceSaleLine struct {
	ItemID   string          `json:"item_id" validate:"required"`
	Quantity int64           `json:"quantity" validate:"gt=0"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// InvoiceSaleRequest body para POST /api/stock/invoice-sales.
type InvoiceSaleRequest struct {
	InvoiceID string            `json:"invoice_id" validate:"required"`
	Lines     []InvoiceSaleLine `json:"lines" validate:"required,min=1,dive"`
}
