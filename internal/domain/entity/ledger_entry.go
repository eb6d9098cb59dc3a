package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tipo de movimiento registrado en el libro de existencias.
type TransactionType string

// Tipos de movimiento del libro.
const (
	TransactionOpening    TransactionType = "opening"    // existencia inicial
	TransactionPurchase   TransactionType = "purchase"   // compra
	TransactionSale       TransactionType = "sale"       // venta
	TransactionIssue      TransactionType = "issue"      // salida no comercial
	TransactionReturn     TransactionType = "return"     // devolución
	TransactionAdjustment TransactionType = "adjustment" // ajuste aprobado
	TransactionTransfer   TransactionType = "transfer"   // traslado
)

// Valid indica si t pertenece al conjunto cerrado de tipos.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionOpening, TransactionPurchase, TransactionSale, TransactionIssue,
		TransactionReturn, TransactionAdjustment, TransactionTransfer:
		return true
	}
	return false
}

// ReferenceType documento que originó el asiento.
type ReferenceType string

// Tipos de referencia.
const (
	ReferenceInvoice         ReferenceType = "invoice"
	ReferenceStockAdjustment ReferenceType = "stock_adjustment"
	ReferenceReconciliation  ReferenceType = "reconciliation"
	ReferenceOpeningStock    ReferenceType = "opening_stock"
	ReferenceTransaction     ReferenceType = "transaction"
)

// Valid indica si r pertenece al conjunto cerrado de referencias.
func (r ReferenceType) Valid() bool {
	switch r {
	case ReferenceInvoice, ReferenceStockAdjustment, ReferenceReconciliation,
		ReferenceOpeningStock, ReferenceTransaction:
		return true
	}
	return false
}

// ValuationWeightedAverage etiqueta de método de valuación; no se aplican capas de costo.
const ValuationWeightedAverage = "weighted_average"

// LedgerEntry asiento inmutable del libro de existencias de un ítem.
// Sequence es la posición del asiento en la cadena del ítem (1, 2, 3...).
type LedgerEntry struct {
	ID              string
	ItemID          string
	ItemName        string
	DesignCode      string
	MetalType       string
	Purity          string
	TransactionType TransactionType
	ReferenceType   ReferenceType
	ReferenceID     string
	QuantityIn      int64
	QuantityOut     int64
	WeightIn        decimal.Decimal
	WeightOut       decimal.Decimal
	UnitCost        decimal.Decimal
	TotalValue      decimal.Decimal
	RunningQuantity int64
	RunningWeight   decimal.Decimal
	RunningValue    decimal.Decimal
	ValuationMethod string
	Notes           string
	Sequence        int64
	CreatedBy       string
	CreatedAt       time.Time
}

// NetQuantity cantidad neta del asiento (entrada - salida).
func (e *LedgerEntry) NetQuantity() int64 {
	return e.QuantityIn - e.QuantityOut
}
