package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance saldo acumulado del libro para un ítem (tabla materializada).
// Se actualiza en la misma transacción que cada asiento y sirve de semilla para el siguiente.
type StockBalance struct {
	ItemID      string
	Quantity    int64
	Weight      decimal.Decimal
	Value       decimal.Decimal
	Entries     int64 // número de asientos; coincide con el Sequence del último
	LastEntryID string
	UpdatedAt   time.Time
}
