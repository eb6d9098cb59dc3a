// Package ledger contiene la aritmética pura del libro de existencias (servicio de dominio):
// deltas de movimiento, encadenamiento de saldos corrientes y verificación de la cadena.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Balance saldo corriente de un ítem después de un asiento.
type Balance struct {
	Quantity int64
	Weight   decimal.Decimal
	Value    decimal.Decimal
	Entries  int64
}

// FromStock convierte el saldo materializado en Balance.
func FromStock(b *entity.StockBalance) Balance {
	if b == nil {
		return Balance{Weight: decimal.Zero, Value: decimal.Zero}
	}
	return Balance{Quantity: b.Quantity, Weight: b.Weight, Value: b.Value, Entries: b.Entries}
}

// Delta movimiento con signo de un asiento. Solo uno de los lados suele venir poblado.
// NetValue es el cambio del saldo valorizado; TotalValue el valor absoluto que muestra el asiento.
type Delta struct {
	QuantityIn  int64
	QuantityOut int64
	WeightIn    decimal.Decimal
	WeightOut   decimal.Decimal
	UnitCost    decimal.Decimal
	TotalValue  decimal.Decimal
	NetValue    decimal.Decimal
}

// Movement arma el delta de un movimiento comercial (venta, devolución, apertura...).
// TotalValue = entrada*costo si hay entrada, si no salida*costo.
func Movement(qtyIn, qtyOut int64, weightIn, weightOut, unitCost decimal.Decimal) Delta {
	in := decimal.NewFromInt(qtyIn).Mul(unitCost)
	out := decimal.NewFromInt(qtyOut).Mul(unitCost)
	total := out
	if qtyIn > 0 {
		total = in
	}
	return Delta{
		QuantityIn:  qtyIn,
		QuantityOut: qtyOut,
		WeightIn:    weightIn,
		WeightOut:   weightOut,
		UnitCost:    unitCost,
		TotalValue:  total,
		NetValue:    in.Sub(out),
	}
}

// Correction arma el delta de un ajuste a partir de diferencias con signo:
// positivas van a la entrada, negativas a la salida; TotalValue = |valueDiff|.
func Correction(qtyDiff int64, weightDiff, unitCost, valueDiff decimal.Decimal) Delta {
	d := Delta{
		WeightIn:   decimal.Zero,
		WeightOut:  decimal.Zero,
		UnitCost:   unitCost,
		TotalValue: valueDiff.Abs(),
		NetValue:   valueDiff,
	}
	if qtyDiff > 0 {
		d.QuantityIn = qtyDiff
	} else {
		d.QuantityOut = -qtyDiff
	}
	if weightDiff.IsPositive() {
		d.WeightIn = weightDiff
	} else {
		d.WeightOut = weightDiff.Neg()
	}
	return d
}

// IsZero indica que el delta no mueve cantidad ni peso ni valor.
func (d Delta) IsZero() bool {
	return d.QuantityIn == 0 && d.QuantityOut == 0 &&
		d.WeightIn.IsZero() && d.WeightOut.IsZero() && d.NetValue.IsZero()
}

// NetQuantity cantidad neta (entrada - salida).
func (d Delta) NetQuantity() int64 {
	return d.QuantityIn - d.QuantityOut
}

// NetWeight peso neto (entrada - salida).
func (d Delta) NetWeight() decimal.Decimal {
	return d.WeightIn.Sub(d.WeightOut)
}

// Validate rechaza componentes negativos: el signo lo da el lado (entrada/salida).
func (d Delta) Validate() error {
	if d.QuantityIn < 0 || d.QuantityOut < 0 || d.WeightIn.IsNegative() || d.WeightOut.IsNegative() ||
		d.UnitCost.IsNegative() || d.TotalValue.IsNegative() {
		return fmt.Errorf("%w: delta con componentes negativos", domain.ErrValidation)
	}
	return nil
}

// Next aplica el delta al saldo previo: running[n] = running[n-1] + in[n] - out[n].
// Con prev en cero se obtiene el caso base running[0] = in[0] - out[0].
func Next(prev Balance, d Delta) Balance {
	return Balance{
		Quantity: prev.Quantity + d.NetQuantity(),
		Weight:   prev.Weight.Add(d.NetWeight()),
		Value:    prev.Value.Add(d.NetValue),
		Entries:  prev.Entries + 1,
	}
}
