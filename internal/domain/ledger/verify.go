package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ChainError primer asiento que rompe la cadena de saldos corrientes.
type ChainError struct {
	Index    int
	EntryID  string
	Field    string
	Expected string
	Got      string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("asiento %d (%s): %s esperado %s, obtenido %s", e.Index, e.EntryID, e.Field, e.Expected, e.Got)
}

// Verify recorre la cadena en orden ascendente y devuelve el saldo final recalculado.
// La valorización no se verifica: el signo del valor de un ajuste solo de peso no queda en el asiento.
func Verify(entries []*entity.LedgerEntry) (Balance, error) {
	prev := Balance{Weight: decimal.Zero, Value: decimal.Zero}
	for i, e := range entries {
		if e.Sequence != prev.Entries+1 {
			return prev, &ChainError{Index: i, EntryID: e.ID, Field: "sequence",
				Expected: fmt.Sprint(prev.Entries + 1), Got: fmt.Sprint(e.Sequence)}
		}
		qty := prev.Quantity + e.QuantityIn - e.QuantityOut
		if e.RunningQuantity != qty {
			return prev, &ChainError{Index: i, EntryID: e.ID, Field: "running_quantity",
				Expected: fmt.Sprint(qty), Got: fmt.Sprint(e.RunningQuantity)}
		}
		weight := prev.Weight.Add(e.WeightIn).Sub(e.WeightOut)
		if !e.RunningWeight.Equal(weight) {
			return prev, &ChainError{Index: i, EntryID: e.ID, Field: "running_weight",
				Expected: weight.String(), Got: e.RunningWeight.String()}
		}
		prev = Balance{Quantity: qty, Weight: weight, Value: e.RunningValue, Entries: e.Sequence}
	}
	return prev, nil
}
