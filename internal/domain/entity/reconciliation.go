package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// ReconciliationStatus estado del conteo físico.
type ReconciliationStatus string

const (
	ReconciliationDraft      ReconciliationStatus = "draft"
	ReconciliationInProgress ReconciliationStatus = "in_progress" // ajuste sintético creado, líneas en aplicación
	ReconciliationCompleted  ReconciliationStatus = "completed"
	ReconciliationCancelled  ReconciliationStatus = "cancelled"
)

var reconciliationTransitions = map[ReconciliationStatus][]ReconciliationStatus{
	ReconciliationDraft:      {ReconciliationInProgress, ReconciliationCompleted, ReconciliationCancelled},
	ReconciliationInProgress: {ReconciliationCompleted},
}

// CanTransition indica si la conciliación puede pasar de s a to.
func (s ReconciliationStatus) CanTransition(to ReconciliationStatus) bool {
	for _, next := range reconciliationTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid indica si s pertenece al conjunto cerrado.
func (s ReconciliationStatus) Valid() bool {
	switch s {
	case ReconciliationDraft, ReconciliationInProgress, ReconciliationCompleted, ReconciliationCancelled:
		return true
	}
	return false
}

// ReconciliationLine conteo de un ítem: sistema vs. físico.
type ReconciliationLine struct {
	LineNo           int
	ItemID           string
	ItemName         string
	DesignCode       string
	MetalType        string
	Purity           string
	SystemQuantity   int64
	PhysicalQuantity int64
	Difference       int64 // físico - sistema
	UnitPrice        decimal.Decimal
	ValueDifference  decimal.Decimal
}

// Reconciliation conteo físico contra el registro de ítems.
type Reconciliation struct {
	ID                    string
	Number                string // REC-YYYY-NNNNN
	Status                ReconciliationStatus
	Lines                 []ReconciliationLine
	TotalItemsCounted     int
	TotalDiscrepancies    int
	TotalValueDiscrepancy decimal.Decimal
	Notes                 string
	AdjustmentID          string
	ReconciliationDate    time.Time
	CreatedBy             string
	CreatedAt             time.Time
	CompletedBy           string
	CompletedAt           *time.Time
}

// Transition cambia el estado validando contra la tabla de transiciones.
func (r *Reconciliation) Transition(to ReconciliationStatus) error {
	if !r.Status.CanTransition(to) {
		return fmt.Errorf("%w: conciliación %s en estado %s no puede pasar a %s", domain.ErrInvalidState, r.Number, r.Status, to)
	}
	r.Status = to
	return nil
}

// Discrepancies líneas con diferencia distinta de cero.
func (r *Reconciliation) Discrepancies() []ReconciliationLine {
	var out []ReconciliationLine
	for _, l := range r.Lines {
		if l.Difference != 0 {
			out = append(out, l)
		}
	}
	return out
}

// ComputeTotals recalcula conteo de discrepancias y su valor absoluto.
func (r *Reconciliation) ComputeTotals() {
	r.TotalItemsCounted = len(r.Lines)
	r.TotalDiscrepancies = 0
	r.TotalValueDiscrepancy = decimal.Zero
	for _, l := range r.Lines {
		if l.Difference == 0 {
			continue
		}
		r.TotalDiscrepancies++
		r.TotalValueDiscrepancy = r.TotalValueDiscrepancy.Add(l.ValueDifference.Abs())
	}
}

// Clone copia profunda.
func (r *Reconciliation) Clone() *Reconciliation {
	c := *r
	c.Lines = make([]ReconciliationLine, len(r.Lines))
	copy(c.Lines, r.Lines)
	return &c
}
