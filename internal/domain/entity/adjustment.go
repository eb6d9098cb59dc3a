package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// AdjustmentType tipo de ajuste de existencias.
type AdjustmentType string

const (
	AdjustmentIncrease       AdjustmentType = "increase"
	AdjustmentDecrease       AdjustmentType = "decrease"
	AdjustmentReconciliation AdjustmentType = "reconciliation"
)

// Valid indica si t pertenece al conjunto cerrado.
func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentIncrease, AdjustmentDecrease, AdjustmentReconciliation:
		return true
	}
	return false
}

// AdjustmentReason motivo del ajuste (conjunto cerrado).
type AdjustmentReason string

const (
	ReasonDamage          AdjustmentReason = "damage"
	ReasonLoss            AdjustmentReason = "loss"
	ReasonFound           AdjustmentReason = "found"
	ReasonTheft           AdjustmentReason = "theft"
	ReasonCountCorrection AdjustmentReason = "count_correction"
	ReasonQualityIssue    AdjustmentReason = "quality_issue"
	ReasonExpired         AdjustmentReason = "expired"
	ReasonOther           AdjustmentReason = "other"
)

// Valid indica si r pertenece al conjunto cerrado.
func (r AdjustmentReason) Valid() bool {
	switch r {
	case ReasonDamage, ReasonLoss, ReasonFound, ReasonTheft, ReasonCountCorrection,
		ReasonQualityIssue, ReasonExpired, ReasonOther:
		return true
	}
	return false
}

// AdjustmentStatus estado del ajuste.
type AdjustmentStatus string

const (
	AdjustmentPending   AdjustmentStatus = "pending"
	AdjustmentRejected  AdjustmentStatus = "rejected"
	AdjustmentCompleted AdjustmentStatus = "completed"
)

// adjustmentTransitions tabla de transiciones; rejected y completed son terminales.
var adjustmentTransitions = map[AdjustmentStatus][]AdjustmentStatus{
	AdjustmentPending: {AdjustmentCompleted, AdjustmentRejected},
}

// CanTransition indica si el ajuste puede pasar de s a to.
func (s AdjustmentStatus) CanTransition(to AdjustmentStatus) bool {
	for _, next := range adjustmentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// AdjustmentLine línea de un ajuste: existencia del sistema vs. existencia ajustada.
// AppliedAt se marca cuando la línea ya impactó el registro y el libro.
type AdjustmentLine struct {
	LineNo             int
	ItemID             string
	ItemName           string
	DesignCode         string
	MetalType          string
	Purity             string
	SystemQuantity     int64
	SystemWeight       decimal.Decimal
	AdjustedQuantity   int64
	AdjustedWeight     decimal.Decimal
	QuantityDifference int64
	WeightDifference   decimal.Decimal
	UnitCost           decimal.Decimal
	ValueDifference    decimal.Decimal
	Reason             string
	LedgerEntryID      string
	AppliedAt          *time.Time
}

// Applied indica si la línea ya fue aplicada.
func (l *AdjustmentLine) Applied() bool {
	return l.AppliedAt != nil
}

// Adjustment ajuste manual (o sintético, desde una conciliación) de existencias.
type Adjustment struct {
	ID                    string
	Number                string // ADJ-YYYY-NNNNN
	Type                  AdjustmentType
	Reason                AdjustmentReason
	Status                AdjustmentStatus
	Lines                 []AdjustmentLine
	TotalQuantityAdjusted int64
	TotalWeightAdjusted   decimal.Decimal
	TotalValueAdjusted    decimal.Decimal
	Notes                 string
	ReconciliationID      string
	AdjustmentDate        time.Time
	CreatedBy             string
	CreatedAt             time.Time
	ApprovedBy            string
	ApprovedAt            *time.Time
}

// Transition cambia el estado validando contra la tabla de transiciones.
func (a *Adjustment) Transition(to AdjustmentStatus) error {
	if !a.Status.CanTransition(to) {
		return fmt.Errorf("%w: ajuste %s en estado %s no puede pasar a %s", domain.ErrInvalidState, a.Number, a.Status, to)
	}
	a.Status = to
	return nil
}

// Line devuelve la línea con el número indicado.
func (a *Adjustment) Line(lineNo int) *AdjustmentLine {
	for i := range a.Lines {
		if a.Lines[i].LineNo == lineNo {
			return &a.Lines[i]
		}
	}
	return nil
}

// AnyApplied indica si alguna línea ya impactó el inventario.
func (a *Adjustment) AnyApplied() bool {
	for i := range a.Lines {
		if a.Lines[i].Applied() {
			return true
		}
	}
	return false
}

// ComputeTotals recalcula los totales como suma de valores absolutos de las diferencias.
func (a *Adjustment) ComputeTotals() {
	var qty int64
	weight, value := decimal.Zero, decimal.Zero
	for _, l := range a.Lines {
		if l.QuantityDifference < 0 {
			qty -= l.QuantityDifference
		} else {
			qty += l.QuantityDifference
		}
		weight = weight.Add(l.WeightDifference.Abs())
		value = value.Add(l.ValueDifference.Abs())
	}
	a.TotalQuantityAdjusted = qty
	a.TotalWeightAdjusted = weight
	a.TotalValueAdjusted = value
}

// Clone copia profunda (las líneas no se comparten).
func (a *Adjustment) Clone() *Adjustment {
	c := *a
	c.Lines = make([]AdjustmentLine, len(a.Lines))
	copy(c.Lines, a.Lines)
	return &c
}
