package stock

import (
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// PartialApplyError un lote quedó aplicado solo en parte; Report trae el estado de cada línea.
// Cause, si no es nil, es el error que cortó el lote antes de terminar.
type PartialApplyError struct {
	Report *dto.ApplyReport
	Cause  error
}

func (e *PartialApplyError) Error() string {
	msg := fmt.Sprintf("%s %s: %d aplicadas, %d omitidas, %d fallidas", domain.ErrPartialApply, e.Report.Number,
		e.Report.Count(dto.LineApplied), e.Report.Count(dto.LineSkipped), e.Report.Count(dto.LineFailed))
	if e.Cause != nil {
		msg += fmt.Sprintf(", %d sin intentar: %v", e.Report.Count(dto.LinePending), e.Cause)
	}
	return msg
}

func (e *PartialApplyError) Unwrap() []error {
	if e.Cause != nil {
		return []error{domain.ErrPartialApply, e.Cause}
	}
	return []error{domain.ErrPartialApply}
}

// finish devuelve PartialApplyError si alguna línea falló.
func finish(report *dto.ApplyReport) error {
	if report.Count(dto.LineFailed) > 0 {
		return &PartialApplyError{Report: report}
	}
	return nil
}
