// Package xlsx exporta el reporte de movimientos a planilla Excel.
package xlsx

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
)

var _ stock.MovementExporter = (*MovementXLSX)(nil)

// Hojas de la planilla.
const (
	SheetEntries = "Movimientos"
	SheetSummary = "Resumen"
)

var entryHeadings = []interface{}{
	"Fecha", "Código", "Ítem", "Metal", "Pureza", "Tipo", "Referencia",
	"Entrada", "Salida", "Peso entrada", "Peso salida", "Costo unit.", "Valor", "Saldo cant.", "Saldo peso",
}

// MovementXLSX implementa stock.MovementExporter con excelize.
type MovementXLSX struct{}

// NewMovementXLSX construye el exportador.
func NewMovementXLSX() *MovementXLSX { return &MovementXLSX{} }

// WriteMovements escribe la hoja de asientos y la de resumen por tipo.
func (x *MovementXLSX) WriteMovements(w io.Writer, report *dto.MovementReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetEntries); err != nil {
		return fmt.Errorf("xlsx: hoja: %w", err)
	}
	if err := f.SetSheetRow(SheetEntries, "A1", &entryHeadings); err != nil {
		return fmt.Errorf("xlsx: cabecera: %w", err)
	}
	for i, e := range report.Entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.DesignCode, e.ItemName, e.MetalType, e.Purity,
			e.TransactionType, e.ReferenceType, e.QuantityIn, e.QuantityOut,
			e.WeightIn.InexactFloat64(), e.WeightOut.InexactFloat64(), e.UnitCost.InexactFloat64(),
			e.TotalValue.InexactFloat64(), e.RunningQuantity, e.RunningWeight.InexactFloat64(),
		}
		if err := f.SetSheetRow(SheetEntries, cell, &values); err != nil {
			return fmt.Errorf("xlsx: fila %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("xlsx: hoja: %w", err)
	}
	if err := writeSummary(f, report); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: escribir: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, report *dto.MovementReport) error {
	s := report.Summary
	rows := [][]interface{}{
		{"Desde", report.StartDate.Format("2006-01-02")},
		{"Hasta", report.EndDate.Format("2006-01-02")},
		{"Metal", report.MetalType},
		{"Asientos", s.TotalEntries},
		{"Cantidad entrada", s.QuantityIn},
		{"Cantidad salida", s.QuantityOut},
		{"Cantidad neta", s.NetQuantity},
		{"Peso neto", s.NetWeight.InexactFloat64()},
		{"Valor entrada", s.ValueIn.InexactFloat64()},
		{"Valor salida", s.ValueOut.InexactFloat64()},
		{"Valor neto", s.NetValue.InexactFloat64()},
		{},
		{"Tipo", "Asientos", "Entrada", "Salida", "Valor"},
	}

	types := make([]string, 0, len(report.ByTransactionType))
	for t := range report.ByTransactionType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		g := report.ByTransactionType[t]
		rows = append(rows, []interface{}{t, g.Count, g.QuantityIn, g.QuantityOut, g.Value.InexactFloat64()})
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &rows[i]); err != nil {
			return fmt.Errorf("xlsx: resumen fila %d: %w", i+1, err)
		}
	}
	return nil
}
