// Package pdf genera el reporte de valuación de existencias en PDF (A4).
//
// Layout:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + fecha de generación                        │
//	│  RESUMEN: ítems / cantidad / peso / valor                    │
//	│  POR METAL y POR PUREZA: cantidad, peso y valor por grupo    │
//	│  TABLA: Código | Ítem | Metal | Pureza | Cant | Peso | Valor │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"io"
	"sort"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
)

var _ stock.ValuationExporter = (*ValuationPDF)(nil)

var (
	colorPrimary = &props.Color{Red: 122, Green: 90, Blue: 20}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ValuationPDF implementa stock.ValuationExporter con Maroto v2.
type ValuationPDF struct {
	company string
}

// NewValuationPDF construye el generador; company encabeza el documento.
func NewValuationPDF(company string) *ValuationPDF { return &ValuationPDF{company: company} }

// WriteValuation genera el PDF y lo escribe en w.
func (g *ValuationPDF) WriteValuation(w io.Writer, report *dto.ValuationReport) error {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Valuación de existencias", true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report.Summary))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(groupRows("POR METAL", report.ByMetal)...)
	m.AddRows(groupRows("POR PUREZA", report.ByPurity)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(itemRows(report.Items)...)

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("pdf: generar documento: %w", err)
	}
	if _, err := w.Write(doc.GetBytes()); err != nil {
		return fmt.Errorf("pdf: escribir: %w", err)
	}
	return nil
}

func (g *ValuationPDF) headerRow(report *dto.ValuationReport) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(g.company, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("Método: "+report.Summary.ValuationMethod, props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("VALUACIÓN DE EXISTENCIAS", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func summaryRow(s dto.ValuationSummary) core.Row {
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1, Align: align.Center}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Top: 5, Align: align.Center}),
		)
	}
	return row.New(14).Add(
		cell("Ítems", fmt.Sprint(s.TotalItems)),
		cell("Cantidad", fmt.Sprint(s.TotalQuantity)),
		cell("Peso (g)", s.TotalWeight.StringFixed(3)),
		cell("Valor", "$"+formatMoney(s.TotalValue.StringFixed(0))),
	)
}

// groupRows una fila por grupo, en orden alfabético.
func groupRows(title string, groups map[string]*dto.ValuationGroup) []core.Row {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := []core.Row{row.New(6).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
	))}
	for _, k := range keys {
		g := groups[k]
		rows = append(rows, row.New(5).Add(
			col.New(4).Add(text.New(k, props.Text{Size: 8, Left: 2})),
			col.New(2).Add(text.New(fmt.Sprint(g.Count), props.Text{Size: 8, Align: align.Right})),
			col.New(2).Add(text.New(fmt.Sprint(g.Quantity), props.Text{Size: 8, Align: align.Right})),
			col.New(2).Add(text.New(g.Weight.StringFixed(3), props.Text{Size: 8, Align: align.Right})),
			col.New(2).Add(text.New("$"+formatMoney(g.Value.StringFixed(0)), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	return rows
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Código", 2, align.Left),
		h("Ítem", 3, align.Left),
		h("Metal", 2, align.Left),
		h("Pureza", 1, align.Center),
		h("Cant.", 1, align.Right),
		h("Peso", 1, align.Right),
		h("Valor", 2, align.Right),
	)
}

func itemRows(items []dto.ValuationItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(6).Add(
			col.New(2).Add(text.New(it.DesignCode, props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(3).Add(text.New(it.Name, props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(2).Add(text.New(it.MetalType, props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(1).Add(text.New(it.Purity, props.Text{Size: 7, Top: 1, Align: align.Center})),
			col.New(1).Add(text.New(fmt.Sprint(it.Quantity), props.Text{Size: 7, Top: 1, Align: align.Right})),
			col.New(1).Add(text.New(it.TotalWeight.StringFixed(3), props.Text{Size: 7, Top: 1, Align: align.Right})),
			col.New(2).Add(text.New("$"+formatMoney(it.TotalValue.StringFixed(0)), props.Text{
				Size: 7, Top: 1, Align: align.Right, Right: 1,
			})),
		))
	}
	return result
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1000000" → "-1.000.000"
func formatMoney(s string) string {
	sign := ""
	if len(s) > 0 && s[0] == '-' {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
