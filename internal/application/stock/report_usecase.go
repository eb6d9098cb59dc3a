package stock

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const unknownGroup = "Unknown"

// ReportUseCase reportes de valuación (foto actual del registro), movimientos (libro) y resumen.
type ReportUseCase struct {
	repos             Repositories
	valuationExporter ValuationExporter
	movementExporter  MovementExporter
	lowStock          int64
	log               zerolog.Logger
	now               func() time.Time
}

// NewReportUseCase construye el caso de uso. lowStock es el umbral de existencia baja (inclusive).
func NewReportUseCase(repos Repositories, valuationExporter ValuationExporter, movementExporter MovementExporter, lowStock int64, log zerolog.Logger) *ReportUseCase {
	return &ReportUseCase{
		repos:             repos,
		valuationExporter: valuationExporter,
		movementExporter:  movementExporter,
		lowStock:          lowStock,
		log:               log,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func groupKey(s string) string {
	if s == "" {
		return unknownGroup
	}
	return s
}

func addToGroup(groups map[string]*dto.ValuationGroup, key string, qty int64, weight, value decimal.Decimal) {
	g, ok := groups[key]
	if !ok {
		g = &dto.ValuationGroup{Weight: decimal.Zero, Value: decimal.Zero}
		groups[key] = g
	}
	g.Count++
	g.Quantity += qty
	g.Weight = g.Weight.Add(weight)
	g.Value = g.Value.Add(value)
}

// Valuation agrupa la existencia actual por metal y pureza. No lee el libro.
func (uc *ReportUseCase) Valuation(ctx context.Context, f dto.ValuationFilter) (*dto.ValuationReport, error) {
	items, err := uc.repos.Items.List(ctx, repository.ItemFilter{MetalType: f.MetalType, Purity: f.Purity, CategoryID: f.CategoryID})
	if err != nil {
		return nil, err
	}
	report := &dto.ValuationReport{
		GeneratedAt: uc.now(),
		ByMetal:     map[string]*dto.ValuationGroup{},
		ByPurity:    map[string]*dto.ValuationGroup{},
		Items:       make([]dto.ValuationItem, 0, len(items)),
	}
	weight, value := decimal.Zero, decimal.Zero
	for _, it := range items {
		w, v := it.TotalWeight(), it.TotalValue()
		report.Summary.TotalQuantity += it.Quantity
		weight = weight.Add(w)
		value = value.Add(v)
		metal, purity := groupKey(it.MetalType), groupKey(it.Purity)
		addToGroup(report.ByMetal, metal, it.Quantity, w, v)
		addToGroup(report.ByPurity, purity, it.Quantity, w, v)
		report.Items = append(report.Items, dto.ValuationItem{
			ItemID:      it.ID,
			Name:        it.Name,
			DesignCode:  it.DesignCode,
			MetalType:   metal,
			Purity:      purity,
			Quantity:    it.Quantity,
			UnitWeight:  it.Weight,
			TotalWeight: w,
			UnitPrice:   it.SellingPrice,
			TotalValue:  v,
		})
	}
	report.Summary.TotalItems = len(items)
	report.Summary.TotalWeight = weight.Round(2)
	report.Summary.TotalValue = value.Round(2)
	report.Summary.ValuationMethod = entity.ValuationWeightedAverage
	return report, nil
}

// Movement suma entradas y salidas del período y las agrupa por tipo de movimiento.
// El valor de entradas y salidas es cantidad * costo unitario.
func (uc *ReportUseCase) Movement(ctx context.Context, in dto.MovementReportRequest) (*dto.MovementReport, error) {
	from, err := parseDate(in.StartDate, false)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(in.EndDate, true)
	if err != nil {
		return nil, err
	}
	if from == nil || to == nil || to.Before(*from) {
		return nil, fmt.Errorf("%w: rango de fechas", domain.ErrInvalidInput)
	}
	entries, err := uc.repos.Ledger.ListInRange(ctx, *from, *to, in.MetalType)
	if err != nil {
		return nil, err
	}

	s := dto.MovementSummary{
		TotalEntries: len(entries),
		WeightIn:     decimal.Zero,
		WeightOut:    decimal.Zero,
		ValueIn:      decimal.Zero,
		ValueOut:     decimal.Zero,
	}
	byType := map[string]*dto.MovementGroup{}
	for _, e := range entries {
		s.QuantityIn += e.QuantityIn
		s.QuantityOut += e.QuantityOut
		s.WeightIn = s.WeightIn.Add(e.WeightIn)
		s.WeightOut = s.WeightOut.Add(e.WeightOut)
		s.ValueIn = s.ValueIn.Add(e.UnitCost.Mul(decimal.NewFromInt(e.QuantityIn)))
		s.ValueOut = s.ValueOut.Add(e.UnitCost.Mul(decimal.NewFromInt(e.QuantityOut)))

		g, ok := byType[string(e.TransactionType)]
		if !ok {
			g = &dto.MovementGroup{Value: decimal.Zero}
			byType[string(e.TransactionType)] = g
		}
		g.Count++
		g.QuantityIn += e.QuantityIn
		g.QuantityOut += e.QuantityOut
		g.Value = g.Value.Add(e.TotalValue)
	}
	s.NetQuantity = s.QuantityIn - s.QuantityOut
	s.WeightIn = s.WeightIn.Round(2)
	s.WeightOut = s.WeightOut.Round(2)
	s.NetWeight = s.WeightIn.Sub(s.WeightOut)
	s.ValueIn = s.ValueIn.Round(2)
	s.ValueOut = s.ValueOut.Round(2)
	s.NetValue = s.ValueIn.Sub(s.ValueOut)

	return &dto.MovementReport{
		StartDate:         *from,
		EndDate:           *to,
		MetalType:         in.MetalType,
		Summary:           s,
		ByTransactionType: byType,
		Entries:           toEntryResponses(entries),
	}, nil
}

// Summary resumen del tablero: totales, alertas, metales, ítems con existencia baja y últimos ajustes.
func (uc *ReportUseCase) Summary(ctx context.Context) (*dto.StockSummary, error) {
	var (
		items   []*entity.Item
		pending int
		recent  []*entity.Adjustment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = uc.repos.Items.List(gctx, repository.ItemFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = uc.repos.Adjustments.CountByStatus(gctx, entity.AdjustmentPending)
		return err
	})
	g.Go(func() error {
		var err error
		recent, _, err = uc.repos.Adjustments.List(gctx, repository.AdjustmentFilter{}, 5, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &dto.StockSummary{
		ByMetal:           map[string]*dto.ValuationGroup{},
		LowStockItems:     []dto.LowStockItem{},
		RecentAdjustments: make([]dto.AdjustmentResponse, 0, len(recent)),
	}
	weight, value := decimal.Zero, decimal.Zero
	for _, it := range items {
		w, v := it.TotalWeight(), it.TotalValue()
		out.Overview.TotalQuantity += it.Quantity
		weight = weight.Add(w)
		value = value.Add(v)
		addToGroup(out.ByMetal, groupKey(it.MetalType), it.Quantity, w, v)
		if it.Quantity <= uc.lowStock {
			out.Alerts.LowStock++
			if len(out.LowStockItems) < 10 {
				out.LowStockItems = append(out.LowStockItems, dto.LowStockItem{
					ItemID: it.ID, Name: it.Name, DesignCode: it.DesignCode, Quantity: it.Quantity,
				})
			}
		}
		if it.Quantity == 0 {
			out.Alerts.OutOfStock++
		}
	}
	out.Overview.TotalItems = len(items)
	out.Overview.TotalWeight = weight.Round(2)
	out.Overview.TotalValue = value.Round(2)
	out.Alerts.PendingAdjustments = pending
	for _, a := range recent {
		out.RecentAdjustments = append(out.RecentAdjustments, toAdjustmentResponse(a))
	}
	return out, nil
}

// ValuationPDF escribe el reporte de valuación en PDF.
func (uc *ReportUseCase) ValuationPDF(ctx context.Context, f dto.ValuationFilter, w io.Writer) error {
	report, err := uc.Valuation(ctx, f)
	if err != nil {
		return err
	}
	if err := uc.valuationExporter.WriteValuation(w, report); err != nil {
		return fmt.Errorf("valuation pdf: %w", err)
	}
	return nil
}

// MovementXLSX escribe el reporte de movimientos en XLSX.
func (uc *ReportUseCase) MovementXLSX(ctx context.Context, in dto.MovementReportRequest, w io.Writer) error {
	report, err := uc.Movement(ctx, in)
	if err != nil {
		return err
	}
	if err := uc.movementExporter.WriteMovements(w, report); err != nil {
		return fmt.Errorf("movement xlsx: %w", err)
	}
	return nil
}
