package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// errLineApplied la línea ya había sido aplicada por un intento anterior.
var errLineApplied = errors.New("línea ya aplicada")

// AdjustmentUseCase flujo de ajustes: pending -> completed (aprobar) | rejected (rechazar).
type AdjustmentUseCase struct {
	engine *Engine
	repos  Repositories
	seq    repository.SequenceRepository
	log    zerolog.Logger
	now    func() time.Time
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(engine *Engine, repos Repositories, seq repository.SequenceRepository, log zerolog.Logger) *AdjustmentUseCase {
	return &AdjustmentUseCase{
		engine: engine,
		repos:  repos,
		seq:    seq,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create valida tipo, motivo e ítems y persiste el ajuste en pending. Si un ítem no existe no se persiste nada.
func (uc *AdjustmentUseCase) Create(ctx context.Context, actor string, in dto.CreateAdjustmentRequest) (*dto.AdjustmentResponse, error) {
	adjType := entity.AdjustmentType(in.Type)
	reason := entity.AdjustmentReason(in.Reason)
	if !adjType.Valid() {
		return nil, fmt.Errorf("%w: tipo de ajuste %q", domain.ErrValidation, in.Type)
	}
	if !reason.Valid() {
		return nil, fmt.Errorf("%w: motivo %q", domain.ErrValidation, in.Reason)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: el ajuste no tiene líneas", domain.ErrValidation)
	}

	lines := make([]entity.AdjustmentLine, 0, len(in.Lines))
	for i, l := range in.Lines {
		item, err := uc.repos.Items.GetByID(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("%w: ítem %s", domain.ErrNotFound, l.ItemID)
		}
		line, err := buildAdjustmentLine(i+1, item, l)
		if err != nil {
			return nil, err
		}
		if adjType == entity.AdjustmentIncrease && line.QuantityDifference < 0 ||
			adjType == entity.AdjustmentDecrease && line.QuantityDifference > 0 {
			return nil, fmt.Errorf("%w: línea %d no corresponde a un ajuste %s", domain.ErrValidation, i+1, adjType)
		}
		lines = append(lines, line)
	}

	now := uc.now()
	seq, err := uc.seq.Next(ctx, ledger.PrefixAdjustment, now.Year())
	if err != nil {
		return nil, fmt.Errorf("next sequence: %w", err)
	}
	adj := &entity.Adjustment{
		ID:             uuid.New().String(),
		Number:         ledger.DocumentNumber(ledger.PrefixAdjustment, now.Year(), seq),
		Type:           adjType,
		Reason:         reason,
		Status:         entity.AdjustmentPending,
		Lines:          lines,
		Notes:          in.Notes,
		AdjustmentDate: now,
		CreatedBy:      actor,
		CreatedAt:      now,
	}
	adj.ComputeTotals()
	if err := uc.repos.Adjustments.Create(ctx, adj); err != nil {
		return nil, err
	}
	uc.log.Info().Str("adjustment", adj.Number).Str("type", string(adj.Type)).Int("lines", len(adj.Lines)).Msg("ajuste creado")
	out := toAdjustmentResponse(adj)
	return &out, nil
}

// buildAdjustmentLine completa la línea con la ficha actual. Por defecto la diferencia de peso es
// peso unitario * diferencia, el costo unitario es el precio de venta y el valor diferencia * costo.
func buildAdjustmentLine(no int, item *entity.Item, in dto.AdjustmentLineRequest) (entity.AdjustmentLine, error) {
	diff := in.QuantityDifference
	if in.AdjustedQuantity != nil {
		diff = *in.AdjustedQuantity - item.Quantity
	}
	adjusted := item.Quantity + diff
	if adjusted < 0 {
		return entity.AdjustmentLine{}, fmt.Errorf("%w: línea %d deja existencia negativa", domain.ErrValidation, no)
	}
	weightDiff := item.Weight.Mul(decimal.NewFromInt(diff))
	if in.WeightDifference != nil {
		weightDiff = *in.WeightDifference
	}
	cost := item.SellingPrice
	if in.UnitCost != nil {
		if in.UnitCost.IsNegative() {
			return entity.AdjustmentLine{}, fmt.Errorf("%w: línea %d con costo negativo", domain.ErrValidation, no)
		}
		cost = *in.UnitCost
	}
	valueDiff := cost.Mul(decimal.NewFromInt(diff))
	if in.ValueDifference != nil {
		valueDiff = *in.ValueDifference
	}
	if againstSign(diff, weightDiff) || againstSign(diff, valueDiff) {
		return entity.AdjustmentLine{}, fmt.Errorf("%w: línea %d con peso o valor de signo contrario a la cantidad", domain.ErrValidation, no)
	}
	if diff == 0 && weightDiff.IsZero() && valueDiff.IsZero() {
		return entity.AdjustmentLine{}, fmt.Errorf("%w: línea %d sin diferencia", domain.ErrValidation, no)
	}
	systemWeight := item.TotalWeight()
	return entity.AdjustmentLine{
		LineNo:             no,
		ItemID:             item.ID,
		ItemName:           item.Name,
		DesignCode:         item.DesignCode,
		MetalType:          item.MetalType,
		Purity:             item.Purity,
		SystemQuantity:     item.Quantity,
		SystemWeight:       systemWeight,
		AdjustedQuantity:   adjusted,
		AdjustedWeight:     systemWeight.Add(weightDiff),
		QuantityDifference: diff,
		WeightDifference:   weightDiff,
		UnitCost:           cost,
		ValueDifference:    valueDiff,
		Reason:             in.Reason,
	}, nil
}

// againstSign indica que d tiene signo contrario a la diferencia de cantidad. Con cantidad cero
// (ajuste solo de peso o valor) cualquier signo es válido.
func againstSign(qty int64, d decimal.Decimal) bool {
	return qty > 0 && d.IsNegative() || qty < 0 && d.IsPositive()
}

// Get devuelve un ajuste por id.
func (uc *AdjustmentUseCase) Get(ctx context.Context, id string) (*dto.AdjustmentResponse, error) {
	adj, err := uc.repos.Adjustments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if adj == nil {
		return nil, domain.ErrNotFound
	}
	out := toAdjustmentResponse(adj)
	return &out, nil
}

// List devuelve ajustes paginados (created_at DESC).
func (uc *AdjustmentUseCase) List(ctx context.Context, in dto.AdjustmentListRequest) (*dto.AdjustmentPage, error) {
	in.DefaultPage()
	filter := repository.AdjustmentFilter{Status: in.Status, Type: in.Type, Reason: in.Reason}
	list, total, err := uc.repos.Adjustments.List(ctx, filter, in.Limit, in.Offset())
	if err != nil {
		return nil, err
	}
	out := make([]dto.AdjustmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAdjustmentResponse(a))
	}
	return &dto.AdjustmentPage{Adjustments: out, PageResponse: dto.NewPageResponse(in.PageRequest, total)}, nil
}

// Approve aplica cada línea (registro + libro, una transacción por línea) y marca el ajuste completed.
// Si alguna línea falla devuelve *PartialApplyError: las líneas aplicadas quedan marcadas, el ajuste
// sigue pending y un nuevo Approve retoma solo las pendientes.
func (uc *AdjustmentUseCase) Approve(ctx context.Context, id, actor string) (*dto.ApproveAdjustmentResponse, error) {
	adj, err := uc.repos.Adjustments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if adj == nil {
		return nil, domain.ErrNotFound
	}
	if !adj.Status.CanTransition(entity.AdjustmentCompleted) {
		return nil, fmt.Errorf("%w: ajuste %s en estado %s", domain.ErrInvalidState, adj.Number, adj.Status)
	}

	report, err := uc.applyLines(ctx, adj, entity.AdjustmentPending, actor)
	if err != nil {
		return nil, err
	}
	if err := finish(report); err != nil {
		uc.log.Error().Str("adjustment", adj.Number).Int("failed", report.Count(dto.LineFailed)).Msg("aprobación parcial del ajuste")
		return nil, err
	}

	var approved *entity.Adjustment
	err = uc.engine.txRunner.Run(ctx, func(r Repositories) error {
		cur, err := r.Adjustments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		if err := cur.Transition(entity.AdjustmentCompleted); err != nil {
			return err
		}
		at := uc.now()
		cur.ApprovedBy = actor
		cur.ApprovedAt = &at
		approved = cur
		return r.Adjustments.UpdateStatus(ctx, cur)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("adjustment", approved.Number).Str("approved_by", actor).
		Int("applied", report.Count(dto.LineApplied)).Int("skipped", report.Count(dto.LineSkipped)).Msg("ajuste aprobado")
	uc.engine.publish(ctx, TopicAdjustmentApproved, DocumentEvent{
		DocumentID: approved.ID,
		Number:     approved.Number,
		Status:     string(approved.Status),
		Actor:      actor,
		Lines:      len(approved.Lines),
		OccurredAt: *approved.ApprovedAt,
	})
	return &dto.ApproveAdjustmentResponse{Adjustment: toAdjustmentResponse(approved), Report: report}, nil
}

// applyLines aplica las líneas pendientes del ajuste. Cada línea vuelve a leer el ajuste bloqueado dentro de
// su transacción: si ya fue aplicada se reporta como tal, y si el ajuste dejó el estado esperado se corta
// el lote con un PartialApplyError cuya causa es ErrInvalidState; el reporte conserva lo ya aplicado.
func (uc *AdjustmentUseCase) applyLines(ctx context.Context, adj *entity.Adjustment, want entity.AdjustmentStatus, actor string) (*dto.ApplyReport, error) {
	refType, refID := entity.ReferenceStockAdjustment, adj.ID
	if adj.ReconciliationID != "" {
		refType, refID = entity.ReferenceReconciliation, adj.ReconciliationID
	}
	notes := fmt.Sprintf("Ajuste %s", adj.Number)
	if adj.Notes != "" {
		notes += ": " + adj.Notes
	}

	report := &dto.ApplyReport{DocumentID: adj.ID, Number: adj.Number}
	for i := range adj.Lines {
		line := adj.Lines[i]
		res := dto.LineResult{LineNo: line.LineNo, ItemID: line.ItemID}
		if line.Applied() {
			res.Status = dto.LineApplied
			res.LedgerEntryID = line.LedgerEntryID
			report.Lines = append(report.Lines, res)
			continue
		}

		var previous string
		entry, err := uc.engine.Apply(ctx, Mutation{
			ItemID:          line.ItemID,
			TransactionType: entity.TransactionAdjustment,
			ReferenceType:   refType,
			ReferenceID:     refID,
			Notes:           notes,
			Actor:           actor,
			Guard: func(ctx context.Context, r Repositories) error {
				cur, err := r.Adjustments.GetForUpdate(ctx, adj.ID)
				if err != nil {
					return err
				}
				if cur == nil {
					return fmt.Errorf("%w: ajuste %s ya no existe", domain.ErrConflict, adj.ID)
				}
				if cur.Status != want {
					return fmt.Errorf("%w: ajuste %s en estado %s", domain.ErrInvalidState, cur.Number, cur.Status)
				}
				if l := cur.Line(line.LineNo); l != nil && l.Applied() {
					previous = l.LedgerEntryID
					return errLineApplied
				}
				return nil
			},
			Compute: func(item *entity.Item) (ledger.Delta, error) {
				return uc.lineDelta(adj, &line, item), nil
			},
			OnApplied: func(ctx context.Context, r Repositories, entry *entity.LedgerEntry) error {
				entryID := ""
				if entry != nil {
					entryID = entry.ID
				}
				return r.Adjustments.MarkLineApplied(ctx, adj.ID, line.LineNo, entryID, uc.now())
			},
		})
		switch {
		case err == nil:
			res.Status = dto.LineApplied
			if entry != nil {
				res.LedgerEntryID = entry.ID
			}
		case errors.Is(err, errLineApplied):
			res.Status = dto.LineApplied
			res.LedgerEntryID = previous
		case errors.Is(err, domain.ErrInvalidState):
			res.Status = dto.LineFailed
			res.Error = err.Error()
			report.Lines = append(report.Lines, res)
			for _, rest := range adj.Lines[i+1:] {
				r := dto.LineResult{LineNo: rest.LineNo, ItemID: rest.ItemID, Status: dto.LinePending}
				if rest.Applied() {
					r.Status, r.LedgerEntryID = dto.LineApplied, rest.LedgerEntryID
				}
				report.Lines = append(report.Lines, r)
			}
			return report, &PartialApplyError{Report: report, Cause: err}
		case errors.Is(err, domain.ErrNotFound):
			res.Status = dto.LineSkipped
			res.Error = err.Error()
		default:
			res.Status = dto.LineFailed
			res.Error = err.Error()
		}
		report.Lines = append(report.Lines, res)
	}
	return report, nil
}

// lineDelta sobrescribe la existencia con adjusted_quantity: el delta es contra la existencia bloqueada.
// Si la existencia cambió desde la creación del ajuste, peso y valor se recalculan sobre el neto real.
func (uc *AdjustmentUseCase) lineDelta(adj *entity.Adjustment, line *entity.AdjustmentLine, item *entity.Item) ledger.Delta {
	net := line.AdjustedQuantity - item.Quantity
	if net == line.QuantityDifference {
		return ledger.Correction(line.QuantityDifference, line.WeightDifference, line.UnitCost, line.ValueDifference)
	}
	uc.log.Warn().Str("adjustment", adj.Number).Int("line", line.LineNo).Str("item_id", item.ID).
		Int64("expected_system", line.SystemQuantity).Int64("current", item.Quantity).Int64("net", net).
		Msg("existencia modificada desde la creación del ajuste; se recalcula la diferencia")
	n := decimal.NewFromInt(net)
	return ledger.Correction(net, item.Weight.Mul(n), line.UnitCost, line.UnitCost.Mul(n))
}

// Reject pasa el ajuste a rejected sin tocar existencia ni libro.
func (uc *AdjustmentUseCase) Reject(ctx context.Context, id, actor string) (*dto.AdjustmentResponse, error) {
	var rejected *entity.Adjustment
	err := uc.engine.txRunner.Run(ctx, func(r Repositories) error {
		cur, err := r.Adjustments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		if cur.AnyApplied() {
			return fmt.Errorf("%w: ajuste %s tiene líneas aplicadas", domain.ErrInvalidState, cur.Number)
		}
		if err := cur.Transition(entity.AdjustmentRejected); err != nil {
			return err
		}
		at := uc.now()
		cur.ApprovedBy = actor
		cur.ApprovedAt = &at
		rejected = cur
		return r.Adjustments.UpdateStatus(ctx, cur)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("adjustment", rejected.Number).Str("rejected_by", actor).Msg("ajuste rechazado")
	uc.engine.publish(ctx, TopicAdjustmentRejected, DocumentEvent{
		DocumentID: rejected.ID,
		Number:     rejected.Number,
		Status:     string(rejected.Status),
		Actor:      actor,
		Lines:      len(rejected.Lines),
		OccurredAt: *rejected.ApprovedAt,
	})
	out := toAdjustmentResponse(rejected)
	return &out, nil
}
