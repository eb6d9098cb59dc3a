package stock

import (
	"context"
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

// ReconciliationUseCase conteo físico: draft -> in_progress -> completed, o cancelled.
// Completar genera un ajuste sintético ya aprobado y lo aplica con el mismo camino que Approve.
type ReconciliationUseCase struct {
	adjustments *AdjustmentUseCase
	repos       Repositories
	seq         repository.SequenceRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewReconciliationUseCase construye el caso de uso.
func NewReconciliationUseCase(adjustments *AdjustmentUseCase, repos Repositories, seq repository.SequenceRepository, log zerolog.Logger) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		adjustments: adjustments,
		repos:       repos,
		seq:         seq,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create registra el conteo contra la existencia actual. Las líneas de ítems inexistentes se omiten
// y se devuelven en SkippedItemIDs.
func (uc *ReconciliationUseCase) Create(ctx context.Context, actor string, in dto.CreateReconciliationRequest) (*dto.CreateReconciliationResponse, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: la conciliación no tiene líneas", domain.ErrValidation)
	}
	skipped := []string{}
	lines := make([]entity.ReconciliationLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.PhysicalQuantity < 0 {
			return nil, fmt.Errorf("%w: cantidad física negativa para %s", domain.ErrValidation, l.ItemID)
		}
		item, err := uc.repos.Items.GetByID(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			skipped = append(skipped, l.ItemID)
			continue
		}
		diff := l.PhysicalQuantity - item.Quantity
		lines = append(lines, entity.ReconciliationLine{
			LineNo:           len(lines) + 1,
			ItemID:           item.ID,
			ItemName:         item.Name,
			DesignCode:       item.DesignCode,
			MetalType:        item.MetalType,
			Purity:           item.Purity,
			SystemQuantity:   item.Quantity,
			PhysicalQuantity: l.PhysicalQuantity,
			Difference:       diff,
			UnitPrice:        item.SellingPrice,
			ValueDifference:  item.SellingPrice.Mul(decimal.NewFromInt(diff)),
		})
	}

	now := uc.now()
	seq, err := uc.seq.Next(ctx, ledger.PrefixReconciliation, now.Year())
	if err != nil {
		return nil, fmt.Errorf("next sequence: %w", err)
	}
	rec := &entity.Reconciliation{
		ID:                 uuid.New().String(),
		Number:             ledger.DocumentNumber(ledger.PrefixReconciliation, now.Year(), seq),
		Status:             entity.ReconciliationDraft,
		Lines:              lines,
		Notes:              in.Notes,
		ReconciliationDate: now,
		CreatedBy:          actor,
		CreatedAt:          now,
	}
	rec.ComputeTotals()
	if err := uc.repos.Reconciliations.Create(ctx, rec); err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		uc.log.Warn().Str("reconciliation", rec.Number).Strs("item_ids", skipped).Msg("líneas de conciliación omitidas: ítem inexistente")
	}
	return &dto.CreateReconciliationResponse{Reconciliation: toReconciliationResponse(rec), SkippedItemIDs: skipped}, nil
}

// Get devuelve una conciliación por id.
func (uc *ReconciliationUseCase) Get(ctx context.Context, id string) (*dto.ReconciliationResponse, error) {
	rec, err := uc.repos.Reconciliations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	out := toReconciliationResponse(rec)
	return &out, nil
}

// List devuelve conciliaciones paginadas (created_at DESC).
func (uc *ReconciliationUseCase) List(ctx context.Context, in dto.ReconciliationListRequest) (*dto.ReconciliationPage, error) {
	in.DefaultPage()
	list, total, err := uc.repos.Reconciliations.List(ctx, in.Status, in.Limit, in.Offset())
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReconciliationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toReconciliationResponse(r))
	}
	return &dto.ReconciliationPage{Reconciliations: out, PageResponse: dto.NewPageResponse(in.PageRequest, total)}, nil
}

// Complete genera y aplica el ajuste sintético de las líneas con diferencia y cierra la conciliación.
// Sin diferencias solo cambia el estado. Ante un fallo parcial queda in_progress y un nuevo Complete
// retoma el mismo ajuste.
func (uc *ReconciliationUseCase) Complete(ctx context.Context, id, actor string) (*dto.CompleteReconciliationResponse, error) {
	rec, err := uc.repos.Reconciliations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	if !rec.Status.CanTransition(entity.ReconciliationCompleted) {
		return nil, fmt.Errorf("%w: conciliación %s en estado %s", domain.ErrInvalidState, rec.Number, rec.Status)
	}

	adjustmentID := rec.AdjustmentID
	if adjustmentID == "" && len(rec.Discrepancies()) > 0 {
		adjustmentID, err = uc.startAdjustment(ctx, rec, actor)
		if err != nil {
			return nil, err
		}
	}

	var report *dto.ApplyReport
	if adjustmentID != "" {
		adj, err := uc.repos.Adjustments.GetByID(ctx, adjustmentID)
		if err != nil {
			return nil, err
		}
		if adj == nil {
			return nil, fmt.Errorf("%w: ajuste sintético %s", domain.ErrNotFound, adjustmentID)
		}
		report, err = uc.adjustments.applyLines(ctx, adj, entity.AdjustmentCompleted, actor)
		if err != nil {
			return nil, err
		}
		if err := finish(report); err != nil {
			uc.log.Error().Str("reconciliation", rec.Number).Int("failed", report.Count(dto.LineFailed)).Msg("conciliación aplicada en parte")
			return nil, err
		}
	}

	var completed *entity.Reconciliation
	err = uc.adjustments.engine.txRunner.Run(ctx, func(r Repositories) error {
		cur, err := r.Reconciliations.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		if err := cur.Transition(entity.ReconciliationCompleted); err != nil {
			return err
		}
		at := uc.now()
		cur.CompletedBy = actor
		cur.CompletedAt = &at
		completed = cur
		return r.Reconciliations.Update(ctx, cur)
	})
	if err != nil {
		return nil, err
	}

	out := &dto.CompleteReconciliationResponse{Reconciliation: toReconciliationResponse(completed), Report: report}
	if adjustmentID != "" {
		adj, err := uc.repos.Adjustments.GetByID(ctx, adjustmentID)
		if err != nil {
			return nil, err
		}
		if adj != nil {
			resp := toAdjustmentResponse(adj)
			out.Adjustment = &resp
		}
	}
	uc.log.Info().Str("reconciliation", completed.Number).Str("completed_by", actor).
		Int("discrepancies", completed.TotalDiscrepancies).Str("adjustment_id", adjustmentID).Msg("conciliación completada")
	uc.adjustments.engine.publish(ctx, TopicReconciliationCompleted, DocumentEvent{
		DocumentID: completed.ID,
		Number:     completed.Number,
		Status:     string(completed.Status),
		Actor:      actor,
		Lines:      completed.TotalDiscrepancies,
		OccurredAt: *completed.CompletedAt,
	})
	return out, nil
}

// startAdjustment persiste el ajuste sintético y pasa la conciliación a in_progress en una sola tx.
// Si otro proceso ya lo creó devuelve ese id.
func (uc *ReconciliationUseCase) startAdjustment(ctx context.Context, rec *entity.Reconciliation, actor string) (string, error) {
	now := uc.now()
	seq, err := uc.seq.Next(ctx, ledger.PrefixAdjustment, now.Year())
	if err != nil {
		return "", fmt.Errorf("next sequence: %w", err)
	}
	adj, err := uc.syntheticAdjustment(ctx, rec, actor, ledger.DocumentNumber(ledger.PrefixAdjustment, now.Year(), seq), now)
	if err != nil {
		return "", err
	}

	adjustmentID := adj.ID
	err = uc.adjustments.engine.txRunner.Run(ctx, func(r Repositories) error {
		cur, err := r.Reconciliations.GetForUpdate(ctx, rec.ID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		if cur.AdjustmentID != "" {
			adjustmentID = cur.AdjustmentID
			return nil
		}
		if err := cur.Transition(entity.ReconciliationInProgress); err != nil {
			return err
		}
		if err := r.Adjustments.Create(ctx, adj); err != nil {
			return err
		}
		cur.AdjustmentID = adj.ID
		return r.Reconciliations.Update(ctx, cur)
	})
	if err != nil {
		return "", err
	}
	return adjustmentID, nil
}

// syntheticAdjustment arma el ajuste de tipo reconciliation con una línea por discrepancia.
func (uc *ReconciliationUseCase) syntheticAdjustment(ctx context.Context, rec *entity.Reconciliation, actor, number string, now time.Time) (*entity.Adjustment, error) {
	var lines []entity.AdjustmentLine
	for _, l := range rec.Discrepancies() {
		unitWeight := decimal.Zero
		item, err := uc.repos.Items.GetByID(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			unitWeight = item.Weight
		}
		systemWeight := unitWeight.Mul(decimal.NewFromInt(l.SystemQuantity))
		lines = append(lines, entity.AdjustmentLine{
			LineNo:             len(lines) + 1,
			ItemID:             l.ItemID,
			ItemName:           l.ItemName,
			DesignCode:         l.DesignCode,
			MetalType:          l.MetalType,
			Purity:             l.Purity,
			SystemQuantity:     l.SystemQuantity,
			SystemWeight:       systemWeight,
			AdjustedQuantity:   l.PhysicalQuantity,
			AdjustedWeight:     unitWeight.Mul(decimal.NewFromInt(l.PhysicalQuantity)),
			QuantityDifference: l.Difference,
			WeightDifference:   unitWeight.Mul(decimal.NewFromInt(l.Difference)),
			UnitCost:           l.UnitPrice,
			ValueDifference:    l.ValueDifference,
			Reason:             string(entity.ReasonCountCorrection),
		})
	}
	adj := &entity.Adjustment{
		ID:               uuid.New().String(),
		Number:           number,
		Type:             entity.AdjustmentReconciliation,
		Reason:           entity.ReasonCountCorrection,
		Status:           entity.AdjustmentCompleted,
		Lines:            lines,
		Notes:            fmt.Sprintf("Generado automáticamente desde la conciliación %s", rec.Number),
		ReconciliationID: rec.ID,
		AdjustmentDate:   now,
		CreatedBy:        actor,
		CreatedAt:        now,
		ApprovedBy:       actor,
		ApprovedAt:       &now,
	}
	adj.ComputeTotals()
	return adj, nil
}

// Cancel abandona una conciliación en borrador.
func (uc *ReconciliationUseCase) Cancel(ctx context.Context, id, actor string) (*dto.ReconciliationResponse, error) {
	var cancelled *entity.Reconciliation
	err := uc.adjustments.engine.txRunner.Run(ctx, func(r Repositories) error {
		cur, err := r.Reconciliations.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		if err := cur.Transition(entity.ReconciliationCancelled); err != nil {
			return err
		}
		cancelled = cur
		return r.Reconciliations.Update(ctx, cur)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("reconciliation", cancelled.Number).Str("cancelled_by", actor).Msg("conciliación cancelada")
	out := toReconciliationResponse(cancelled)
	return &out, nil
}
