package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// MovementUseCase movimientos comerciales (apertura, compra, venta, salida, devolución, traslado)
// y eliminación de ítems con su libro.
type MovementUseCase struct {
	engine *Engine
	log    zerolog.Logger
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(engine *Engine, log zerolog.Logger) *MovementUseCase {
	return &MovementUseCase{engine: engine, log: log}
}

// RegisterMovement registra un movimiento simple. El peso es peso unitario * cantidad y el costo
// unitario, si no viene, es el precio de venta del ítem.
func (uc *MovementUseCase) RegisterMovement(ctx context.Context, actor string, in dto.RegisterMovementRequest) (*dto.LedgerEntryResponse, error) {
	if in.ItemID == "" || in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	txType := entity.TransactionType(in.Type)
	inbound, err := direction(txType, in.Direction)
	if err != nil {
		return nil, err
	}

	m := Mutation{
		ItemID:          in.ItemID,
		TransactionType: txType,
		ReferenceType:   entity.ReferenceTransaction,
		ReferenceID:     in.ReferenceID,
		Notes:           in.Notes,
		Actor:           actor,
		Compute: func(item *entity.Item) (ledger.Delta, error) {
			cost := item.SellingPrice
			if in.UnitCost != nil {
				cost = *in.UnitCost
			}
			weight := item.Weight.Mul(decimal.NewFromInt(in.Quantity))
			if inbound {
				return ledger.Movement(in.Quantity, 0, weight, decimal.Zero, cost), nil
			}
			return ledger.Movement(0, in.Quantity, decimal.Zero, weight, cost), nil
		},
	}
	if txType == entity.TransactionOpening {
		m.ReferenceType = entity.ReferenceOpeningStock
		m.Guard = func(ctx context.Context, r Repositories) error {
			b, err := r.Balances.GetForUpdate(ctx, in.ItemID)
			if err != nil {
				return err
			}
			if b.Entries > 0 {
				return fmt.Errorf("%w: el ítem ya tiene movimientos, no admite existencia inicial", domain.ErrConflict)
			}
			return nil
		}
	}

	entry, err := uc.engine.Apply(ctx, m)
	if err != nil {
		return nil, err
	}
	out := toEntryResponse(entry)
	return &out, nil
}

// direction indica si el movimiento es de entrada.
func direction(t entity.TransactionType, dir string) (bool, error) {
	switch t {
	case entity.TransactionOpening, entity.TransactionPurchase, entity.TransactionReturn:
		return true, nil
	case entity.TransactionSale, entity.TransactionIssue:
		return false, nil
	case entity.TransactionTransfer:
		switch dir {
		case "in":
			return true, nil
		case "out":
			return false, nil
		}
		return false, fmt.Errorf("%w: traslado requiere dirección in|out", domain.ErrInvalidInput)
	}
	return false, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, t)
}

// RecordInvoiceSale descuenta la existencia de cada línea de una factura. Costo unitario = subtotal / cantidad.
// Las líneas sin existencia suficiente o con ítem inexistente se omiten y se reportan.
func (uc *MovementUseCase) RecordInvoiceSale(ctx context.Context, actor string, in dto.InvoiceSaleRequest) (*dto.ApplyReport, error) {
	if in.InvoiceID == "" || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, l := range in.Lines {
		if l.ItemID == "" || l.Quantity <= 0 || l.Subtotal.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
	}

	report := &dto.ApplyReport{DocumentID: in.InvoiceID}
	for i, l := range in.Lines {
		line := l
		res := dto.LineResult{LineNo: i + 1, ItemID: line.ItemID}
		entry, err := uc.engine.Apply(ctx, Mutation{
			ItemID:          line.ItemID,
			TransactionType: entity.TransactionSale,
			ReferenceType:   entity.ReferenceInvoice,
			ReferenceID:     in.InvoiceID,
			Actor:           actor,
			Compute: func(item *entity.Item) (ledger.Delta, error) {
				cost := item.SellingPrice
				if !line.Subtotal.IsZero() {
					cost = line.Subtotal.Div(decimal.NewFromInt(line.Quantity))
				}
				weight := item.Weight.Mul(decimal.NewFromInt(line.Quantity))
				return ledger.Movement(0, line.Quantity, decimal.Zero, weight, cost), nil
			},
		})
		switch {
		case err == nil:
			res.Status = dto.LineApplied
			res.LedgerEntryID = entry.ID
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInsufficientStock):
			res.Status = dto.LineSkipped
			res.Error = err.Error()
		default:
			res.Status = dto.LineFailed
			res.Error = err.Error()
		}
		report.Lines = append(report.Lines, res)
	}
	if skipped := report.Count(dto.LineSkipped); skipped > 0 {
		uc.log.Warn().Str("invoice_id", in.InvoiceID).Int("skipped", skipped).Msg("líneas de factura sin descontar")
	}
	return report, finish(report)
}

// PurgeItem elimina el ítem junto con su saldo y todos sus asientos (única baja permitida del libro).
func (uc *MovementUseCase) PurgeItem(ctx context.Context, itemID string) error {
	e := uc.engine
	unlock, err := e.locker.Lock(ctx, LockKey(itemID))
	if err != nil {
		return err
	}
	defer unlock()

	return e.txRunner.Run(ctx, func(r Repositories) error {
		item, err := r.Items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if err := r.Ledger.DeleteByItem(ctx, itemID); err != nil {
			return fmt.Errorf("delete ledger: %w", err)
		}
		if err := r.Balances.Delete(ctx, itemID); err != nil {
			return fmt.Errorf("delete balance: %w", err)
		}
		if err := r.Items.Delete(ctx, itemID); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		uc.log.Info().Str("item_id", itemID).Str("design_code", item.DesignCode).Msg("ítem eliminado con su libro")
		return nil
	})
}
