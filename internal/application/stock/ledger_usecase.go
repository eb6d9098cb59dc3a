package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// LedgerUseCase consultas y auditoría del libro de existencias.
type LedgerUseCase struct {
	repos Repositories
	log   zerolog.Logger
}

// NewLedgerUseCase construye el caso de uso con repositorios fuera de transacción.
func NewLedgerUseCase(repos Repositories, log zerolog.Logger) *LedgerUseCase {
	return &LedgerUseCase{repos: repos, log: log}
}

// Query devuelve asientos paginados por fecha de creación descendente.
func (uc *LedgerUseCase) Query(ctx context.Context, q dto.LedgerQuery) (*dto.LedgerPage, error) {
	q.DefaultPage()
	if q.TransactionType != "" && !entity.TransactionType(q.TransactionType).Valid() {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, q.TransactionType)
	}
	from, err := parseDate(q.StartDate, false)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(q.EndDate, true)
	if err != nil {
		return nil, err
	}
	filter := repository.LedgerFilter{
		ItemID:          q.ItemID,
		MetalType:       q.MetalType,
		Purity:          q.Purity,
		TransactionType: q.TransactionType,
		From:            from,
		To:              to,
	}
	entries, total, err := uc.repos.Ledger.Query(ctx, filter, q.Limit, q.Offset())
	if err != nil {
		return nil, err
	}
	return &dto.LedgerPage{
		Entries:      toEntryResponses(entries),
		PageResponse: dto.NewPageResponse(q.PageRequest, total),
	}, nil
}

// History devuelve la cadena completa del ítem en orden ascendente.
func (uc *LedgerUseCase) History(ctx context.Context, itemID string) (*dto.ItemHistory, error) {
	item, err := uc.repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	entries, err := uc.repos.Ledger.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &dto.ItemHistory{
		Item:         toItemResponse(item),
		Entries:      toEntryResponses(entries),
		TotalEntries: len(entries),
	}, nil
}

// Verify recalcula la cadena del ítem y la contrasta con el registro y el saldo materializado.
func (uc *LedgerUseCase) Verify(ctx context.Context, itemID string) (*dto.ChainReport, error) {
	item, err := uc.repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	entries, err := uc.repos.Ledger.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	balance, err := uc.repos.Balances.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}

	report := &dto.ChainReport{
		ItemID:           itemID,
		Entries:          len(entries),
		RegistryQuantity: item.Quantity,
		BalanceQuantity:  balance.Quantity,
	}
	final, err := ledger.Verify(entries)
	var chainErr *ledger.ChainError
	switch {
	case errors.As(err, &chainErr):
		report.Break = &dto.ChainBreak{
			Index:    chainErr.Index,
			EntryID:  chainErr.EntryID,
			Field:    chainErr.Field,
			Expected: chainErr.Expected,
			Got:      chainErr.Got,
		}
	case err != nil:
		return nil, err
	}
	report.LedgerQuantity = final.Quantity
	report.LedgerWeight = final.Weight
	report.QuantityMismatch = final.Quantity != item.Quantity || balance.Quantity != item.Quantity
	report.Valid = report.Break == nil && !report.QuantityMismatch
	if !report.Valid {
		uc.log.Warn().Str("item_id", itemID).Bool("chain_broken", report.Break != nil).
			Int64("registry", item.Quantity).Int64("ledger", final.Quantity).Msg("cadena del libro inconsistente")
	}
	return report, nil
}

// VerifyAll verifica todos los ítems del registro.
func (uc *LedgerUseCase) VerifyAll(ctx context.Context) ([]dto.ChainReport, error) {
	items, err := uc.repos.Items.List(ctx, repository.ItemFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ChainReport, 0, len(items))
	for _, it := range items {
		r, err := uc.Verify(ctx, it.ID)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", it.ID, err)
		}
		out = append(out, *r)
	}
	return out, nil
}
