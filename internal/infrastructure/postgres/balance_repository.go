package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo saldo materializado por ítem (stock_balances).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

func (r *BalanceRepo) get(ctx context.Context, query, itemID string) (*entity.StockBalance, error) {
	var b entity.StockBalance
	err := r.q.QueryRow(ctx, query, itemID).Scan(
		&b.ItemID, &b.Quantity, &b.Weight, &b.Value, &b.Entries, &b.LastEntryID, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{ItemID: itemID, Weight: decimal.Zero, Value: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &b, nil
}

// Get obtiene el saldo; en cero si el ítem no tiene asientos.
func (r *BalanceRepo) Get(ctx context.Context, itemID string) (*entity.StockBalance, error) {
	return r.get(ctx, `
		SELECT item_id, quantity, weight, value, entries, last_entry_id, updated_at
		FROM stock_balances WHERE item_id = $1`, itemID)
}

// GetForUpdate obtiene el saldo y bloquea la fila (SELECT FOR UPDATE).
func (r *BalanceRepo) GetForUpdate(ctx context.Context, itemID string) (*entity.StockBalance, error) {
	return r.get(ctx, `
		SELECT item_id, quantity, weight, value, entries, last_entry_id, updated_at
		FROM stock_balances WHERE item_id = $1
		FOR UPDATE`, itemID)
}

// Save inserta o actualiza el saldo.
func (r *BalanceRepo) Save(ctx context.Context, b *entity.StockBalance) error {
	query := `
		INSERT INTO stock_balances (item_id, quantity, weight, value, entries, last_entry_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (item_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, weight = EXCLUDED.weight, value = EXCLUDED.value,
			entries = EXCLUDED.entries, last_entry_id = EXCLUDED.last_entry_id, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, b.ItemID, b.Quantity, b.Weight, b.Value, b.Entries, b.LastEntryID, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}
	return nil
}

// Delete elimina el saldo del ítem.
func (r *BalanceRepo) Delete(ctx context.Context, itemID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_balances WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("delete balance: %w", err)
	}
	return nil
}
