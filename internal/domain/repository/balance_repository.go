package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BalanceRepository puerto para el saldo materializado por ítem.
// Get y GetForUpdate devuelven un saldo en cero si el ítem aún no tiene asientos.
type BalanceRepository interface {
	Get(ctx context.Context, itemID string) (*entity.StockBalance, error)
	GetForUpdate(ctx context.Context, itemID string) (*entity.StockBalance, error)
	Save(ctx context.Context, balance *entity.StockBalance) error
	Delete(ctx context.Context, itemID string) error
}
