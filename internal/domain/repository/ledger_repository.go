package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LedgerFilter filtros de consulta del libro; los campos vacíos no filtran.
type LedgerFilter struct {
	ItemID          string
	MetalType       string
	Purity          string
	TransactionType string
	From            *time.Time
	To              *time.Time
}

// LedgerRepository puerto del libro de existencias (solo inserción).
type LedgerRepository interface {
	Append(ctx context.Context, entry *entity.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error)
	// Query devuelve la página (created_at DESC) y el total que cumple el filtro.
	Query(ctx context.Context, filter LedgerFilter, limit, offset int) ([]*entity.LedgerEntry, int, error)
	// ListByItem devuelve la cadena completa del ítem en orden ascendente.
	ListByItem(ctx context.Context, itemID string) ([]*entity.LedgerEntry, error)
	ListInRange(ctx context.Context, from, to time.Time, metalType string) ([]*entity.LedgerEntry, error)
	// DeleteByItem solo se usa en la eliminación en cascada del ítem.
	DeleteByItem(ctx context.Context, itemID string) error
}
