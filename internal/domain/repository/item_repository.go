package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ItemFilter filtros para listar ítems (reportes de valuación y resumen).
type ItemFilter struct {
	MetalType  string
	Purity     string
	CategoryID string
}

// ItemRepository puerto hacia el registro de ítems (colaborador externo).
// Los Get devuelven (nil, nil) cuando el ítem no existe.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// GetForUpdate bloquea la fila del ítem hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Item, error)
	SetQuantity(ctx context.Context, id string, quantity int64) error
	FindByDesignCode(ctx context.Context, designCode string) (*entity.Item, error)
	FindByNameCaseInsensitive(ctx context.Context, name string) (*entity.Item, error)
	List(ctx context.Context, filter ItemFilter) ([]*entity.Item, error)
	Delete(ctx context.Context, id string) error
}
