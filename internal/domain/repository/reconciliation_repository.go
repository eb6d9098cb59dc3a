package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReconciliationRepository puerto de persistencia de conciliaciones.
type ReconciliationRepository interface {
	Create(ctx context.Context, rec *entity.Reconciliation) error
	GetByID(ctx context.Context, id string) (*entity.Reconciliation, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Reconciliation, error)
	// Update persiste estado, ajuste sintético y datos de cierre (las líneas no cambian).
	Update(ctx context.Context, rec *entity.Reconciliation) error
	List(ctx context.Context, status string, limit, offset int) ([]*entity.Reconciliation, int, error)
}
