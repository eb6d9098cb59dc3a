package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AdjustmentFilter filtros del listado de ajustes.
type AdjustmentFilter struct {
	Status string
	Type   string
	Reason string
}

// AdjustmentRepository puerto de persistencia de ajustes y sus líneas.
type AdjustmentRepository interface {
	Create(ctx context.Context, adj *entity.Adjustment) error
	GetByID(ctx context.Context, id string) (*entity.Adjustment, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Adjustment, error)
	// UpdateStatus persiste estado, aprobador y fecha de aprobación.
	UpdateStatus(ctx context.Context, adj *entity.Adjustment) error
	MarkLineApplied(ctx context.Context, adjustmentID string, lineNo int, ledgerEntryID string, at time.Time) error
	List(ctx context.Context, filter AdjustmentFilter, limit, offset int) ([]*entity.Adjustment, int, error)
	CountByStatus(ctx context.Context, status entity.AdjustmentStatus) (int, error)
}
