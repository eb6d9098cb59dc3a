package stock

import (
	"context"
	"io"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Repositories agrupa los repositorios del núcleo. Dentro de TxRunner.Run todos están atados a la misma tx.
type Repositories struct {
	Items           repository.ItemRepository
	Balances        repository.BalanceRepository
	Ledger          repository.LedgerRepository
	Adjustments     repository.AdjustmentRepository
	Reconciliations repository.ReconciliationRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso (incluida la cancelación del contexto).
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repositories) error) error
}

// Locker serializa las mutaciones por ítem (en proceso o distribuido).
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// EventPublisher publica eventos de dominio después del commit.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// ValuationExporter genera el PDF del reporte de valuación.
type ValuationExporter interface {
	WriteValuation(w io.Writer, report *dto.ValuationReport) error
}

// MovementExporter genera la planilla XLSX del reporte de movimientos.
type MovementExporter interface {
	WriteMovements(w io.Writer, report *dto.MovementReport) error
}
