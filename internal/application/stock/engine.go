package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// Mutation cambio de existencia sobre un ítem. Ventas, devoluciones, aperturas, ajustes y
// conciliaciones pasan todos por Engine.Apply.
type Mutation struct {
	ItemID          string
	TransactionType entity.TransactionType
	ReferenceType   entity.ReferenceType
	ReferenceID     string
	Notes           string
	Actor           string

	// Guard valida precondiciones del documento dentro de la tx, antes de tocar el ítem.
	Guard func(ctx context.Context, r Repositories) error
	// Compute arma el delta a partir de la ficha ya bloqueada.
	Compute func(item *entity.Item) (ledger.Delta, error)
	// OnApplied corre en la misma tx después del asiento; entry es nil si el delta fue cero.
	OnApplied func(ctx context.Context, r Repositories, entry *entity.LedgerEntry) error
}

// Engine aplica deltas de existencia: bloqueo por ítem, una transacción por mutación
// (registro + saldo + libro) y evento después del commit.
type Engine struct {
	txRunner  TxRunner
	locker    Locker
	publisher EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewEngine construye el motor.
func NewEngine(txRunner TxRunner, locker Locker, publisher EventPublisher, log zerolog.Logger) *Engine {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Engine{
		txRunner:  txRunner,
		locker:    locker,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LockKey clave de bloqueo de un ítem.
func LockKey(itemID string) string {
	return "stock:item:" + itemID
}

// Apply ejecuta la mutación de forma atómica. Devuelve el asiento creado o nil si el delta fue cero.
// Si la existencia resultante fuese negativa falla con ErrInsufficientStock y no muta nada.
func (e *Engine) Apply(ctx context.Context, m Mutation) (*entity.LedgerEntry, error) {
	if m.ItemID == "" || m.Compute == nil {
		return nil, domain.ErrInvalidInput
	}
	unlock, err := e.locker.Lock(ctx, LockKey(m.ItemID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var entry *entity.LedgerEntry
	err = e.txRunner.Run(ctx, func(r Repositories) error {
		entry = nil
		if m.Guard != nil {
			if err := m.Guard(ctx, r); err != nil {
				return err
			}
		}
		item, err := r.Items.GetForUpdate(ctx, m.ItemID)
		if err != nil {
			return fmt.Errorf("get item: %w", err)
		}
		if !item.HasIdentity() {
			return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, m.ItemID)
		}

		delta, err := m.Compute(item)
		if err != nil {
			return err
		}
		if delta.IsZero() {
			if m.OnApplied != nil {
				return m.OnApplied(ctx, r, nil)
			}
			return nil
		}
		if err := delta.Validate(); err != nil {
			return err
		}
		quantity := item.Quantity + delta.NetQuantity()
		if quantity < 0 {
			return fmt.Errorf("%w: ítem %s tiene %d, movimiento de %d", domain.ErrInsufficientStock, item.DesignCode, item.Quantity, delta.NetQuantity())
		}

		prev, err := r.Balances.GetForUpdate(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("get balance: %w", err)
		}
		next := ledger.Next(ledger.FromStock(prev), delta)
		now := e.now()
		entry = newEntry(item, m, delta, next, now)
		if err := r.Ledger.Append(ctx, entry); err != nil {
			return fmt.Errorf("append ledger: %w", err)
		}
		if err := r.Items.SetQuantity(ctx, item.ID, quantity); err != nil {
			return fmt.Errorf("set quantity: %w", err)
		}
		if err := r.Balances.Save(ctx, &entity.StockBalance{
			ItemID:      item.ID,
			Quantity:    next.Quantity,
			Weight:      next.Weight,
			Value:       next.Value,
			Entries:     next.Entries,
			LastEntryID: entry.ID,
			UpdatedAt:   now,
		}); err != nil {
			return fmt.Errorf("save balance: %w", err)
		}
		if next.Quantity != quantity {
			e.log.Warn().Str("item_id", item.ID).Int64("registry", quantity).Int64("ledger", next.Quantity).
				Msg("saldo del libro distinto a la existencia del registro")
		}
		if m.OnApplied != nil {
			return m.OnApplied(ctx, r, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if entry != nil {
		e.publish(ctx, TopicEntryAppended, EntryAppendedEvent{
			EntryID:         entry.ID,
			ItemID:          entry.ItemID,
			TransactionType: string(entry.TransactionType),
			ReferenceType:   string(entry.ReferenceType),
			ReferenceID:     entry.ReferenceID,
			QuantityIn:      entry.QuantityIn,
			QuantityOut:     entry.QuantityOut,
			RunningQuantity: entry.RunningQuantity,
			RunningValue:    entry.RunningValue,
			Sequence:        entry.Sequence,
			OccurredAt:      entry.CreatedAt,
		})
	}
	return entry, nil
}

// publish no propaga errores: el commit ya ocurrió.
func (e *Engine) publish(ctx context.Context, topic string, event any) {
	if err := e.publisher.Publish(ctx, topic, event); err != nil {
		e.log.Error().Err(err).Str("topic", topic).Msg("no se pudo publicar el evento")
	}
}

func newEntry(item *entity.Item, m Mutation, d ledger.Delta, next ledger.Balance, now time.Time) *entity.LedgerEntry {
	return &entity.LedgerEntry{
		ID:              uuid.New().String(),
		ItemID:          item.ID,
		ItemName:        item.Name,
		DesignCode:      item.DesignCode,
		MetalType:       item.MetalType,
		Purity:          item.Purity,
		TransactionType: m.TransactionType,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
		QuantityIn:      d.QuantityIn,
		QuantityOut:     d.QuantityOut,
		WeightIn:        d.WeightIn,
		WeightOut:       d.WeightOut,
		UnitCost:        d.UnitCost,
		TotalValue:      d.TotalValue,
		RunningQuantity: next.Quantity,
		RunningWeight:   next.Weight,
		RunningValue:    next.Value,
		ValuationMethod: entity.ValuationWeightedAverage,
		Notes:           m.Notes,
		Sequence:        next.Entries,
		CreatedBy:       m.Actor,
		CreatedAt:       now,
	}
}
