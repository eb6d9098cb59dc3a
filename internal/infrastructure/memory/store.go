// Package memory implementa los puertos del núcleo en memoria: modo de desarrollo (LEDGER_STORE=memory)
// y doble de pruebas. Las transacciones trabajan sobre una copia del estado que se publica al confirmar.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ stock.TxRunner = (*Store)(nil)

type state struct {
	items           map[string]*entity.Item
	balances        map[string]*entity.StockBalance
	ledger          []*entity.LedgerEntry // orden de inserción; los asientos no se modifican
	adjustments     map[string]*entity.Adjustment
	reconciliations map[string]*entity.Reconciliation
}

func newState() *state {
	return &state{
		items:           map[string]*entity.Item{},
		balances:        map[string]*entity.StockBalance{},
		adjustments:     map[string]*entity.Adjustment{},
		reconciliations: map[string]*entity.Reconciliation{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.items {
		it := *v
		c.items[k] = &it
	}
	for k, v := range s.balances {
		b := *v
		c.balances[k] = &b
	}
	c.ledger = make([]*entity.LedgerEntry, len(s.ledger))
	copy(c.ledger, s.ledger)
	for k, v := range s.adjustments {
		c.adjustments[k] = v.Clone()
	}
	for k, v := range s.reconciliations {
		c.reconciliations[k] = v.Clone()
	}
	return c
}

// accessor da acceso al estado: directo dentro de una tx, con bloqueos fuera de ella.
type accessor interface {
	view(fn func(*state) error) error
	update(fn func(*state) error) error
}

// Store estado compartido. txMu serializa transacciones y escrituras sueltas; mu protege el puntero al estado.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   *state

	seqMu sync.Mutex
	seq   map[string]int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState(), seq: map[string]int64{}}
}

func (s *Store) view(fn func(*state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

func (s *Store) update(fn func(*state) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// Repositories repositorios fuera de transacción.
func (s *Store) Repositories() stock.Repositories {
	return repositoriesFor(s)
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn no falla y el contexto sigue vivo.
func (s *Store) Run(ctx context.Context, fn func(r stock.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.st.clone()
	s.mu.RUnlock()

	if err := fn(repositoriesFor(txAccessor{st: work})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

type txAccessor struct {
	st *state
}

func (t txAccessor) view(fn func(*state) error) error   { return fn(t.st) }
func (t txAccessor) update(fn func(*state) error) error { return fn(t.st) }

func repositoriesFor(a accessor) stock.Repositories {
	return stock.Repositories{
		Items:           &ItemRepository{a: a},
		Balances:        &BalanceRepository{a: a},
		Ledger:          &LedgerRepository{a: a},
		Adjustments:     &AdjustmentRepository{a: a},
		Reconciliations: &ReconciliationRepository{a: a},
	}
}

// Next entrega el siguiente número de la secuencia (prefijo, año).
func (s *Store) Next(ctx context.Context, prefix string, year int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	key := fmt.Sprintf("%s:%d", prefix, year)
	s.seq[key]++
	return s.seq[key], nil
}
