package stock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

const actor = "user-1"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

// flakyLocker falla para las claves marcadas y ejecuta una vez el gancho registrado antes de bloquear.
type flakyLocker struct {
	inner *lock.KeyedMutex
	mu    sync.Mutex
	fail  map[string]bool
	hooks map[string]func()
}

func (l *flakyLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	fail := l.fail[key]
	hook := l.hooks[key]
	delete(l.hooks, key)
	l.mu.Unlock()
	if hook != nil {
		hook()
	}
	if fail {
		return nil, domain.ErrLockNotObtained
	}
	return l.inner.Lock(ctx, key)
}

func (l *flakyLocker) beforeLock(itemID string, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks[stock.LockKey(itemID)] = fn
}

func (l *flakyLocker) setFail(itemID string, fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail[stock.LockKey(itemID)] = fail
}

type fixture struct {
	store       *memory.Store
	repos       stock.Repositories
	locker      *flakyLocker
	pub         *recordingPublisher
	movements   *stock.MovementUseCase
	adjustments *stock.AdjustmentUseCase
	recs        *stock.ReconciliationUseCase
	ledger      *stock.LedgerUseCase
	reports     *stock.ReportUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	repos := store.Repositories()
	locker := &flakyLocker{inner: lock.NewKeyedMutex(), fail: map[string]bool{}, hooks: map[string]func(){}}
	pub := &recordingPublisher{}
	engine := stock.NewEngine(store, locker, pub, log)
	adjustments := stock.NewAdjustmentUseCase(engine, repos, store, log)
	return &fixture{
		store:       store,
		repos:       repos,
		locker:      locker,
		pub:         pub,
		movements:   stock.NewMovementUseCase(engine, log),
		adjustments: adjustments,
		recs:        stock.NewReconciliationUseCase(adjustments, repos, store, log),
		ledger:      stock.NewLedgerUseCase(repos, log),
		reports:     stock.NewReportUseCase(repos, nil, nil, 5, log),
	}
}

// seedItem crea un ítem en cero y registra la existencia inicial como apertura.
func (f *fixture) seedItem(t *testing.T, name, metal, purity string, qty int64, weight, price string) *entity.Item {
	t.Helper()
	ctx := context.Background()
	item := &entity.Item{
		ID:           uuid.New().String(),
		Name:         name,
		DesignCode:   "DC-" + name,
		MetalType:    metal,
		Purity:       purity,
		Weight:       dec(weight),
		SellingPrice: dec(price),
		Status:       "active",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.repos.Items.Create(ctx, item))
	if qty > 0 {
		_, err := f.movements.RegisterMovement(ctx, actor, dto.RegisterMovementRequest{
			ItemID: item.ID, Type: string(entity.TransactionOpening), Quantity: qty,
		})
		require.NoError(t, err)
	}
	return f.item(t, item.ID)
}

func (f *fixture) item(t *testing.T, id string) *entity.Item {
	t.Helper()
	it, err := f.repos.Items.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, it)
	return it
}

func (f *fixture) entries(t *testing.T, itemID string) []*entity.LedgerEntry {
	t.Helper()
	out, err := f.repos.Ledger.ListByItem(context.Background(), itemID)
	require.NoError(t, err)
	return out
}

// requireConsistent comprueba existencia == Σ(entrada - salida) y la cadena de saldos.
func (f *fixture) requireConsistent(t *testing.T, itemID string) {
	t.Helper()
	var sum int64
	for _, e := range f.entries(t, itemID) {
		sum += e.QuantityIn - e.QuantityOut
	}
	require.Equal(t, f.item(t, itemID).Quantity, sum)
	report, err := f.ledger.Verify(context.Background(), itemID)
	require.NoError(t, err)
	require.True(t, report.Valid, "cadena inválida: %+v", report)
}

func ptrDec(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func ptrInt(v int64) *int64 { return &v }
