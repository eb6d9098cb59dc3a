package stock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestValuation_AgrupaPorMetalYPureza(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "anillo", "gold", "22K", 3, "2.333", "100.005")
	f.seedItem(t, "collar", "gold", "18K", 2, "10", "500")
	f.seedItem(t, "arete", "silver", "925", 0, "1", "20")

	report, err := f.reports.Valuation(context.Background(), dto.ValuationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.TotalItems)
	assert.Equal(t, int64(5), report.Summary.TotalQuantity)
	assert.True(t, report.Summary.TotalWeight.Equal(dec("27")), report.Summary.TotalWeight.String())
	assert.True(t, report.Summary.TotalValue.Equal(dec("1300.02")), report.Summary.TotalValue.String())
	assert.Equal(t, entity.ValuationWeightedAverage, report.Summary.ValuationMethod)

	require.Contains(t, report.ByMetal, "gold")
	assert.Equal(t, int64(5), report.ByMetal["gold"].Quantity)
	assert.Equal(t, 2, report.ByMetal["gold"].Count)
	assert.Equal(t, int64(0), report.ByMetal["silver"].Quantity)
	assert.Equal(t, int64(2), report.ByPurity["18K"].Quantity)
	assert.Len(t, report.Items, 3)

	gold, err := f.reports.Valuation(context.Background(), dto.ValuationFilter{MetalType: "gold", Purity: "22K"})
	require.NoError(t, err)
	require.Len(t, gold.Items, 1)
	assert.True(t, gold.Items[0].TotalWeight.Equal(dec("6.999")))
}

func TestMovementReport_SumaPorTipo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.seedItem(t, "anillo", "gold", "22K", 10, "2", "100")
	f.seedItem(t, "arete", "silver", "925", 4, "1", "20")
	_, err := f.movements.RegisterMovement(ctx, actor, dto.RegisterMovementRequest{ItemID: it.ID, Type: "sale", Quantity: 3})
	require.NoError(t, err)
	_, err = f.movements.RegisterMovement(ctx, actor, dto.RegisterMovementRequest{ItemID: it.ID, Type: "return", Quantity: 1})
	require.NoError(t, err)

	now := time.Now().UTC()
	report, err := f.reports.Movement(ctx, dto.MovementReportRequest{
		StartDate: now.Add(-time.Hour).Format(time.RFC3339),
		EndDate:   now.Add(time.Hour).Format(time.RFC3339),
		MetalType: "gold",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.TotalEntries)
	assert.Equal(t, int64(11), report.Summary.QuantityIn)
	assert.Equal(t, int64(3), report.Summary.QuantityOut)
	assert.Equal(t, int64(8), report.Summary.NetQuantity)
	assert.True(t, report.Summary.WeightIn.Equal(dec("22")))
	assert.True(t, report.Summary.NetValue.Equal(dec("800")))
	require.Contains(t, report.ByTransactionType, "sale")
	assert.Equal(t, 1, report.ByTransactionType["sale"].Count)
	assert.True(t, report.ByTransactionType["sale"].Value.Equal(dec("300")))
	assert.Equal(t, int64(10), report.ByTransactionType["opening"].QuantityIn)

	_, err = f.reports.Movement(ctx, dto.MovementReportRequest{StartDate: "2026-02-10", EndDate: "2026-01-01"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.reports.Movement(ctx, dto.MovementReportRequest{StartDate: "ayer", EndDate: "2026-01-01"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSummary_AlertasYRecientes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seedItem(t, "anillo", "gold", "22K", 10, "2", "100")
	f.seedItem(t, "collar", "gold", "18K", 5, "3", "200")
	f.seedItem(t, "arete", "silver", "925", 0, "1", "20")
	for i := 0; i < 6; i++ {
		_, err := f.adjustments.Create(ctx, actor, decreaseDamage(a.ID))
		require.NoError(t, err)
	}

	s, err := f.reports.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Overview.TotalItems)
	assert.Equal(t, int64(15), s.Overview.TotalQuantity)
	assert.True(t, s.Overview.TotalValue.Equal(dec("2000")))
	assert.Equal(t, 2, s.Alerts.LowStock)
	assert.Equal(t, 1, s.Alerts.OutOfStock)
	assert.Equal(t, 6, s.Alerts.PendingAdjustments)
	assert.Len(t, s.LowStockItems, 2)
	assert.Len(t, s.RecentAdjustments, 5)
	assert.Equal(t, 2, s.ByMetal["gold"].Count)
}

func TestLedgerQuery_PaginaYFiltra(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.seedItem(t, "anillo", "gold", "22K", 10, "2", "100")
	f.seedItem(t, "arete", "silver", "925", 4, "1", "20")
	for i := 0; i < 4; i++ {
		_, err := f.movements.RegisterMovement(ctx, actor, dto.RegisterMovementRequest{ItemID: it.ID, Type: "sale", Quantity: 1})
		require.NoError(t, err)
	}

	page, err := f.ledger.Query(ctx, dto.LedgerQuery{ItemID: it.ID, PageRequest: dto.PageRequest{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, int64(5), page.Entries[0].Sequence, "orden descendente")

	sales, err := f.ledger.Query(ctx, dto.LedgerQuery{TransactionType: "sale", PageRequest: dto.PageRequest{Limit: 500}})
	require.NoError(t, err)
	assert.Equal(t, 4, sales.Total)
	assert.Equal(t, 100, sales.Limit)

	silver, err := f.ledger.Query(ctx, dto.LedgerQuery{MetalType: "silver"})
	require.NoError(t, err)
	assert.Equal(t, 1, silver.Total)

	_, err = f.ledger.Query(ctx, dto.LedgerQuery{TransactionType: "gift"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	hist, err := f.ledger.History(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, hist.TotalEntries)
	assert.Equal(t, int64(1), hist.Entries[0].Sequence)

	_, err = f.ledger.History(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerVerify_DetectaDesajusteConRegistro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.seedItem(t, "anillo", "gold", "22K", 10, "2", "100")

	require.NoError(t, f.repos.Items.SetQuantity(ctx, it.ID, 12))
	report, err := f.ledger.Verify(ctx, it.ID)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.True(t, report.QuantityMismatch)
	assert.Nil(t, report.Break)
	assert.Equal(t, int64(10), report.LedgerQuantity)

	all, err := f.ledger.VerifyAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
