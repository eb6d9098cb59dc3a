package stock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestReconciliation_CompletarAjustaExistencia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.seedItem(t, "anillo", "gold", "22K", 7, "2", "100")
	other := f.seedItem(t, "collar", "silver", "925", 3, "4", "60")

	created, err := f.recs.Create(ctx, actor, dto.CreateReconciliationRequest{
		Lines: []dto.ReconciliationLineRequest{
			{ItemID: it.ID, PhysicalQuantity: 5},
			{ItemID: other.ID, PhysicalQuantity: 3},
		},
	})
	require.NoError(t, err)
	rec := created.Reconciliation
	assert.Equal(t, string(entity.ReconciliationDraft), rec.Status)
	assert.Regexp(t, `^REC-\d{4}-00001$`, rec.Number)
	assert.Equal(t, 2, rec.TotalItemsCounted)
	assert.Equal(t, 1, rec.TotalDiscrepancies)
	assert.True(t, rec.TotalValueDiscrepancy.Equal(dec("200")))
	assert.Equal(t, int64(-2), rec.Lines[0].Difference)
	assert.True(t, rec.Lines[0].ValueDifference.Equal(dec("-200")))

	res, err := f.recs.Complete(ctx, rec.ID, "auditor")
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReconciliationCompleted), res.Reconciliation.Status)
	assert.Equal(t, "auditor", res.Reconciliation.CompletedBy)
	require.NotNil(t, res.Adjustment)
	assert.Equal(t, string(entity.AdjustmentReconciliation), res.Adjustment.Type)
	assert.Equal(t, string(entity.ReasonCountCorrection), res.Adjustment.Reason)
	assert.Equal(t, string(entity.AdjustmentCompleted), res.Adjustment.Status)
	assert.Equal(t, "auditor", res.Adjustment.ApprovedBy)
	assert.Equal(t, rec.ID, res.Adjustment.ReconciliationID)
	assert.Equal(t, res.Adjustment.ID, res.Reconciliation.AdjustmentID)
	require.Len(t, res.Adjustment.Lines, 1, "las líneas sin diferencia no generan ajuste")
	assert.Contains(t, res.Adjustment.Notes, rec.Number)

	assert.Equal(t, int64(5), f.item(t, it.ID).Quantity)
	entries := f.entries(t, it.ID)
	last := entries[len(entries)-1]
	assert.Equal(t, int64(5), last.RunningQuantity)
	assert.Equal(t, int64(2), last.QuantityOut)
	assert.True(t, last.WeightOut.Equal(dec("4")))
	assert.Equal(t, entity.ReferenceReconciliation, last.ReferenceType)
	assert.Equal(t, rec.ID, last.ReferenceID)
	assert.Len(t, f.entries(t, other.ID), 1)
	assert.Equal(t, 1, f.pub.count(stock.TopicReconciliationCompleted))
	f.requireConsistent(t, it.ID)

	_, err = f.recs.Complete(ctx, rec.ID, "auditor")
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, int64(5), f.item(t, it.ID).Quantity)
}

func TestReconciliation_SinDiferenciasEsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.seedItem(t, "anillo", "gold", "22K", 7, "2", "100")

	created, err := f.recs.Create(ctx, actor, dto.CreateReconciliationRequest{
		Lines: []dto.ReconciliationLineRequest{{ItemID: it.ID, PhysicalQuantity: 7}},
	})
	require.NoError(t, err)

	res, err := f.recs.Complete(ctx, created.Reconciliation.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReconciliationCompleted), res.Reconciliation.Status)
	assert.Nil(t, res.Adjustment)
	assert.Empty(t, res.Reconciliation.AdjustmentID)
	assert.Len(t, f.entries(t, it.ID), 1)

	page, err := f.adjustments.List(ctx, dto.AdjustmentListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}

func TestReconciliation_OmiteItemsInexistentes(t *testing.T) {
	f := newFixture(t)
	it := f.seedItem(t, "anillo", "gold", "22K", 7, "2", "100")

	created, err := f.recs.Create(context.Background(), actor, dto.CreateReconciliationRequest{
		Lines: []dto.ReconciliationLineRequest{
			{ItemID: "ghost", PhysicalQuantity: 3},
			{ItemID: it.ID, PhysicalQuantity: 8},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, created.SkippedItemIDs)
	require.Len(t, created.Reconciliation.Lines, 1)
	assert.Equal(t, 1, created.Reconciliation.Lines[0].LineNo)
	assert.Equal(t, int64(1), created.Reconciliation.Lines[0].Difference)
}

func TestReconciliation_CanceladaNoSeCompleta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.seedItem(t, "anillo", "gold", "22K", 7, "2", "100")
	created, err := f.recs.Create(ctx, actor, dto.CreateReconciliationRequest{
		Lines: []dto.ReconciliationLineRequest{{ItemID: it.ID, PhysicalQuantity: 1}},
	})
	require.NoError(t, err)

	cancelled, err := f.recs.Cancel(ctx, created.Reconciliation.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReconciliationCancelled), cancelled.Status)

	_, err = f.recs.Complete(ctx, created.Reconciliation.ID, actor)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, int64(7), f.item(t, it.ID).Quantity)

	_, err = f.recs.Complete(ctx, "missing", actor)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconciliation_FalloParcialQuedaEnProgresoYSeRetoma(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.seedItem(t, "anillo", "gold", "22K", 7, "2", "100")
	b := f.seedItem(t, "collar", "gold", "18K", 4, "6", "400")

	created, err := f.recs.Create(ctx, actor, dto.CreateReconciliationRequest{
		Lines: []dto.ReconciliationLineRequest{
			{ItemID: a.ID, PhysicalQuantity: 5},
			{ItemID: b.ID, PhysicalQuantity: 6},
		},
	})
	require.NoError(t, err)
	id := created.Reconciliation.ID

	f.locker.setFail(b.ID, true)
	_, err = f.recs.Complete(ctx, id, actor)
	var partial *stock.PartialApplyError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Report.Count(dto.LineApplied))
	assert.Equal(t, 1, partial.Report.Count(dto.LineFailed))

	rec, err := f.recs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReconciliationInProgress), rec.Status)
	require.NotEmpty(t, rec.AdjustmentID)

	_, err = f.recs.Cancel(ctx, id, actor)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	f.locker.setFail(b.ID, false)
	res, err := f.recs.Complete(ctx, id, actor)
	require.NoError(t, err)
	assert.Equal(t, rec.AdjustmentID, res.Adjustment.ID)
	assert.Equal(t, int64(5), f.item(t, a.ID).Quantity)
	assert.Equal(t, int64(6), f.item(t, b.ID).Quantity)
	assert.Len(t, f.entries(t, a.ID), 2)
	f.requireConsistent(t, a.ID)
	f.requireConsistent(t, b.ID)

	page, err := f.adjustments.List(ctx, dto.AdjustmentListRequest{Type: "reconciliation"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestReconciliation_Lista(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.seedItem(t, "anillo", "gold", "22K", 7, "2", "100")
	for i := 0; i < 2; i++ {
		_, err := f.recs.Create(ctx, actor, dto.CreateReconciliationRequest{
			Lines: []dto.ReconciliationLineRequest{{ItemID: it.ID, PhysicalQuantity: 7}},
		})
		require.NoError(t, err)
	}
	page, err := f.recs.List(ctx, dto.ReconciliationListRequest{Status: "draft"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 50, page.Limit)
}
