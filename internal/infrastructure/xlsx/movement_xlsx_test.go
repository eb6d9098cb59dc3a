package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

func TestWriteMovements_HojasYFilas(t *testing.T) {
	at := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	report := &dto.MovementReport{
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Summary:   dto.MovementSummary{TotalEntries: 2, QuantityIn: 10, QuantityOut: 3, NetQuantity: 7},
		ByTransactionType: map[string]*dto.MovementGroup{
			"sale":    {Count: 1, QuantityOut: 3, Value: decimal.RequireFromString("300")},
			"opening": {Count: 1, QuantityIn: 10, Value: decimal.RequireFromString("1000")},
		},
		Entries: []dto.LedgerEntryResponse{
			{DesignCode: "R-1", ItemName: "Anillo", TransactionType: "opening", QuantityIn: 10, RunningQuantity: 10, CreatedAt: at},
			{DesignCode: "R-1", ItemName: "Anillo", TransactionType: "sale", QuantityOut: 3, RunningQuantity: 7, CreatedAt: at},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewMovementXLSX().WriteMovements(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetEntries)
	require.NoError(t, err)
	require.Len(t, rows, 3, "cabecera + 2 asientos")
	assert.Equal(t, "Fecha", rows[0][0])
	assert.Equal(t, "sale", rows[2][5])
	assert.Equal(t, "7", rows[2][13])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	last := summary[len(summary)-1]
	assert.Equal(t, "sale", last[0], "los tipos se listan en orden alfabético")
}
