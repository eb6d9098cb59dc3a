package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
)

// blockingLocker falla para los ítems marcados y ejecuta una vez el gancho registrado; el resto usa el
// mutex en proceso.
type blockingLocker struct {
	inner *lock.KeyedMutex
	mu    sync.Mutex
	deny  map[string]bool
	hooks map[string]func()
}

func (l *blockingLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	deny := l.deny[key]
	hook := l.hooks[key]
	delete(l.hooks, key)
	l.mu.Unlock()
	if hook != nil {
		hook()
	}
	if deny {
		return nil, domain.ErrLockNotObtained
	}
	return l.inner.Lock(ctx, key)
}

func (l *blockingLocker) set(itemID string, deny bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deny[stock.LockKey(itemID)] = deny
}

func (l *blockingLocker) beforeLock(itemID string, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks[stock.LockKey(itemID)] = fn
}

type apiFixture struct {
	app         *fiber.App
	repos       stock.Repositories
	locker      *blockingLocker
	adjustments *stock.AdjustmentUseCase
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	repos := store.Repositories()
	locker := &blockingLocker{inner: lock.NewKeyedMutex(), deny: map[string]bool{}, hooks: map[string]func(){}}
	engine := stock.NewEngine(store, locker, nil, log)
	adjustments := stock.NewAdjustmentUseCase(engine, repos, store, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:          stock.NewLedgerUseCase(repos, log),
		Movements:       stock.NewMovementUseCase(engine, log),
		Reports:         stock.NewReportUseCase(repos, pdf.NewValuationPDF("Test"), xlsx.NewMovementXLSX(), 5, log),
		Adjustments:     adjustments,
		Reconciliations: stock.NewReconciliationUseCase(adjustments, repos, store, log),
		JWTSecret:       testJWTSecret,
	})
	return &apiFixture{app: app, repos: repos, locker: locker, adjustments: adjustments}
}

// seed crea un ítem y registra su apertura por la API.
func (f *apiFixture) seed(t *testing.T, name string, qty int64) string {
	t.Helper()
	item := &entity.Item{
		ID:           uuid.NewString(),
		Name:         name,
		DesignCode:   "DC-" + name,
		MetalType:    "gold",
		Purity:       "22K",
		Weight:       decimal.RequireFromString("2"),
		SellingPrice: decimal.RequireFromString("100"),
		Status:       "active",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.repos.Items.Create(context.Background(), item))
	if qty > 0 {
		resp := f.call(t, http.MethodPost, "/api/stock/movements", apphttp.RoleStaff,
			dto.RegisterMovementRequest{ItemID: item.ID, Type: "opening", Quantity: qty})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	return item.ID
}

func (f *apiFixture) call(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestMovements_VentaYConsultaDelLibro(t *testing.T) {
	f := newAPI(t)
	id := f.seed(t, "anillo", 10)

	resp := f.call(t, http.MethodPost, "/api/stock/movements", apphttp.RoleStaff,
		dto.RegisterMovementRequest{ItemID: id, Type: "sale", Quantity: 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	entry := decode[dto.LedgerEntryResponse](t, resp)
	assert.Equal(t, int64(6), entry.RunningQuantity)
	assert.Equal(t, testUserID, entry.CreatedBy)

	resp = f.call(t, http.MethodGet, "/api/stock/ledger?item_id="+id+"&limit=1", apphttp.RoleStaff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[dto.LedgerPage](t, resp)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "sale", page.Entries[0].TransactionType, "el más reciente primero")

	resp = f.call(t, http.MethodGet, "/api/stock/ledger/item/"+id+"/verify", apphttp.RoleStaff, nil)
	report := decode[dto.ChainReport](t, resp)
	assert.True(t, report.Valid)
}

func TestMovements_Errores(t *testing.T) {
	f := newAPI(t)
	id := f.seed(t, "cadena", 2)

	resp := f.call(t, http.MethodPost, "/api/stock/movements", apphttp.RoleStaff,
		dto.RegisterMovementRequest{ItemID: id, Type: "sale", Quantity: 3})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.call(t, http.MethodPost, "/api/stock/movements", apphttp.RoleStaff,
		dto.RegisterMovementRequest{ItemID: id, Type: "gift", Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.call(t, http.MethodPost, "/api/stock/movements", apphttp.RoleStaff,
		dto.RegisterMovementRequest{ItemID: uuid.NewString(), Type: "sale", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	f.locker.set(id, true)
	resp = f.call(t, http.MethodPost, "/api/stock/movements", apphttp.RoleStaff,
		dto.RegisterMovementRequest{ItemID: id, Type: "sale", Quantity: 1})
	assert.Equal(t, http.StatusLocked, resp.StatusCode)
}

func TestAdjustments_FlujoCompleto(t *testing.T) {
	f := newAPI(t)
	id := f.seed(t, "pulsera", 10)

	resp := f.call(t, http.MethodPost, "/api/stock/adjustments", apphttp.RoleStaff, dto.CreateAdjustmentRequest{
		Type: "decrease", Reason: "damage",
		Lines: []dto.AdjustmentLineRequest{{ItemID: id, QuantityDifference: -3}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	adj := decode[dto.AdjustmentResponse](t, resp)
	assert.Equal(t, "pending", adj.Status)
	assert.Regexp(t, `^ADJ-\d{4}-00001$`, adj.Number)

	resp = f.call(t, http.MethodPut, "/api/stock/adjustments/"+adj.ID+"/approve", apphttp.RoleStaff, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "staff no aprueba")

	resp = f.call(t, http.MethodPut, "/api/stock/adjustments/"+adj.ID+"/approve", apphttp.RoleManager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approved := decode[dto.ApproveAdjustmentResponse](t, resp)
	assert.Equal(t, "completed", approved.Adjustment.Status)
	assert.Equal(t, testUserID, approved.Adjustment.ApprovedBy)

	resp = f.call(t, http.MethodPut, "/api/stock/adjustments/"+adj.ID+"/approve", apphttp.RoleManager, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATE", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.call(t, http.MethodGet, "/api/stock/adjustments?status=completed", apphttp.RoleStaff, nil)
	page := decode[dto.AdjustmentPage](t, resp)
	assert.Equal(t, 1, page.Total)

	resp = f.call(t, http.MethodGet, "/api/stock/adjustments/"+uuid.NewString(), apphttp.RoleStaff, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdjustments_ValidacionDelCuerpo(t *testing.T) {
	f := newAPI(t)
	resp := f.call(t, http.MethodPost, "/api/stock/adjustments", apphttp.RoleStaff, dto.CreateAdjustmentRequest{
		Type: "decrease", Reason: "damage",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.call(t, http.MethodGet, "/api/stock/adjustments?limit=500", apphttp.RoleStaff, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdjustments_AprobacionParcialResponde207(t *testing.T) {
	f := newAPI(t)
	a := f.seed(t, "aro", 5)
	b := f.seed(t, "dije", 5)

	resp := f.call(t, http.MethodPost, "/api/stock/adjustments", apphttp.RoleStaff, dto.CreateAdjustmentRequest{
		Type: "decrease", Reason: "loss",
		Lines: []dto.AdjustmentLineRequest{{ItemID: a, QuantityDifference: -1}, {ItemID: b, QuantityDifference: -1}},
	})
	adj := decode[dto.AdjustmentResponse](t, resp)

	f.locker.set(b, true)
	resp = f.call(t, http.MethodPut, "/api/stock/adjustments/"+adj.ID+"/approve", apphttp.RoleAdmin, nil)
	require.Equal(t, http.StatusMultiStatus, resp.StatusCode)
	body := decode[struct {
		Code   string          `json:"code"`
		Report dto.ApplyReport `json:"report"`
	}](t, resp)
	assert.Equal(t, "PARTIAL_APPLY", body.Code)
	assert.Equal(t, 1, body.Report.Count(dto.LineApplied))
	assert.Equal(t, 1, body.Report.Count(dto.LineFailed))

	f.locker.set(b, false)
	resp = f.call(t, http.MethodPut, "/api/stock/adjustments/"+adj.ID+"/approve", apphttp.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.call(t, http.MethodGet, "/api/stock/ledger/item/"+a, apphttp.RoleStaff, nil)
	hist := decode[dto.ItemHistory](t, resp)
	assert.Equal(t, 2, hist.TotalEntries, "la línea ya aplicada no se repite al reintentar")
	assert.Equal(t, int64(4), hist.Item.Quantity)
}

func TestAdjustments_RechazoDuranteAprobacionResponde409ConReporte(t *testing.T) {
	f := newAPI(t)
	a := f.seed(t, "aro", 5)
	b := f.seed(t, "dije", 5)

	resp := f.call(t, http.MethodPost, "/api/stock/adjustments", apphttp.RoleStaff, dto.CreateAdjustmentRequest{
		Type: "decrease", Reason: "loss",
		Lines: []dto.AdjustmentLineRequest{{ItemID: a, QuantityDifference: -1}, {ItemID: b, QuantityDifference: -1}},
	})
	adj := decode[dto.AdjustmentResponse](t, resp)

	f.locker.beforeLock(b, func() {
		_, err := f.adjustments.Reject(context.Background(), adj.ID, "manager")
		assert.NoError(t, err)
	})
	resp = f.call(t, http.MethodPut, "/api/stock/adjustments/"+adj.ID+"/approve", apphttp.RoleAdmin, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[struct {
		Code   string          `json:"code"`
		Report dto.ApplyReport `json:"report"`
	}](t, resp)
	assert.Equal(t, "INVALID_STATE", body.Code)
	require.Len(t, body.Report.Lines, 2)
	assert.Equal(t, dto.LineApplied, body.Report.Lines[0].Status)
	assert.Equal(t, dto.LineFailed, body.Report.Lines[1].Status)
}

func TestReconciliation_CrearYCompletar(t *testing.T) {
	f := newAPI(t)
	id := f.seed(t, "collar", 7)
	missing := uuid.NewString()

	resp := f.call(t, http.MethodPost, "/api/stock/reconciliation", apphttp.RoleStaff, dto.CreateReconciliationRequest{
		Lines: []dto.ReconciliationLineRequest{{ItemID: id, PhysicalQuantity: 5}, {ItemID: missing, PhysicalQuantity: 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.CreateReconciliationResponse](t, resp)
	assert.Equal(t, []string{missing}, created.SkippedItemIDs)
	assert.Equal(t, 1, created.Reconciliation.TotalDiscrepancies)

	recID := created.Reconciliation.ID
	resp = f.call(t, http.MethodPut, "/api/stock/reconciliation/"+recID+"/complete", apphttp.RoleManager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	done := decode[dto.CompleteReconciliationResponse](t, resp)
	assert.Equal(t, "completed", done.Reconciliation.Status)
	require.NotNil(t, done.Adjustment)
	assert.Equal(t, "reconciliation", done.Adjustment.Type)

	resp = f.call(t, http.MethodPut, "/api/stock/reconciliation/"+recID+"/cancel", apphttp.RoleManager, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestReports_ValuacionMovimientosYExportes(t *testing.T) {
	f := newAPI(t)
	f.seed(t, "anillo", 3)

	resp := f.call(t, http.MethodGet, "/api/stock/valuation?metal_type=gold", apphttp.RoleStaff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	val := decode[dto.ValuationReport](t, resp)
	assert.Equal(t, int64(3), val.Summary.TotalQuantity)
	assert.True(t, val.Summary.TotalValue.Equal(decimal.RequireFromString("300")))

	resp = f.call(t, http.MethodGet, "/api/stock/valuation/pdf", apphttp.RoleStaff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	resp = f.call(t, http.MethodGet, "/api/stock/movement-report", apphttp.RoleStaff, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "fechas obligatorias")

	today := time.Now().UTC().Format("2006-01-02")
	resp = f.call(t, http.MethodGet, "/api/stock/movement-report?start_date="+today+"&end_date="+today, apphttp.RoleStaff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mov := decode[dto.MovementReport](t, resp)
	assert.Equal(t, int64(3), mov.Summary.QuantityIn)

	resp = f.call(t, http.MethodGet, "/api/stock/movement-report/xlsx?start_date="+today+"&end_date="+today, apphttp.RoleStaff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")

	resp = f.call(t, http.MethodGet, "/api/stock/summary", apphttp.RoleStaff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[dto.StockSummary](t, resp)
	assert.Equal(t, 1, summary.Alerts.LowStock)
}

func TestDeleteItem_SoloSupervisorYCascada(t *testing.T) {
	f := newAPI(t)
	id := f.seed(t, "broche", 2)

	resp := f.call(t, http.MethodDelete, "/api/stock/items/"+id, apphttp.RoleStaff, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.call(t, http.MethodDelete, "/api/stock/items/"+id, apphttp.RoleAdmin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.call(t, http.MethodGet, "/api/stock/ledger/item/"+id, apphttp.RoleStaff, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
