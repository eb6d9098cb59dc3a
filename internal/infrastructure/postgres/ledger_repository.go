package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `id, item_id, seq, item_name, design_code, metal_type, purity, transaction_type, reference_type,
	reference_id, quantity_in, quantity_out, weight_in, weight_out, unit_cost, total_value,
	running_quantity, running_weight, running_value, valuation_method, notes, created_by, created_at`

// LedgerRepo libro de existencias sobre PostgreSQL. Solo inserta; la baja es la cascada del ítem.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

func scanEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var (
		e       entity.LedgerEntry
		txType  string
		refType string
	)
	err := row.Scan(&e.ID, &e.ItemID, &e.Sequence, &e.ItemName, &e.DesignCode, &e.MetalType, &e.Purity,
		&txType, &refType, &e.ReferenceID, &e.QuantityIn, &e.QuantityOut, &e.WeightIn, &e.WeightOut,
		&e.UnitCost, &e.TotalValue, &e.RunningQuantity, &e.RunningWeight, &e.RunningValue,
		&e.ValuationMethod, &e.Notes, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.TransactionType = entity.TransactionType(txType)
	e.ReferenceType = entity.ReferenceType(refType)
	return &e, nil
}

func collectEntries(rows pgx.Rows) ([]*entity.LedgerEntry, error) {
	defer rows.Close()
	list := []*entity.LedgerEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Append inserta un asiento. UNIQUE(item_id, seq) rechaza dos asientos con la misma posición.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	query := `
		INSERT INTO stock_ledger (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.ItemID, e.Sequence, e.ItemName, e.DesignCode, e.MetalType, e.Purity,
		string(e.TransactionType), string(e.ReferenceType), e.ReferenceID, e.QuantityIn, e.QuantityOut,
		e.WeightIn, e.WeightOut, e.UnitCost, e.TotalValue, e.RunningQuantity, e.RunningWeight, e.RunningValue,
		e.ValuationMethod, e.Notes, e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// GetByID obtiene un asiento.
func (r *LedgerRepo) GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	e, err := scanEntry(r.q.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM stock_ledger WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return e, nil
}

func ledgerWhere(f repository.LedgerFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ItemID != "" {
		add("item_id = $%d", f.ItemID)
	}
	if f.MetalType != "" {
		add("metal_type = $%d", f.MetalType)
	}
	if f.Purity != "" {
		add("purity = $%d", f.Purity)
	}
	if f.TransactionType != "" {
		add("transaction_type = $%d", f.TransactionType)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// Query devuelve la página pedida (created_at DESC) y el total que cumple el filtro.
func (r *LedgerRepo) Query(ctx context.Context, f repository.LedgerFilter, limit, offset int) ([]*entity.LedgerEntry, int, error) {
	where, args := ledgerWhere(f)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_ledger`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ledger: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM stock_ledger%s ORDER BY created_at DESC, seq DESC LIMIT $%d OFFSET $%d`,
		ledgerColumns, where, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query ledger: %w", err)
	}
	list, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByItem devuelve la cadena del ítem en orden ascendente.
func (r *LedgerRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.LedgerEntry, error) {
	rows, err := r.q.Query(ctx, `SELECT `+ledgerColumns+` FROM stock_ledger WHERE item_id = $1 ORDER BY seq`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list ledger by item: %w", err)
	}
	return collectEntries(rows)
}

// ListInRange devuelve los asientos del período en orden cronológico.
func (r *LedgerRepo) ListInRange(ctx context.Context, from, to time.Time, metalType string) ([]*entity.LedgerEntry, error) {
	where, args := ledgerWhere(repository.LedgerFilter{MetalType: metalType, From: &from, To: &to})
	rows, err := r.q.Query(ctx, `SELECT `+ledgerColumns+` FROM stock_ledger`+where+` ORDER BY created_at, seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger in range: %w", err)
	}
	return collectEntries(rows)
}

// DeleteByItem elimina los asientos del ítem (solo en la baja en cascada).
func (r *LedgerRepo) DeleteByItem(ctx context.Context, itemID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_ledger WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("delete ledger by item: %w", err)
	}
	return nil
}
