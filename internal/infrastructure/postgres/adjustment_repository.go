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

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

const adjustmentColumns = `id, adjustment_number, adjustment_type, reason, status, total_quantity_adjusted,
	total_weight_adjusted, total_value_adjusted, notes, reconciliation_id, adjustment_date,
	created_by, created_at, approved_by, approved_at`

const adjustmentLineColumns = `line_no, item_id, item_name, design_code, metal_type, purity, system_quantity,
	system_weight, adjusted_quantity, adjusted_weight, quantity_difference, weight_difference,
	unit_cost, value_difference, reason, ledger_entry_id, applied_at`

// AdjustmentRepo ajustes (cabecera + líneas) sobre PostgreSQL.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

func scanAdjustment(row pgx.Row) (*entity.Adjustment, error) {
	var (
		a                   entity.Adjustment
		typ, reason, status string
	)
	err := row.Scan(&a.ID, &a.Number, &typ, &reason, &status, &a.TotalQuantityAdjusted,
		&a.TotalWeightAdjusted, &a.TotalValueAdjusted, &a.Notes, &a.ReconciliationID, &a.AdjustmentDate,
		&a.CreatedBy, &a.CreatedAt, &a.ApprovedBy, &a.ApprovedAt)
	if err != nil {
		return nil, err
	}
	a.Type = entity.AdjustmentType(typ)
	a.Reason = entity.AdjustmentReason(reason)
	a.Status = entity.AdjustmentStatus(status)
	return &a, nil
}

// Create inserta la cabecera y todas las líneas. Llamar dentro de una tx para que sea atómico.
func (r *AdjustmentRepo) Create(ctx context.Context, a *entity.Adjustment) error {
	query := `
		INSERT INTO stock_adjustments (` + adjustmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.Number, string(a.Type), string(a.Reason), string(a.Status), a.TotalQuantityAdjusted,
		a.TotalWeightAdjusted, a.TotalValueAdjusted, a.Notes, a.ReconciliationID, a.AdjustmentDate,
		a.CreatedBy, a.CreatedAt, a.ApprovedBy, a.ApprovedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert adjustment: %w", err)
	}

	lineQuery := `
		INSERT INTO stock_adjustment_lines (adjustment_id, ` + adjustmentLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	for _, l := range a.Lines {
		_, err := r.q.Exec(ctx, lineQuery,
			a.ID, l.LineNo, l.ItemID, l.ItemName, l.DesignCode, l.MetalType, l.Purity, l.SystemQuantity,
			l.SystemWeight, l.AdjustedQuantity, l.AdjustedWeight, l.QuantityDifference, l.WeightDifference,
			l.UnitCost, l.ValueDifference, l.Reason, l.LedgerEntryID, l.AppliedAt,
		)
		if err != nil {
			return fmt.Errorf("insert adjustment line %d: %w", l.LineNo, err)
		}
	}
	return nil
}

func (r *AdjustmentRepo) loadLines(ctx context.Context, a *entity.Adjustment) error {
	rows, err := r.q.Query(ctx, `SELECT `+adjustmentLineColumns+` FROM stock_adjustment_lines
		WHERE adjustment_id = $1 ORDER BY line_no`, a.ID)
	if err != nil {
		return fmt.Errorf("list adjustment lines: %w", err)
	}
	defer rows.Close()

	a.Lines = []entity.AdjustmentLine{}
	for rows.Next() {
		var l entity.AdjustmentLine
		if err := rows.Scan(&l.LineNo, &l.ItemID, &l.ItemName, &l.DesignCode, &l.MetalType, &l.Purity,
			&l.SystemQuantity, &l.SystemWeight, &l.AdjustedQuantity, &l.AdjustedWeight, &l.QuantityDifference,
			&l.WeightDifference, &l.UnitCost, &l.ValueDifference, &l.Reason, &l.LedgerEntryID, &l.AppliedAt); err != nil {
			return fmt.Errorf("scan adjustment line: %w", err)
		}
		a.Lines = append(a.Lines, l)
	}
	return rows.Err()
}

func (r *AdjustmentRepo) getOne(ctx context.Context, query, id string) (*entity.Adjustment, error) {
	a, err := scanAdjustment(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	if err := r.loadLines(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID obtiene el ajuste con sus líneas.
func (r *AdjustmentRepo) GetByID(ctx context.Context, id string) (*entity.Adjustment, error) {
	return r.getOne(ctx, `SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE id = $1`, id)
}

// GetForUpdate obtiene el ajuste y bloquea la cabecera hasta el fin de la tx.
func (r *AdjustmentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Adjustment, error) {
	return r.getOne(ctx, `SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE id = $1 FOR UPDATE`, id)
}

// UpdateStatus persiste estado y datos de decisión.
func (r *AdjustmentRepo) UpdateStatus(ctx context.Context, a *entity.Adjustment) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_adjustments SET status = $2, approved_by = $3, approved_at = $4
		WHERE id = $1`, a.ID, string(a.Status), a.ApprovedBy, a.ApprovedAt)
	if err != nil {
		return fmt.Errorf("update adjustment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkLineApplied registra que la línea ya impactó el libro. Solo marca líneas aún no aplicadas.
func (r *AdjustmentRepo) MarkLineApplied(ctx context.Context, adjustmentID string, lineNo int, ledgerEntryID string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_adjustment_lines SET ledger_entry_id = $3, applied_at = $4
		WHERE adjustment_id = $1 AND line_no = $2 AND applied_at IS NULL`,
		adjustmentID, lineNo, ledgerEntryID, at)
	if err != nil {
		return fmt.Errorf("mark adjustment line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: línea %d del ajuste %s", domain.ErrConflict, lineNo, adjustmentID)
	}
	return nil
}

// List devuelve la página pedida (created_at DESC) y el total filtrado.
func (r *AdjustmentRepo) List(ctx context.Context, f repository.AdjustmentFilter, limit, offset int) ([]*entity.Adjustment, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Type != "" {
		add("adjustment_type = $%d", f.Type)
	}
	if f.Reason != "" {
		add("reason = $%d", f.Reason)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_adjustments`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count adjustments: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM stock_adjustments%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		adjustmentColumns, clause, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list adjustments: %w", err)
	}
	var list []*entity.Adjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan adjustment: %w", err)
		}
		list = append(list, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	// Las líneas se cargan después de cerrar rows: una conexión no admite dos lecturas abiertas.
	for _, a := range list {
		if err := r.loadLines(ctx, a); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

// CountByStatus cuenta ajustes en un estado.
func (r *AdjustmentRepo) CountByStatus(ctx context.Context, status entity.AdjustmentStatus) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_adjustments WHERE status = $1`, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count adjustments by status: %w", err)
	}
	return n, nil
}
