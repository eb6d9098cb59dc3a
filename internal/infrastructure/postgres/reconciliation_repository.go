package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)

const reconciliationColumns = `id, reconciliation_number, status, total_items_counted, total_discrepancies,
	total_value_discrepancy, notes, adjustment_id, reconciliation_date, created_by, created_at,
	completed_by, completed_at`

const reconciliationLineColumns = `line_no, item_id, item_name, design_code, metal_type, purity,
	system_quantity, physical_quantity, difference, unit_price, value_difference`

// ReconciliationRepo conciliaciones (cabecera + líneas) sobre PostgreSQL.
type ReconciliationRepo struct {
	q Querier
}

// NewReconciliationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReconciliationRepository(q Querier) *ReconciliationRepo {
	return &ReconciliationRepo{q: q}
}

func scanReconciliation(row pgx.Row) (*entity.Reconciliation, error) {
	var (
		rec    entity.Reconciliation
		status string
	)
	err := row.Scan(&rec.ID, &rec.Number, &status, &rec.TotalItemsCounted, &rec.TotalDiscrepancies,
		&rec.TotalValueDiscrepancy, &rec.Notes, &rec.AdjustmentID, &rec.ReconciliationDate,
		&rec.CreatedBy, &rec.CreatedAt, &rec.CompletedBy, &rec.CompletedAt)
	if err != nil {
		return nil, err
	}
	rec.Status = entity.ReconciliationStatus(status)
	return &rec, nil
}

// Create inserta la cabecera y las líneas del conteo.
func (r *ReconciliationRepo) Create(ctx context.Context, rec *entity.Reconciliation) error {
	query := `
		INSERT INTO stock_reconciliations (` + reconciliationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.Number, string(rec.Status), rec.TotalItemsCounted, rec.TotalDiscrepancies,
		rec.TotalValueDiscrepancy, rec.Notes, rec.AdjustmentID, rec.ReconciliationDate,
		rec.CreatedBy, rec.CreatedAt, rec.CompletedBy, rec.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert reconciliation: %w", err)
	}

	lineQuery := `
		INSERT INTO stock_reconciliation_lines (reconciliation_id, ` + reconciliationLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	for _, l := range rec.Lines {
		_, err := r.q.Exec(ctx, lineQuery,
			rec.ID, l.LineNo, l.ItemID, l.ItemName, l.DesignCode, l.MetalType, l.Purity,
			l.SystemQuantity, l.PhysicalQuantity, l.Difference, l.UnitPrice, l.ValueDifference,
		)
		if err != nil {
			return fmt.Errorf("insert reconciliation line %d: %w", l.LineNo, err)
		}
	}
	return nil
}

func (r *ReconciliationRepo) loadLines(ctx context.Context, rec *entity.Reconciliation) error {
	rows, err := r.q.Query(ctx, `SELECT `+reconciliationLineColumns+` FROM stock_reconciliation_lines
		WHERE reconciliation_id = $1 ORDER BY line_no`, rec.ID)
	if err != nil {
		return fmt.Errorf("list reconciliation lines: %w", err)
	}
	defer rows.Close()

	rec.Lines = []entity.ReconciliationLine{}
	for rows.Next() {
		var l entity.ReconciliationLine
		if err := rows.Scan(&l.LineNo, &l.ItemID, &l.ItemName, &l.DesignCode, &l.MetalType, &l.Purity,
			&l.SystemQuantity, &l.PhysicalQuantity, &l.Difference, &l.UnitPrice, &l.ValueDifference); err != nil {
			return fmt.Errorf("scan reconciliation line: %w", err)
		}
		rec.Lines = append(rec.Lines, l)
	}
	return rows.Err()
}

func (r *ReconciliationRepo) getOne(ctx context.Context, query, id string) (*entity.Reconciliation, error) {
	rec, err := scanReconciliation(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reconciliation: %w", err)
	}
	if err := r.loadLines(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByID obtiene la conciliación con sus líneas.
func (r *ReconciliationRepo) GetByID(ctx context.Context, id string) (*entity.Reconciliation, error) {
	return r.getOne(ctx, `SELECT `+reconciliationColumns+` FROM stock_reconciliations WHERE id = $1`, id)
}

// GetForUpdate obtiene la conciliación y bloquea la cabecera.
func (r *ReconciliationRepo) GetForUpdate(ctx context.Context, id string) (*entity.Reconciliation, error) {
	return r.getOne(ctx, `SELECT `+reconciliationColumns+` FROM stock_reconciliations WHERE id = $1 FOR UPDATE`, id)
}

// Update persiste estado, ajuste sintético y cierre.
func (r *ReconciliationRepo) Update(ctx context.Context, rec *entity.Reconciliation) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_reconciliations SET status = $2, adjustment_id = $3, completed_by = $4, completed_at = $5
		WHERE id = $1`, rec.ID, string(rec.Status), rec.AdjustmentID, rec.CompletedBy, rec.CompletedAt)
	if err != nil {
		return fmt.Errorf("update reconciliation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve la página pedida (created_at DESC) y el total, opcionalmente por estado.
func (r *ReconciliationRepo) List(ctx context.Context, status string, limit, offset int) ([]*entity.Reconciliation, int, error) {
	clause, args := "", []any{}
	if status != "" {
		clause = " WHERE status = $1"
		args = append(args, status)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_reconciliations`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reconciliations: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM stock_reconciliations%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		reconciliationColumns, clause, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reconciliations: %w", err)
	}
	var list []*entity.Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan reconciliation: %w", err)
		}
		list = append(list, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, rec := range list {
		if err := r.loadLines(ctx, rec); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}
