package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contador de numeración de documentos por (prefijo, año).
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el contador.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa y devuelve el contador. El upsert es atómico: dos llamadas concurrentes nunca reciben el mismo valor.
func (r *SequenceRepo) Next(ctx context.Context, prefix string, year int) (int64, error) {
	var v int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO document_sequences (prefix, year, value) VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year) DO UPDATE SET value = document_sequences.value + 1
		RETURNING value`, prefix, year).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s-%d: %w", prefix, year, err)
	}
	return v, nil
}
