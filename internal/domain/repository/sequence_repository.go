package repository

import "context"

// SequenceRepository contador atómico por (prefijo, año) para numerar documentos.
// Un valor entregado no se reutiliza aunque la transacción que lo pidió falle.
type SequenceRepository interface {
	Next(ctx context.Context, prefix string, year int) (int64, error)
}
