package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.SequenceRepository = (*Sequencer)(nil)

// Sequencer contador de documentos con INCR (atómico entre instancias).
type Sequencer struct {
	rdb *goredis.Client
}

// NewSequencer construye el contador.
func NewSequencer(rdb *goredis.Client) *Sequencer {
	return &Sequencer{rdb: rdb}
}

// SequenceKey clave del contador de un prefijo y año.
func SequenceKey(prefix string, year int) string {
	return fmt.Sprintf("seq:%s:%d", prefix, year)
}

// Next incrementa y devuelve el contador.
func (s *Sequencer) Next(ctx context.Context, prefix string, year int) (int64, error) {
	n, err := s.rdb.Incr(ctx, SequenceKey(prefix, year)).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", SequenceKey(prefix, year), err)
	}
	return n, nil
}
