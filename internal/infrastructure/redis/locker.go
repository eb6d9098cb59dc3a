package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

var _ stock.Locker = (*Locker)(nil)

// Locker bloqueo por clave compartido entre instancias de la API.
// Espera el lock reintentando cada backoff hasta wait (o hasta el deadline del contexto).
type Locker struct {
	client  *redislock.Client
	ttl     time.Duration
	wait    time.Duration
	backoff time.Duration
	log     zerolog.Logger
}

// NewLocker construye el locker. ttl es la vida máxima del lock si el proceso muere sin liberarlo.
func NewLocker(rdb *goredis.Client, ttl time.Duration, log zerolog.Logger) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{
		client:  redislock.New(rdb),
		ttl:     ttl,
		wait:    ttl,
		backoff: 50 * time.Millisecond,
		log:     log,
	}
}

// Lock obtiene "lock:<key>". Si no se obtiene dentro de la espera devuelve domain.ErrLockNotObtained.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lock, err := l.client.Obtain(waitCtx, "lock:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.backoff),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrLockNotObtained, key)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		// El contexto de la petición puede estar cancelado; la liberación no depende de él.
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(relCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el lock")
		}
	}, nil
}
