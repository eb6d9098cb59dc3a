// Package lock bloqueo exclusivo por clave dentro del proceso.
package lock

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/application/stock"
)

var _ stock.Locker = (*KeyedMutex)(nil)

type entry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex serializa por clave; claves distintas no se bloquean entre sí.
// Las entradas se liberan cuando nadie las espera.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// NewKeyedMutex crea el mutex por clave.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: map[string]*entry{}}
}

// Lock espera el turno de key o la cancelación de ctx. unlock es idempotente.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(key, e)
		})
	}, nil
}

func (k *KeyedMutex) release(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// Len cantidad de claves con titular o en espera.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
