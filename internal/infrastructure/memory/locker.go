package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/commerce-core/internal/application/ports"
)

var _ ports.Locker = (*Locker)(nil)

// Locker mutex de proceso para el sweep en despliegues de una sola instancia
// (y tests). El TTL no aplica: el lock vive hasta release.
type Locker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocker construye el locker.
func NewLocker() *Locker {
	return &Locker{held: make(map[string]bool)}
}

func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}
	return release, true, nil
}
