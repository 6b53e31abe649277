package reservation

import "sync"

// productLocks serializa por producto las goroutines locales antes de abrir
// la transacción de reserva; la exclusión entre instancias la da el lock de
// fila del producto dentro de esa transacción. Los locks se crean bajo demanda
// y no se liberan (el universo de productos activos por proceso es acotado).
type productLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProductLocks() *productLocks {
	return &productLocks{locks: make(map[string]*sync.Mutex)}
}

// lock toma el mutex del producto y devuelve la función de unlock.
func (p *productLocks) lock(productID string) func() {
	p.mu.Lock()
	m, ok := p.locks[productID]
	if !ok {
		m = &sync.Mutex{}
		p.locks[productID] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
