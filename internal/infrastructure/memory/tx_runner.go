package memory

import (
	"context"

	"github.com/jhoicas/commerce-core/internal/application/cart"
	"github.com/jhoicas/commerce-core/internal/application/order"
	"github.com/jhoicas/commerce-core/internal/application/reservation"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

var _ reservation.TxRunner = (*TxRunner)(nil)
var _ order.TxRunner = (*TxRunner)(nil)
var _ cart.TxRunner = (*TxRunner)(nil)

// TxRunner transacciones en memoria: el lock de escritura del store hace de
// transacción (nadie observa estados intermedios). No hay rollback; los casos
// de uso validan antes de mutar, igual que contra postgres con tx abortada.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

func (r *TxRunner) Run(ctx context.Context, fn func(movements repository.StockMovementRepository) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(&movementRepo{s: r.s, inTx: true})
}

func (r *TxRunner) RunReserve(ctx context.Context, fn func(products repository.ProductRepository, movements repository.StockMovementRepository) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(&productRepo{s: r.s, inTx: true}, &movementRepo{s: r.s, inTx: true})
}

func (r *TxRunner) RunOrder(ctx context.Context, fn func(orders repository.OrderRepository) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(&orderRepo{s: r.s, inTx: true})
}

func (r *TxRunner) RunCart(ctx context.Context, fn func(carts repository.CartRepository) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(&cartRepo{s: r.s, inTx: true})
}

func (r *TxRunner) RunCheckout(ctx context.Context, fn func(
	carts repository.CartRepository,
	orders repository.OrderRepository,
	movements repository.StockMovementRepository,
) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(
		&cartRepo{s: r.s, inTx: true},
		&orderRepo{s: r.s, inTx: true},
		&movementRepo{s: r.s, inTx: true},
	)
}
