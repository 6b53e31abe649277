package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/commerce-core/internal/application/cart"
	"github.com/jhoicas/commerce-core/internal/application/order"
	"github.com/jhoicas/commerce-core/internal/application/reservation"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

// Ensure TxRunner implementa los puertos transaccionales de cada módulo.
var _ reservation.TxRunner = (*TxRunner)(nil)
var _ order.TxRunner = (*TxRunner)(nil)
var _ cart.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL, pasando
// repositorios atados a esa tx. Commit si fn retorna nil, Rollback si no.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run transacción del ledger: CAS de reserva + movimiento emparejado.
func (r *TxRunner) Run(ctx context.Context, fn func(movements repository.StockMovementRepository) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewStockMovementRepository(q))
	})
}

// RunReserve transacción de reserva: lock de fila del producto, check de
// disponibilidad e inserción del movimiento juntos.
func (r *TxRunner) RunReserve(ctx context.Context, fn func(products repository.ProductRepository, movements repository.StockMovementRepository) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewProductRepository(q), NewStockMovementRepository(q))
	})
}

// RunOrder transacción de pedido: estado + nota de auditoría juntos.
func (r *TxRunner) RunOrder(ctx context.Context, fn func(orders repository.OrderRepository) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewOrderRepository(q))
	})
}

// RunCart transacción de mutaciones de carrito.
func (r *TxRunner) RunCart(ctx context.Context, fn func(carts repository.CartRepository) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewCartRepository(q))
	})
}

// RunCheckout transacción de conversión: carrito, pedido y ledger en una sola tx.
func (r *TxRunner) RunCheckout(ctx context.Context, fn func(
	carts repository.CartRepository,
	orders repository.OrderRepository,
	movements repository.StockMovementRepository,
) error) error {
	return r.inTx(ctx, func(q Querier) error {
		return fn(NewCartRepository(q), NewOrderRepository(q), NewStockMovementRepository(q))
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapConcurrency(err))
	}
	return nil
}
