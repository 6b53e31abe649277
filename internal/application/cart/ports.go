package cart

import (
	"context"

	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

// TxRunner transacciones del módulo carrito. RunCart cubre mutaciones del
// carrito y sus items; RunCheckout amplía a pedidos y ledger para la
// conversión (snapshot + finalización de reservas + converted, todo o nada).
type TxRunner interface {
	RunCart(ctx context.Context, fn func(carts repository.CartRepository) error) error
	RunCheckout(ctx context.Context, fn func(
		carts repository.CartRepository,
		orders repository.OrderRepository,
		movements repository.StockMovementRepository,
	) error) error
}
