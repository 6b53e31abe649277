package order

import (
	"context"

	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con el
// repositorio de pedidos atado a esa tx. Avanzar el estado y escribir la nota
// de auditoría deben confirmarse juntos o no confirmarse.
type TxRunner interface {
	RunOrder(ctx context.Context, fn func(orders repository.OrderRepository) error) error
}
