package reservation

import (
	"context"

	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Run garantiza que el par "CAS de la reserva +
// movimiento emparejado" se confirme o revierta junto; RunReserve agrega el
// repositorio de productos para poder bloquear la fila del producto durante
// el check de disponibilidad.
type TxRunner interface {
	Run(ctx context.Context, fn func(movements repository.StockMovementRepository) error) error
	RunReserve(ctx context.Context, fn func(products repository.ProductRepository, movements repository.StockMovementRepository) error) error
}
