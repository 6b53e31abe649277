package repository

import (
	"time"

	"github.com/jhoicas/commerce-core/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para Order, líneas y notas (DIP).
// Las notas son append-only: no existe update ni delete.
type OrderRepository interface {
	Create(order *entity.Order) error
	GetByID(id string) (*entity.Order, error)
	// GetForUpdate bloquea el pedido para validar y aplicar la transición en la misma tx.
	GetForUpdate(id string) (*entity.Order, error)
	UpdateStatus(id string, to entity.OrderStatus, at time.Time) error

	AddNote(note *entity.OrderNote) error
	// ListNotes devuelve las notas de más reciente a más antigua.
	ListNotes(orderID string) ([]*entity.OrderNote, error)
}
