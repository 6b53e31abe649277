package repository

import (
	"time"

	"github.com/jhoicas/commerce-core/internal/domain/entity"
)

// CartRepository define el puerto de persistencia para Cart y sus items (DIP).
type CartRepository interface {
	Create(cart *entity.Cart) error
	GetByID(id string) (*entity.Cart, error)
	// GetForUpdate bloquea el carrito para la transacción actual (checkout, expiración).
	GetForUpdate(id string) (*entity.Cart, error)
	// UpdateStatus cambia el estado solo si el actual coincide con from (CAS);
	// false si otro proceso ganó la carrera.
	UpdateStatus(id string, from, to entity.CartStatus, at time.Time) (bool, error)
	// Touch actualiza la marca de última actividad.
	Touch(id string, at time.Time) error

	AddItem(item *entity.CartItem) error
	GetItem(itemID string) (*entity.CartItem, error)
	UpdateItem(item *entity.CartItem) error
	RemoveItem(itemID string) error

	// ListIdle lista carritos en el estado dado cuya última actividad es anterior a before.
	ListIdle(status entity.CartStatus, before time.Time, limit int) ([]*entity.Cart, error)
	// DeleteOlderThan borra físicamente carritos en los estados dados con última
	// actividad anterior a before; devuelve cuántos borró.
	DeleteOlderThan(statuses []entity.CartStatus, before time.Time, limit int) (int, error)
}
