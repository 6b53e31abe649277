package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartStatus ciclo de vida del carrito. Un carrito termina (converted o expired)
// exactamente una vez.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusAbandoned CartStatus = "abandoned"
	CartStatusConverted CartStatus = "converted"
	CartStatusExpired   CartStatus = "expired"
)

// IsTerminal indica si el carrito ya terminó su ciclo.
func (s CartStatus) IsTerminal() bool {
	return s == CartStatusConverted || s == CartStatusExpired
}

// Cart agrupa items con reservas pendientes. UpdatedAt es la última actividad;
// el sweeper lo usa para abandono/expiración.
type Cart struct {
	ID        string
	Status    CartStatus
	Items     []*CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem referencia exactamente un movimiento de reserva pendiente mientras
// el carrito está activo. MovementID es referencia débil (lookup, no ownership).
type CartItem struct {
	ID         string
	CartID     string
	ProductID  string
	Quantity   int64
	UnitPrice  decimal.Decimal // precio congelado al agregar
	MovementID string
	CreatedAt  time.Time
}

// Subtotal devuelve precio unitario por cantidad.
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Total suma los subtotales del carrito.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}
