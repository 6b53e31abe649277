package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order (compra) se crea en el checkout a partir de un snapshot del carrito.
// Nunca se borra; solo se marca terminal vía transiciones validadas.
type Order struct {
	ID        string
	CartID    string // referencia débil al carrito origen
	Status    OrderStatus
	Lines     []*OrderLine
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderLine línea derivada de un item de carrito convertido. MovementID apunta
// (débilmente) al movimiento sale que consumió el stock.
type OrderLine struct {
	ID         string
	OrderID    string
	ProductID  string
	Quantity   int64
	UnitPrice  decimal.Decimal
	Subtotal   decimal.Decimal
	MovementID string
}

// OrderNote registro de auditoría append-only de cada transición.
// Nunca se muta ni se borra; se listan siempre de más reciente a más antiguo.
type OrderNote struct {
	ID        string
	OrderID   string
	OldStatus OrderStatus
	NewStatus OrderStatus
	Actor     string // referencia débil al usuario que ejecutó la transición
	Message   string
	CreatedAt time.Time
}
