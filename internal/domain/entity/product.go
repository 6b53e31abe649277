package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es un identificador opaco con unidad de cantidad entera.
// El núcleo no conoce catálogo ni categorías; Price se usa solo para
// congelar el precio en líneas de carrito/pedido.
type Product struct {
	ID        string
	SKU       string
	Name      string
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
