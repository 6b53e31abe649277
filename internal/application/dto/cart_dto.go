package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/commerce-core/internal/domain/entity"
)

// AddItemRequest body para POST /api/carts/items.
// CartID vacío crea un carrito nuevo.
type AddItemRequest struct {
	CartID    string `json:"cart_id,omitempty"`
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// UpdateItemRequest body para PUT /api/carts/:id/items/:item_id.
// Quantity = 0 elimina el item.
type UpdateItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// CartItemResponse item del carrito en respuestas.
type CartItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartResponse carrito con items y total.
type CartResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Items     []CartItemResponse `json:"items"`
	Total     decimal.Decimal    `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ToCartResponse mapea el carrito al DTO de respuesta.
func ToCartResponse(c *entity.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal(),
		})
	}
	return CartResponse{
		ID:        c.ID,
		Status:    string(c.Status),
		Items:     items,
		Total:     c.Total(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
