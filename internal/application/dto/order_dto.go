package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/commerce-core/internal/domain/entity"
)

// CheckoutRequest body para POST /api/carts/:id/checkout (sin campos por ahora;
// el actor sale del token).
type CheckoutRequest struct{}

// TransitionRequest body para POST /api/orders/:id/transition.
type TransitionRequest struct {
	To string `json:"to"`
}

// OrderLineResponse línea del pedido en respuestas.
type OrderLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse pedido con líneas, estado y metadatos de presentación.
type OrderResponse struct {
	ID        string              `json:"id"`
	CartID    string              `json:"cart_id,omitempty"`
	Status    string              `json:"status"`
	Label     string              `json:"label"`
	Color     string              `json:"color"`
	IsFinal   bool                `json:"is_final"`
	IsPaid    bool                `json:"is_paid"`
	Lines     []OrderLineResponse `json:"lines"`
	Total     decimal.Decimal     `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// OrderNoteResponse nota de auditoría de una transición.
type OrderNoteResponse struct {
	ID        string    `json:"id"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status"`
	Actor     string    `json:"actor,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToOrderNoteResponse mapea la nota al DTO.
func ToOrderNoteResponse(n *entity.OrderNote) OrderNoteResponse {
	return OrderNoteResponse{
		ID:        n.ID,
		OldStatus: string(n.OldStatus),
		NewStatus: string(n.NewStatus),
		Actor:     n.Actor,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	}
}
