package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/commerce-core/internal/application/dto"
	"github.com/jhoicas/commerce-core/internal/application/order"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
)

// OrderHandler maneja las peticiones de pedidos (protegido).
type OrderHandler struct {
	uc *order.UseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *order.UseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// Get devuelve el pedido con líneas y metadatos de presentación.
// GET /api/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	ord, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toOrderResponse(ord))
}

// Transition aplica un cambio de estado validado; el actor sale del token.
// POST /api/orders/:id/transition
func (h *OrderHandler) Transition(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	to, ok := entity.ParseOrderStatus(in.To)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "estado desconocido"})
	}
	if err := h.uc.Transition(c.Context(), c.Params("id"), to, actor); err != nil {
		return mapDomainError(c, err)
	}
	ord, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toOrderResponse(ord))
}

// Notes devuelve la auditoría del pedido, más reciente primero.
// GET /api/orders/:id/notes
func (h *OrderHandler) Notes(c *fiber.Ctx) error {
	notes, err := h.uc.Notes(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]dto.OrderNoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, dto.ToOrderNoteResponse(n))
	}
	return c.JSON(fiber.Map{"total": len(out), "notes": out})
}

// toOrderResponse arma el DTO del pedido con los metadatos de presentación.
func toOrderResponse(ord *entity.Order) dto.OrderResponse {
	meta := metaFor(ord.Status)
	lines := make([]dto.OrderLineResponse, 0, len(ord.Lines))
	for _, l := range ord.Lines {
		lines = append(lines, dto.OrderLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return dto.OrderResponse{
		ID:        ord.ID,
		CartID:    ord.CartID,
		Status:    string(ord.Status),
		Label:     meta.Label,
		Color:     meta.Color,
		IsFinal:   ord.Status.IsFinal(),
		IsPaid:    ord.Status.IsPaid(),
		Lines:     lines,
		Total:     ord.Total,
		CreatedAt: ord.CreatedAt,
		UpdatedAt: ord.UpdatedAt,
	}
}
