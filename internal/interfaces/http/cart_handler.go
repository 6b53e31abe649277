package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/commerce-core/internal/application/cart"
	"github.com/jhoicas/commerce-core/internal/application/dto"
)

// CartHandler maneja las peticiones de carritos (protegido).
type CartHandler struct {
	uc *cart.UseCase
}

// NewCartHandler construye el handler.
func NewCartHandler(uc *cart.UseCase) *CartHandler {
	return &CartHandler{uc: uc}
}

// AddItem agrega un item al carrito (cart_id vacío crea el carrito).
// POST /api/carts/items
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	crt, err := h.uc.AddItem(c.Context(), in.CartID, in.ProductID, in.Quantity)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToCartResponse(crt))
}

// UpdateItem cambia la cantidad de un item (0 lo elimina).
// PUT /api/carts/:id/items/:item_id
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	crt, err := h.uc.UpdateItemQuantity(c.Context(), c.Params("id"), c.Params("item_id"), in.Quantity)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ToCartResponse(crt))
}

// RemoveItem elimina el item y libera su reserva.
// DELETE /api/carts/:id/items/:item_id
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	crt, err := h.uc.RemoveItem(c.Context(), c.Params("id"), c.Params("item_id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ToCartResponse(crt))
}

// Checkout convierte el carrito en pedido.
// POST /api/carts/:id/checkout
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	ord, err := h.uc.Checkout(c.Context(), c.Params("id"), actor)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(ord))
}

// Get devuelve el carrito con items.
// GET /api/carts/:id
func (h *CartHandler) Get(c *fiber.Ctx) error {
	crt, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ToCartResponse(crt))
}
