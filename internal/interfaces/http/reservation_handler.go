package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/commerce-core/internal/application/dto"
	"github.com/jhoicas/commerce-core/internal/application/ports"
	"github.com/jhoicas/commerce-core/internal/application/reservation"
)

// ReservationHandler expone el motor de reservas directamente (integraciones
// que reservan sin pasar por un carrito).
type ReservationHandler struct {
	engine   *reservation.Engine
	settings ports.Settings
}

// NewReservationHandler construye el handler.
func NewReservationHandler(engine *reservation.Engine, settings ports.Settings) *ReservationHandler {
	return &ReservationHandler{engine: engine, settings: settings}
}

// Reserve crea una reserva pending con el TTL configurado.
// POST /api/reservations
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	handle, err := h.engine.Reserve(c.Context(), in.ProductID, in.Quantity, h.settings.ReservationTTL(), in.RefType, in.RefID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReservationResponse{
		MovementID: handle.MovementID,
		ProductID:  handle.ProductID,
		Quantity:   handle.Quantity,
		ExpiresAt:  handle.ExpiresAt,
	})
}

// Release cancela la reserva (no-op si ya estaba terminal).
// POST /api/reservations/:id/release
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	handle, err := h.engine.HandleFor(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	if err := h.engine.Release(c.Context(), handle); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "reserva liberada"})
}

// Finalize convierte la reserva en consumo definitivo.
// POST /api/reservations/:id/finalize
func (h *ReservationHandler) Finalize(c *fiber.Ctx) error {
	handle, err := h.engine.HandleFor(c.Context(), c.Params("id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	if err := h.engine.Finalize(c.Context(), handle); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "reserva finalizada"})
}
