package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/commerce-core/internal/application/dto"
	"github.com/jhoicas/commerce-core/internal/application/ports"
	"github.com/jhoicas/commerce-core/internal/application/sweeper"
)

// SweepHandler disparo manual de la pasada de limpieza (solo admin).
type SweepHandler struct {
	sweeper *sweeper.Sweeper
	clock   ports.Clock
}

// NewSweepHandler construye el handler.
func NewSweepHandler(s *sweeper.Sweeper, clock ports.Clock) *SweepHandler {
	return &SweepHandler{sweeper: s, clock: clock}
}

// Run ejecuta una pasada de sweep fuera de horario. Si otra instancia tiene
// el lock responde 202 con skipped=true.
// POST /api/admin/sweep
func (h *SweepHandler) Run(c *fiber.Ctx) error {
	if GetRole(c) != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "se requiere rol admin"})
	}
	report, err := h.sweeper.Sweep(c.Context(), h.clock.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	status := fiber.StatusOK
	if report.Skipped {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(fiber.Map{
		"skipped":              report.Skipped,
		"reservations_expired": report.ReservationsExpired,
		"carts_abandoned":      report.CartsAbandoned,
		"carts_expired":        report.CartsExpired,
		"carts_deleted":        report.CartsDeleted,
	})
}
