package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/commerce-core/internal/application/dto"
	"github.com/jhoicas/commerce-core/internal/application/stock"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
)

// StockHandler maneja las peticiones del ledger de movimientos (protegido).
type StockHandler struct {
	ledger *stock.Ledger
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *stock.Ledger) *StockHandler {
	return &StockHandler{ledger: ledger}
}

// manualMovementTypes tipos admitidos vía API; reservation/sale/release los
// genera el sistema.
var manualMovementTypes = map[entity.MovementType]bool{
	entity.MovementTypeIncrease:   true,
	entity.MovementTypeDecrease:   true,
	entity.MovementTypeReturn:     true,
	entity.MovementTypeAdjustment: true,
}

// RecordMovement registra un movimiento confirmado en el ledger.
// POST /api/stock/movements
func (h *StockHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	movType := entity.MovementType(in.Type)
	if !manualMovementTypes[movType] {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo de movimiento no admitido"})
	}
	id, err := h.ledger.Record(c.Context(), stock.RecordInput{
		ProductID: in.ProductID,
		Type:      movType,
		Quantity:  in.Quantity,
		Status:    entity.MovementStatusCompleted,
		RefType:   in.RefType,
		RefID:     in.RefID,
	})
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"movement_id": id})
}

// GetSummary devuelve físico/reservado/disponible del producto.
// GET /api/stock/:product_id
func (h *StockHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.ledger.AvailableStock(c.Context(), c.Params("product_id"))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ToStockSummaryResponse(summary))
}

// ListMovements historial del producto, más reciente primero.
// GET /api/stock/:product_id/movements?limit=&offset=
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	movs, err := h.ledger.Movements(c.Context(), c.Params("product_id"), limit, offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.ToMovementResponse(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// CancelMovement transiciona el movimiento pending → cancelled.
// POST /api/stock/movements/:id/cancel
func (h *StockHandler) CancelMovement(c *fiber.Ctx) error {
	if err := h.ledger.Cancel(c.Context(), c.Params("id")); err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "movimiento cancelado"})
}
