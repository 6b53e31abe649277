package dto

import (
	"time"

	"github.com/jhoicas/commerce-core/internal/domain/entity"
)

// RecordMovementRequest body para POST /api/stock/movements.
// Type: increase | decrease | return | adjustment. Quantity admite signo solo
// en adjustment. Los movimientos reservation/sale/release los genera el sistema.
type RecordMovementRequest struct {
	ProductID string `json:"product_id"`
	Type      string `json:"type"`
	Quantity  int64  `json:"quantity"`
	RefType   string `json:"ref_type,omitempty"`
	RefID     string `json:"ref_id,omitempty"`
}

// MovementResponse movimiento del ledger en respuestas.
type MovementResponse struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"product_id"`
	Type        string     `json:"type"`
	Quantity    int64      `json:"quantity"`
	Status      string     `json:"status"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	RefType     string     `json:"ref_type,omitempty"`
	RefID       string     `json:"ref_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// ToMovementResponse mapea la entidad al DTO de respuesta.
func ToMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		Status:      string(m.Status),
		ExpiresAt:   m.ExpiresAt,
		RefType:     m.RefType,
		RefID:       m.RefID,
		CreatedAt:   m.CreatedAt,
		CompletedAt: m.CompletedAt,
		CancelledAt: m.CancelledAt,
	}
}

// StockSummaryResponse cantidades derivadas del producto.
type StockSummaryResponse struct {
	ProductID string `json:"product_id"`
	Physical  int64  `json:"physical"`
	Reserved  int64  `json:"reserved"`
	Available int64  `json:"available"`
}

// ToStockSummaryResponse mapea el resumen derivado al DTO.
func ToStockSummaryResponse(s entity.StockSummary) StockSummaryResponse {
	return StockSummaryResponse{
		ProductID: s.ProductID,
		Physical:  s.Physical,
		Reserved:  s.Reserved,
		Available: s.Available,
	}
}

// ReserveRequest body para POST /api/reservations.
type ReserveRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	RefType   string `json:"ref_type,omitempty"`
	RefID     string `json:"ref_id,omitempty"`
}

// ReservationResponse reserva viva devuelta al caller.
type ReservationResponse struct {
	MovementID string    `json:"movement_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int64     `json:"quantity"`
	ExpiresAt  time.Time `json:"expires_at"`
}
