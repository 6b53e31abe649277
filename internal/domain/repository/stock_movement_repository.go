package repository

import (
	"time"

	"github.com/jhoicas/commerce-core/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del ledger de movimientos (DIP).
// El ledger es append-only: Create agrega, UpdateStatus es la única mutación permitida.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)

	// UpdateStatus aplica el CAS pending → to sobre el status; devuelve false si el
	// movimiento no estaba pending (el caller decide entre no-op idempotente y
	// ErrInvalidTransition). El adaptador marca CompletedAt/CancelledAt según to.
	UpdateStatus(id string, to entity.MovementStatus, at time.Time) (bool, error)

	// SummarizeByProduct pliega los movimientos del producto en un snapshot
	// consistente (solo estados confirmados, sin lecturas sucias).
	SummarizeByProduct(productID string) (physical, reserved int64, err error)

	ListByProduct(productID string, limit, offset int) ([]*entity.StockMovement, error)

	// ListPendingReservationsDue lista reservas pending con expires_at <= now,
	// más antiguas primero. Entrada del sweeper.
	ListPendingReservationsDue(now time.Time, limit int) ([]*entity.StockMovement, error)

	// ListPendingByReference busca por la referencia débil (tipo + id).
	ListPendingByReference(refType, refID string) ([]*entity.StockMovement, error)
}
