package stock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/commerce-core/internal/application/ports"
	"github.com/jhoicas/commerce-core/internal/domain"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
	"github.com/jhoicas/commerce-core/pkg/logger"
)

// maxCASRetries reintentos internos ante ErrConcurrentModification antes de propagarlo.
const maxCASRetries = 3

// Ledger es el registro append-only de movimientos de stock: única fuente de
// verdad de cantidades. Las cantidades físicas/reservadas se derivan plegando
// movimientos confirmados, nunca se almacenan.
type Ledger struct {
	movements repository.StockMovementRepository
	products  repository.ProductRepository
	settings  ports.Settings
	clock     ports.Clock
	log       *logger.Logger
}

// NewLedger construye el ledger.
func NewLedger(
	movements repository.StockMovementRepository,
	products repository.ProductRepository,
	settings ports.Settings,
	clock ports.Clock,
	log *logger.Logger,
) *Ledger {
	return &Ledger{
		movements: movements,
		products:  products,
		settings:  settings,
		clock:     clock,
		log:       log,
	}
}

// RecordInput entrada para registrar un movimiento.
type RecordInput struct {
	ProductID string
	Type      entity.MovementType
	Quantity  int64
	Status    entity.MovementStatus
	ExpiresAt *time.Time
	RefType   string
	RefID     string
}

// Record agrega un movimiento al ledger y devuelve su ID.
// Falla con ErrInvalidQuantity si la cantidad no es válida para el tipo
// (≤ 0 salvo adjustment, que admite signo pero no cero) y con
// ErrUnknownProduct si el producto no existe. Nunca aplica parcialmente.
func (l *Ledger) Record(ctx context.Context, in RecordInput) (string, error) {
	if in.Type == entity.MovementTypeAdjustment {
		if in.Quantity == 0 {
			return "", domain.ErrInvalidQuantity
		}
	} else if in.Quantity <= 0 {
		return "", domain.ErrInvalidQuantity
	}

	exists, err := l.products.Exists(in.ProductID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", domain.ErrUnknownProduct
	}

	now := l.clock.Now()
	mov := &entity.StockMovement{
		ID:        uuid.New().String(),
		ProductID: in.ProductID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		Status:    in.Status,
		ExpiresAt: in.ExpiresAt,
		RefType:   in.RefType,
		RefID:     in.RefID,
		CreatedAt: now,
	}
	if in.Status == entity.MovementStatusCompleted {
		mov.CompletedAt = &now
	}
	if err := l.movements.Create(mov); err != nil {
		return "", err
	}
	l.log.Debug().
		Str("movement_id", mov.ID).
		Str("product_id", mov.ProductID).
		Str("type", string(mov.Type)).
		Int64("quantity", mov.Quantity).
		Msg("movimiento registrado")
	return mov.ID, nil
}

// Complete transiciona pending → completed.
func (l *Ledger) Complete(ctx context.Context, movementID string) error {
	return l.transition(ctx, movementID, entity.MovementStatusCompleted)
}

// Cancel transiciona pending → cancelled.
func (l *Ledger) Cancel(ctx context.Context, movementID string) error {
	return l.transition(ctx, movementID, entity.MovementStatusCancelled)
}

// Expire transiciona pending → expired.
func (l *Ledger) Expire(ctx context.Context, movementID string) error {
	return l.transition(ctx, movementID, entity.MovementStatusExpired)
}

// transition aplica el CAS pending → to. Si el movimiento ya está en el mismo
// terminal es no-op idempotente; en cualquier otro estado, ErrInvalidTransition.
// ErrConcurrentModification se reintenta un número acotado de veces.
func (l *Ledger) transition(ctx context.Context, movementID string, to entity.MovementStatus) error {
	var lastErr error
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		ok, err := l.movements.UpdateStatus(movementID, to, l.clock.Now())
		if err != nil {
			if errors.Is(err, domain.ErrConcurrentModification) {
				lastErr = err
				continue
			}
			return err
		}
		if ok {
			return nil
		}
		// CAS sin efecto: ya no estaba pending. Distinguir idempotencia de error.
		mov, err := l.movements.GetByID(movementID)
		if err != nil {
			return err
		}
		if mov == nil {
			return domain.ErrUnknownMovement
		}
		if mov.Status == to {
			return nil // mismo terminal repetido: no-op
		}
		return domain.ErrInvalidTransition
	}
	return lastErr
}

// Adjust registra un ajuste directo ya confirmado (cantidad con signo).
func (l *Ledger) Adjust(ctx context.Context, productID string, quantity int64, refType, refID string) (string, error) {
	return l.Record(ctx, RecordInput{
		ProductID: productID,
		Type:      entity.MovementTypeAdjustment,
		Quantity:  quantity,
		Status:    entity.MovementStatusCompleted,
		RefType:   refType,
		RefID:     refID,
	})
}

// AvailableStock recalcula físico/reservado/disponible plegando los movimientos
// del producto. Las lecturas reflejan solo estados confirmados. Si los
// backorders están deshabilitados, el disponible se recorta a ≥ 0.
func (l *Ledger) AvailableStock(ctx context.Context, productID string) (entity.StockSummary, error) {
	exists, err := l.products.Exists(productID)
	if err != nil {
		return entity.StockSummary{}, err
	}
	if !exists {
		return entity.StockSummary{}, domain.ErrUnknownProduct
	}

	physical, reserved, err := l.movements.SummarizeByProduct(productID)
	if err != nil {
		return entity.StockSummary{}, err
	}
	available := physical - reserved
	if available < 0 && !l.settings.BackordersAllowed() {
		available = 0
	}
	return entity.StockSummary{
		ProductID: productID,
		Physical:  physical,
		Reserved:  reserved,
		Available: available,
	}, nil
}

// Movements lista el historial de un producto (más reciente primero).
func (l *Ledger) Movements(ctx context.Context, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	exists, err := l.products.Exists(productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUnknownProduct
	}
	return l.movements.ListByProduct(productID, limit, offset)
}
