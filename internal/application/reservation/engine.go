package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/commerce-core/internal/application/ports"
	"github.com/jhoicas/commerce-core/internal/application/stock"
	"github.com/jhoicas/commerce-core/internal/domain"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
	"github.com/jhoicas/commerce-core/pkg/logger"
)

// expireBatchSize máximo de reservas vencidas procesadas por pasada.
const expireBatchSize = 500

// Handle identifica una reserva viva para el caller (carrito/checkout).
type Handle struct {
	MovementID string
	ProductID  string
	Quantity   int64
	ExpiresAt  time.Time
}

// Engine convierte "reclamar N unidades del producto P" en una entrada pending
// del ledger y la resuelve después (release, finalize o expiración por sweep).
type Engine struct {
	ledger    *stock.Ledger
	movements repository.StockMovementRepository
	tx        TxRunner
	locks     *productLocks
	settings  ports.Settings
	clock     ports.Clock
	notifier  ports.Notifier
	log       *logger.Logger
}

// NewEngine construye el motor de reservas.
func NewEngine(
	ledger *stock.Ledger,
	movements repository.StockMovementRepository,
	tx TxRunner,
	settings ports.Settings,
	clock ports.Clock,
	notifier ports.Notifier,
	log *logger.Logger,
) *Engine {
	return &Engine{
		ledger:    ledger,
		movements: movements,
		tx:        tx,
		locks:     newProductLocks(),
		settings:  settings,
		clock:     clock,
		notifier:  notifier,
		log:       log,
	}
}

// Reserve crea una reserva pending de qty unidades con expires_at = now + ttl.
// El check de disponibilidad y la inserción corren en una sola transacción con
// la fila del producto bloqueada: dos Reserve concurrentes, incluso desde
// instancias distintas contra la misma base, no pueden exceder juntos el
// disponible. El lock por producto en proceso serializa las goroutines locales
// antes de abrir la tx. Con backorders habilitados se omite el check pero
// igual se crea el movimiento.
func (e *Engine) Reserve(ctx context.Context, productID string, qty int64, ttl time.Duration, refType, refID string) (*Handle, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	unlock := e.locks.lock(productID)
	defer unlock()

	now := e.clock.Now()
	expiresAt := now.Add(ttl)
	mov := &entity.StockMovement{
		ID:        uuid.New().String(),
		ProductID: productID,
		Type:      entity.MovementTypeReservation,
		Quantity:  qty,
		Status:    entity.MovementStatusPending,
		ExpiresAt: &expiresAt,
		RefType:   refType,
		RefID:     refID,
		CreatedAt: now,
	}
	err := e.tx.RunReserve(ctx, func(products repository.ProductRepository, movements repository.StockMovementRepository) error {
		product, err := products.GetForUpdate(productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrUnknownProduct
		}
		if !e.settings.BackordersAllowed() {
			physical, reserved, err := movements.SummarizeByProduct(productID)
			if err != nil {
				return err
			}
			if physical-reserved < qty {
				return domain.ErrInsufficientStock
			}
		}
		return movements.Create(mov)
	})
	if err != nil {
		return nil, err
	}
	e.log.Debug().
		Str("movement_id", mov.ID).
		Str("product_id", productID).
		Int64("quantity", qty).
		Msg("reserva creada")
	return &Handle{
		MovementID: mov.ID,
		ProductID:  productID,
		Quantity:   qty,
		ExpiresAt:  expiresAt,
	}, nil
}

// HandleFor reconstruye un handle desde el ID del movimiento de reserva.
func (e *Engine) HandleFor(ctx context.Context, movementID string) (*Handle, error) {
	mov, err := e.movements.GetByID(movementID)
	if err != nil {
		return nil, err
	}
	if mov == nil || mov.Type != entity.MovementTypeReservation {
		return nil, domain.ErrUnknownMovement
	}
	h := &Handle{MovementID: mov.ID, ProductID: mov.ProductID, Quantity: mov.Quantity}
	if mov.ExpiresAt != nil {
		h.ExpiresAt = *mov.ExpiresAt
	}
	return h, nil
}

// Release cancela la reserva y deja un movimiento release de auditoría.
// Sobre un handle ya terminal es no-op sin error: el caller puede estar
// corriendo contra el sweeper y perder la carrera es normal.
func (e *Engine) Release(ctx context.Context, h *Handle) error {
	mov, err := e.movements.GetByID(h.MovementID)
	if err != nil {
		return err
	}
	if mov == nil {
		return domain.ErrUnknownMovement
	}
	if mov.Status.IsTerminal() {
		return nil
	}

	err = e.tx.Run(ctx, func(movements repository.StockMovementRepository) error {
		ok, err := movements.UpdateStatus(h.MovementID, entity.MovementStatusCancelled, e.clock.Now())
		if err != nil {
			return err
		}
		if !ok {
			// Otro proceso la resolvió entre la lectura y el CAS: no-op.
			return nil
		}
		return movements.Create(e.releaseAudit(mov))
	})
	if err != nil {
		return err
	}
	e.log.Debug().Str("movement_id", h.MovementID).Msg("reserva liberada")
	return nil
}

// Finalize completa la reserva convirtiéndola en consumo permanente:
// en una sola transacción aplica el CAS pending → completed y agrega un
// movimiento sale completed que referencia la reserva. Una reserva completed
// no aporta a los totales, así que cada unidad finalizada descuenta
// exactamente una vez. Falla con ErrInvalidTransition si la reserva ya no
// está pending (liberada, expirada o ya finalizada).
func (e *Engine) Finalize(ctx context.Context, h *Handle) error {
	err := e.tx.Run(ctx, func(movements repository.StockMovementRepository) error {
		_, err := e.finalizeWith(movements, h)
		return err
	})
	if err != nil {
		return err
	}
	e.log.Debug().Str("movement_id", h.MovementID).Msg("reserva finalizada")
	e.notifyLowStock(ctx, h.ProductID)
	return nil
}

// FinalizeWith ejecuta la finalización con el repositorio del caller
// (misma transacción, ej. checkout del carrito) y devuelve el ID del
// movimiento sale generado.
func (e *Engine) FinalizeWith(movements repository.StockMovementRepository, h *Handle) (string, error) {
	return e.finalizeWith(movements, h)
}

func (e *Engine) finalizeWith(movements repository.StockMovementRepository, h *Handle) (string, error) {
	now := e.clock.Now()
	ok, err := movements.UpdateStatus(h.MovementID, entity.MovementStatusCompleted, now)
	if err != nil {
		return "", err
	}
	if !ok {
		mov, err := movements.GetByID(h.MovementID)
		if err != nil {
			return "", err
		}
		if mov == nil {
			return "", domain.ErrUnknownMovement
		}
		return "", domain.ErrInvalidTransition
	}
	sale := &entity.StockMovement{
		ID:          uuid.New().String(),
		ProductID:   h.ProductID,
		Type:        entity.MovementTypeSale,
		Quantity:    h.Quantity,
		Status:      entity.MovementStatusCompleted,
		RefType:     entity.RefTypeReservation,
		RefID:       h.MovementID,
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := movements.Create(sale); err != nil {
		return "", err
	}
	return sale.ID, nil
}

// ExpireDue transiciona a expired toda reserva pending con expires_at <= now
// y devuelve cuántas expiró. Cada reserva va en su propia transacción: un
// registro problemático no bloquea el resto, y un Finalize concurrente que
// gane el CAS simplemente descarta la expiración de ese movimiento.
func (e *Engine) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := e.movements.ListPendingReservationsDue(now, expireBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, mov := range due {
		mov := mov
		err := e.tx.Run(ctx, func(movements repository.StockMovementRepository) error {
			ok, err := movements.UpdateStatus(mov.ID, entity.MovementStatusExpired, now)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrInvalidTransition // otro caller la resolvió primero
			}
			return movements.Create(e.releaseAudit(mov))
		})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				continue
			}
			e.log.Warn().Err(err).Str("movement_id", mov.ID).Msg("error expirando reserva, se continúa")
			continue
		}
		expired++
		e.notifier.ReservationExpired(ctx, mov.ID, mov.ProductID, mov.Quantity, now)
	}
	return expired, nil
}

// releaseAudit construye el movimiento release (completed, efecto cero) que
// documenta la cancelación o expiración de una reserva.
func (e *Engine) releaseAudit(reservation *entity.StockMovement) *entity.StockMovement {
	now := e.clock.Now()
	return &entity.StockMovement{
		ID:          uuid.New().String(),
		ProductID:   reservation.ProductID,
		Type:        entity.MovementTypeRelease,
		Quantity:    reservation.Quantity,
		Status:      entity.MovementStatusCompleted,
		RefType:     entity.RefTypeReservation,
		RefID:       reservation.ID,
		CreatedAt:   now,
		CompletedAt: &now,
	}
}

// notifyLowStock avisa si el disponible quedó en o bajo el umbral configurado.
// Es fire-and-forget: cualquier error solo se loguea.
func (e *Engine) notifyLowStock(ctx context.Context, productID string) {
	summary, err := e.ledger.AvailableStock(ctx, productID)
	if err != nil {
		e.log.Warn().Err(err).Str("product_id", productID).Msg("no se pudo evaluar stock bajo")
		return
	}
	if summary.Available <= e.settings.LowStockThreshold() {
		e.notifier.LowStock(ctx, productID, summary.Available, e.clock.Now())
	}
}
