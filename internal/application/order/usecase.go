package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jhoicas/commerce-core/internal/application/ports"
	"github.com/jhoicas/commerce-core/internal/domain"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
	"github.com/jhoicas/commerce-core/pkg/logger"
)

// maxTransitionRetries reintentos ante ErrConcurrentModification.
const maxTransitionRetries = 3

// UseCase aplica transiciones validadas sobre el agregado pedido.
// Toda mutación consulta entity.CanTransition y deja una nota append-only;
// ambas escrituras van en la misma transacción.
type UseCase struct {
	tx       TxRunner
	orders   repository.OrderRepository
	clock    ports.Clock
	notifier ports.Notifier
	log      *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	tx TxRunner,
	orders repository.OrderRepository,
	clock ports.Clock,
	notifier ports.Notifier,
	log *logger.Logger,
) *UseCase {
	return &UseCase{tx: tx, orders: orders, clock: clock, notifier: notifier, log: log}
}

// Transition valida y aplica el cambio de estado orderID → to, dejando la nota
// de auditoría (estado anterior, nuevo, actor, timestamp) en la misma tx.
// Falla con ErrUnknownOrder si el pedido no existe y con ErrInvalidTransition
// si la tabla no permite el salto; jamás se fuerza al estado válido más cercano.
// La notificación de auditoría sale después del commit y su fallo no revierte nada.
func (uc *UseCase) Transition(ctx context.Context, orderID string, to entity.OrderStatus, actor string) error {
	var from entity.OrderStatus

	var lastErr error
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		err := uc.tx.RunOrder(ctx, func(orders repository.OrderRepository) error {
			ord, err := orders.GetForUpdate(orderID)
			if err != nil {
				return err
			}
			if ord == nil {
				return domain.ErrUnknownOrder
			}
			if !entity.CanTransition(ord.Status, to) {
				return domain.ErrInvalidTransition
			}
			from = ord.Status

			now := uc.clock.Now()
			if err := orders.UpdateStatus(orderID, to, now); err != nil {
				return err
			}
			return orders.AddNote(&entity.OrderNote{
				ID:        uuid.New().String(),
				OrderID:   orderID,
				OldStatus: ord.Status,
				NewStatus: to,
				Actor:     actor,
				CreatedAt: now,
			})
		})
		if err != nil {
			if errors.Is(err, domain.ErrConcurrentModification) {
				lastErr = err
				continue
			}
			return err
		}

		uc.log.Info().
			Str("order_id", orderID).
			Str("from", string(from)).
			Str("to", string(to)).
			Str("actor", actor).
			Msg("transición de pedido aplicada")
		uc.notifier.OrderTransitioned(ctx, orderID, from, to, actor, uc.clock.Now())
		return nil
	}
	return lastErr
}

// Get devuelve el pedido con sus líneas.
func (uc *UseCase) Get(ctx context.Context, orderID string) (*entity.Order, error) {
	ord, err := uc.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, domain.ErrUnknownOrder
	}
	return ord, nil
}

// Notes devuelve la auditoría del pedido, de más reciente a más antigua.
func (uc *UseCase) Notes(ctx context.Context, orderID string) ([]*entity.OrderNote, error) {
	ord, err := uc.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, domain.ErrUnknownOrder
	}
	return uc.orders.ListNotes(orderID)
}
