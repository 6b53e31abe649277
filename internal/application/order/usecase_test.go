package order_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/commerce-core/internal/application/order"
	"github.com/jhoicas/commerce-core/internal/domain"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/infrastructure/memory"
	"github.com/jhoicas/commerce-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del caso de uso de pedidos: toda transición pasa por la tabla, y el
// cambio de estado con su nota de auditoría son atómicos.
// ──────────────────────────────────────────────────────────────────────────────

type transitionEvent struct {
	orderID string
	from    entity.OrderStatus
	to      entity.OrderStatus
	actor   string
}

type spyNotifier struct {
	mu     sync.Mutex
	events []transitionEvent
}

func (s *spyNotifier) OrderTransitioned(_ context.Context, orderID string, from, to entity.OrderStatus, actor string, _ time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, transitionEvent{orderID, from, to, actor})
}

func (s *spyNotifier) ReservationExpired(context.Context, string, string, int64, time.Time) {}
func (s *spyNotifier) LowStock(context.Context, string, int64, time.Time)                   {}

type orderFixture struct {
	store    *memory.Store
	clock    *memory.Clock
	notifier *spyNotifier
	uc       *order.UseCase
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	store := memory.NewStore()
	clock := memory.NewClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	notifier := &spyNotifier{}
	uc := order.NewUseCase(memory.NewTxRunner(store), store.Orders(), clock, notifier, logger.Nop())
	return &orderFixture{store: store, clock: clock, notifier: notifier, uc: uc}
}

func (f *orderFixture) seedOrder(t *testing.T, status entity.OrderStatus) string {
	t.Helper()
	id := uuid.New().String()
	now := f.clock.Now()
	require.NoError(t, f.store.Orders().Create(&entity.Order{
		ID:        id,
		Status:    status,
		Total:     decimal.NewFromInt(300),
		CreatedAt: now,
		UpdatedAt: now,
	}))
	return id
}

func TestTransition_SaltoNoPermitidoFalla(t *testing.T) {
	f := newOrderFixture(t)
	orderID := f.seedOrder(t, entity.OrderStatusPending)
	ctx := context.Background()

	// pending → shipped no está en la tabla; el pedido no debe moverse.
	err := f.uc.Transition(ctx, orderID, entity.OrderStatusShipped, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	ord, err := f.uc.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, ord.Status, "jamás se fuerza al estado más cercano")

	notes, err := f.uc.Notes(ctx, orderID)
	require.NoError(t, err)
	assert.Empty(t, notes, "una transición rechazada no deja nota")
}

func TestTransition_RutaValidaDejaAuditoria(t *testing.T) {
	f := newOrderFixture(t)
	orderID := f.seedOrder(t, entity.OrderStatusPending)
	ctx := context.Background()

	require.NoError(t, f.uc.Transition(ctx, orderID, entity.OrderStatusProcessing, "ana"))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.uc.Transition(ctx, orderID, entity.OrderStatusShipped, "luis"))

	ord, err := f.uc.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusShipped, ord.Status)

	notes, err := f.uc.Notes(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, notes, 2, "una nota por transición aplicada")

	// Más reciente primero.
	assert.Equal(t, entity.OrderStatusProcessing, notes[0].OldStatus)
	assert.Equal(t, entity.OrderStatusShipped, notes[0].NewStatus)
	assert.Equal(t, "luis", notes[0].Actor)
	assert.Equal(t, entity.OrderStatusPending, notes[1].OldStatus)
	assert.Equal(t, entity.OrderStatusProcessing, notes[1].NewStatus)
	assert.Equal(t, "ana", notes[1].Actor)
}

func TestTransition_PedidoDesconocido(t *testing.T) {
	f := newOrderFixture(t)
	err := f.uc.Transition(context.Background(), "no-existe", entity.OrderStatusProcessing, "ana")
	assert.ErrorIs(t, err, domain.ErrUnknownOrder)
}

func TestTransition_NotificaDespuesDelCommit(t *testing.T) {
	f := newOrderFixture(t)
	orderID := f.seedOrder(t, entity.OrderStatusPending)
	ctx := context.Background()

	require.NoError(t, f.uc.Transition(ctx, orderID, entity.OrderStatusCancelled, "ana"))

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	require.Len(t, f.notifier.events, 1)
	ev := f.notifier.events[0]
	assert.Equal(t, orderID, ev.orderID)
	assert.Equal(t, entity.OrderStatusPending, ev.from)
	assert.Equal(t, entity.OrderStatusCancelled, ev.to)
	assert.Equal(t, "ana", ev.actor)
}

func TestTransition_RechazadaNoNotifica(t *testing.T) {
	f := newOrderFixture(t)
	orderID := f.seedOrder(t, entity.OrderStatusCancelled)

	err := f.uc.Transition(context.Background(), orderID, entity.OrderStatusProcessing, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	assert.Empty(t, f.notifier.events)
}

func TestTransition_ReintentoDesdeFailed(t *testing.T) {
	f := newOrderFixture(t)
	orderID := f.seedOrder(t, entity.OrderStatusFailed)
	ctx := context.Background()

	require.NoError(t, f.uc.Transition(ctx, orderID, entity.OrderStatusPending, "sistema"))

	// Desde failed solo se permite pending.
	orderID2 := f.seedOrder(t, entity.OrderStatusFailed)
	err := f.uc.Transition(ctx, orderID2, entity.OrderStatusCompleted, "sistema")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_ConcurrenciaUnSoloGanador(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	// delivered admite completed y refunded, pero solo una puede aplicar.
	orderID := f.seedOrder(t, entity.OrderStatusDelivered)

	var wg sync.WaitGroup
	results := make([]error, 2)
	targets := []entity.OrderStatus{entity.OrderStatusCompleted, entity.OrderStatusRefunded}
	for i, to := range targets {
		wg.Add(1)
		go func(i int, to entity.OrderStatus) {
			defer wg.Done()
			results[i] = f.uc.Transition(ctx, orderID, to, "ana")
		}(i, to)
	}
	wg.Wait()

	exitos := 0
	for _, err := range results {
		if err == nil {
			exitos++
		} else {
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, exitos, "exactamente una transición concurrente gana")

	notes, err := f.uc.Notes(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, notes, 1, "solo la ganadora deja nota")
}
