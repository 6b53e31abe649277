package sweeper_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/commerce-core/internal/application/cart"
	"github.com/jhoicas/commerce-core/internal/application/ports"
	"github.com/jhoicas/commerce-core/internal/application/reservation"
	"github.com/jhoicas/commerce-core/internal/application/stock"
	"github.com/jhoicas/commerce-core/internal/application/sweeper"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/infrastructure/memory"
	"github.com/jhoicas/commerce-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del sweeper: la pasada es idempotente, una sola instancia corre a la
// vez y los carritos converted jamás se tocan.
// ──────────────────────────────────────────────────────────────────────────────

type sweepFixture struct {
	store    *memory.Store
	clock    *memory.Clock
	settings *memory.Settings
	locker   *memory.Locker
	ledger   *stock.Ledger
	engine   *reservation.Engine
	cartUC   *cart.UseCase
	sweeper  *sweeper.Sweeper
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	store := memory.NewStore()
	clock := memory.NewClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	settings := memory.DefaultSettings()
	locker := memory.NewLocker()
	tx := memory.NewTxRunner(store)
	ledger := stock.NewLedger(store.Movements(), store.Products(), settings, clock, logger.Nop())
	engine := reservation.NewEngine(ledger, store.Movements(), tx, settings, clock, ports.NopNotifier{}, logger.Nop())
	cartUC := cart.NewUseCase(tx, store.Carts(), store.Products(), engine, settings, clock, logger.Nop())
	sw := sweeper.New(engine, store.Carts(), store.Movements(), locker, settings, clock, logger.Nop())
	return &sweepFixture{
		store: store, clock: clock, settings: settings, locker: locker,
		ledger: ledger, engine: engine, cartUC: cartUC, sweeper: sw,
	}
}

func (f *sweepFixture) seedProduct(t *testing.T, physical int64) string {
	t.Helper()
	id := uuid.New().String()
	require.NoError(t, f.store.Products().Create(&entity.Product{
		ID: id, SKU: "SKU-" + id[:8], Name: "producto", Price: decimal.NewFromInt(80),
	}))
	_, err := f.ledger.Record(context.Background(), stock.RecordInput{
		ProductID: id, Type: entity.MovementTypeIncrease, Quantity: physical,
		Status: entity.MovementStatusCompleted,
	})
	require.NoError(t, err)
	return id
}

func TestSweep_ExpiraReservasVencidas(t *testing.T) {
	f := newSweepFixture(t)
	productID := f.seedProduct(t, 10)
	ctx := context.Background()

	_, err := f.engine.Reserve(ctx, productID, 4, 10*time.Minute, "", "")
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	report, err := f.sweeper.Sweep(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 1, report.ReservationsExpired)

	summary, err := f.ledger.AvailableStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), summary.Available, "la expiración devuelve el cupo")
}

func TestSweep_AbandonaYExpiraCarritos(t *testing.T) {
	f := newSweepFixture(t)
	f.settings.AbandonWindow = 24 * time.Hour
	f.settings.ExpiryWindow = 72 * time.Hour
	productID := f.seedProduct(t, 20)
	ctx := context.Background()

	crt, err := f.cartUC.AddItem(ctx, "", productID, 2)
	require.NoError(t, err)
	movementID := crt.Items[0].MovementID

	// Pasadas la ventana de abandono: el carrito queda abandoned.
	f.clock.Advance(30 * time.Hour)
	report, err := f.sweeper.Sweep(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, report.CartsAbandoned)

	got, err := f.cartUC.Get(ctx, crt.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CartStatusAbandoned, got.Status)

	// Pasada la ventana de expiración: expired y reservas liberadas.
	f.clock.Advance(73 * time.Hour)
	report, err = f.sweeper.Sweep(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, report.CartsExpired)

	got, err = f.cartUC.Get(ctx, crt.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CartStatusExpired, got.Status)

	mov, err := f.store.Movements().GetByID(movementID)
	require.NoError(t, err)
	assert.True(t, mov.Status.IsTerminal(), "la reserva del item no sobrevive al carrito expirado")
}

// La expiración del carrito libera toda reserva pending referida al item,
// incluso una que el puntero item.MovementID ya no conoce (ej. un
// UpdateItemQuantity interrumpido a media compensación).
func TestSweep_ExpirarCarritoLiberaReservaHuerfana(t *testing.T) {
	f := newSweepFixture(t)
	f.settings.AbandonWindow = 24 * time.Hour
	f.settings.ExpiryWindow = 72 * time.Hour
	productID := f.seedProduct(t, 10)
	ctx := context.Background()

	crt, err := f.cartUC.AddItem(ctx, "", productID, 2)
	require.NoError(t, err)
	item := crt.Items[0]

	// Reserva viva bajo la misma referencia débil, desconocida para el item.
	huerfana, err := f.engine.Reserve(ctx, productID, 3, 500*time.Hour, entity.RefTypeCartItem, item.ID)
	require.NoError(t, err)

	// Primera pasada abandona, la segunda expira el carrito.
	f.clock.Advance(80 * time.Hour)
	_, err = f.sweeper.Sweep(ctx, f.clock.Now())
	require.NoError(t, err)
	f.clock.Advance(73 * time.Hour)
	report, err := f.sweeper.Sweep(ctx, f.clock.Now())
	require.NoError(t, err)
	require.Equal(t, 1, report.CartsExpired)

	mov, err := f.store.Movements().GetByID(huerfana.MovementID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusCancelled, mov.Status,
		"la reserva huérfana del item se libera al expirar el carrito")
}

func TestSweep_ConvertedNuncaSeToca(t *testing.T) {
	f := newSweepFixture(t)
	productID := f.seedProduct(t, 10)
	ctx := context.Background()

	crt, err := f.cartUC.AddItem(ctx, "", productID, 1)
	require.NoError(t, err)
	_, err = f.cartUC.Checkout(ctx, crt.ID, "ana")
	require.NoError(t, err)

	// Mucho después de todas las ventanas.
	f.clock.Advance(1000 * time.Hour)
	report, err := f.sweeper.Sweep(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, report.CartsAbandoned)
	assert.Zero(t, report.CartsExpired)
	assert.Zero(t, report.CartsDeleted, "converted no entra en la retención")

	got, err := f.cartUC.Get(ctx, crt.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CartStatusConverted, got.Status)
}

func TestSweep_RetencionBorraExpiradosViejos(t *testing.T) {
	f := newSweepFixture(t)
	f.settings.Retention = 30 * 24 * time.Hour
	productID := f.seedProduct(t, 10)
	ctx := context.Background()

	crt, err := f.cartUC.AddItem(ctx, "", productID, 1)
	require.NoError(t, err)

	// Primera pasada: abandono. Segunda, pasada la ventana de expiración: expired.
	f.clock.Advance(80 * time.Hour)
	_, err = f.sweeper.Sweep(ctx, f.clock.Now())
	require.NoError(t, err)
	f.clock.Advance(73 * time.Hour)
	_, err = f.sweeper.Sweep(ctx, f.clock.Now())
	require.NoError(t, err)

	got, err := f.cartUC.Get(ctx, crt.ID)
	require.NoError(t, err)
	require.Equal(t, entity.CartStatusExpired, got.Status)

	// Pasado el período de retención: borrado físico.
	f.clock.Advance(31 * 24 * time.Hour)
	report, err := f.sweeper.Sweep(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, report.CartsDeleted)

	cart2, err := f.store.Carts().GetByID(crt.ID)
	require.NoError(t, err)
	assert.Nil(t, cart2, "el carrito expirado viejo ya no existe")
}

func TestSweep_Idempotente(t *testing.T) {
	f := newSweepFixture(t)
	productID := f.seedProduct(t, 10)
	ctx := context.Background()

	_, err := f.engine.Reserve(ctx, productID, 2, 10*time.Minute, "", "")
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	now := f.clock.Now()

	first, err := f.sweeper.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ReservationsExpired)

	second, err := f.sweeper.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, second.ReservationsExpired, "repetir la pasada no duplica efectos")
	assert.Zero(t, second.CartsAbandoned)
}

func TestSweep_LockOcupadoSeSalta(t *testing.T) {
	f := newSweepFixture(t)
	ctx := context.Background()

	// Otra "instancia" tiene el lock.
	release, ok, err := f.locker.Acquire(ctx, "sweep:commerce-core", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	report, err := f.sweeper.Sweep(ctx, f.clock.Now())
	require.NoError(t, err)
	assert.True(t, report.Skipped, "con el lock tomado la pasada completa se salta")
	assert.Zero(t, report.ReservationsExpired)
}
