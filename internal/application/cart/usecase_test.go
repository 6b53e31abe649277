package cart_test

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
	"github.com/jhoicas/commerce-core/internal/domain"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/infrastructure/memory"
	"github.com/jhoicas/commerce-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del carrito: cada item activo respalda exactamente una reserva pending
// y el checkout convierte el carrito una sola vez.
// ──────────────────────────────────────────────────────────────────────────────

type cartFixture struct {
	store    *memory.Store
	clock    *memory.Clock
	settings *memory.Settings
	ledger   *stock.Ledger
	engine   *reservation.Engine
	uc       *cart.UseCase
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	store := memory.NewStore()
	clock := memory.NewClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	settings := memory.DefaultSettings()
	tx := memory.NewTxRunner(store)
	ledger := stock.NewLedger(store.Movements(), store.Products(), settings, clock, logger.Nop())
	engine := reservation.NewEngine(ledger, store.Movements(), tx, settings, clock, ports.NopNotifier{}, logger.Nop())
	uc := cart.NewUseCase(tx, store.Carts(), store.Products(), engine, settings, clock, logger.Nop())
	return &cartFixture{store: store, clock: clock, settings: settings, ledger: ledger, engine: engine, uc: uc}
}

func (f *cartFixture) seedProduct(t *testing.T, physical int64, price int64) string {
	t.Helper()
	id := uuid.New().String()
	require.NoError(t, f.store.Products().Create(&entity.Product{
		ID: id, SKU: "SKU-" + id[:8], Name: "producto", Price: decimal.NewFromInt(price),
	}))
	if physical > 0 {
		_, err := f.ledger.Record(context.Background(), stock.RecordInput{
			ProductID: id, Type: entity.MovementTypeIncrease, Quantity: physical,
			Status: entity.MovementStatusCompleted,
		})
		require.NoError(t, err)
	}
	return id
}

func (f *cartFixture) available(t *testing.T, productID string) int64 {
	t.Helper()
	summary, err := f.ledger.AvailableStock(context.Background(), productID)
	require.NoError(t, err)
	return summary.Available
}

func TestAddItem_CreaCarritoYReserva(t *testing.T) {
	f := newCartFixture(t)
	productID := f.seedProduct(t, 10, 150)
	ctx := context.Background()

	crt, err := f.uc.AddItem(ctx, "", productID, 3)
	require.NoError(t, err)
	require.NotNil(t, crt)
	assert.Equal(t, entity.CartStatusActive, crt.Status)
	require.Len(t, crt.Items, 1)

	item := crt.Items[0]
	assert.Equal(t, int64(3), item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(150)), "el precio queda congelado al agregar")
	require.NotEmpty(t, item.MovementID, "el item referencia su reserva")

	assert.Equal(t, int64(7), f.available(t, productID), "agregar al carrito descuenta del disponible")

	mov, err := f.store.Movements().GetByID(item.MovementID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusPending, mov.Status)
	assert.Equal(t, entity.RefTypeCartItem, mov.RefType)
	assert.Equal(t, item.ID, mov.RefID)
}

func TestAddItem_SinStockNoTocaElCarrito(t *testing.T) {
	f := newCartFixture(t)
	productID := f.seedProduct(t, 2, 100)
	ctx := context.Background()

	crt, err := f.uc.AddItem(ctx, "", productID, 1)
	require.NoError(t, err)

	_, err = f.uc.AddItem(ctx, crt.ID, productID, 5)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	crt, err = f.uc.Get(ctx, crt.ID)
	require.NoError(t, err)
	assert.Len(t, crt.Items, 1, "el intento fallido no agrega items")
	assert.Equal(t, int64(1), f.available(t, productID))
}

func TestAddItem_Validaciones(t *testing.T) {
	f := newCartFixture(t)
	productID := f.seedProduct(t, 5, 100)
	ctx := context.Background()

	_, err := f.uc.AddItem(ctx, "", productID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.uc.AddItem(ctx, "", "no-existe", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)

	_, err = f.uc.AddItem(ctx, "carrito-inexistente", productID, 1)
	assert.ErrorIs(t, err, domain.ErrUnknownCart)
}

func TestUpdateItemQuantity_ReservaNuevaLiberaVieja(t *testing.T) {
	f := newCartFixture(t)
	productID := f.seedProduct(t, 10, 100)
	ctx := context.Background()

	crt, err := f.uc.AddItem(ctx, "", productID, 3)
	require.NoError(t, err)
	itemID := crt.Items[0].ID
	oldMovement := crt.Items[0].MovementID

	crt, err = f.uc.UpdateItemQuantity(ctx, crt.ID, itemID, 5)
	require.NoError(t, err)
	require.Len(t, crt.Items, 1)
	assert.Equal(t, int64(5), crt.Items[0].Quantity)
	assert.NotEqual(t, oldMovement, crt.Items[0].MovementID, "cantidad nueva = reserva nueva")

	mov, err := f.store.Movements().GetByID(oldMovement)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusCancelled, mov.Status, "la reserva anterior queda liberada")

	assert.Equal(t, int64(5), f.available(t, productID))
}

func TestUpdateItemQuantity_CeroElimina(t *testing.T) {
	f := newCartFixture(t)
	productID := f.seedProduct(t, 10, 100)
	ctx := context.Background()

	crt, err := f.uc.AddItem(ctx, "", productID, 3)
	require.NoError(t, err)

	crt, err = f.uc.UpdateItemQuantity(ctx, crt.ID, crt.Items[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, crt.Items)
	assert.Equal(t, int64(10), f.available(t, productID), "el cupo vuelve completo")
}

func TestRemoveItem_LiberaLaReserva(t *testing.T) {
	f := newCartFixture(t)
	productID := f.seedProduct(t, 10, 100)
	ctx := context.Background()

	crt, err := f.uc.AddItem(ctx, "", productID, 4)
	require.NoError(t, err)
	movementID := crt.Items[0].MovementID

	crt, err = f.uc.RemoveItem(ctx, crt.ID, crt.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, crt.Items)

	mov, err := f.store.Movements().GetByID(movementID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusCancelled, mov.Status)
	assert.Equal(t, int64(10), f.available(t, productID))
}

// ── Checkout ──────────────────────────────────────────────────────────────────

func TestCheckout_ConvierteUnaSolaVez(t *testing.T) {
	f := newCartFixture(t)
	pA := f.seedProduct(t, 10, 100)
	pB := f.seedProduct(t, 5, 250)
	ctx := context.Background()

	crt, err := f.uc.AddItem(ctx, "", pA, 2)
	require.NoError(t, err)
	crt, err = f.uc.AddItem(ctx, crt.ID, pB, 1)
	require.NoError(t, err)

	ord, err := f.uc.Checkout(ctx, crt.ID, "ana")
	require.NoError(t, err)
	require.NotNil(t, ord)
	assert.Equal(t, entity.OrderStatusPending, ord.Status, "el pedido nace pending")
	assert.Equal(t, crt.ID, ord.CartID)
	require.Len(t, ord.Lines, 2)
	assert.True(t, ord.Total.Equal(decimal.NewFromInt(450)), "total = 2×100 + 1×250")

	// Cada línea referencia el movimiento sale que consumió el stock.
	for _, line := range ord.Lines {
		require.NotEmpty(t, line.MovementID)
		mov, err := f.store.Movements().GetByID(line.MovementID)
		require.NoError(t, err)
		require.NotNil(t, mov)
		assert.Equal(t, entity.MovementTypeSale, mov.Type)
		assert.Equal(t, entity.MovementStatusCompleted, mov.Status)
	}

	// El consumo es definitivo: físico descuenta, reservado queda en cero.
	sumA, err := f.ledger.AvailableStock(ctx, pA)
	require.NoError(t, err)
	assert.Equal(t, int64(8), sumA.Physical)
	assert.Equal(t, int64(0), sumA.Reserved)

	// El carrito queda converted y no admite una segunda conversión.
	converted, err := f.uc.Get(ctx, crt.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CartStatusConverted, converted.Status)

	_, err = f.uc.Checkout(ctx, crt.ID, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "un carrito convertido no se convierte otra vez")
}

func TestCheckout_CarritoVacioFalla(t *testing.T) {
	f := newCartFixture(t)
	productID := f.seedProduct(t, 5, 100)
	ctx := context.Background()

	crt, err := f.uc.AddItem(ctx, "", productID, 1)
	require.NoError(t, err)
	crt, err = f.uc.RemoveItem(ctx, crt.ID, crt.Items[0].ID)
	require.NoError(t, err)

	_, err = f.uc.Checkout(ctx, crt.ID, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCheckout_ReservaExpiradaFalla(t *testing.T) {
	f := newCartFixture(t)
	f.settings.TTL = 10 * time.Minute
	productID := f.seedProduct(t, 5, 100)
	ctx := context.Background()

	crt, err := f.uc.AddItem(ctx, "", productID, 2)
	require.NoError(t, err)

	// El sweep pasa después del vencimiento y expira la reserva del item.
	f.clock.Advance(time.Hour)
	_, err = f.engine.ExpireDue(ctx, f.clock.Now())
	require.NoError(t, err)

	_, err = f.uc.Checkout(ctx, crt.ID, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition,
		"el checkout no resucita reservas expiradas")

	// El carrito sigue activo: el cliente puede volver a agregar.
	crt, err = f.uc.Get(ctx, crt.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CartStatusActive, crt.Status)
}

// Con varios items y una sola reserva vencida, el checkout rechaza sin aplicar
// nada: ningún stock consumido, ninguna reserva terminada, el carrito sigue
// activo.
func TestCheckout_ReservaExpiradaNoDejaEfectosParciales(t *testing.T) {
	f := newCartFixture(t)
	pA := f.seedProduct(t, 10, 100)
	pB := f.seedProduct(t, 5, 200)
	ctx := context.Background()

	crt, err := f.uc.AddItem(ctx, "", pA, 2)
	require.NoError(t, err)
	movA := crt.Items[0].MovementID

	// La reserva de A vence antes de agregar B: el sweep solo expira la de A.
	f.clock.Advance(f.settings.TTL + time.Minute)
	crt, err = f.uc.AddItem(ctx, crt.ID, pB, 1)
	require.NoError(t, err)
	_, err = f.engine.ExpireDue(ctx, f.clock.Now())
	require.NoError(t, err)

	_, err = f.uc.Checkout(ctx, crt.ID, "ana")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	sumA, err := f.ledger.AvailableStock(ctx, pA)
	require.NoError(t, err)
	assert.Equal(t, int64(10), sumA.Physical, "el checkout fallido no consume stock")

	gotA, err := f.store.Movements().GetByID(movA)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusExpired, gotA.Status,
		"la reserva vencida no termina completed")

	var movB string
	for _, it := range crt.Items {
		if it.MovementID != movA {
			movB = it.MovementID
		}
	}
	require.NotEmpty(t, movB)
	gotB, err := f.store.Movements().GetByID(movB)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementStatusPending, gotB.Status,
		"la reserva del otro item sigue viva")

	got, err := f.uc.Get(ctx, crt.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CartStatusActive, got.Status)
}

func TestCheckout_DejaNotaInicial(t *testing.T) {
	f := newCartFixture(t)
	productID := f.seedProduct(t, 5, 100)
	ctx := context.Background()

	crt, err := f.uc.AddItem(ctx, "", productID, 1)
	require.NoError(t, err)
	ord, err := f.uc.Checkout(ctx, crt.ID, "ana")
	require.NoError(t, err)

	notes, err := f.store.Orders().ListNotes(ord.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, entity.OrderStatusPending, notes[0].NewStatus)
	assert.Equal(t, "ana", notes[0].Actor)
}
