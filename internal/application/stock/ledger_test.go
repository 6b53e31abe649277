package stock_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/commerce-core/internal/application/stock"
	"github.com/jhoicas/commerce-core/internal/domain"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/infrastructure/memory"
	"github.com/jhoicas/commerce-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests del ledger: el registro es append-only y las cantidades siempre se
// derivan plegando movimientos, nunca se almacenan.
// ──────────────────────────────────────────────────────────────────────────────

type ledgerFixture struct {
	store    *memory.Store
	clock    *memory.Clock
	settings *memory.Settings
	ledger   *stock.Ledger
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memory.NewStore()
	clock := memory.NewClock(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	settings := memory.DefaultSettings()
	ledger := stock.NewLedger(store.Movements(), store.Products(), settings, clock, logger.Nop())
	return &ledgerFixture{store: store, clock: clock, settings: settings, ledger: ledger}
}

func (f *ledgerFixture) createProduct(t *testing.T) string {
	t.Helper()
	id := uuid.New().String()
	err := f.store.Products().Create(&entity.Product{
		ID:    id,
		SKU:   "SKU-" + id[:8],
		Name:  "producto de prueba",
		Price: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	return id
}

func TestRecord_ValidaCantidadPorTipo(t *testing.T) {
	f := newLedgerFixture(t)
	productID := f.createProduct(t)
	ctx := context.Background()

	cases := []struct {
		nombre  string
		tipo    entity.MovementType
		qty     int64
		wantErr error
	}{
		{"increase positivo", entity.MovementTypeIncrease, 5, nil},
		{"increase cero", entity.MovementTypeIncrease, 0, domain.ErrInvalidQuantity},
		{"decrease negativo", entity.MovementTypeDecrease, -3, domain.ErrInvalidQuantity},
		{"adjustment negativo", entity.MovementTypeAdjustment, -3, nil},
		{"adjustment positivo", entity.MovementTypeAdjustment, 3, nil},
		{"adjustment cero", entity.MovementTypeAdjustment, 0, domain.ErrInvalidQuantity},
		{"return cero", entity.MovementTypeReturn, 0, domain.ErrInvalidQuantity},
	}
	for _, c := range cases {
		t.Run(c.nombre, func(t *testing.T) {
			_, err := f.ledger.Record(ctx, stock.RecordInput{
				ProductID: productID,
				Type:      c.tipo,
				Quantity:  c.qty,
				Status:    entity.MovementStatusCompleted,
			})
			if c.wantErr != nil {
				assert.ErrorIs(t, err, c.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecord_ProductoDesconocido(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.ledger.Record(context.Background(), stock.RecordInput{
		ProductID: "no-existe",
		Type:      entity.MovementTypeIncrease,
		Quantity:  5,
		Status:    entity.MovementStatusCompleted,
	})
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
}

func TestAvailableStock_DerivadoDelPliegue(t *testing.T) {
	f := newLedgerFixture(t)
	productID := f.createProduct(t)
	ctx := context.Background()

	record := func(tipo entity.MovementType, qty int64, status entity.MovementStatus) string {
		id, err := f.ledger.Record(ctx, stock.RecordInput{
			ProductID: productID, Type: tipo, Quantity: qty, Status: status,
		})
		require.NoError(t, err)
		return id
	}

	record(entity.MovementTypeIncrease, 10, entity.MovementStatusCompleted)
	record(entity.MovementTypeDecrease, 2, entity.MovementStatusCompleted)
	record(entity.MovementTypeReturn, 1, entity.MovementStatusCompleted)
	record(entity.MovementTypeAdjustment, -1, entity.MovementStatusCompleted)
	record(entity.MovementTypeReservation, 3, entity.MovementStatusPending)
	// Pendientes no confirmados no afectan el físico.
	record(entity.MovementTypeIncrease, 100, entity.MovementStatusPending)

	summary, err := f.ledger.AvailableStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), summary.Physical, "físico = 10 - 2 + 1 - 1")
	assert.Equal(t, int64(3), summary.Reserved, "solo la reserva pending cuenta")
	assert.Equal(t, int64(5), summary.Available, "disponible = físico - reservado")
}

func TestAvailableStock_RecorteSinBackorders(t *testing.T) {
	f := newLedgerFixture(t)
	productID := f.createProduct(t)
	ctx := context.Background()

	_, err := f.ledger.Record(ctx, stock.RecordInput{
		ProductID: productID, Type: entity.MovementTypeIncrease, Quantity: 2,
		Status: entity.MovementStatusCompleted,
	})
	require.NoError(t, err)
	_, err = f.ledger.Record(ctx, stock.RecordInput{
		ProductID: productID, Type: entity.MovementTypeReservation, Quantity: 5,
		Status: entity.MovementStatusPending,
	})
	require.NoError(t, err)

	summary, err := f.ledger.AvailableStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Available, "sin backorders el disponible se recorta a 0")

	// Con backorders se expone el negativo real.
	f.settings.Backorders = true
	summary, err = f.ledger.AvailableStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), summary.Available)
}

func TestAvailableStock_ProductoDesconocido(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.ledger.AvailableStock(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
}

// ── Transiciones de estado del movimiento ─────────────────────────────────────

func TestTransition_PendingAUnSoloTerminal(t *testing.T) {
	f := newLedgerFixture(t)
	productID := f.createProduct(t)
	ctx := context.Background()

	id, err := f.ledger.Record(ctx, stock.RecordInput{
		ProductID: productID, Type: entity.MovementTypeReservation, Quantity: 2,
		Status: entity.MovementStatusPending,
	})
	require.NoError(t, err)

	require.NoError(t, f.ledger.Complete(ctx, id))

	// Repetir el mismo terminal es no-op idempotente.
	assert.NoError(t, f.ledger.Complete(ctx, id), "repetir el mismo terminal debe ser no-op")

	// Cambiar de terminal es inválido.
	assert.ErrorIs(t, f.ledger.Cancel(ctx, id), domain.ErrInvalidTransition)
	assert.ErrorIs(t, f.ledger.Expire(ctx, id), domain.ErrInvalidTransition)
}

func TestTransition_MovimientoDesconocido(t *testing.T) {
	f := newLedgerFixture(t)
	assert.ErrorIs(t, f.ledger.Complete(context.Background(), "no-existe"), domain.ErrUnknownMovement)
}

func TestTransition_NoMutaCantidadNiTipo(t *testing.T) {
	f := newLedgerFixture(t)
	productID := f.createProduct(t)
	ctx := context.Background()

	id, err := f.ledger.Record(ctx, stock.RecordInput{
		ProductID: productID, Type: entity.MovementTypeReservation, Quantity: 4,
		Status: entity.MovementStatusPending,
	})
	require.NoError(t, err)
	require.NoError(t, f.ledger.Cancel(ctx, id))

	mov, err := f.store.Movements().GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, mov)
	assert.Equal(t, entity.MovementStatusCancelled, mov.Status)
	assert.Equal(t, int64(4), mov.Quantity, "la cantidad es inmutable")
	assert.Equal(t, entity.MovementTypeReservation, mov.Type, "el tipo es inmutable")
	assert.Equal(t, productID, mov.ProductID, "el producto es inmutable")
	require.NotNil(t, mov.CancelledAt)
}

func TestAdjust_RegistraConfirmadoConSigno(t *testing.T) {
	f := newLedgerFixture(t)
	productID := f.createProduct(t)
	ctx := context.Background()

	_, err := f.ledger.Adjust(ctx, productID, 10, "", "")
	require.NoError(t, err)
	_, err = f.ledger.Adjust(ctx, productID, -4, "", "")
	require.NoError(t, err)

	summary, err := f.ledger.AvailableStock(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), summary.Physical)
}

func TestMovements_HistorialMasRecientePrimero(t *testing.T) {
	f := newLedgerFixture(t)
	productID := f.createProduct(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := f.ledger.Record(ctx, stock.RecordInput{
			ProductID: productID, Type: entity.MovementTypeIncrease, Quantity: 1,
			Status: entity.MovementStatusCompleted,
		})
		require.NoError(t, err)
		ids = append(ids, id)
		f.clock.Advance(time.Minute)
	}

	movs, err := f.ledger.Movements(ctx, productID, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, ids[2], movs[0].ID, "el más reciente va primero")
	assert.Equal(t, ids[0], movs[2].ID)
}
