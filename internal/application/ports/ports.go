package ports

import (
	"context"
	"time"

	"github.com/jhoicas/commerce-core/internal/domain/entity"
)

// Clock abstrae el reloj para poder controlar el tiempo en tests y en el sweeper.
type Clock interface {
	Now() time.Time
}

// SystemClock implementación de producción sobre time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Settings es la superficie de configuración que el núcleo consume (no posee).
// Se lee en el momento de la llamada como lookups clave/valor; el núcleo no
// guarda estado de configuración global propio.
type Settings interface {
	BackordersAllowed() bool
	LowStockThreshold() int64
	ReservationTTL() time.Duration
	CartAbandonWindow() time.Duration
	CartExpiryWindow() time.Duration
	CartRetention() time.Duration
	SweepInterval() time.Duration
	AutoSweep() bool
}

// Notifier colaborador de notificación/auditoría. Fire-and-forget: un fallo
// aquí jamás revierte el cambio de estado que lo originó.
type Notifier interface {
	OrderTransitioned(ctx context.Context, orderID string, from, to entity.OrderStatus, actor string, at time.Time)
	ReservationExpired(ctx context.Context, movementID, productID string, quantity int64, at time.Time)
	LowStock(ctx context.Context, productID string, available int64, at time.Time)
}

// NopNotifier descarta todas las notificaciones (tests, modo sin broker).
type NopNotifier struct{}

func (NopNotifier) OrderTransitioned(context.Context, string, entity.OrderStatus, entity.OrderStatus, string, time.Time) {
}
func (NopNotifier) ReservationExpired(context.Context, string, string, int64, time.Time) {}
func (NopNotifier) LowStock(context.Context, string, int64, time.Time)                   {}

// Locker mutex distribuido para trabajos que no deben solaparse (sweep).
// ok=false significa que otra instancia tiene el lock y este turno se salta.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}
