package sweeper

import (
	"context"
	"time"

	"github.com/jhoicas/commerce-core/internal/application/ports"
	"github.com/jhoicas/commerce-core/internal/application/reservation"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
	"github.com/jhoicas/commerce-core/pkg/logger"
)

const (
	// lockKey clave del mutex distribuido: una sola pasada lógica a la vez.
	lockKey = "sweep:commerce-core"
	// lockTTL techo de vida del lock por si el proceso muere a mitad de pasada.
	lockTTL = 2 * time.Minute

	cartBatchSize = 200
)

// Report resultado de una pasada de sweep.
type Report struct {
	Skipped             bool // otra instancia tenía el lock
	ReservationsExpired int
	CartsAbandoned      int
	CartsExpired        int
	CartsDeleted        int
}

// Sweeper es el job periódico e idempotente que materializa el decaimiento por
// tiempo: reservas vencidas, carritos abandonados/expirados y retención.
// expires_at es una fecha blanda: una reserva no desaparece en el instante
// exacto, solo no sobrevive a la siguiente pasada exitosa posterior.
type Sweeper struct {
	engine    *reservation.Engine
	carts     repository.CartRepository
	movements repository.StockMovementRepository
	locker    ports.Locker
	settings  ports.Settings
	clock     ports.Clock
	log       *logger.Logger
}

// New construye el sweeper.
func New(
	engine *reservation.Engine,
	carts repository.CartRepository,
	movements repository.StockMovementRepository,
	locker ports.Locker,
	settings ports.Settings,
	clock ports.Clock,
	log *logger.Logger,
) *Sweeper {
	return &Sweeper{
		engine:    engine,
		carts:     carts,
		movements: movements,
		locker:    locker,
		settings:  settings,
		clock:     clock,
		log:       log,
	}
}

// Sweep ejecuta una pasada. Si otra instancia tiene el lock, se salta completa
// (Report.Skipped) en lugar de esperar: solapar pasadas duplicaría conteos.
// Un registro problemático se loguea y no aborta el batch. Los carritos
// converted jamás se tocan.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Report, error) {
	release, ok, err := s.locker.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		return Report{}, err
	}
	if !ok {
		s.log.Debug().Msg("sweep en curso en otra instancia, se salta la pasada")
		return Report{Skipped: true}, nil
	}
	defer release()

	var report Report

	// 1. Reservas vencidas → expired (delegado al motor de reservas).
	expired, err := s.engine.ExpireDue(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("error expirando reservas, se continúa con carritos")
	}
	report.ReservationsExpired = expired

	// 2. Carritos activos sin actividad dentro de la ventana de abandono.
	report.CartsAbandoned = s.abandonIdleCarts(ctx, now)

	// 3. Carritos (activos o abandonados) pasados de la ventana de expiración:
	//    liberar sus reservas pendientes y marcarlos expired.
	report.CartsExpired = s.expireStaleCarts(ctx, now)

	// 4. Retención: borrado físico de carritos expirados viejos.
	deleted, err := s.carts.DeleteOlderThan(
		[]entity.CartStatus{entity.CartStatusExpired},
		now.Add(-s.settings.CartRetention()),
		cartBatchSize,
	)
	if err != nil {
		s.log.Error().Err(err).Msg("error borrando carritos retenidos")
	}
	report.CartsDeleted = deleted

	s.log.Info().
		Int("reservations_expired", report.ReservationsExpired).
		Int("carts_abandoned", report.CartsAbandoned).
		Int("carts_expired", report.CartsExpired).
		Int("carts_deleted", report.CartsDeleted).
		Msg("sweep finalizado")
	return report, nil
}

func (s *Sweeper) abandonIdleCarts(ctx context.Context, now time.Time) int {
	idle, err := s.carts.ListIdle(entity.CartStatusActive, now.Add(-s.settings.CartAbandonWindow()), cartBatchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("error listando carritos inactivos")
		return 0
	}
	count := 0
	for _, cart := range idle {
		ok, err := s.carts.UpdateStatus(cart.ID, entity.CartStatusActive, entity.CartStatusAbandoned, now)
		if err != nil {
			s.log.Warn().Err(err).Str("cart_id", cart.ID).Msg("error abandonando carrito, se continúa")
			continue
		}
		if ok {
			count++
		}
	}
	return count
}

func (s *Sweeper) expireStaleCarts(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-s.settings.CartExpiryWindow())
	count := 0
	for _, status := range []entity.CartStatus{entity.CartStatusActive, entity.CartStatusAbandoned} {
		stale, err := s.carts.ListIdle(status, cutoff, cartBatchSize)
		if err != nil {
			s.log.Error().Err(err).Str("status", string(status)).Msg("error listando carritos vencidos")
			continue
		}
		for _, cart := range stale {
			ok, err := s.carts.UpdateStatus(cart.ID, status, entity.CartStatusExpired, now)
			if err != nil {
				s.log.Warn().Err(err).Str("cart_id", cart.ID).Msg("error expirando carrito, se continúa")
				continue
			}
			if !ok {
				continue // otro proceso lo movió primero (ej. checkout → converted)
			}
			count++
			s.releaseCartReservations(ctx, cart)
		}
	}
	return count
}

// releaseCartReservations libera las reservas aún pendientes de los items del
// carrito. Busca por la referencia débil (cart_item + id) en vez de confiar en
// item.MovementID: cubre también reservas huérfanas de un UpdateItemQuantity
// a medio compensar. Release es no-op sobre reservas ya terminales, así que
// repetir la pasada es seguro.
func (s *Sweeper) releaseCartReservations(ctx context.Context, cart *entity.Cart) {
	for _, item := range cart.Items {
		pending, err := s.movements.ListPendingByReference(entity.RefTypeCartItem, item.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("item_id", item.ID).Msg("error buscando reservas del item, se continúa")
			continue
		}
		for _, mov := range pending {
			handle := &reservation.Handle{
				MovementID: mov.ID,
				ProductID:  mov.ProductID,
				Quantity:   mov.Quantity,
			}
			if err := s.engine.Release(ctx, handle); err != nil {
				s.log.Warn().Err(err).Str("movement_id", mov.ID).Msg("error liberando reserva del item, se continúa")
			}
		}
	}
}
