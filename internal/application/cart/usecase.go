package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/commerce-core/internal/application/ports"
	"github.com/jhoicas/commerce-core/internal/application/reservation"
	"github.com/jhoicas/commerce-core/internal/domain"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
	"github.com/jhoicas/commerce-core/pkg/logger"
)

// UseCase operaciones de carrito: cada item activo mantiene exactamente una
// reserva pending en el ledger; el checkout convierte el carrito una sola vez.
type UseCase struct {
	tx       TxRunner
	carts    repository.CartRepository
	products repository.ProductRepository
	engine   *reservation.Engine
	settings ports.Settings
	clock    ports.Clock
	log      *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	tx TxRunner,
	carts repository.CartRepository,
	products repository.ProductRepository,
	engine *reservation.Engine,
	settings ports.Settings,
	clock ports.Clock,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		tx:       tx,
		carts:    carts,
		products: products,
		engine:   engine,
		settings: settings,
		clock:    clock,
		log:      log,
	}
}

// AddItem agrega qty unidades de un producto al carrito (cartID vacío crea uno).
// Primero reserva contra el ledger; si la persistencia del item falla, la
// reserva se libera como compensación.
func (uc *UseCase) AddItem(ctx context.Context, cartID, productID string, qty int64) (*entity.Cart, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	product, err := uc.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrUnknownProduct
	}

	now := uc.clock.Now()
	itemID := uuid.New().String()

	handle, err := uc.engine.Reserve(ctx, productID, qty, uc.settings.ReservationTTL(), entity.RefTypeCartItem, itemID)
	if err != nil {
		return nil, err
	}

	err = uc.tx.RunCart(ctx, func(carts repository.CartRepository) error {
		var cart *entity.Cart
		if cartID == "" {
			cart = &entity.Cart{
				ID:        uuid.New().String(),
				Status:    entity.CartStatusActive,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := carts.Create(cart); err != nil {
				return err
			}
			cartID = cart.ID
		} else {
			cart, err = carts.GetForUpdate(cartID)
			if err != nil {
				return err
			}
			if cart == nil {
				return domain.ErrUnknownCart
			}
			if cart.Status != entity.CartStatusActive {
				return domain.ErrInvalidTransition
			}
		}
		if err := carts.AddItem(&entity.CartItem{
			ID:         itemID,
			CartID:     cartID,
			ProductID:  productID,
			Quantity:   qty,
			UnitPrice:  product.Price,
			MovementID: handle.MovementID,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		return carts.Touch(cartID, now)
	})
	if err != nil {
		// Compensación: la reserva no debe sobrevivir a un item que no existe.
		if relErr := uc.engine.Release(ctx, handle); relErr != nil {
			uc.log.Warn().Err(relErr).Str("movement_id", handle.MovementID).Msg("no se pudo liberar la reserva compensatoria")
		}
		return nil, err
	}
	return uc.Get(ctx, cartID)
}

// UpdateItemQuantity cambia la cantidad de un item reservando primero la nueva
// cantidad y liberando después la anterior: el doble conteo momentáneo es el
// lado seguro frente a sobrevender. qty = 0 elimina el item.
func (uc *UseCase) UpdateItemQuantity(ctx context.Context, cartID, itemID string, qty int64) (*entity.Cart, error) {
	if qty < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if qty == 0 {
		return uc.RemoveItem(ctx, cartID, itemID)
	}

	item, err := uc.itemInActiveCart(ctx, cartID, itemID)
	if err != nil {
		return nil, err
	}

	newHandle, err := uc.engine.Reserve(ctx, item.ProductID, qty, uc.settings.ReservationTTL(), entity.RefTypeCartItem, itemID)
	if err != nil {
		return nil, err
	}
	oldHandle, err := uc.engine.HandleFor(ctx, item.MovementID)
	if err == nil {
		if relErr := uc.engine.Release(ctx, oldHandle); relErr != nil {
			uc.log.Warn().Err(relErr).Str("movement_id", item.MovementID).Msg("no se pudo liberar la reserva anterior")
		}
	}

	now := uc.clock.Now()
	err = uc.tx.RunCart(ctx, func(carts repository.CartRepository) error {
		item.Quantity = qty
		item.MovementID = newHandle.MovementID
		if err := carts.UpdateItem(item); err != nil {
			return err
		}
		return carts.Touch(cartID, now)
	})
	if err != nil {
		if relErr := uc.engine.Release(ctx, newHandle); relErr != nil {
			uc.log.Warn().Err(relErr).Str("movement_id", newHandle.MovementID).Msg("no se pudo liberar la reserva compensatoria")
		}
		return nil, err
	}
	return uc.Get(ctx, cartID)
}

// RemoveItem quita el item y libera su reserva (no-op si ya estaba terminal).
func (uc *UseCase) RemoveItem(ctx context.Context, cartID, itemID string) (*entity.Cart, error) {
	item, err := uc.itemInActiveCart(ctx, cartID, itemID)
	if err != nil {
		return nil, err
	}

	if handle, err := uc.engine.HandleFor(ctx, item.MovementID); err == nil {
		if relErr := uc.engine.Release(ctx, handle); relErr != nil {
			uc.log.Warn().Err(relErr).Str("movement_id", item.MovementID).Msg("no se pudo liberar la reserva del item")
		}
	}

	now := uc.clock.Now()
	err = uc.tx.RunCart(ctx, func(carts repository.CartRepository) error {
		if err := carts.RemoveItem(itemID); err != nil {
			return err
		}
		return carts.Touch(cartID, now)
	})
	if err != nil {
		return nil, err
	}
	return uc.Get(ctx, cartID)
}

// Checkout convierte el carrito exactamente una vez: en una sola transacción
// finaliza la reserva de cada item (ErrInvalidTransition si alguna expiró),
// crea el pedido pending con el snapshot de líneas y precios, deja la nota
// inicial y marca el carrito converted.
func (uc *UseCase) Checkout(ctx context.Context, cartID, actor string) (*entity.Order, error) {
	var created *entity.Order
	now := uc.clock.Now()

	err := uc.tx.RunCheckout(ctx, func(
		carts repository.CartRepository,
		orders repository.OrderRepository,
		movements repository.StockMovementRepository,
	) error {
		cart, err := carts.GetForUpdate(cartID)
		if err != nil {
			return err
		}
		if cart == nil {
			return domain.ErrUnknownCart
		}
		if cart.Status != entity.CartStatusActive || len(cart.Items) == 0 {
			return domain.ErrInvalidTransition
		}

		// El rechazo no aplica ningún efecto: toda reserva debe seguir pending
		// antes de tocar el ledger, el pedido o el carrito.
		for _, item := range cart.Items {
			mov, err := movements.GetByID(item.MovementID)
			if err != nil {
				return err
			}
			if mov == nil {
				return domain.ErrUnknownMovement
			}
			if mov.Status != entity.MovementStatusPending {
				return domain.ErrInvalidTransition
			}
		}

		ord := &entity.Order{
			ID:        uuid.New().String(),
			CartID:    cart.ID,
			Status:    entity.OrderStatusPending,
			Total:     decimal.Zero,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for _, item := range cart.Items {
			saleID, err := uc.engine.FinalizeWith(movements, &reservation.Handle{
				MovementID: item.MovementID,
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
			})
			if err != nil {
				return err
			}
			line := &entity.OrderLine{
				ID:         uuid.New().String(),
				OrderID:    ord.ID,
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				Subtotal:   item.Subtotal(),
				MovementID: saleID,
			}
			ord.Lines = append(ord.Lines, line)
			ord.Total = ord.Total.Add(line.Subtotal)
		}
		if err := orders.Create(ord); err != nil {
			return err
		}
		if err := orders.AddNote(&entity.OrderNote{
			ID:        uuid.New().String(),
			OrderID:   ord.ID,
			OldStatus: "",
			NewStatus: entity.OrderStatusPending,
			Actor:     actor,
			Message:   "pedido creado desde carrito " + cart.ID,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		ok, err := carts.UpdateStatus(cart.ID, entity.CartStatusActive, entity.CartStatusConverted, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConcurrentModification
		}
		created = ord
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("cart_id", cartID).
		Str("order_id", created.ID).
		Int("lines", len(created.Lines)).
		Msg("carrito convertido en pedido")
	return created, nil
}

// Get devuelve el carrito con items.
func (uc *UseCase) Get(ctx context.Context, cartID string) (*entity.Cart, error) {
	cart, err := uc.carts.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrUnknownCart
	}
	return cart, nil
}

// itemInActiveCart valida que el item exista y pertenezca a un carrito activo.
func (uc *UseCase) itemInActiveCart(ctx context.Context, cartID, itemID string) (*entity.CartItem, error) {
	cart, err := uc.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != entity.CartStatusActive {
		return nil, domain.ErrInvalidTransition
	}
	item, err := uc.carts.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.CartID != cartID {
		return nil, domain.ErrUnknownCart
	}
	return item, nil
}
