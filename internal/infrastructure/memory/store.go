// Package memory implementa los puertos de persistencia sobre mapas en
// proceso. Lo usan los tests y el modo sin base de datos. Un RWMutex de store
// cumple el papel de la transacción en cuanto a serialización (sin lecturas
// sucias de status a mitad de escritura), pero no hay rollback: los casos de
// uso validan todo antes de mutar.
package memory

import (
	"sync"

	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

// Store estado compartido de todos los repositorios en memoria.
type Store struct {
	mu sync.RWMutex

	movements map[string]*entity.StockMovement
	products  map[string]*entity.Product
	carts     map[string]*entity.Cart
	items     map[string]*entity.CartItem
	orders    map[string]*entity.Order
	notes     map[string][]*entity.OrderNote // por pedido, append-only
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{
		movements: make(map[string]*entity.StockMovement),
		products:  make(map[string]*entity.Product),
		carts:     make(map[string]*entity.Cart),
		items:     make(map[string]*entity.CartItem),
		orders:    make(map[string]*entity.Order),
		notes:     make(map[string][]*entity.OrderNote),
	}
}

// Movements devuelve el repositorio de movimientos sobre este store.
func (s *Store) Movements() repository.StockMovementRepository {
	return &movementRepo{s: s}
}

// Products devuelve el repositorio de productos sobre este store.
func (s *Store) Products() repository.ProductRepository {
	return &productRepo{s: s}
}

// Carts devuelve el repositorio de carritos sobre este store.
func (s *Store) Carts() repository.CartRepository {
	return &cartRepo{s: s}
}

// Orders devuelve el repositorio de pedidos sobre este store.
func (s *Store) Orders() repository.OrderRepository {
	return &orderRepo{s: s}
}

// enter toma el lock de escritura salvo que el caller (TxRunner) ya lo tenga.
func (s *Store) enter(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
