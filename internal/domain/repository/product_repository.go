package repository

import "github.com/jhoicas/commerce-core/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
// El núcleo solo necesita existencia y precio; el catálogo vive fuera.
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)

	// GetForUpdate obtiene el producto bloqueando su fila hasta el fin de la
	// transacción en curso: serializa los check-then-write de reserva entre
	// procesos que comparten la base. Fuera de una transacción equivale a GetByID.
	GetForUpdate(id string) (*entity.Product, error)

	Exists(id string) (bool, error)
}
