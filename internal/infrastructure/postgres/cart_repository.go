package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

var _ repository.CartRepository = (*CartRepo)(nil)

// CartRepo implementación de CartRepository sobre PostgreSQL (usable con pool o tx).
type CartRepo struct {
	q Querier
}

// NewCartRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCartRepository(q Querier) *CartRepo {
	return &CartRepo{q: q}
}

// Create persiste un carrito vacío.
func (r *CartRepo) Create(c *entity.Cart) error {
	query := `INSERT INTO carts (id, status, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(context.Background(), query, c.ID, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create cart: %w", mapConcurrency(err))
	}
	return nil
}

// GetByID obtiene el carrito con sus items (nil si no existe).
func (r *CartRepo) GetByID(id string) (*entity.Cart, error) {
	return r.get(id, false)
}

// GetForUpdate obtiene el carrito bloqueando la fila (SELECT FOR UPDATE).
func (r *CartRepo) GetForUpdate(id string) (*entity.Cart, error) {
	return r.get(id, true)
}

func (r *CartRepo) get(id string, forUpdate bool) (*entity.Cart, error) {
	query := `SELECT id, status, created_at, updated_at FROM carts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var c entity.Cart
	err := r.q.QueryRow(context.Background(), query, id).Scan(&c.ID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", mapConcurrency(err))
	}
	items, err := r.listItems(id)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return &c, nil
}

// UpdateStatus cambia el estado solo si el actual coincide con from (CAS).
func (r *CartRepo) UpdateStatus(id string, from, to entity.CartStatus, at time.Time) (bool, error) {
	query := `UPDATE carts SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	tag, err := r.q.Exec(context.Background(), query, id, from, to, at)
	if err != nil {
		return false, fmt.Errorf("update cart status: %w", mapConcurrency(err))
	}
	return tag.RowsAffected() > 0, nil
}

// Touch actualiza la marca de última actividad.
func (r *CartRepo) Touch(id string, at time.Time) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE carts SET updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch cart: %w", mapConcurrency(err))
	}
	return nil
}

// AddItem agrega un item al carrito.
func (r *CartRepo) AddItem(item *entity.CartItem) error {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, movement_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.CartID, item.ProductID, item.Quantity, item.UnitPrice, item.MovementID, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add cart item: %w", mapConcurrency(err))
	}
	return nil
}

// GetItem obtiene un item por ID (nil si no existe).
func (r *CartRepo) GetItem(itemID string) (*entity.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, unit_price, movement_id, created_at
		FROM cart_items WHERE id = $1`
	var it entity.CartItem
	err := r.q.QueryRow(context.Background(), query, itemID).Scan(
		&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.MovementID, &it.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return &it, nil
}

// UpdateItem actualiza cantidad y referencia de reserva del item.
func (r *CartRepo) UpdateItem(item *entity.CartItem) error {
	query := `UPDATE cart_items SET quantity = $2, movement_id = $3 WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, item.ID, item.Quantity, item.MovementID)
	if err != nil {
		return fmt.Errorf("update cart item: %w", mapConcurrency(err))
	}
	return nil
}

// RemoveItem borra el item.
func (r *CartRepo) RemoveItem(itemID string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", mapConcurrency(err))
	}
	return nil
}

// ListIdle lista carritos en el estado dado con última actividad anterior a before.
func (r *CartRepo) ListIdle(status entity.CartStatus, before time.Time, limit int) ([]*entity.Cart, error) {
	query := `
		SELECT id, status, created_at, updated_at FROM carts
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC LIMIT $3`
	rows, err := r.q.Query(context.Background(), query, status, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list idle carts: %w", err)
	}
	defer rows.Close()

	var carts []*entity.Cart
	for rows.Next() {
		var c entity.Cart
		if err := rows.Scan(&c.ID, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart: %w", err)
		}
		carts = append(carts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range carts {
		items, err := r.listItems(c.ID)
		if err != nil {
			return nil, err
		}
		c.Items = items
	}
	return carts, nil
}

// DeleteOlderThan borra físicamente carritos (y sus items, por cascada) en los
// estados dados con última actividad anterior a before.
func (r *CartRepo) DeleteOlderThan(statuses []entity.CartStatus, before time.Time, limit int) (int, error) {
	query := `
		DELETE FROM carts WHERE id IN (
			SELECT id FROM carts
			WHERE status = ANY($1) AND updated_at < $2
			ORDER BY updated_at ASC LIMIT $3
		)`
	ss := make([]string, len(statuses))
	for i, s := range statuses {
		ss[i] = string(s)
	}
	tag, err := r.q.Exec(context.Background(), query, ss, before, limit)
	if err != nil {
		return 0, fmt.Errorf("delete old carts: %w", mapConcurrency(err))
	}
	return int(tag.RowsAffected()), nil
}

func (r *CartRepo) listItems(cartID string) ([]*entity.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, unit_price, movement_id, created_at
		FROM cart_items WHERE cart_id = $1 ORDER BY created_at ASC`
	rows, err := r.q.Query(context.Background(), query, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []*entity.CartItem
	for rows.Next() {
		var it entity.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.MovementID, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}
