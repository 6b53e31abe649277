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

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con pool o tx).
// order_notes es append-only: no existe UPDATE ni DELETE sobre esa tabla.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste el pedido con sus líneas.
func (r *OrderRepo) Create(o *entity.Order) error {
	ctx := context.Background()
	query := `
		INSERT INTO orders (id, cart_id, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.q.Exec(ctx, query, o.ID, nullIfEmpty(o.CartID), o.Status, o.Total, o.CreatedAt, o.UpdatedAt); err != nil {
		return fmt.Errorf("create order: %w", mapConcurrency(err))
	}
	for _, line := range o.Lines {
		lineQuery := `
			INSERT INTO order_lines (id, order_id, product_id, quantity, unit_price, subtotal, movement_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := r.q.Exec(ctx, lineQuery,
			line.ID, line.OrderID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal, nullIfEmpty(line.MovementID),
		); err != nil {
			return fmt.Errorf("create order line: %w", mapConcurrency(err))
		}
	}
	return nil
}

// GetByID obtiene el pedido con líneas (nil si no existe).
func (r *OrderRepo) GetByID(id string) (*entity.Order, error) {
	return r.get(id, false)
}

// GetForUpdate obtiene el pedido bloqueando la fila (SELECT FOR UPDATE).
func (r *OrderRepo) GetForUpdate(id string) (*entity.Order, error) {
	return r.get(id, true)
}

func (r *OrderRepo) get(id string, forUpdate bool) (*entity.Order, error) {
	query := `SELECT id, cart_id, status, total, created_at, updated_at FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var o entity.Order
	var cartID *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &cartID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", mapConcurrency(err))
	}
	if cartID != nil {
		o.CartID = *cartID
	}

	lines, err := r.listLines(id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

// UpdateStatus escribe el nuevo estado. La validación de la transición es del
// caso de uso; aquí solo se persiste dentro de su transacción.
func (r *OrderRepo) UpdateStatus(id string, to entity.OrderStatus, at time.Time) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, to, at)
	if err != nil {
		return fmt.Errorf("update order status: %w", mapConcurrency(err))
	}
	return nil
}

// AddNote agrega una nota de auditoría (append-only).
func (r *OrderRepo) AddNote(n *entity.OrderNote) error {
	query := `
		INSERT INTO order_notes (id, order_id, old_status, new_status, actor, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		n.ID, n.OrderID, nullIfEmpty(string(n.OldStatus)), n.NewStatus, nullIfEmpty(n.Actor), nullIfEmpty(n.Message), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add order note: %w", mapConcurrency(err))
	}
	return nil
}

// ListNotes devuelve las notas de más reciente a más antigua.
func (r *OrderRepo) ListNotes(orderID string) ([]*entity.OrderNote, error) {
	query := `
		SELECT id, order_id, old_status, new_status, actor, message, created_at
		FROM order_notes WHERE order_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order notes: %w", err)
	}
	defer rows.Close()

	var notes []*entity.OrderNote
	for rows.Next() {
		var n entity.OrderNote
		var oldStatus, actor, message *string
		if err := rows.Scan(&n.ID, &n.OrderID, &oldStatus, &n.NewStatus, &actor, &message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order note: %w", err)
		}
		if oldStatus != nil {
			n.OldStatus = entity.OrderStatus(*oldStatus)
		}
		if actor != nil {
			n.Actor = *actor
		}
		if message != nil {
			n.Message = *message
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

func (r *OrderRepo) listLines(orderID string) ([]*entity.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal, movement_id
		FROM order_lines WHERE order_id = $1 ORDER BY id ASC`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.OrderLine
	for rows.Next() {
		var l entity.OrderLine
		var movementID *string
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal, &movementID); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if movementID != nil {
			l.MovementID = *movementID
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}
