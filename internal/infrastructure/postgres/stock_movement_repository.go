package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, product_id, type, quantity, status, expires_at, ref_type, ref_id, created_at, completed_at, cancelled_at`

// StockMovementRepo implementación del ledger sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create agrega un movimiento al ledger (append-only).
func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.ProductID, m.Type, m.Quantity, m.Status, m.ExpiresAt,
		nullIfEmpty(m.RefType), nullIfEmpty(m.RefID), m.CreatedAt, m.CompletedAt, m.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", mapConcurrency(err))
	}
	return nil
}

// GetByID obtiene un movimiento por ID (nil si no existe).
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// UpdateStatus aplica el CAS pending → to en una sola sentencia condicionada:
// el WHERE status = 'pending' es la exclusión mutua por movimiento.
func (r *StockMovementRepo) UpdateStatus(id string, to entity.MovementStatus, at time.Time) (bool, error) {
	query := `
		UPDATE stock_movements
		SET status = $2,
		    completed_at = CASE WHEN $2 = 'completed' THEN $3 ELSE completed_at END,
		    cancelled_at = CASE WHEN $2 IN ('cancelled', 'expired') THEN $3 ELSE cancelled_at END
		WHERE id = $1 AND status = 'pending'`
	tag, err := r.q.Exec(context.Background(), query, id, to, at)
	if err != nil {
		return false, fmt.Errorf("update movement status: %w", mapConcurrency(err))
	}
	return tag.RowsAffected() > 0, nil
}

// SummarizeByProduct pliega los movimientos confirmados del producto en un
// snapshot consistente (una sola sentencia: sin lecturas sucias de status).
func (r *StockMovementRepo) SummarizeByProduct(productID string) (physical, reserved int64, err error) {
	query := `
		SELECT
			COALESCE(SUM(CASE
				WHEN status = 'completed' AND type IN ('increase', 'return') THEN quantity
				WHEN status = 'completed' AND type IN ('decrease', 'sale') THEN -quantity
				WHEN status = 'completed' AND type = 'adjustment' THEN quantity
				ELSE 0 END), 0) AS physical,
			COALESCE(SUM(CASE
				WHEN status = 'pending' AND type = 'reservation' THEN quantity
				ELSE 0 END), 0) AS reserved
		FROM stock_movements WHERE product_id = $1`
	err = r.q.QueryRow(context.Background(), query, productID).Scan(&physical, &reserved)
	if err != nil {
		return 0, 0, fmt.Errorf("summarize product stock: %w", err)
	}
	return physical, reserved, nil
}

// ListByProduct lista movimientos de un producto, más recientes primero.
func (r *StockMovementRepo) ListByProduct(productID string, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list by product: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

// ListPendingReservationsDue lista reservas pending vencidas a la fecha dada,
// más antiguas primero (entrada del sweeper).
func (r *StockMovementRepo) ListPendingReservationsDue(now time.Time, limit int) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM stock_movements
		WHERE status = 'pending' AND type = 'reservation' AND expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at ASC LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due reservations: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

// ListPendingByReference busca movimientos pending por su referencia débil.
func (r *StockMovementRepo) ListPendingByReference(refType, refID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + ` FROM stock_movements
		WHERE status = 'pending' AND ref_type = $1 AND ref_id = $2
		ORDER BY created_at ASC`
	rows, err := r.q.Query(context.Background(), query, refType, refID)
	if err != nil {
		return nil, fmt.Errorf("list by reference: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var refType, refID *string
	err := row.Scan(
		&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.Status, &m.ExpiresAt,
		&refType, &refID, &m.CreatedAt, &m.CompletedAt, &m.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	if refType != nil {
		m.RefType = *refType
	}
	if refID != nil {
		m.RefID = *refID
	}
	return &m, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
