package memory

import (
	"sort"
	"time"

	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*movementRepo)(nil)

// movementRepo ledger append-only en memoria. inTx indica que el TxRunner ya
// tiene el lock del store.
type movementRepo struct {
	s    *Store
	inTx bool
}

func (r *movementRepo) Create(m *entity.StockMovement) error {
	defer r.s.enter(r.inTx)()
	cp := *m
	r.s.movements[m.ID] = &cp
	return nil
}

func (r *movementRepo) GetByID(id string) (*entity.StockMovement, error) {
	defer r.s.enter(r.inTx)()
	m, ok := r.s.movements[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *movementRepo) UpdateStatus(id string, to entity.MovementStatus, at time.Time) (bool, error) {
	defer r.s.enter(r.inTx)()
	m, ok := r.s.movements[id]
	if !ok || m.Status != entity.MovementStatusPending {
		return false, nil
	}
	m.Status = to
	switch to {
	case entity.MovementStatusCompleted:
		t := at
		m.CompletedAt = &t
	case entity.MovementStatusCancelled, entity.MovementStatusExpired:
		t := at
		m.CancelledAt = &t
	}
	return true, nil
}

func (r *movementRepo) SummarizeByProduct(productID string) (physical, reserved int64, err error) {
	if !r.inTx {
		r.s.mu.RLock()
		defer r.s.mu.RUnlock()
	}
	for _, m := range r.s.movements {
		if m.ProductID != productID {
			continue
		}
		physical += m.PhysicalDelta()
		reserved += m.ReservedDelta()
	}
	return physical, reserved, nil
}

func (r *movementRepo) ListByProduct(productID string, limit, offset int) ([]*entity.StockMovement, error) {
	defer r.s.enter(r.inTx)()
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID == productID {
			cp := *m
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return paginate(list, limit, offset), nil
}

func (r *movementRepo) ListPendingReservationsDue(now time.Time, limit int) ([]*entity.StockMovement, error) {
	defer r.s.enter(r.inTx)()
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.Status == entity.MovementStatusPending &&
			m.Type == entity.MovementTypeReservation &&
			m.ExpiresAt != nil && !m.ExpiresAt.After(now) {
			cp := *m
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ExpiresAt.Before(*list[j].ExpiresAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *movementRepo) ListPendingByReference(refType, refID string) ([]*entity.StockMovement, error) {
	defer r.s.enter(r.inTx)()
	var list []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.Status == entity.MovementStatusPending && m.RefType == refType && m.RefID == refID {
			cp := *m
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func paginate(list []*entity.StockMovement, limit, offset int) []*entity.StockMovement {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}
