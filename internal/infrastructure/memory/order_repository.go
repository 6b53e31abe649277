package memory

import (
	"sort"
	"time"

	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

type orderRepo struct {
	s    *Store
	inTx bool
}

func (r *orderRepo) Create(o *entity.Order) error {
	defer r.s.enter(r.inTx)()
	cp := *o
	cp.Lines = copyLines(o.Lines)
	r.s.orders[o.ID] = &cp
	return nil
}

func (r *orderRepo) GetByID(id string) (*entity.Order, error) {
	defer r.s.enter(r.inTx)()
	return r.getLocked(id), nil
}

// GetForUpdate en memoria equivale a GetByID: el lock del store ya serializa.
func (r *orderRepo) GetForUpdate(id string) (*entity.Order, error) {
	defer r.s.enter(r.inTx)()
	return r.getLocked(id), nil
}

func (r *orderRepo) getLocked(id string) *entity.Order {
	o, ok := r.s.orders[id]
	if !ok {
		return nil
	}
	cp := *o
	cp.Lines = copyLines(o.Lines)
	return &cp
}

func (r *orderRepo) UpdateStatus(id string, to entity.OrderStatus, at time.Time) error {
	defer r.s.enter(r.inTx)()
	if o, ok := r.s.orders[id]; ok {
		o.Status = to
		o.UpdatedAt = at
	}
	return nil
}

func (r *orderRepo) AddNote(n *entity.OrderNote) error {
	defer r.s.enter(r.inTx)()
	cp := *n
	r.s.notes[n.OrderID] = append(r.s.notes[n.OrderID], &cp)
	return nil
}

func (r *orderRepo) ListNotes(orderID string) ([]*entity.OrderNote, error) {
	defer r.s.enter(r.inTx)()
	src := r.s.notes[orderID]
	notes := make([]*entity.OrderNote, 0, len(src))
	// Se recorre en reversa para que, a igual timestamp, gane la agregada después.
	for i := len(src) - 1; i >= 0; i-- {
		cp := *src[i]
		notes = append(notes, &cp)
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}

func copyLines(lines []*entity.OrderLine) []*entity.OrderLine {
	out := make([]*entity.OrderLine, 0, len(lines))
	for _, l := range lines {
		cp := *l
		out = append(out, &cp)
	}
	return out
}
