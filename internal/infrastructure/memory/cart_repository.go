package memory

import (
	"sort"
	"time"

	"github.com/jhoicas/commerce-core/internal/domain/entity"
	"github.com/jhoicas/commerce-core/internal/domain/repository"
)

var _ repository.CartRepository = (*cartRepo)(nil)

type cartRepo struct {
	s    *Store
	inTx bool
}

func (r *cartRepo) Create(c *entity.Cart) error {
	defer r.s.enter(r.inTx)()
	cp := *c
	cp.Items = nil
	r.s.carts[c.ID] = &cp
	return nil
}

func (r *cartRepo) GetByID(id string) (*entity.Cart, error) {
	defer r.s.enter(r.inTx)()
	return r.getLocked(id), nil
}

// GetForUpdate en memoria equivale a GetByID: el lock del store ya serializa.
func (r *cartRepo) GetForUpdate(id string) (*entity.Cart, error) {
	defer r.s.enter(r.inTx)()
	return r.getLocked(id), nil
}

func (r *cartRepo) getLocked(id string) *entity.Cart {
	c, ok := r.s.carts[id]
	if !ok {
		return nil
	}
	cp := *c
	cp.Items = r.itemsLocked(id)
	return &cp
}

func (r *cartRepo) UpdateStatus(id string, from, to entity.CartStatus, at time.Time) (bool, error) {
	defer r.s.enter(r.inTx)()
	c, ok := r.s.carts[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	c.UpdatedAt = at
	return true, nil
}

func (r *cartRepo) Touch(id string, at time.Time) error {
	defer r.s.enter(r.inTx)()
	if c, ok := r.s.carts[id]; ok {
		c.UpdatedAt = at
	}
	return nil
}

func (r *cartRepo) AddItem(item *entity.CartItem) error {
	defer r.s.enter(r.inTx)()
	cp := *item
	r.s.items[item.ID] = &cp
	return nil
}

func (r *cartRepo) GetItem(itemID string) (*entity.CartItem, error) {
	defer r.s.enter(r.inTx)()
	it, ok := r.s.items[itemID]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *cartRepo) UpdateItem(item *entity.CartItem) error {
	defer r.s.enter(r.inTx)()
	if _, ok := r.s.items[item.ID]; ok {
		cp := *item
		r.s.items[item.ID] = &cp
	}
	return nil
}

func (r *cartRepo) RemoveItem(itemID string) error {
	defer r.s.enter(r.inTx)()
	delete(r.s.items, itemID)
	return nil
}

func (r *cartRepo) ListIdle(status entity.CartStatus, before time.Time, limit int) ([]*entity.Cart, error) {
	defer r.s.enter(r.inTx)()
	var list []*entity.Cart
	for _, c := range r.s.carts {
		if c.Status == status && c.UpdatedAt.Before(before) {
			cp := *c
			cp.Items = r.itemsLocked(c.ID)
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.Before(list[j].UpdatedAt) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *cartRepo) DeleteOlderThan(statuses []entity.CartStatus, before time.Time, limit int) (int, error) {
	defer r.s.enter(r.inTx)()
	allowed := make(map[entity.CartStatus]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}
	deleted := 0
	for id, c := range r.s.carts {
		if limit > 0 && deleted >= limit {
			break
		}
		if !allowed[c.Status] || !c.UpdatedAt.Before(before) {
			continue
		}
		for itemID, it := range r.s.items {
			if it.CartID == id {
				delete(r.s.items, itemID)
			}
		}
		delete(r.s.carts, id)
		deleted++
	}
	return deleted, nil
}

func (r *cartRepo) itemsLocked(cartID string) []*entity.CartItem {
	var items []*entity.CartItem
	for _, it := range r.s.items {
		if it.CartID == cartID {
			cp := *it
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items
}
