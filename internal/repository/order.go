package repository

import (
	"context"
	"sort"

	"salgados/internal/models"
	"salgados/internal/storage"
)

type OrderRepository struct {
	col *Collection[models.Order]
}

func NewOrderRepository(store storage.Store, strict bool) *OrderRepository {
	return &OrderRepository{col: NewCollection[models.Order](store, storage.KeyOrders, strict)}
}

// List returns every order, newest first. The order is recomputed on each call.
func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	snap, err := r.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	SortNewestFirst(snap.Items)
	return snap.Items, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	snap, err := r.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snap.Items {
		if snap.Items[i].ID == id {
			return &snap.Items[i], nil
		}
	}
	return nil, &models.NotFoundError{Collection: storage.KeyOrders, ID: id}
}

// Create appends o, refusing an id that is already taken.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	_, err := r.col.Update(ctx, func(orders []models.Order) ([]models.Order, error) {
		for _, existing := range orders {
			if existing.ID == o.ID {
				return nil, &models.DuplicateError{Collection: storage.KeyOrders, Field: "id", Value: o.ID}
			}
		}
		return append(orders, *o), nil
	})
	return err
}

// CreateNumbered appends o after number has assigned its order number from the
// orders stored at that moment. Both happen in one read-modify-write cycle.
func (r *OrderRepository) CreateNumbered(ctx context.Context, o *models.Order, number func(existing []models.Order) string) error {
	_, err := r.col.Update(ctx, func(orders []models.Order) ([]models.Order, error) {
		for _, existing := range orders {
			if existing.ID == o.ID {
				return nil, &models.DuplicateError{Collection: storage.KeyOrders, Field: "id", Value: o.ID}
			}
		}
		o.OrderNumber = number(orders)
		return append(orders, *o), nil
	})
	return err
}

// Update applies fn to the stored order with the given id and writes the collection back.
// The returned order is the persisted value.
func (r *OrderRepository) Update(ctx context.Context, id string, fn func(o *models.Order) error) (*models.Order, error) {
	var updated models.Order
	_, err := r.col.Update(ctx, func(orders []models.Order) ([]models.Order, error) {
		for i := range orders {
			if orders[i].ID != id {
				continue
			}
			if err := fn(&orders[i]); err != nil {
				return nil, err
			}
			updated = orders[i]
			return orders, nil
		}
		return nil, &models.NotFoundError{Collection: storage.KeyOrders, ID: id}
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SortNewestFirst orders by creation timestamp, descending. Ties keep stored order.
func SortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
