package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"salgados/internal/lifecycle"
	"salgados/internal/models"
)

type OrderLister interface {
	List(ctx context.Context) ([]models.Order, error)
}

// ActiveOrders keeps the orders still moving through the kitchen, newest first.
type ActiveOrders struct {
	mu        sync.RWMutex
	orders    []models.Order
	refreshed time.Time
}

func NewActiveOrders() *ActiveOrders {
	return &ActiveOrders{}
}

func (c *ActiveOrders) Refresh(ctx context.Context, repo OrderLister) error {
	orders, err := repo.List(ctx)
	if err != nil {
		return err
	}
	active := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if !lifecycle.IsTerminal(o.Status) {
			active = append(active, o)
		}
	}
	c.mu.Lock()
	c.orders = active
	c.refreshed = time.Now()
	c.mu.Unlock()
	return nil
}

// Get returns a copy of the cached orders and the time of the last refresh.
func (c *ActiveOrders) Get() ([]models.Order, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Order, len(c.orders))
	copy(out, c.orders)
	return out, c.refreshed
}

func (c *ActiveOrders) StartAutoRefresh(ctx context.Context, repo OrderLister, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.Refresh(ctx, repo); err != nil {
				log.Printf("Error refreshing active orders: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
