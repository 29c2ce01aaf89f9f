package orders

import (
	"context"
	"notification-service/internal/entities"
	"sort"
	"sync"
	"time"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[int64]*entities.Order
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[int64]*entities.Order),
		now:    time.Now,
	}
}

func (r *MemoryRepository) FindByID(_ context.Context, id int64) (*entities.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if o, ok := r.orders[id]; ok {
		return clone(o), nil
	}
	return nil, nil
}

func (r *MemoryRepository) FindByAuthorizationID(_ context.Context, systemName, authorizationID string) (*entities.Order, error) {
	return r.first(func(o *entities.Order) bool {
		return o.PaymentMethodSystemName == systemName && o.AuthorizationTransactionID == authorizationID
	}), nil
}

func (r *MemoryRepository) FindByCaptureID(_ context.Context, systemName, captureID string) (*entities.Order, error) {
	return r.first(func(o *entities.Order) bool {
		return o.PaymentMethodSystemName == systemName && o.CaptureTransactionID == captureID
	}), nil
}

func (r *MemoryRepository) FindByGatewayOrderID(_ context.Context, gatewayOrderID string) (*entities.Order, error) {
	return r.first(func(o *entities.Order) bool {
		return o.GatewayOrderID == gatewayOrderID
	}), nil
}

func (r *MemoryRepository) Save(_ context.Context, order *entities.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	r.orders[order.ID] = clone(order)
	return nil
}

// first returns the lowest-id order matching fn.
func (r *MemoryRepository) first(fn func(*entities.Order) bool) *entities.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.orders))
	for id := range r.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if o := r.orders[id]; fn(o) {
			return clone(o)
		}
	}
	return nil
}

func clone(o *entities.Order) *entities.Order {
	c := *o
	c.Notes = append([]entities.OrderNote(nil), o.Notes...)
	return &c
}
