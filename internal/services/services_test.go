package services

import (
	"context"
	"notification-service/internal/attributes"
	"notification-service/internal/correlation"
	"notification-service/internal/entities"
	"notification-service/internal/orders"
	"testing"

	"github.com/shopspring/decimal"
)

const (
	systemName = "Payments.Gateway"
	storeURL   = "http://shop.example/"
)

type fixture struct {
	orders *orders.MemoryRepository
	attrs  *attributes.MemoryStore
	store  *correlation.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	attrs := attributes.NewMemoryStore()
	return &fixture{
		orders: orders.NewMemoryRepository(),
		attrs:  attrs,
		store: correlation.NewStore(attrs, systemName,
			correlation.WithLocker(correlation.NewKeyedMutex()),
			correlation.WithRefundIndex(correlation.NewMemoryRefundIndex())),
	}
}

func (f *fixture) seed(t *testing.T, o *entities.Order) *entities.Order {
	t.Helper()
	if o.PaymentMethodSystemName == "" {
		o.PaymentMethodSystemName = systemName
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = entities.PaymentStatusPending
	}
	if o.StoreID == 0 {
		o.StoreID = 1
	}
	if err := f.orders.Save(context.Background(), o); err != nil {
		t.Fatalf("Failed to seed order %d: %v", o.ID, err)
	}
	return o
}

func (f *fixture) order(t *testing.T, id int64) *entities.Order {
	t.Helper()
	o, err := f.orders.FindByID(context.Background(), id)
	if err != nil || o == nil {
		t.Fatalf("Failed to load order %d: %v", id, err)
	}
	return o
}

func (f *fixture) record(t *testing.T, id int64) *entities.CorrelationRecord {
	t.Helper()
	rec, err := f.store.Load(context.Background(), f.order(t, id))
	if err != nil {
		t.Fatalf("Failed to load correlation record of order %d: %v", id, err)
	}
	return rec
}

func (f *fixture) matcher() *Matcher {
	return NewMatcher(f.orders, f.store, systemName)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
