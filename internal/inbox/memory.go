package inbox

import (
	"context"
	"notification-service/internal/dtos"
	"sync"
	"time"
)

type MemoryInbox struct {
	mu       sync.Mutex
	claims   map[string]time.Time
	entries  []dtos.InboxEntry
	claimTTL time.Duration
	now      func() time.Time
}

func NewMemoryInbox(claimTTL time.Duration) *MemoryInbox {
	return &MemoryInbox{
		claims:   make(map[string]time.Time),
		claimTTL: claimTTL,
		now:      time.Now,
	}
}

func (m *MemoryInbox) Claim(_ context.Context, notificationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if expires, ok := m.claims[notificationID]; ok && now.Before(expires) {
		return false, nil
	}
	m.claims[notificationID] = now.Add(m.claimTTL)
	return true, nil
}

func (m *MemoryInbox) Release(_ context.Context, notificationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, notificationID)
	return nil
}

func (m *MemoryInbox) Record(_ context.Context, e dtos.InboxEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *MemoryInbox) Summary(_ context.Context, f dtos.NotificationSummaryFilters) (*dtos.NotificationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := dtos.NewNotificationSummary()
	for _, e := range m.entries {
		if !f.From.IsZero() && e.ReceivedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.ReceivedAt.After(f.To) {
			continue
		}
		summary.Add(e)
	}
	return summary, nil
}

func (m *MemoryInbox) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims = make(map[string]time.Time)
	m.entries = nil
	return nil
}
