package inbox

import (
	"context"
	"notification-service/internal/dtos"
)

// Inbox records handled notifications and suppresses redelivered ones.
type Inbox interface {
	// Claim returns false when the notification id was already claimed.
	Claim(ctx context.Context, notificationID string) (bool, error)
	// Release drops a claim so a redelivery is processed again.
	Release(ctx context.Context, notificationID string) error
	Record(ctx context.Context, e dtos.InboxEntry) error
	Summary(ctx context.Context, f dtos.NotificationSummaryFilters) (*dtos.NotificationSummary, error)
	Clear(ctx context.Context) error
}
