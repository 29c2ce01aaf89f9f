package orders

import (
	"context"
	"notification-service/internal/entities"
)

// Repository is the order storage the reconciliation engine reads from and
// writes notes through. Finders return (nil, nil) when nothing matches.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*entities.Order, error)
	FindByAuthorizationID(ctx context.Context, systemName, authorizationID string) (*entities.Order, error)
	FindByCaptureID(ctx context.Context, systemName, captureID string) (*entities.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*entities.Order, error)
	Save(ctx context.Context, order *entities.Order) error
}
