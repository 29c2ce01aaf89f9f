package services

import (
	"context"
	"notification-service/internal/dtos"
	"notification-service/internal/entities"
)

type NotificationsInterface interface {
	Handle(ctx context.Context, n dtos.Notification) (Outcome, error)
	GetSummary(ctx context.Context, filters dtos.NotificationSummaryFilters) (*dtos.NotificationSummary, error)
	GetCorrelation(ctx context.Context, orderID int64) (*entities.Order, *entities.CorrelationRecord, error)
	Clear(ctx context.Context) error
}

type NotificationMatcher interface {
	Match(ctx context.Context, n dtos.Notification) (MatchResult, error)
}

type OrderAnnotator interface {
	Annotate(ctx context.Context, order *entities.Order, kind NoteKind, substitution string, isAsync bool) error
}
