package services

import (
	"context"
	"notification-service/internal/dtos"
	"notification-service/internal/entities"
	"strings"
)

type CorrelationUpdater interface {
	Load(ctx context.Context, order *entities.Order) (*entities.CorrelationRecord, error)
	Update(ctx context.Context, order *entities.Order, fn func(*entities.CorrelationRecord) error) (*entities.CorrelationRecord, error)
}

// CorrelationRecorder writes gateway identifiers into an order's correlation
// record under the order's lock. Empty identifiers are not recorded.
type CorrelationRecorder struct {
	store CorrelationUpdater
}

func NewCorrelationRecorder(store CorrelationUpdater) *CorrelationRecorder {
	return &CorrelationRecorder{store: store}
}

func (r *CorrelationRecorder) RecordGatewayOrder(ctx context.Context, order *entities.Order, gatewayOrderID string) (*entities.CorrelationRecord, error) {
	return r.store.Update(ctx, order, func(rec *entities.CorrelationRecord) error {
		rec.SetGatewayOrderID(gatewayOrderID)
		return nil
	})
}

func (r *CorrelationRecorder) RecordAuthorization(ctx context.Context, order *entities.Order, authorizationID string) (*entities.CorrelationRecord, error) {
	return r.store.Update(ctx, order, func(rec *entities.CorrelationRecord) error {
		rec.SetAuthorizationID(authorizationID)
		return nil
	})
}

func (r *CorrelationRecorder) RecordCapture(ctx context.Context, order *entities.Order, captureID string) (*entities.CorrelationRecord, error) {
	return r.store.Update(ctx, order, func(rec *entities.CorrelationRecord) error {
		rec.SetCaptureID(captureID)
		return nil
	})
}

func (r *CorrelationRecorder) RecordRefund(ctx context.Context, order *entities.Order, refundID string) (*entities.CorrelationRecord, error) {
	return r.store.Update(ctx, order, func(rec *entities.CorrelationRecord) error {
		rec.AddRefundID(refundID)
		return nil
	})
}

// RecordNotification stores every identifier a matched notification carries.
// For a completed refund it also settles the refund id and reports whether
// this notification was the one that settled it.
func (r *CorrelationRecorder) RecordNotification(ctx context.Context, order *entities.Order, n dtos.Notification) (*entities.CorrelationRecord, bool, error) {
	settled := false
	rec, err := r.store.Update(ctx, order, func(rec *entities.CorrelationRecord) error {
		rec.SetGatewayOrderID(n.GatewayOrderID)
		switch n.MessageType {
		case dtos.MessageAuthorization:
			rec.SetAuthorizationID(n.AuthorizationID)
		case dtos.MessageCapture:
			rec.SetCaptureID(n.CaptureID)
		case dtos.MessageRefund:
			if isCompleted(n) {
				settled = rec.SettleRefundID(n.RefundID)
			} else {
				rec.AddRefundID(n.RefundID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return rec, settled, nil
}

func isCompleted(n dtos.Notification) bool {
	return strings.EqualFold(n.State, "Completed")
}

func (r *CorrelationRecorder) Load(ctx context.Context, order *entities.Order) (*entities.CorrelationRecord, error) {
	return r.store.Load(ctx, order)
}
