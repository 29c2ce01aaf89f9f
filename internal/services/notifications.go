package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"notification-service/internal/dtos"
	"notification-service/internal/entities"
	internalErrors "notification-service/internal/errors"
	"notification-service/internal/inbox"
	"notification-service/internal/metrics"
	"notification-service/internal/orders"
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusMatched   Status = "matched"
	StatusNotFound  Status = "not_found"
	StatusDuplicate Status = "duplicate"
	StatusIgnored   Status = "ignored"
)

// Outcome is what a handled notification resolved to. Every outcome is an
// acknowledgement; only errors ask the gateway to redeliver.
type Outcome struct {
	Status   Status
	OrderID  int64
	Strategy Strategy
	Reason   string
}

type NotificationService struct {
	matcher   NotificationMatcher
	annotator OrderAnnotator
	recorder  *CorrelationRecorder
	orders    orders.Repository
	inbox     inbox.Inbox
	locker    Locker
	now       func() time.Time
}

// Locker serializes work per key; correlation.KeyedMutex and
// correlation.RedisLocker satisfy it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

type ServiceOption func(*NotificationService)

// WithOrderLocker serializes the order-side work of notifications for the
// same order. Without it concurrent notifications overwrite each other.
func WithOrderLocker(l Locker) ServiceOption {
	return func(s *NotificationService) { s.locker = l }
}

func NewNotificationService(
	matcher NotificationMatcher,
	annotator OrderAnnotator,
	recorder *CorrelationRecorder,
	orders orders.Repository,
	inbox inbox.Inbox,
	opts ...ServiceOption,
) *NotificationService {
	s := &NotificationService{
		matcher:   matcher,
		annotator: annotator,
		recorder:  recorder,
		orders:    orders,
		inbox:     inbox,
		locker:    noopLocker{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NotificationService) Handle(ctx context.Context, n dtos.Notification) (outcome Outcome, err error) {
	if strings.TrimSpace(string(n.MessageType)) == "" {
		return Outcome{}, fmt.Errorf("%w: missing message type", internalErrors.ErrInvalidNotification)
	}

	start := time.Now()
	defer func() {
		metrics.NotificationProcessingDuration.WithLabelValues(string(n.MessageType)).Observe(time.Since(start).Seconds())
		if err == nil {
			metrics.NotificationsTotal.WithLabelValues(string(n.MessageType), string(outcome.Status)).Inc()
		}
	}()

	if n.ID != "" {
		claimed, claimErr := s.inbox.Claim(ctx, n.ID)
		if claimErr != nil {
			return Outcome{}, fmt.Errorf("claiming notification %s: %w", n.ID, claimErr)
		}
		if !claimed {
			slog.Info("duplicate notification suppressed", "notificationId", n.ID, "messageType", n.MessageType)
			return Outcome{Status: StatusDuplicate}, nil
		}
		defer func() {
			if err == nil {
				return
			}
			if releaseErr := s.inbox.Release(context.WithoutCancel(ctx), n.ID); releaseErr != nil {
				slog.Error("failed to release notification claim", "notificationId", n.ID, "error", releaseErr)
			}
		}()
	}

	outcome, err = s.process(ctx, n)
	if err != nil {
		return Outcome{}, err
	}

	entry := dtos.InboxEntry{
		NotificationId: n.ID,
		MessageType:    n.MessageType,
		Status:         string(outcome.Status),
		OrderId:        outcome.OrderID,
		Reason:         outcome.Reason,
		ReceivedAt:     s.now().UTC(),
	}
	if recordErr := s.inbox.Record(ctx, entry); recordErr != nil {
		// the notification is already applied; redelivering it would apply it twice
		slog.Error("failed to record notification", "notificationId", n.ID, "error", recordErr)
	}

	return outcome, nil
}

func (s *NotificationService) process(ctx context.Context, n dtos.Notification) (Outcome, error) {
	if !n.MessageType.Known() {
		slog.Debug("ignoring notification of unknown type", "messageType", n.MessageType, "notificationId", n.ID)
		return Outcome{Status: StatusIgnored}, nil
	}

	result, err := s.matcher.Match(ctx, n)
	if err != nil {
		return Outcome{}, fmt.Errorf("matching %s notification: %w", n.MessageType, err)
	}
	if result.Unsupported {
		return Outcome{Status: StatusIgnored}, nil
	}
	if !result.Found() {
		slog.Warn("order not found", "messageType", n.MessageType, "reason", result.Reason, "notificationId", n.ID)
		return Outcome{Status: StatusNotFound, Reason: result.Reason}, nil
	}

	metrics.MatchStrategyTotal.WithLabelValues(string(result.Strategy)).Inc()

	unlock, err := s.locker.Lock(ctx, orderStateKey(result.Order.ID))
	if err != nil {
		return Outcome{}, fmt.Errorf("locking order %d: %w", result.Order.ID, err)
	}
	defer unlock()

	// the matched copy was read without the lock
	order, err := s.orders.FindByID(ctx, result.Order.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("reloading order %d: %w", result.Order.ID, err)
	}
	if order == nil {
		reason := fmt.Sprintf("Order %d", result.Order.ID)
		slog.Warn("order not found", "messageType", n.MessageType, "reason", reason, "notificationId", n.ID)
		return Outcome{Status: StatusNotFound, Reason: reason}, nil
	}

	_, settled, err := s.recorder.RecordNotification(ctx, order, n)
	if err != nil {
		return Outcome{}, fmt.Errorf("recording correlation for order %d: %w", order.ID, err)
	}
	if n.MessageType == dtos.MessageRefund && isCompleted(n) && !settled {
		slog.Warn("completed refund already booked or without refund id", "orderId", order.ID, "refundId", n.RefundID, "notificationId", n.ID)
	}

	if applyNotification(order, n, settled) {
		order.UpdatedAt = s.now().UTC()
		if err := s.orders.Save(ctx, order); err != nil {
			return Outcome{}, fmt.Errorf("saving order %d: %w", order.ID, err)
		}
	}

	if err := s.annotator.Annotate(ctx, order, noteKind(n.MessageType), substitution(n), true); err != nil {
		slog.Warn("failed to annotate order", "orderId", order.ID, "error", err)
		metrics.AnnotationFailuresTotal.Inc()
	}

	return Outcome{Status: StatusMatched, OrderID: order.ID, Strategy: result.Strategy}, nil
}

func orderStateKey(orderID int64) string {
	return "order-state:" + strconv.FormatInt(orderID, 10)
}

// applyNotification moves the order's payment state according to the
// notification and reports whether anything changed. Refund amounts are only
// booked when the refund was settled by this notification.
func applyNotification(order *entities.Order, n dtos.Notification, refundSettled bool) bool {
	changed := false
	if order.GatewayOrderID == "" && n.GatewayOrderID != "" {
		order.GatewayOrderID = n.GatewayOrderID
		changed = true
	}

	switch n.MessageType {
	case dtos.MessageAuthorization:
		if order.AuthorizationTransactionID == "" && n.AuthorizationID != "" {
			order.AuthorizationTransactionID = n.AuthorizationID
			changed = true
		}
		if strings.EqualFold(n.State, "Open") && order.PaymentStatus == entities.PaymentStatusPending {
			order.PaymentStatus = entities.PaymentStatusAuthorized
			changed = true
		}
	case dtos.MessageCapture:
		if order.CaptureTransactionID == "" && n.CaptureID != "" {
			order.CaptureTransactionID = n.CaptureID
			changed = true
		}
		if isCompleted(n) && canCapture(order.PaymentStatus) {
			order.PaymentStatus = entities.PaymentStatusPaid
			changed = true
		}
	case dtos.MessageRefund:
		if refundSettled && n.Amount.IsPositive() {
			order.RefundedAmount = order.RefundedAmount.Add(n.Amount)
			if order.RefundedAmount.GreaterThanOrEqual(order.OrderTotal) {
				order.PaymentStatus = entities.PaymentStatusRefunded
			} else {
				order.PaymentStatus = entities.PaymentStatusPartiallyRefunded
			}
			changed = true
		}
	}
	return changed
}

func canCapture(status entities.PaymentStatus) bool {
	return status == entities.PaymentStatusPending || status == entities.PaymentStatusAuthorized
}

func noteKind(t dtos.MessageType) NoteKind {
	switch t {
	case dtos.MessageAuthorization:
		return NoteAuthorization
	case dtos.MessageCapture:
		return NoteCapture
	case dtos.MessageRefund:
		return NoteRefund
	}
	return NoteAnswer
}

func substitution(n dtos.Notification) string {
	parts := make([]string, 0, 3)
	if n.State != "" {
		parts = append(parts, n.State)
	}
	if !n.Amount.IsZero() {
		parts = append(parts, n.Amount.String())
		if n.Currency != "" {
			parts = append(parts, n.Currency)
		}
	}
	return strings.Join(parts, " ")
}

func (s *NotificationService) GetSummary(ctx context.Context, filters dtos.NotificationSummaryFilters) (*dtos.NotificationSummary, error) {
	return s.inbox.Summary(ctx, filters)
}

// GetCorrelation returns ErrOrderNotFound when the order does not exist.
func (s *NotificationService) GetCorrelation(ctx context.Context, orderID int64) (*entities.Order, *entities.CorrelationRecord, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, fmt.Errorf("order %d: %w", orderID, internalErrors.ErrOrderNotFound)
	}
	record, err := s.recorder.Load(ctx, order)
	if err != nil {
		return nil, nil, err
	}
	return order, record, nil
}

func (s *NotificationService) Clear(ctx context.Context) error {
	return s.inbox.Clear(ctx)
}

// IsClientError reports whether err was caused by the notification itself
// rather than by storage.
func IsClientError(err error) bool {
	return errors.Is(err, internalErrors.ErrInvalidNotification)
}
