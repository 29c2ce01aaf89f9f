package services

import (
	"context"
	"notification-service/internal/dtos"
	"notification-service/internal/entities"
)

// OrderFinder is the read side of order storage used for matching.
type OrderFinder interface {
	FindByID(ctx context.Context, id int64) (*entities.Order, error)
	FindByAuthorizationID(ctx context.Context, systemName, authorizationID string) (*entities.Order, error)
	FindByCaptureID(ctx context.Context, systemName, captureID string) (*entities.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*entities.Order, error)
}

// CorrelationFinder resolves gateway identifiers through the stored
// correlation records.
type CorrelationFinder interface {
	FindOrderIDByAuthorizationID(ctx context.Context, authorizationID string) (int64, bool, error)
	FindOrderIDByCaptureID(ctx context.Context, captureID string) (int64, bool, error)
	FindOrderIDByRefundID(ctx context.Context, refundID string) (int64, bool, error)
}

type Strategy string

const (
	StrategyAuthorizationID Strategy = "authorization_id"
	StrategyCaptureID       Strategy = "capture_id"
	StrategyRefundID        Strategy = "refund_id"
	StrategyGatewayOrderID  Strategy = "gateway_order_id"
)

// MatchResult is either an order with the strategy that found it, or a
// not-found classification. Unsupported is set for unrecognized message
// types, for which no strategy runs.
type MatchResult struct {
	Order       *entities.Order
	Strategy    Strategy
	Reason      string
	Unsupported bool
}

func (r MatchResult) Found() bool {
	return r.Order != nil
}

type lookup struct {
	strategy Strategy
	find     func(ctx context.Context) (*entities.Order, error)
}

// Matcher resolves notifications to orders. It classifies failures but
// never logs them.
type Matcher struct {
	orders     OrderFinder
	records    CorrelationFinder
	systemName string
}

func NewMatcher(orders OrderFinder, records CorrelationFinder, systemName string) *Matcher {
	return &Matcher{
		orders:     orders,
		records:    records,
		systemName: systemName,
	}
}

func (m *Matcher) Match(ctx context.Context, n dtos.Notification) (MatchResult, error) {
	switch n.MessageType {
	case dtos.MessageAuthorization:
		return m.run(ctx, "AuthorizationId "+n.AuthorizationID,
			m.byAuthorizationID(n.AuthorizationID))
	case dtos.MessageCapture:
		return m.run(ctx, "CaptureId "+n.CaptureID,
			m.byCaptureID(n.CaptureID),
			m.byGatewayOrderID(n.GatewayOrderID))
	case dtos.MessageRefund:
		return m.run(ctx, "RefundId "+n.RefundID,
			m.byRefundID(n.RefundID),
			m.byGatewayOrderID(n.GatewayOrderID))
	default:
		return MatchResult{Unsupported: true}, nil
	}
}

func (m *Matcher) run(ctx context.Context, reason string, lookups ...lookup) (MatchResult, error) {
	for _, l := range lookups {
		order, err := l.find(ctx)
		if err != nil {
			return MatchResult{}, err
		}
		if order != nil {
			return MatchResult{Order: order, Strategy: l.strategy}, nil
		}
	}
	return MatchResult{Reason: reason}, nil
}

// byAuthorizationID reads the order's transaction id first, then the
// correlation records.
func (m *Matcher) byAuthorizationID(id string) lookup {
	return lookup{StrategyAuthorizationID, func(ctx context.Context) (*entities.Order, error) {
		if id == "" {
			return nil, nil
		}
		order, err := m.orders.FindByAuthorizationID(ctx, m.systemName, id)
		if err != nil || order != nil {
			return order, err
		}
		return m.byRecord(ctx, id, m.records.FindOrderIDByAuthorizationID)
	}}
}

func (m *Matcher) byCaptureID(id string) lookup {
	return lookup{StrategyCaptureID, func(ctx context.Context) (*entities.Order, error) {
		if id == "" {
			return nil, nil
		}
		order, err := m.orders.FindByCaptureID(ctx, m.systemName, id)
		if err != nil || order != nil {
			return order, err
		}
		return m.byRecord(ctx, id, m.records.FindOrderIDByCaptureID)
	}}
}

func (m *Matcher) byGatewayOrderID(id string) lookup {
	return lookup{StrategyGatewayOrderID, func(ctx context.Context) (*entities.Order, error) {
		if id == "" {
			return nil, nil
		}
		return m.orders.FindByGatewayOrderID(ctx, id)
	}}
}

func (m *Matcher) byRefundID(id string) lookup {
	return lookup{StrategyRefundID, func(ctx context.Context) (*entities.Order, error) {
		if id == "" {
			return nil, nil
		}
		return m.byRecord(ctx, id, m.records.FindOrderIDByRefundID)
	}}
}

// byRecord loads the order a record lookup points at; a record whose order
// no longer exists is a miss.
func (m *Matcher) byRecord(ctx context.Context, id string, find func(context.Context, string) (int64, bool, error)) (*entities.Order, error) {
	orderID, ok, err := find(ctx, id)
	if err != nil || !ok {
		return nil, err
	}
	return m.orders.FindByID(ctx, orderID)
}
