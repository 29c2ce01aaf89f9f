package dtos

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type MessageType string

const (
	MessageAuthorization MessageType = "Authorization"
	MessageCapture       MessageType = "Capture"
	MessageRefund        MessageType = "Refund"
)

// ParseMessageType normalizes the short and the gateway's long type names.
// Unrecognized values are returned unchanged so callers can report them.
func ParseMessageType(s string) MessageType {
	name := strings.TrimSpace(s)
	trimmed := strings.TrimSuffix(strings.ToLower(name), "notification")

	switch trimmed {
	case "authorization":
		return MessageAuthorization
	case "capture":
		return MessageCapture
	case "refund":
		return MessageRefund
	}
	return MessageType(name)
}

func (t MessageType) Known() bool {
	switch t {
	case MessageAuthorization, MessageCapture, MessageRefund:
		return true
	}
	return false
}

// Notification is an inbound gateway message, already parsed by the boundary layer.
type Notification struct {
	ID              string
	MessageType     MessageType
	AuthorizationID string
	CaptureID       string
	RefundID        string
	GatewayOrderID  string
	State           string
	Amount          decimal.Decimal
	Currency        string
	Timestamp       time.Time
}

type NotificationRequest struct {
	NotificationId  string          `json:"notificationId"`
	MessageType     string          `json:"messageType"`
	AuthorizationId string          `json:"authorizationId,omitempty"`
	CaptureId       string          `json:"captureId,omitempty"`
	RefundId        string          `json:"refundId,omitempty"`
	GatewayOrderId  string          `json:"gatewayOrderId"`
	State           string          `json:"state,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

func (r NotificationRequest) ToNotification() Notification {
	return Notification{
		ID:              r.NotificationId,
		MessageType:     ParseMessageType(r.MessageType),
		AuthorizationID: r.AuthorizationId,
		CaptureID:       r.CaptureId,
		RefundID:        r.RefundId,
		GatewayOrderID:  r.GatewayOrderId,
		State:           r.State,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Timestamp:       r.Timestamp,
	}
}

type NotificationResponse struct {
	Status   string `json:"status"`
	OrderId  int64  `json:"orderId,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type CorrelationResponse struct {
	OrderId          int64    `json:"orderId"`
	Version          string   `json:"version"`
	GatewayOrderId   string   `json:"gatewayOrderId,omitempty"`
	AuthorizationId  string   `json:"authorizationId,omitempty"`
	CaptureId        string   `json:"captureId,omitempty"`
	RefundIds        []string `json:"refundIds"`
	SettledRefundIds []string `json:"settledRefundIds,omitempty"`
}
