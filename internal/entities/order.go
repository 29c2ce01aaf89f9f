package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "Pending"
	PaymentStatusAuthorized        PaymentStatus = "Authorized"
	PaymentStatusPaid              PaymentStatus = "Paid"
	PaymentStatusPartiallyRefunded PaymentStatus = "PartiallyRefunded"
	PaymentStatusRefunded          PaymentStatus = "Refunded"
	PaymentStatusVoided            PaymentStatus = "Voided"
)

type Order struct {
	ID                         int64
	StoreID                    int
	PaymentMethodSystemName    string
	AuthorizationTransactionID string
	CaptureTransactionID       string
	GatewayOrderID             string
	PaymentStatus              PaymentStatus
	OrderTotal                 decimal.Decimal
	RefundedAmount             decimal.Decimal
	HasNewPaymentNotification  bool
	Notes                      []OrderNote
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// OrderNote is an audit entry attached to an order.
type OrderNote struct {
	ID                uuid.UUID
	Note              string
	DisplayToCustomer bool
	CreatedAt         time.Time
}

// AddNote appends an internal note and returns it.
func (o *Order) AddNote(text string, createdAt time.Time) OrderNote {
	note := OrderNote{
		ID:        uuid.New(),
		Note:      text,
		CreatedAt: createdAt.UTC(),
	}
	o.Notes = append(o.Notes, note)
	return note
}
