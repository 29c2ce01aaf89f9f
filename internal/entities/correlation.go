package entities

import "sort"

type SchemaVersion int

const (
	SchemaLegacy  SchemaVersion = 1
	SchemaCurrent SchemaVersion = 2
)

func (v SchemaVersion) String() string {
	switch v {
	case SchemaLegacy:
		return "legacy"
	case SchemaCurrent:
		return "current"
	default:
		return "unknown"
	}
}

// CorrelationRecord maps an order to the gateway identifiers needed to
// recognize notifications about it. Fields are only ever added.
type CorrelationRecord struct {
	GatewayOrderID   string
	AuthorizationID  string
	CaptureID        string
	RefundIDs        []string
	SettledRefundIDs []string // completed refunds already booked on the order
	Version          SchemaVersion
}

func NewCorrelationRecord() *CorrelationRecord {
	return &CorrelationRecord{Version: SchemaCurrent}
}

// SetGatewayOrderID sets the gateway order id unless one is already present.
func (r *CorrelationRecord) SetGatewayOrderID(id string) bool {
	if id == "" || r.GatewayOrderID != "" {
		return false
	}
	r.GatewayOrderID = id
	return true
}

func (r *CorrelationRecord) SetAuthorizationID(id string) bool {
	if id == "" || r.AuthorizationID == id {
		return false
	}
	r.AuthorizationID = id
	return true
}

func (r *CorrelationRecord) SetCaptureID(id string) bool {
	if id == "" || r.CaptureID == id {
		return false
	}
	r.CaptureID = id
	return true
}

// AddRefundID inserts id keeping RefundIDs sorted and unique.
func (r *CorrelationRecord) AddRefundID(id string) bool {
	return insertSorted(&r.RefundIDs, id)
}

// SettleRefundID marks a refund as booked and reports whether this call
// settled it. A settled refund is always a known refund.
func (r *CorrelationRecord) SettleRefundID(id string) bool {
	r.AddRefundID(id)
	return insertSorted(&r.SettledRefundIDs, id)
}

func (r *CorrelationRecord) IsRefundSettled(id string) bool {
	i := sort.SearchStrings(r.SettledRefundIDs, id)
	return i < len(r.SettledRefundIDs) && r.SettledRefundIDs[i] == id
}

func insertSorted(ids *[]string, id string) bool {
	if id == "" {
		return false
	}
	s := *ids
	i := sort.SearchStrings(s, id)
	if i < len(s) && s[i] == id {
		return false
	}
	s = append(s, "")
	copy(s[i+1:], s[i:])
	s[i] = id
	*ids = s
	return true
}

func (r *CorrelationRecord) HasRefundID(id string) bool {
	for _, refundID := range r.RefundIDs {
		if refundID == id {
			return true
		}
	}
	return false
}

func (r *CorrelationRecord) IsEmpty() bool {
	return r.GatewayOrderID == "" && r.AuthorizationID == "" && r.CaptureID == "" && len(r.RefundIDs) == 0
}

// Equal compares the logical content, ignoring the schema version.
func (r *CorrelationRecord) Equal(other *CorrelationRecord) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.GatewayOrderID == other.GatewayOrderID &&
		r.AuthorizationID == other.AuthorizationID &&
		r.CaptureID == other.CaptureID &&
		equalIDs(r.RefundIDs, other.RefundIDs) &&
		equalIDs(r.SettledRefundIDs, other.SettledRefundIDs)
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
