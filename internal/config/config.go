package config

import "time"

const (
	// Attribute key suffixes, prefixed with the payment method system name.
	OrderAttributeSuffix    = ".OrderAttribute"
	LegacyReferenceIdSuffix = ".OrderReferenceId"
	LegacyRefundIdSuffix    = ".RefundId"

	// Entity kind under which correlation attributes are stored
	OrderEntityKind = "Order"

	// How long a notification id stays claimed for duplicate suppression
	DefaultClaimTTL = 24 * time.Hour

	// Per-order lock lease when locking through redis
	DefaultLockTTL = 10 * time.Second

	// Standardized date format for consistency across all components
	DateTimeFormat = "2006-01-02T15:04:05.000Z"
)

// OrderAttributeKey is the key of the structured correlation record.
func OrderAttributeKey(systemName string) string {
	return systemName + OrderAttributeSuffix
}

// LegacyReferenceIdKey is the key of the pre-structured gateway order id.
func LegacyReferenceIdKey(systemName string) string {
	return systemName + LegacyReferenceIdSuffix
}

// LegacyRefundIdKey is the key older installations used for one refund id per order.
func LegacyRefundIdKey(systemName string) string {
	return systemName + LegacyRefundIdSuffix
}
