package correlation

import (
	"context"
	"fmt"
	"notification-service/internal/attributes"
	"notification-service/internal/config"
	"notification-service/internal/entities"
	internalErrors "notification-service/internal/errors"
	"strconv"

	"github.com/goccy/go-json"
)

// document is the persisted form of a correlation record.
type document struct {
	Version         entities.SchemaVersion `json:"version"`
	GatewayOrderId  string                 `json:"gatewayOrderId,omitempty"`
	AuthorizationId string                 `json:"authorizationId,omitempty"`
	CaptureId       string                 `json:"captureId,omitempty"`
	RefundIds       []string               `json:"refundIds,omitempty"`
	SettledRefunds  []string               `json:"settledRefundIds,omitempty"`
}

// Store reads and writes correlation records through the generic attribute
// store. Load and Save are not synchronized; Update is.
type Store struct {
	attrs     attributes.Store
	index     RefundIndex
	locker    Locker
	recordKey string
	legacyKey string
	refundKey string
}

type Option func(*Store)

// WithRefundIndex puts a refund id -> order id index in front of the linear scan.
func WithRefundIndex(index RefundIndex) Option {
	return func(s *Store) { s.index = index }
}

// WithLocker sets the lock used by Update. Without one, Update behaves like a
// plain Load/Save pair and concurrent writers race.
func WithLocker(l Locker) Option {
	return func(s *Store) { s.locker = l }
}

func NewStore(attrs attributes.Store, systemName string, opts ...Option) *Store {
	s := &Store{
		attrs:     attrs,
		locker:    NoopLocker{},
		recordKey: config.OrderAttributeKey(systemName),
		legacyKey: config.LegacyReferenceIdKey(systemName),
		refundKey: config.LegacyRefundIdKey(systemName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func orderEntity(order *entities.Order) attributes.Entity {
	return attributes.Entity{Kind: config.OrderEntityKind, ID: order.ID}
}

// Load never fails for a missing record: it falls back to the legacy gateway
// order id and finally to an empty current record.
func (s *Store) Load(ctx context.Context, order *entities.Order) (*entities.CorrelationRecord, error) {
	raw, ok, err := s.attrs.Get(ctx, orderEntity(order), s.recordKey, order.StoreID)
	if err != nil {
		return nil, err
	}
	if ok && raw != "" {
		return decode(raw)
	}

	legacy, ok, err := s.attrs.Get(ctx, orderEntity(order), s.legacyKey, order.StoreID)
	if err != nil {
		return nil, err
	}
	if ok && legacy != "" {
		return &entities.CorrelationRecord{
			GatewayOrderID: legacy,
			Version:        entities.SchemaLegacy,
		}, nil
	}

	return entities.NewCorrelationRecord(), nil
}

// Save always writes the current schema, overwriting any prior value.
func (s *Store) Save(ctx context.Context, order *entities.Order, record *entities.CorrelationRecord) error {
	raw, err := encode(record)
	if err != nil {
		return err
	}

	if err := s.attrs.Set(ctx, orderEntity(order), s.recordKey, raw, order.StoreID); err != nil {
		return err
	}
	record.Version = entities.SchemaCurrent

	if s.index != nil {
		for _, refundID := range record.RefundIDs {
			if err := s.index.Put(ctx, refundID, order.ID); err != nil {
				return fmt.Errorf("indexing refund %s: %w", refundID, err)
			}
		}
	}
	return nil
}

// Update runs fn against the order's record and saves it, holding the
// order's lock for the whole cycle.
func (s *Store) Update(ctx context.Context, order *entities.Order, fn func(*entities.CorrelationRecord) error) (*entities.CorrelationRecord, error) {
	unlock, err := s.locker.Lock(ctx, lockKey(order))
	if err != nil {
		return nil, err
	}
	defer unlock()

	record, err := s.Load(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := fn(record); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, order, record); err != nil {
		return nil, err
	}
	return record, nil
}

func lockKey(order *entities.Order) string {
	return "order:" + strconv.FormatInt(order.ID, 10)
}

// FindOrderIDByRefundID resolves a refund id to its owning order. The index
// is consulted first, then every structured record in ascending order id
// (the first hit wins), then the legacy per-order refund attributes.
func (s *Store) FindOrderIDByRefundID(ctx context.Context, refundID string) (int64, bool, error) {
	if refundID == "" {
		return 0, false, nil
	}

	if s.index != nil {
		orderID, ok, err := s.index.Get(ctx, refundID)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return orderID, true, nil
		}
	}

	orderID, ok, err := s.scan(ctx, func(r *entities.CorrelationRecord) bool {
		return r.HasRefundID(refundID)
	})
	if err != nil {
		return 0, false, err
	}
	if ok {
		if s.index != nil {
			if err := s.index.Put(ctx, refundID, orderID); err != nil {
				return 0, false, fmt.Errorf("indexing refund %s: %w", refundID, err)
			}
		}
		return orderID, true, nil
	}

	legacy, err := s.attrs.ListByKey(ctx, s.refundKey, config.OrderEntityKind)
	if err != nil {
		return 0, false, err
	}
	for _, a := range legacy {
		if a.Value == refundID {
			return a.EntityID, true, nil
		}
	}

	return 0, false, nil
}

// FindOrderIDByAuthorizationID returns the lowest order id whose record
// carries authorizationID.
func (s *Store) FindOrderIDByAuthorizationID(ctx context.Context, authorizationID string) (int64, bool, error) {
	if authorizationID == "" {
		return 0, false, nil
	}
	return s.scan(ctx, func(r *entities.CorrelationRecord) bool {
		return r.AuthorizationID == authorizationID
	})
}

// FindOrderIDByCaptureID returns the lowest order id whose record carries captureID.
func (s *Store) FindOrderIDByCaptureID(ctx context.Context, captureID string) (int64, bool, error) {
	if captureID == "" {
		return 0, false, nil
	}
	return s.scan(ctx, func(r *entities.CorrelationRecord) bool {
		return r.CaptureID == captureID
	})
}

// scan walks the structured records in ascending order id and returns the
// first one matching fn.
func (s *Store) scan(ctx context.Context, fn func(*entities.CorrelationRecord) bool) (int64, bool, error) {
	records, err := s.attrs.ListByKey(ctx, s.recordKey, config.OrderEntityKind)
	if err != nil {
		return 0, false, err
	}
	for _, a := range records {
		record, err := decode(a.Value)
		if err != nil {
			return 0, false, fmt.Errorf("order %d: %w", a.EntityID, err)
		}
		if fn(record) {
			return a.EntityID, true, nil
		}
	}
	return 0, false, nil
}

// RebuildRefundIndex writes every refund id found in structured records to
// the index and returns how many were indexed.
func (s *Store) RebuildRefundIndex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}

	records, err := s.attrs.ListByKey(ctx, s.recordKey, config.OrderEntityKind)
	if err != nil {
		return 0, err
	}

	indexed := 0
	seen := make(map[string]bool)
	for _, a := range records {
		record, err := decode(a.Value)
		if err != nil {
			return indexed, fmt.Errorf("order %d: %w", a.EntityID, err)
		}
		for _, refundID := range record.RefundIDs {
			// ascending scan order: keep the first owner
			if seen[refundID] {
				continue
			}
			seen[refundID] = true
			if err := s.index.Put(ctx, refundID, a.EntityID); err != nil {
				return indexed, fmt.Errorf("indexing refund %s: %w", refundID, err)
			}
			indexed++
		}
	}
	return indexed, nil
}

func encode(record *entities.CorrelationRecord) (string, error) {
	doc := document{
		Version:         entities.SchemaCurrent,
		GatewayOrderId:  record.GatewayOrderID,
		AuthorizationId: record.AuthorizationID,
		CaptureId:       record.CaptureID,
		RefundIds:       record.RefundIDs,
		SettledRefunds:  record.SettledRefundIDs,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding correlation record: %w", err)
	}
	return string(raw), nil
}

func decode(raw string) (*entities.CorrelationRecord, error) {
	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", internalErrors.ErrCorruptRecord, err)
	}
	if doc.Version != entities.SchemaCurrent {
		return nil, fmt.Errorf("%w: unsupported version %d", internalErrors.ErrCorruptRecord, doc.Version)
	}

	record := &entities.CorrelationRecord{
		GatewayOrderID:  doc.GatewayOrderId,
		AuthorizationID: doc.AuthorizationId,
		CaptureID:       doc.CaptureId,
		Version:         entities.SchemaCurrent,
	}
	for _, refundID := range doc.RefundIds {
		record.AddRefundID(refundID)
	}
	for _, refundID := range doc.SettledRefunds {
		record.SettleRefundID(refundID)
	}
	return record, nil
}
