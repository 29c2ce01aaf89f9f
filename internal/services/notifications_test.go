package services

import (
	"context"
	"errors"
	"fmt"
	"notification-service/internal/config"
	"notification-service/internal/correlation"
	"notification-service/internal/dtos"
	"notification-service/internal/entities"
	internalErrors "notification-service/internal/errors"
	"notification-service/internal/inbox"
	"notification-service/internal/localization"
	"notification-service/internal/orders"
	"sync"
	"testing"
	"time"
)

type serviceFixture struct {
	*fixture
	inbox   *inbox.MemoryInbox
	service *NotificationService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := newFixture(t)
	catalog, err := localization.DefaultCatalog()
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	in := inbox.NewMemoryInbox(config.DefaultClaimTTL)
	annotator := newAnnotator(t, f.orders, catalog.For("en"))
	service := NewNotificationService(f.matcher(), annotator, NewCorrelationRecorder(f.store), f.orders, in,
		WithOrderLocker(correlation.NewKeyedMutex()))
	service.now = func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) }
	return &serviceFixture{fixture: f, inbox: in, service: service}
}

func (f *serviceFixture) handle(t *testing.T, n dtos.Notification) Outcome {
	t.Helper()
	outcome, err := f.service.Handle(context.Background(), n)
	if err != nil {
		t.Fatalf("Handle(%+v) failed: %v", n, err)
	}
	return outcome
}

func (f *serviceFixture) summary(t *testing.T) *dtos.NotificationSummary {
	t.Helper()
	s, err := f.service.GetSummary(context.Background(), dtos.NotificationSummaryFilters{})
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	return s
}

func TestHandleAuthorization(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(t, &entities.Order{ID: 1, AuthorizationTransactionID: "A1", OrderTotal: amount("100")})

	outcome := f.handle(t, dtos.Notification{
		ID:              "n1",
		MessageType:     dtos.MessageAuthorization,
		AuthorizationID: "A1",
		GatewayOrderID:  "G1",
		State:           "Open",
	})

	if outcome.Status != StatusMatched || outcome.OrderID != 1 || outcome.Strategy != StrategyAuthorizationID {
		t.Fatalf("Unexpected outcome: %+v", outcome)
	}

	o := f.order(t, 1)
	if o.PaymentStatus != entities.PaymentStatusAuthorized {
		t.Errorf("PaymentStatus = %s, want Authorized", o.PaymentStatus)
	}
	if o.GatewayOrderID != "G1" {
		t.Errorf("GatewayOrderID = %q, want G1", o.GatewayOrderID)
	}
	if !o.HasNewPaymentNotification || len(o.Notes) != 1 {
		t.Errorf("Expected a flagged order with one note, got %+v", o)
	}
	want := icon + `<span style="padding-left: 4px;">Authorization notification received. Open</span>`
	if len(o.Notes) == 1 && o.Notes[0].Note != want {
		t.Errorf("Note = %q, want %q", o.Notes[0].Note, want)
	}

	rec := f.record(t, 1)
	if rec.AuthorizationID != "A1" || rec.GatewayOrderID != "G1" || rec.Version != entities.SchemaCurrent {
		t.Errorf("Unexpected correlation record: %+v", rec)
	}

	if got := f.summary(t).ByType["Authorization"]["matched"]; got != 1 {
		t.Errorf("Expected 1 matched authorization in summary, got %d", got)
	}
}

func TestHandleCaptureFallbackStoresCaptureID(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(t, &entities.Order{ID: 2, GatewayOrderID: "G2", PaymentStatus: entities.PaymentStatusAuthorized})

	outcome := f.handle(t, dtos.Notification{
		MessageType:    dtos.MessageCapture,
		CaptureID:      "C2",
		GatewayOrderID: "G2",
		State:          "Completed",
		Amount:         amount("25.00"),
		Currency:       "EUR",
	})
	if outcome.Strategy != StrategyGatewayOrderID {
		t.Fatalf("Strategy = %s, want gateway_order_id", outcome.Strategy)
	}

	o := f.order(t, 2)
	if o.PaymentStatus != entities.PaymentStatusPaid || o.CaptureTransactionID != "C2" {
		t.Errorf("Unexpected order after capture: %+v", o)
	}
	if rec := f.record(t, 2); rec.CaptureID != "C2" {
		t.Errorf("CaptureID = %q, want C2", rec.CaptureID)
	}

	// the stored capture id now matches directly
	outcome = f.handle(t, dtos.Notification{MessageType: dtos.MessageCapture, CaptureID: "C2", State: "Completed"})
	if outcome.OrderID != 2 || outcome.Strategy != StrategyCaptureID {
		t.Errorf("Unexpected outcome: %+v", outcome)
	}
}

func TestHandleRefunds(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(t, &entities.Order{ID: 1, GatewayOrderID: "G1", PaymentStatus: entities.PaymentStatusPaid, OrderTotal: amount("100")})
	f.seed(t, &entities.Order{ID: 2, GatewayOrderID: "G2", PaymentStatus: entities.PaymentStatusPaid, OrderTotal: amount("100")})

	recorder := NewCorrelationRecorder(f.store)
	if _, err := recorder.RecordRefund(context.Background(), f.order(t, 1), "r1"); err != nil {
		t.Fatalf("RecordRefund failed: %v", err)
	}
	if _, err := recorder.RecordRefund(context.Background(), f.order(t, 2), "r2"); err != nil {
		t.Fatalf("RecordRefund failed: %v", err)
	}

	outcome := f.handle(t, dtos.Notification{ID: "n1", MessageType: dtos.MessageRefund, RefundID: "r2", State: "Completed", Amount: amount("40")})
	if outcome.OrderID != 2 || outcome.Strategy != StrategyRefundID {
		t.Fatalf("Unexpected outcome: %+v", outcome)
	}
	o := f.order(t, 2)
	if o.PaymentStatus != entities.PaymentStatusPartiallyRefunded || !o.RefundedAmount.Equal(amount("40")) {
		t.Errorf("Unexpected order after partial refund: status %s refunded %s", o.PaymentStatus, o.RefundedAmount)
	}

	f.handle(t, dtos.Notification{ID: "n2", MessageType: dtos.MessageRefund, RefundID: "r3", GatewayOrderID: "G2", State: "Completed", Amount: amount("60")})
	o = f.order(t, 2)
	if o.PaymentStatus != entities.PaymentStatusRefunded || !o.RefundedAmount.Equal(amount("100")) {
		t.Errorf("Unexpected order after full refund: status %s refunded %s", o.PaymentStatus, o.RefundedAmount)
	}
	if rec := f.record(t, 2); len(rec.RefundIDs) != 2 {
		t.Errorf("RefundIDs = %v, want [r2 r3]", rec.RefundIDs)
	}

	if o1 := f.order(t, 1); o1.PaymentStatus != entities.PaymentStatusPaid || len(o1.Notes) != 0 {
		t.Errorf("Order 1 must be untouched, got %+v", o1)
	}

	// pending refunds are recorded but move no money
	f.handle(t, dtos.Notification{ID: "n3", MessageType: dtos.MessageRefund, RefundID: "r4", GatewayOrderID: "G1", State: "Pending", Amount: amount("10")})
	if o1 := f.order(t, 1); !o1.RefundedAmount.IsZero() || !f.record(t, 1).HasRefundID("r4") {
		t.Errorf("Unexpected order 1 after pending refund: %+v", o1)
	}
}

func TestHandleSuppressesDuplicates(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(t, &entities.Order{ID: 1, GatewayOrderID: "G1", PaymentStatus: entities.PaymentStatusPaid, OrderTotal: amount("100")})

	n := dtos.Notification{ID: "n1", MessageType: dtos.MessageRefund, RefundID: "r1", GatewayOrderID: "G1", State: "Completed", Amount: amount("30")}
	if outcome := f.handle(t, n); outcome.Status != StatusMatched {
		t.Fatalf("Expected first delivery to match, got %+v", outcome)
	}
	if outcome := f.handle(t, n); outcome.Status != StatusDuplicate {
		t.Fatalf("Expected redelivery to be a duplicate, got %+v", outcome)
	}

	o := f.order(t, 1)
	if !o.RefundedAmount.Equal(amount("30")) || len(o.Notes) != 1 {
		t.Errorf("Redelivery changed the order: refunded %s notes %d", o.RefundedAmount, len(o.Notes))
	}
	if s := f.summary(t); s.Total != 1 {
		t.Errorf("Expected 1 recorded notification, got %d", s.Total)
	}
}

func TestHandleUnknownTypeIsIgnored(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(t, &entities.Order{ID: 1, AuthorizationTransactionID: "A1", GatewayOrderID: "G1"})

	outcome := f.handle(t, dtos.Notification{
		ID:              "n1",
		MessageType:     dtos.ParseMessageType("ChargebackNotification"),
		AuthorizationID: "A1",
		GatewayOrderID:  "G1",
	})
	if outcome.Status != StatusIgnored || outcome.OrderID != 0 {
		t.Fatalf("Unexpected outcome: %+v", outcome)
	}

	o := f.order(t, 1)
	if len(o.Notes) != 0 || o.HasNewPaymentNotification {
		t.Errorf("Unknown type modified the order: %+v", o)
	}
	if rec := f.record(t, 1); !rec.IsEmpty() {
		t.Errorf("Unknown type wrote a correlation record: %+v", rec)
	}
	if got := f.summary(t).ByType["ChargebackNotification"]["ignored"]; got != 1 {
		t.Errorf("Expected the ignored notification to be recorded, got %d", got)
	}
}

func TestHandleNotFoundIsAcknowledged(t *testing.T) {
	f := newServiceFixture(t)

	outcome := f.handle(t, dtos.Notification{MessageType: dtos.MessageCapture, CaptureID: "C9"})
	if outcome.Status != StatusNotFound || outcome.Reason != "CaptureId C9" {
		t.Errorf("Unexpected outcome: %+v", outcome)
	}
}

func TestHandleRejectsMissingType(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Handle(context.Background(), dtos.Notification{ID: "n1"})
	if !errors.Is(err, internalErrors.ErrInvalidNotification) || !IsClientError(err) {
		t.Errorf("Expected ErrInvalidNotification, got %v", err)
	}
}

type failingMatcher struct {
	err error
}

func (m failingMatcher) Match(context.Context, dtos.Notification) (MatchResult, error) {
	return MatchResult{}, m.err
}

func TestHandleReleasesClaimOnError(t *testing.T) {
	f := newServiceFixture(t)
	boom := errors.New("database is locked")
	f.service.matcher = failingMatcher{err: boom}

	n := dtos.Notification{ID: "n1", MessageType: dtos.MessageCapture, CaptureID: "C1"}
	if _, err := f.service.Handle(context.Background(), n); !errors.Is(err, boom) {
		t.Fatalf("Expected storage error, got %v", err)
	}

	f.service.matcher = f.matcher()
	if outcome := f.handle(t, n); outcome.Status != StatusNotFound {
		t.Errorf("Expected redelivery to be processed, got %+v", outcome)
	}
}

type failingAnnotator struct{}

func (failingAnnotator) Annotate(_ context.Context, order *entities.Order, kind NoteKind, _ string, _ bool) error {
	return &AnnotationError{OrderID: order.ID, Kind: kind, Err: errors.New("template broken")}
}

func TestHandleDiscardsAnnotationErrors(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(t, &entities.Order{ID: 1, AuthorizationTransactionID: "A1"})
	f.service.annotator = failingAnnotator{}

	outcome := f.handle(t, dtos.Notification{MessageType: dtos.MessageAuthorization, AuthorizationID: "A1", State: "Open"})
	if outcome.Status != StatusMatched {
		t.Fatalf("Unexpected outcome: %+v", outcome)
	}
	if o := f.order(t, 1); o.PaymentStatus != entities.PaymentStatusAuthorized {
		t.Errorf("Business action must survive annotation failure, got %s", o.PaymentStatus)
	}
}

func TestGetCorrelation(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(t, &entities.Order{ID: 1, AuthorizationTransactionID: "A1"})
	f.handle(t, dtos.Notification{MessageType: dtos.MessageAuthorization, AuthorizationID: "A1", GatewayOrderID: "G1"})

	_, rec, err := f.service.GetCorrelation(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetCorrelation failed: %v", err)
	}
	if rec.GatewayOrderID != "G1" || rec.AuthorizationID != "A1" {
		t.Errorf("Unexpected record: %+v", rec)
	}

	if _, _, err := f.service.GetCorrelation(context.Background(), 404); !errors.Is(err, internalErrors.ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
}

func TestHandleRedeliveredRefundWithoutIDIsBookedOnce(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(t, &entities.Order{ID: 1, GatewayOrderID: "G1", PaymentStatus: entities.PaymentStatusPaid, OrderTotal: amount("100")})

	n := dtos.Notification{MessageType: dtos.MessageRefund, RefundID: "r1", GatewayOrderID: "G1", State: "Completed", Amount: amount("30")}
	for i := 0; i < 2; i++ {
		if outcome := f.handle(t, n); outcome.Status != StatusMatched {
			t.Fatalf("delivery %d: unexpected outcome %+v", i+1, outcome)
		}
	}

	o := f.order(t, 1)
	if !o.RefundedAmount.Equal(amount("30")) || o.PaymentStatus != entities.PaymentStatusPartiallyRefunded {
		t.Errorf("Expected 30 refunded once, got %s (%s)", o.RefundedAmount, o.PaymentStatus)
	}
	if rec := f.record(t, 1); !rec.IsRefundSettled("r1") {
		t.Errorf("Expected r1 to be settled, got %+v", rec)
	}

	// a completed refund without a refund id cannot be deduplicated and moves no money
	f.handle(t, dtos.Notification{MessageType: dtos.MessageRefund, GatewayOrderID: "G1", State: "Completed", Amount: amount("5")})
	if o := f.order(t, 1); !o.RefundedAmount.Equal(amount("30")) {
		t.Errorf("Refund without id was booked: %s", o.RefundedAmount)
	}
}

// slowOrders widens the window between reading and saving an order.
type slowOrders struct {
	*orders.MemoryRepository
	delay time.Duration
}

func (s slowOrders) FindByID(ctx context.Context, id int64) (*entities.Order, error) {
	time.Sleep(s.delay)
	return s.MemoryRepository.FindByID(ctx, id)
}

func (s slowOrders) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*entities.Order, error) {
	time.Sleep(s.delay)
	return s.MemoryRepository.FindByGatewayOrderID(ctx, gatewayOrderID)
}

func TestHandleConcurrentRefundsKeepOrderState(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(t, &entities.Order{ID: 1, GatewayOrderID: "G1", PaymentStatus: entities.PaymentStatusPaid, OrderTotal: amount("100")})

	slow := slowOrders{MemoryRepository: f.orders, delay: 20 * time.Millisecond}
	f.service.matcher = NewMatcher(slow, f.store, systemName)
	f.service.orders = slow

	const refunds = 10
	var wg sync.WaitGroup
	errs := make(chan error, refunds)
	for i := 0; i < refunds; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.Handle(context.Background(), dtos.Notification{
				ID:             fmt.Sprintf("n%02d", i),
				MessageType:    dtos.MessageRefund,
				RefundID:       fmt.Sprintf("r%02d", i),
				GatewayOrderID: "G1",
				State:          "Completed",
				Amount:         amount("1"),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
	}

	o := f.order(t, 1)
	if !o.RefundedAmount.Equal(amount("10")) {
		t.Errorf("RefundedAmount = %s, want 10", o.RefundedAmount)
	}
	if len(o.Notes) != refunds {
		t.Errorf("Expected %d notes, got %d", refunds, len(o.Notes))
	}
	if rec := f.record(t, 1); len(rec.SettledRefundIDs) != refunds {
		t.Errorf("Expected %d settled refunds, got %v", refunds, rec.SettledRefundIDs)
	}
}
