package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
	"github.com/Code-minner/symbolStores-sub001/internal/pricing"
)

func validCustomer() CustomerInput {
	return CustomerInput{
		Name:  "Ada Obi",
		Email: "ada@example.com",
		Phone: "+2348012345678",
	}
}

func TestCreateBankTransferOrder(t *testing.T) {
	store := newFakeStore()
	store.reserveResult = testItems()
	notifier := &fakeNotifier{}
	svc := newTestService(store, notifier, &fakeVerifier{})

	order, result, err := svc.CreateBankTransferOrder(context.Background(), CreateBankTransferOrderInput{
		Customer: validCustomer(),
		Items:    []ItemRequest{{ProductID: "64f000000000000000000001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != models.StatusPendingPayment {
		t.Fatalf("expected pending_payment, got %s", order.Status)
	}
	if order.PaymentVerified {
		t.Fatal("new order must not be verified")
	}
	if order.Amounts.FinalTotal != testTotal {
		t.Fatalf("expected total %v, got %v", testTotal, order.Amounts.FinalTotal)
	}
	if order.OrderID == "" {
		t.Fatal("order id must be generated")
	}
	if notifier.instructions != 1 || !result.Sent {
		t.Fatalf("expected instructions email, got %d sends", notifier.instructions)
	}
	if _, ok := store.orders[order.OrderID]; !ok {
		t.Fatal("order not persisted")
	}
}

func TestCreateGatewayOrder(t *testing.T) {
	store := newFakeStore()
	store.reserveResult = testItems()
	svc := newTestService(store, &fakeNotifier{}, &fakeVerifier{})

	order, err := svc.CreateGatewayOrder(context.Background(), CreateGatewayOrderInput{
		OrderID:  "ORD-20260831120000-AAAAAA",
		TxRef:    "TXR-144556",
		Customer: validCustomer(),
		Items:    []ItemRequest{{ProductID: "64f000000000000000000001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != models.StatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.TransactionReference != "TXR-144556" {
		t.Fatalf("tx_ref not stored, got %q", order.TransactionReference)
	}
	// Amounts are derived server-side at creation and must match what a
	// later verification recomputes from the stored items.
	recomputed := pricing.ComputeTotals(order.Items, svc.PricingConfig())
	if order.Amounts.FinalTotal != recomputed.FinalTotal {
		t.Fatalf("creation total %v != recomputed %v", order.Amounts.FinalTotal, recomputed.FinalTotal)
	}
}

func TestCreateGatewayOrderDuplicateTxRef(t *testing.T) {
	store := newFakeStore()
	store.reserveResult = testItems()
	svc := newTestService(store, &fakeNotifier{}, &fakeVerifier{})
	seedOrder(store, "ORD-1", models.PaymentMethodGateway, models.StatusPending)

	_, err := svc.CreateGatewayOrder(context.Background(), CreateGatewayOrderInput{
		TxRef:    "TXR-ORD-1",
		Customer: validCustomer(),
		Items:    []ItemRequest{{ProductID: "64f000000000000000000001", Quantity: 1}},
	})
	if !errors.Is(err, ErrDuplicateReference) {
		t.Fatalf("expected ErrDuplicateReference, got %v", err)
	}
}

func TestCreateOrderEmptyItemsRejectedBeforeStore(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, &fakeVerifier{})

	_, _, err := svc.CreateBankTransferOrder(context.Background(), CreateBankTransferOrderInput{
		Customer: validCustomer(),
	})
	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if store.findCalls != 0 || len(store.orders) != 0 {
		t.Fatal("empty cart must be rejected before any store access")
	}
}

func TestCreateOrderInvalidEmail(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, &fakeVerifier{})

	customer := validCustomer()
	customer.Email = "not-an-email"
	_, _, err := svc.CreateBankTransferOrder(context.Background(), CreateBankTransferOrderInput{
		Customer: customer,
		Items:    []ItemRequest{{ProductID: "64f000000000000000000001", Quantity: 1}},
	})
	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Fatal("invalid customer must not produce an order")
	}
}

func TestCreateOrderZeroQuantity(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeNotifier{}, &fakeVerifier{})

	_, _, err := svc.CreateBankTransferOrder(context.Background(), CreateBankTransferOrderInput{
		Customer: validCustomer(),
		Items:    []ItemRequest{{ProductID: "64f000000000000000000001", Quantity: 0}},
	})
	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateOrderZeroTotalRejectedAndStockReleased(t *testing.T) {
	store := newFakeStore()
	store.reserveResult = []models.OrderItem{{Name: "Voucher", UnitAmount: 0, Quantity: 1}}
	svc := newTestService(store, &fakeNotifier{}, &fakeVerifier{})

	_, _, err := svc.CreateBankTransferOrder(context.Background(), CreateBankTransferOrderInput{
		Customer: validCustomer(),
		Items:    []ItemRequest{{ProductID: "64f000000000000000000001", Quantity: 1}},
	})
	var vErr ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Fatal("zero-total order must not be persisted")
	}
	if len(store.released) != 1 {
		t.Fatal("reserved stock must be returned when the cart is rejected")
	}
}

func TestCreateOrderOutOfStock(t *testing.T) {
	store := newFakeStore()
	store.reserveErr = OutOfStockError{ProductID: "64f000000000000000000001", Available: 1, Requested: 3}
	svc := newTestService(store, &fakeNotifier{}, &fakeVerifier{})

	_, _, err := svc.CreateBankTransferOrder(context.Background(), CreateBankTransferOrderInput{
		Customer: validCustomer(),
		Items:    []ItemRequest{{ProductID: "64f000000000000000000001", Quantity: 3}},
	})
	var stockErr OutOfStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Fatal("out-of-stock cart must not produce an order")
	}
}

func TestCreateBankTransferOrderSurvivesEmailFailure(t *testing.T) {
	store := newFakeStore()
	store.reserveResult = testItems()
	notifier := &fakeNotifier{failSends: true}
	svc := newTestService(store, notifier, &fakeVerifier{})

	order, result, err := svc.CreateBankTransferOrder(context.Background(), CreateBankTransferOrderInput{
		Customer: validCustomer(),
		Items:    []ItemRequest{{ProductID: "64f000000000000000000001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("order creation must not fail on email errors, got %v", err)
	}
	if result.Sent {
		t.Fatal("expected the email result to report the failure")
	}
	if _, ok := store.orders[order.OrderID]; !ok {
		t.Fatal("order must exist even when the instructions email fails")
	}
}

func TestNewOrderIDShape(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeNotifier{}, &fakeVerifier{})
	id := NewOrderID(svc.now())
	if len(id) != len("ORD-20060102150405-ABCDEF") {
		t.Fatalf("unexpected order id shape: %q", id)
	}
	if id[:4] != "ORD-" {
		t.Fatalf("expected ORD- prefix, got %q", id)
	}
	if id[4:18] != "20260831120000" {
		t.Fatalf("expected timestamp component, got %q", id[4:18])
	}
}
