package orders

import (
	"context"
	"time"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
	"github.com/Code-minner/symbolStores-sub001/internal/pricing"
)

var testPricing = pricing.Config{
	FreeShippingThreshold: 990000,
	BaseShippingCost:      15000,
	TaxRate:               0.075,
	Currency:              "NGN",
}

var testBank = BankDetails{
	BankName:      "First Bank",
	AccountName:   "Symbol Stores Ltd",
	AccountNumber: "0123456789",
}

// fakeStore keeps orders in a map and applies transitions with the same
// guard the Mongo adapter enforces in its conditional update.
type fakeStore struct {
	orders map[string]*models.Order

	reserveResult []models.OrderItem
	reserveErr    error
	insertErr     error

	released    [][]models.OrderItem
	findCalls   int
	transitions []Transition
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: map[string]*models.Order{}}
}

func (f *fakeStore) Insert(_ context.Context, order *models.Order) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	copied := *order
	f.orders[order.OrderID] = &copied
	return nil
}

func (f *fakeStore) FindByOrderID(_ context.Context, orderID string) (*models.Order, error) {
	f.findCalls++
	order, ok := f.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeStore) FindByReference(_ context.Context, reference, paymentMethod string) (*models.Order, error) {
	f.findCalls++
	for _, order := range f.orders {
		if order.TransactionReference == reference && order.PaymentMethod == paymentMethod {
			copied := *order
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) Transition(_ context.Context, t Transition) error {
	f.transitions = append(f.transitions, t)
	order, ok := f.orders[t.OrderID]
	if !ok {
		return ErrConflict
	}
	legal := false
	for _, from := range t.From {
		if order.Status == from {
			legal = true
			break
		}
	}
	if !legal || order.PaymentVerified {
		return ErrConflict
	}

	order.Status = t.To
	order.UpdatedAt = t.Event.At
	order.History = append(order.History, t.Event)
	for k, v := range t.Set {
		switch k {
		case "paymentVerified":
			order.PaymentVerified = v.(bool)
		case "verification":
			order.Verification = v.(models.OrderVerification)
		case "transactionReference":
			order.TransactionReference = v.(string)
		case "gatewayTransactionId":
			order.GatewayTransactionID = v.(string)
		case "failureReason":
			order.FailureReason = v.(string)
		case "rejectionReason":
			order.RejectionReason = v.(string)
		case "customerNotes":
			order.CustomerNotes = v.(string)
		case "proofPath":
			order.ProofPath = v.(string)
		case "submittedAmount":
			order.SubmittedAmount = v.(float64)
		}
	}
	return nil
}

func (f *fakeStore) ReserveItems(_ context.Context, items []ItemRequest) ([]models.OrderItem, error) {
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}
	return f.reserveResult, nil
}

func (f *fakeStore) ReleaseStock(_ context.Context, items []models.OrderItem) error {
	f.released = append(f.released, items)
	return nil
}

func (f *fakeStore) FindStale(_ context.Context, statuses []string, before time.Time) ([]models.Order, error) {
	var stale []models.Order
	for _, order := range f.orders {
		for _, status := range statuses {
			if order.Status == status && order.CreatedAt.Before(before) {
				stale = append(stale, *order)
			}
		}
	}
	return stale, nil
}

type fakeNotifier struct {
	failSends bool

	instructions  int
	confirmations int
	rejections    int
	failures      int
	adminRequests int
	adminNotices  int
}

func (f *fakeNotifier) result(kind, recipient string) EmailResult {
	if f.failSends {
		return EmailResult{Type: kind, Recipient: recipient, Sent: false, Error: "smtp unavailable"}
	}
	return EmailResult{Type: kind, Recipient: recipient, Sent: true}
}

func (f *fakeNotifier) SendBankTransferInstructions(order *models.Order, _ BankDetails) EmailResult {
	f.instructions++
	return f.result("bank_transfer_instructions", order.Customer.Email)
}

func (f *fakeNotifier) SendOrderConfirmation(order *models.Order) EmailResult {
	f.confirmations++
	return f.result("order_confirmation", order.Customer.Email)
}

func (f *fakeNotifier) SendPaymentRejected(order *models.Order, _ string) EmailResult {
	f.rejections++
	return f.result("payment_rejected", order.Customer.Email)
}

func (f *fakeNotifier) SendPaymentFailed(order *models.Order, _ string) EmailResult {
	f.failures++
	return f.result("payment_failed", order.Customer.Email)
}

func (f *fakeNotifier) SendAdminVerificationRequest(order *models.Order) EmailResult {
	f.adminRequests++
	return f.result("admin_verification_request", "admin")
}

func (f *fakeNotifier) SendAdminOrderNotice(order *models.Order) EmailResult {
	f.adminNotices++
	return f.result("admin_order_notice", "admin")
}

type fakeVerifier struct {
	result VerificationResult
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (VerificationResult, error) {
	f.calls++
	return f.result, f.err
}

func newTestService(store *fakeStore, notifier *fakeNotifier, verifier *fakeVerifier) *Service {
	svc := NewService(store, notifier, verifier, testPricing, testBank)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	return svc
}

func testItems() []models.OrderItem {
	return []models.OrderItem{{Name: "Generator", UnitAmount: 985000, Quantity: 1}}
}

// testTotal is ComputeTotals(testItems, testPricing).FinalTotal:
// 985000 + 15000 shipping + 73880 tax = 1073880.
const testTotal = 1073880.0

func seedOrder(store *fakeStore, orderID, method, status string) *models.Order {
	order := &models.Order{
		OrderID:       orderID,
		PaymentMethod: method,
		Status:        status,
		Customer: models.OrderCustomer{
			Name:  "Ada Obi",
			Email: "ada@example.com",
			Phone: "+2348012345678",
		},
		Items:     testItems(),
		Amounts:   pricing.ComputeTotals(testItems(), testPricing),
		CreatedAt: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	}
	if method == models.PaymentMethodGateway {
		order.TransactionReference = "TXR-" + orderID
	}
	store.orders[orderID] = order
	return order
}
