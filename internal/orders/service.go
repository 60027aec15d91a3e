// Package orders implements the order lifecycle: creation, the payment
// verification state machine for both payment rails, and admin adjudication.
// Every monetary figure flowing through here comes from the pricing package;
// client-supplied amounts are never authoritative.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
	"github.com/Code-minner/symbolStores-sub001/internal/pricing"
)

// ItemRequest is one cart line as submitted by the client. Quantity is
// trusted; the unit price never is — it is resolved from the product
// catalog at reservation time.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// Transition describes a guarded status change: the write succeeds only if
// the order's current status is in From and paymentVerified is still false.
type Transition struct {
	OrderID string
	From    []string
	To      string
	Set     map[string]interface{}
	Event   models.OrderEvent
}

// Store is the order persistence surface the engine needs. The Mongo
// implementation lives in internal/store.
type Store interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	// FindByReference looks up an order of the given payment method by its
	// transaction reference. Returns ErrNotFound when absent.
	FindByReference(ctx context.Context, reference, paymentMethod string) (*models.Order, error)
	// Transition applies a conditional status update. Returns ErrConflict
	// when no document matched the guard.
	Transition(ctx context.Context, t Transition) error
	// ReserveItems resolves prices and decrements stock for the requested
	// lines atomically, returning the priced order items.
	ReserveItems(ctx context.Context, items []ItemRequest) ([]models.OrderItem, error)
	// ReleaseStock returns reserved quantities to the catalog.
	ReleaseStock(ctx context.Context, items []models.OrderItem) error
	// FindStale lists orders still in one of the given statuses created
	// before the cutoff.
	FindStale(ctx context.Context, statuses []string, before time.Time) ([]models.Order, error)
}

// EmailResult reports one attempted send. Email is best effort: results are
// returned for visibility, never used to roll back a state change.
type EmailResult struct {
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

// Notifier delivers lifecycle emails. Implementations must not block
// state transitions on delivery failure.
type Notifier interface {
	SendBankTransferInstructions(order *models.Order, bank BankDetails) EmailResult
	SendOrderConfirmation(order *models.Order) EmailResult
	SendPaymentRejected(order *models.Order, reason string) EmailResult
	SendPaymentFailed(order *models.Order, reason string) EmailResult
	SendAdminVerificationRequest(order *models.Order) EmailResult
	SendAdminOrderNotice(order *models.Order) EmailResult
}

// VerificationResult is the gateway's authoritative answer for one
// transaction.
type VerificationResult struct {
	Status   string
	Amount   float64
	Currency string
	TxRef    string
}

// Verifier queries the external payment gateway for a transaction's status.
type Verifier interface {
	Verify(ctx context.Context, transactionID string) (VerificationResult, error)
}

// GatewaySuccessStatus is the one literal status value the gateway reports
// for a settled transaction. Anything else, including "pending", is
// non-success.
const GatewaySuccessStatus = "successful"

// BankDetails is the destination account shown to bank-transfer customers.
type BankDetails struct {
	BankName      string `json:"bankName"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
}

// Service wires the engine's collaborators together.
type Service struct {
	store    Store
	notifier Notifier
	verifier Verifier
	pricing  pricing.Config
	bank     BankDetails
	now      func() time.Time
}

func NewService(store Store, notifier Notifier, verifier Verifier, pricingCfg pricing.Config, bank BankDetails) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		verifier: verifier,
		pricing:  pricingCfg,
		bank:     bank,
		now:      time.Now,
	}
}

// PricingConfig exposes the monetary constants the service was built with.
func (s *Service) PricingConfig() pricing.Config { return s.pricing }

// Bank returns the transfer destination details included in bank-transfer
// instructions.
func (s *Service) Bank() BankDetails { return s.bank }

// NewOrderID builds a client-visible order id: timestamp plus a short
// random suffix, e.g. ORD-20260831142957-7F3A2C.
func NewOrderID(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102150405"), suffix)
}

// GetByOrderID loads one order. Used by tracking and the admin detail view.
func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, ValidationError{Msg: "orderId is required"}
	}
	return s.store.FindByOrderID(ctx, orderID)
}

// GetByReference loads one order by transaction reference.
func (s *Service) GetByReference(ctx context.Context, reference, paymentMethod string) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ValidationError{Msg: "reference is required"}
	}
	return s.store.FindByReference(ctx, reference, paymentMethod)
}
