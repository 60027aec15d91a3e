package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
	"github.com/Code-minner/symbolStores-sub001/internal/pricing"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CustomerInput is the contact block required on every order, guest or not.
type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// CreateGatewayOrderInput creates an order headed for hosted gateway
// checkout. The storefront mints the order id and tx_ref before redirecting,
// so both arrive from the client; amounts never do.
type CreateGatewayOrderInput struct {
	OrderID  string
	TxRef    string
	Customer CustomerInput
	Items    []ItemRequest
	UserID   *primitive.ObjectID
}

// CreateBankTransferOrderInput creates a manual bank-transfer order. The
// server generates the order id; the transaction reference arrives later
// from the customer.
type CreateBankTransferOrderInput struct {
	Customer CustomerInput
	Items    []ItemRequest
	UserID   *primitive.ObjectID
}

func validateCustomer(c CustomerInput) error {
	if strings.TrimSpace(c.Name) == "" {
		return ValidationError{Msg: "customer name is required"}
	}
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" || !emailPattern.MatchString(email) {
		return ValidationError{Msg: "a valid customer email is required"}
	}
	if strings.TrimSpace(c.Phone) == "" {
		return ValidationError{Msg: "customer phone is required"}
	}
	return nil
}

func validateItems(items []ItemRequest) error {
	if len(items) == 0 {
		return ValidationError{Msg: "at least one item is required"}
	}
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return ValidationError{Msg: "productId is required on every item"}
		}
		if item.Quantity <= 0 {
			return ValidationError{Msg: "quantity must be greater than zero"}
		}
	}
	return nil
}

func normalizeCustomer(c CustomerInput) models.OrderCustomer {
	return models.OrderCustomer{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
}

// priceAndReserve reserves stock for the cart, computes the authoritative
// amounts, and rolls the reservation back if the priced cart is unsellable.
func (s *Service) priceAndReserve(ctx context.Context, items []ItemRequest) ([]models.OrderItem, models.OrderAmounts, error) {
	priced, err := s.store.ReserveItems(ctx, items)
	if err != nil {
		return nil, models.OrderAmounts{}, err
	}

	amounts := pricing.ComputeTotals(priced, s.pricing)
	if amounts.Subtotal <= 0 || amounts.FinalTotal <= 0 {
		if relErr := s.store.ReleaseStock(ctx, priced); relErr != nil {
			log.Printf("[ORDER] [ERROR] releasing stock after zero-total cart: %v", relErr)
		}
		return nil, models.OrderAmounts{}, ValidationError{Msg: "order total must be greater than zero"}
	}
	return priced, amounts, nil
}

// CreateGatewayOrder validates, prices, and persists a gateway order in its
// initial pending state. The caller then redirects the customer to hosted
// checkout; verification happens later through VerifyGatewayPayment.
func (s *Service) CreateGatewayOrder(ctx context.Context, in CreateGatewayOrderInput) (*models.Order, error) {
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}
	if err := validateCustomer(in.Customer); err != nil {
		return nil, err
	}
	txRef := strings.TrimSpace(in.TxRef)
	if txRef == "" {
		return nil, ValidationError{Msg: "txRef is required"}
	}

	now := s.now()
	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		orderID = NewOrderID(now)
	}

	// A tx_ref must map to exactly one order; a resubmitted checkout must
	// not mint a second one.
	if existing, err := s.store.FindByReference(ctx, txRef, models.PaymentMethodGateway); err == nil && existing != nil {
		return nil, fmt.Errorf("txRef %s already belongs to order %s: %w", txRef, existing.OrderID, ErrDuplicateReference)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	priced, amounts, err := s.priceAndReserve(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderID:              orderID,
		UserID:               in.UserID,
		PaymentMethod:        models.PaymentMethodGateway,
		Status:               models.StatusPending,
		TransactionReference: txRef,
		Customer:             normalizeCustomer(in.Customer),
		Items:                priced,
		Amounts:              amounts,
		PaymentVerified:      false,
		History: []models.OrderEvent{
			{Status: models.StatusPending, Note: "order created, awaiting gateway payment", At: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, order); err != nil {
		if relErr := s.store.ReleaseStock(ctx, priced); relErr != nil {
			log.Printf("[ORDER] [ERROR] releasing stock after failed insert %s: %v", orderID, relErr)
		}
		return nil, err
	}

	log.Printf("[ORDER] [INFO] gateway order %s created, total %.2f %s txRef=%s",
		orderID, amounts.FinalTotal, amounts.Currency, txRef)
	return order, nil
}

// CreateBankTransferOrder validates, prices, and persists a bank-transfer
// order in pending_payment, then emails transfer instructions. The email is
// best effort: the order exists even if the send fails.
func (s *Service) CreateBankTransferOrder(ctx context.Context, in CreateBankTransferOrderInput) (*models.Order, EmailResult, error) {
	if err := validateItems(in.Items); err != nil {
		return nil, EmailResult{}, err
	}
	if err := validateCustomer(in.Customer); err != nil {
		return nil, EmailResult{}, err
	}

	priced, amounts, err := s.priceAndReserve(ctx, in.Items)
	if err != nil {
		return nil, EmailResult{}, err
	}

	now := s.now()
	order := &models.Order{
		OrderID:         NewOrderID(now),
		UserID:          in.UserID,
		PaymentMethod:   models.PaymentMethodBankTransfer,
		Status:          models.StatusPendingPayment,
		Customer:        normalizeCustomer(in.Customer),
		Items:           priced,
		Amounts:         amounts,
		PaymentVerified: false,
		History: []models.OrderEvent{
			{Status: models.StatusPendingPayment, Note: "order created, awaiting bank transfer", At: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, order); err != nil {
		if relErr := s.store.ReleaseStock(ctx, priced); relErr != nil {
			log.Printf("[ORDER] [ERROR] releasing stock after failed insert %s: %v", order.OrderID, relErr)
		}
		return nil, EmailResult{}, err
	}

	result := s.notifier.SendBankTransferInstructions(order, s.bank)
	if !result.Sent {
		log.Printf("[ORDER] [WARN] instructions email failed for %s: %s", order.OrderID, result.Error)
	}

	log.Printf("[ORDER] [INFO] bank transfer order %s created, total %.2f %s",
		order.OrderID, amounts.FinalTotal, amounts.Currency)
	return order, result, nil
}
