package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment methods an order can be created with.
const (
	PaymentMethodGateway      = "gateway"
	PaymentMethodBankTransfer = "bank_transfer"
)

// Order status values. These strings are part of the external contract
// (the tracking page renders them) and must not be renamed.
const (
	StatusPending             = "pending"
	StatusPendingPayment      = "pending_payment"
	StatusPendingVerification = "pending_verification"
	StatusPaymentSubmitted    = "payment_submitted"
	StatusConfirmed           = "confirmed"
	StatusFailed              = "failed"
	StatusPaymentRejected     = "payment_rejected"
	StatusExpired             = "expired"
)

// IsTerminalStatus reports whether no further transition is legal from s.
func IsTerminalStatus(s string) bool {
	switch s {
	case StatusConfirmed, StatusFailed, StatusPaymentRejected, StatusExpired:
		return true
	}
	return false
}

// OrderItem is a single product line, frozen at creation time. Items are
// never mutated after the order is created; a price or quantity change
// requires a new order.
type OrderItem struct {
	ProductID  primitive.ObjectID `bson:"productId" json:"productId"`
	Name       string             `bson:"name" json:"name"`
	SKU        string             `bson:"sku,omitempty" json:"sku,omitempty"`
	UnitAmount float64            `bson:"unitAmount" json:"unitAmount"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	ImagePath  string             `bson:"imagePath,omitempty" json:"imagePath,omitempty"`
}

// OrderCustomer holds the contact details attached to an order. Email is the
// durable identity key for guest order history and is always required.
type OrderCustomer struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Phone   string `bson:"phone" json:"phone"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// OrderAmounts is the monetary breakdown derived by the pricing package at
// creation and re-derived (never trusted from the client) at verification.
type OrderAmounts struct {
	Subtotal       float64 `bson:"subtotal" json:"subtotal"`
	ShippingCost   float64 `bson:"shippingCost" json:"shippingCost"`
	TaxAmount      float64 `bson:"taxAmount" json:"taxAmount"`
	FinalTotal     float64 `bson:"finalTotal" json:"finalTotal"`
	IsFreeShipping bool    `bson:"isFreeShipping" json:"isFreeShipping"`
	Currency       string  `bson:"currency" json:"currency"`
}

// OrderVerification records how an order reached a terminal payment state.
type OrderVerification struct {
	Method     string    `bson:"method,omitempty" json:"method,omitempty"`
	Notes      string    `bson:"notes,omitempty" json:"notes,omitempty"`
	VerifiedAt time.Time `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	VerifiedBy string    `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
}

// OrderEvent is one entry of the order's activity timeline.
type OrderEvent struct {
	Status string    `bson:"status" json:"status"`
	Note   string    `bson:"note,omitempty" json:"note,omitempty"`
	At     time.Time `bson:"at" json:"at"`
}

// Order is the persisted order document, canonical for both payment
// methods and tagged by PaymentMethod.
type Order struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID       string              `bson:"orderId" json:"orderId"`
	UserID        *primitive.ObjectID `bson:"userId" json:"userId"`
	PaymentMethod string              `bson:"paymentMethod" json:"paymentMethod"`
	Status        string              `bson:"status" json:"status"`

	// TransactionReference is the gateway tx_ref for gateway orders, or the
	// customer-submitted bank reference once one has been accepted.
	TransactionReference string `bson:"transactionReference,omitempty" json:"transactionReference,omitempty"`
	// GatewayTransactionID is the gateway's own transaction id, recorded at
	// verification time.
	GatewayTransactionID string `bson:"gatewayTransactionId,omitempty" json:"gatewayTransactionId,omitempty"`

	Customer OrderCustomer `bson:"customer" json:"customer"`
	Items    []OrderItem   `bson:"items" json:"items"`
	Amounts  OrderAmounts  `bson:"amounts" json:"amounts"`

	PaymentVerified bool              `bson:"paymentVerified" json:"paymentVerified"`
	Verification    OrderVerification `bson:"verification,omitempty" json:"verification,omitempty"`

	// SubmittedAmount is what the customer claims to have transferred on the
	// bank path. Informational only; never used as the authoritative total.
	SubmittedAmount float64 `bson:"submittedAmount,omitempty" json:"submittedAmount,omitempty"`
	CustomerNotes   string  `bson:"customerNotes,omitempty" json:"customerNotes,omitempty"`
	RejectionReason string  `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	FailureReason   string  `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	ProofPath       string  `bson:"proofPath,omitempty" json:"proofPath,omitempty"`

	History []OrderEvent `bson:"history,omitempty" json:"history,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
