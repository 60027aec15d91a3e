package mailer

import (
	"strings"
	"testing"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
	"github.com/Code-minner/symbolStores-sub001/internal/orders"
)

func TestBuildBankTransferInstructions(t *testing.T) {
	order := &models.Order{
		OrderID: "ORD-20260831120000-AAAAAA",
		Customer: models.OrderCustomer{
			Name:  "Ada Obi",
			Email: "ada@example.com",
		},
		Amounts: models.OrderAmounts{
			Subtotal:     985000,
			ShippingCost: 15000,
			TaxAmount:    73880,
			FinalTotal:   1073880,
			Currency:     "NGN",
		},
	}
	bank := orders.BankDetails{
		BankName:      "First Bank",
		AccountName:   "Symbol Stores Ltd",
		AccountNumber: "0123456789",
	}

	body := BuildBankTransferInstructions(order, bank)
	for _, want := range []string{
		"Ada Obi",
		"ORD-20260831120000-AAAAAA",
		"Total: 1073880.00 NGN",
		"Account number: 0123456789",
		"transaction reference",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("instructions missing %q:\n%s", want, body)
		}
	}
}

func TestBuildBankTransferInstructionsFreeShipping(t *testing.T) {
	order := &models.Order{
		Customer: models.OrderCustomer{Name: "Ada Obi"},
		Amounts: models.OrderAmounts{
			Subtotal:       990000,
			IsFreeShipping: true,
			Currency:       "NGN",
		},
	}
	body := BuildBankTransferInstructions(order, orders.BankDetails{})
	if !strings.Contains(body, "Shipping: FREE") {
		t.Fatalf("expected free shipping line, got:\n%s", body)
	}
}
