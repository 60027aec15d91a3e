package pricing

import (
	"math"
	"testing"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
)

var testConfig = Config{
	FreeShippingThreshold: 990000,
	BaseShippingCost:      15000,
	TaxRate:               0.075,
	Currency:              "NGN",
}

func TestRoundUp10Properties(t *testing.T) {
	inputs := []float64{0, 1, 9.99, 10, 10.01, 123, 985000, 989999.5, 1234567.89}
	for _, x := range inputs {
		got := RoundUp10(x)
		if math.Mod(got, 10) != 0 {
			t.Fatalf("RoundUp10(%v) = %v, not a multiple of 10", x, got)
		}
		if got < x {
			t.Fatalf("RoundUp10(%v) = %v, less than input", x, got)
		}
		if got-x >= 10 {
			t.Fatalf("RoundUp10(%v) = %v, overshot by a full step", x, got)
		}
	}
}

func TestRoundUp10ExactMultipleUnchanged(t *testing.T) {
	if got := RoundUp10(990000); got != 990000 {
		t.Fatalf("expected exact multiple to be unchanged, got %v", got)
	}
}

func TestComputeTotalsRoundsPerLineBeforeSumming(t *testing.T) {
	// Two lines of 12,345 each: per-line rounding gives 12,350 + 12,350,
	// not RoundUp10(24,690) = 24,690.
	items := []models.OrderItem{
		{UnitAmount: 12345, Quantity: 1},
		{UnitAmount: 12345, Quantity: 1},
	}
	amounts := ComputeTotals(items, testConfig)
	if amounts.Subtotal != 24700 {
		t.Fatalf("expected per-line rounded subtotal 24700, got %v", amounts.Subtotal)
	}
}

func TestComputeTotalsDeterministic(t *testing.T) {
	items := []models.OrderItem{
		{UnitAmount: 4999, Quantity: 3},
		{UnitAmount: 125000, Quantity: 2},
	}
	first := ComputeTotals(items, testConfig)
	second := ComputeTotals(items, testConfig)
	if first != second {
		t.Fatalf("expected identical output, got %+v then %+v", first, second)
	}
}

func TestComputeTotalsFreeShippingAtThreshold(t *testing.T) {
	items := []models.OrderItem{{UnitAmount: 990000, Quantity: 1}}
	amounts := ComputeTotals(items, testConfig)
	if !amounts.IsFreeShipping {
		t.Fatal("expected free shipping at exactly the threshold")
	}
	if amounts.ShippingCost != 0 {
		t.Fatalf("expected zero shipping, got %v", amounts.ShippingCost)
	}
}

func TestComputeTotalsChargesShippingBelowThreshold(t *testing.T) {
	// 985,000 is below the 990,000 threshold.
	items := []models.OrderItem{{UnitAmount: 985000, Quantity: 1}}
	amounts := ComputeTotals(items, testConfig)
	if amounts.IsFreeShipping {
		t.Fatal("expected shipping to be charged below the threshold")
	}
	if amounts.ShippingCost != RoundUp10(testConfig.BaseShippingCost) {
		t.Fatalf("expected rounded base shipping, got %v", amounts.ShippingCost)
	}
	// tax = RoundUp10(985000 * 0.075) = 73880
	if amounts.TaxAmount != 73880 {
		t.Fatalf("expected tax 73880, got %v", amounts.TaxAmount)
	}
	want := RoundUp10(985000 + amounts.ShippingCost + amounts.TaxAmount)
	if amounts.FinalTotal != want {
		t.Fatalf("expected final total %v, got %v", want, amounts.FinalTotal)
	}
}

func TestComputeTotalsRecomputationMatchesCreation(t *testing.T) {
	// Verification recomputes from the stored items; for any item list the
	// result must equal what creation computed.
	items := []models.OrderItem{
		{UnitAmount: 985000, Quantity: 1},
		{UnitAmount: 1234.56, Quantity: 4},
	}
	atCreation := ComputeTotals(items, testConfig)
	atVerification := ComputeTotals(items, testConfig)
	if !AmountsEqual(atCreation.FinalTotal, atVerification.FinalTotal) {
		t.Fatalf("recomputed total %v does not match creation total %v",
			atVerification.FinalTotal, atCreation.FinalTotal)
	}
	if atCreation.FinalTotal != atVerification.FinalTotal {
		t.Fatalf("expected exact equality, got %v vs %v",
			atCreation.FinalTotal, atVerification.FinalTotal)
	}
}

func TestComputeTotalsEmptyItems(t *testing.T) {
	amounts := ComputeTotals(nil, testConfig)
	if amounts.Subtotal != 0 {
		t.Fatalf("expected zero subtotal for empty items, got %v", amounts.Subtotal)
	}
}

func TestAmountsEqualRoundsBothSides(t *testing.T) {
	if !AmountsEqual(985001, 985010) {
		t.Fatal("expected amounts that round to the same value to be equal")
	}
	if AmountsEqual(985010, 985020) {
		t.Fatal("expected different rounded amounts to be unequal")
	}
}
