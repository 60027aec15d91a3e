// Package pricing is the single implementation of the store's monetary
// rules. Order creation, payment verification, and tracking all import it;
// nothing else in the repo is allowed to round or total amounts.
package pricing

import (
	"math"

	"github.com/Code-minner/symbolStores-sub001/internal/models"
)

// Epsilon is the allowed slack when comparing two rounded amounts. Rounding
// makes matching amounts exactly equal; this only absorbs float64 noise.
const Epsilon = 0.01

// Config carries the storefront's monetary constants.
type Config struct {
	FreeShippingThreshold float64
	BaseShippingCost      float64
	TaxRate               float64
	Currency              string
}

// RoundUp10 rounds x up to the next multiple of 10. This must match the
// rounding the storefront showed the customer, so it is applied per line
// before summing, never once at the end.
func RoundUp10(x float64) float64 {
	return math.Ceil(x/10) * 10
}

// ComputeTotals derives the full monetary breakdown for a list of items.
// It is pure and total; an empty item list yields a zero subtotal, which
// callers must reject as invalid input.
func ComputeTotals(items []models.OrderItem, cfg Config) models.OrderAmounts {
	var subtotal float64
	for _, item := range items {
		subtotal += RoundUp10(item.UnitAmount * float64(item.Quantity))
	}

	free := subtotal >= cfg.FreeShippingThreshold
	shipping := 0.0
	if !free {
		shipping = RoundUp10(cfg.BaseShippingCost)
	}

	tax := RoundUp10(subtotal * cfg.TaxRate)

	return models.OrderAmounts{
		Subtotal:       subtotal,
		ShippingCost:   shipping,
		TaxAmount:      tax,
		FinalTotal:     RoundUp10(subtotal + shipping + tax),
		IsFreeShipping: free,
		Currency:       cfg.Currency,
	}
}

// AmountsEqual compares two amounts after rounding both sides with RoundUp10.
func AmountsEqual(a, b float64) bool {
	return math.Abs(RoundUp10(a)-RoundUp10(b)) < Epsilon
}
