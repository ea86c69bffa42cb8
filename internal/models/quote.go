package models

import "fmt"

// PriceQuote is the server's authoritative pricing for a cart snapshot.
// All amounts are in cents.
type PriceQuote struct {
	SubtotalCents   int `json:"subtotal_cents"`
	ServiceFeeCents int `json:"service_fee_cents"`
	TotalCents      int `json:"total_cents"`
}

// Validate enforces total = subtotal + service fee
func (q PriceQuote) Validate() error {
	if q.SubtotalCents < 0 || q.ServiceFeeCents < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidQuote)
	}
	if q.TotalCents != q.SubtotalCents+q.ServiceFeeCents {
		return ErrInvalidQuote
	}
	return nil
}

// Subtotal returns the formatted subtotal
func (q PriceQuote) Subtotal() string {
	return FormatCents(q.SubtotalCents)
}

// ServiceFee returns the formatted service fee
func (q PriceQuote) ServiceFee() string {
	return FormatCents(q.ServiceFeeCents)
}

// Total returns the formatted total
func (q PriceQuote) Total() string {
	return FormatCents(q.TotalCents)
}

// FormatCents renders an amount in cents as dollars, e.g. 4300 -> "$43.00"
func FormatCents(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
