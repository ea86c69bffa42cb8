package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// MaxQuantity is the largest number of tickets of one type a cart line may hold
const MaxQuantity = 10

// Quantity is a validated ticket count for a single cart line
type Quantity int

// NewQuantity returns n as a Quantity if it lies within 1..MaxQuantity
func NewQuantity(n int) (Quantity, error) {
	q := Quantity(n)
	if err := q.Validate(); err != nil {
		return 0, err
	}
	return q, nil
}

// Validate checks the quantity bounds
func (q Quantity) Validate() error {
	if q < 1 || q > MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// CartItem represents a requested ticket purchase
type CartItem struct {
	TicketTypeID string   `json:"ticket_type_id" validate:"required"`
	Quantity     Quantity `json:"quantity" validate:"min=1,max=10"`
}

// Validate validates a single cart line
func (i CartItem) Validate() error {
	if strings.TrimSpace(i.TicketTypeID) == "" {
		return fmt.Errorf("%w: ticket type id is required", ErrInvalidInput)
	}
	return i.Quantity.Validate()
}

// Cart is the ordered selection for the active checkout
type Cart struct {
	Items []CartItem `json:"items"`
}

// IsEmpty reports whether the cart holds no items
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalQuantity returns the number of tickets across all lines
func (c Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += int(item.Quantity)
	}
	return total
}

// Fingerprint identifies the cart snapshot. Two carts with the same lines in the
// same order share a fingerprint; an empty cart has none.
func (c Cart) Fingerprint() string {
	if c.IsEmpty() {
		return ""
	}

	h := sha256.New()
	for _, item := range c.Items {
		fmt.Fprintf(h, "%s:%d;", item.TicketTypeID, item.Quantity)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Clone returns a copy that shares no backing array with c
func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{}
	}
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}
